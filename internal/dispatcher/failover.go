package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/local/docsummarizer/internal/ai"
	cfgpkg "github.com/local/docsummarizer/internal/config"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// ErrExhausted is returned when every provider/model attempt failed or was skipped.
var ErrExhausted = errors.New("all providers exhausted")

type attempt struct {
	provider string
	model    string
}

// Failover sends a request through up to four provider/model attempts:
// primary provider primary model, primary provider secondary model,
// secondary provider primary model, secondary provider secondary model.
type Failover struct {
	conf    cfgpkg.ProvidersConfig
	clients map[string]ai.Client
	breaker Breaker
	slots   Slots
}

// Slots bounds concurrent calls per provider and model.
type Slots interface {
	Acquire(ctx context.Context, provider, model string) (func(), error)
}

// WithSlots makes every attempt wait for a free slot before calling the provider.
func (f *Failover) WithSlots(s Slots) *Failover {
	f.slots = s
	return f
}

// NewFailover registers the given clients by Name(). Nil clients are ignored.
func NewFailover(conf cfgpkg.ProvidersConfig, breaker Breaker, clients ...ai.Client) *Failover {
	if breaker == nil {
		breaker = NopBreaker{}
	}
	f := &Failover{conf: conf, clients: make(map[string]ai.Client), breaker: breaker}
	for _, c := range clients {
		if c != nil {
			f.clients[c.Name()] = c
		}
	}
	return f
}

// Ready reports whether at least one planned attempt has a client.
func (f *Failover) Ready() bool { return len(f.plan()) > 0 }

func (f *Failover) models(provider string) cfgpkg.ProviderModels {
	switch provider {
	case "openai":
		return f.conf.OpenAI
	case "anthropic":
		return f.conf.Anthropic
	}
	return cfgpkg.ProviderModels{}
}

func (f *Failover) plan() []attempt {
	var out []attempt
	seen := make(map[attempt]bool)
	for _, prov := range []string{f.conf.PrimaryEngine, f.conf.SecondaryEngine} {
		if _, ok := f.clients[prov]; !ok {
			continue
		}
		m := f.models(prov)
		for _, model := range []string{m.Primary, m.Secondary} {
			a := attempt{provider: prov, model: model}
			if model == "" || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

// Generate runs req through the attempt plan and returns the first success.
// Fatal errors stop the plan; transient errors open the breaker for that model.
func (f *Failover) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	plan := f.plan()
	var lastErr error

	for i, a := range plan {
		if err := ctx.Err(); err != nil {
			return ai.Response{}, err
		}
		if f.breaker.IsCircuitOpen(ctx, a.provider, a.model) {
			log.Debug().
				Str("provider", a.provider).
				Str("model", a.model).
				Msg("circuit breaker OPEN - skipping attempt")
			continue
		}

		log.Debug().
			Str("provider", a.provider).
			Str("model", a.model).
			Msgf("attempting model call [%d/%d]", i+1, len(plan))

		resp, err := f.call(ctx, a, req)
		if err == nil {
			f.breaker.CloseCircuitBreaker(ctx, a.provider, a.model)
			return resp, nil
		}
		if ctx.Err() != nil {
			return ai.Response{}, ctx.Err()
		}
		lastErr = err

		if isTransientError(err) {
			f.breaker.OpenCircuitBreaker(ctx, a.provider, a.model)
			log.Warn().
				Err(err).
				Str("provider", a.provider).
				Str("model", a.model).
				Msg("transient error - trying fallback")
			continue
		}
		if isFatalError(err) {
			log.Error().
				Err(err).
				Str("provider", a.provider).
				Str("model", a.model).
				Msg("fatal error - no retry")
			return ai.Response{}, err
		}
	}

	mpkg.ObserveProvider("all", "all", "exhausted", 0)
	if lastErr == nil {
		return ai.Response{}, ErrExhausted
	}
	return ai.Response{}, fmt.Errorf("%w: %w", ErrExhausted, lastErr)
}

// call performs one attempt with the per-request timeout.
func (f *Failover) call(ctx context.Context, a attempt, req ai.Request) (ai.Response, error) {
	timeout := f.conf.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if f.slots != nil {
		release, err := f.slots.Acquire(ctx, a.provider, a.model)
		if err != nil {
			return ai.Response{}, err
		}
		defer release()
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req.Model = a.model
	start := time.Now()
	resp, err := f.clients[a.provider].Do(cctx, req)
	dur := time.Since(start)

	if err != nil && cctx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		err = &RateLimitError{Provider: a.provider, Model: a.model, Reason: "timeout"}
	}

	result := classify(err)
	mpkg.ObserveProvider(a.provider, a.model, result, dur)

	if err != nil {
		log.Warn().
			Str("provider", a.provider).
			Str("model", a.model).
			Dur("duration", dur).
			Str("result", result).
			Err(err).
			Msg("AI provider call failed")
	} else {
		log.Debug().
			Str("provider", a.provider).
			Str("model", a.model).
			Dur("duration", dur).
			Int("tokens_in", resp.TokensIn).
			Int("tokens_out", resp.TokensOut).
			Msg("AI provider call success")
	}
	return resp, err
}
