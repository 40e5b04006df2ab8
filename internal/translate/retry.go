package translate

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	mpkg "github.com/local/docsummarizer/internal/metrics"
	"github.com/rs/zerolog/log"
)

// linearBackOff waits base*n before the n-th retry.
type linearBackOff struct {
	base time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.base * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

// RetryPolicy bounds attempts for simple backends.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: p.BaseDelay}, uint64(attempts-1)),
		ctx,
	)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}

// translateWithRetry returns the translation or Sentinel once attempts run out.
func translateWithRetry(ctx context.Context, p RetryPolicy, b *Backend, text string) string {
	attempt := 0
	op := func() (string, error) {
		attempt++
		return b.single.Translate(ctx, text)
	}
	notify := func(err error, wait time.Duration) {
		mpkg.IncTranslationRetry(b.Name)
		ev := log.Warn().Err(err).Str("backend", b.Name).Str("lang", b.Lang).Int("attempt", attempt).Dur("wait", wait)
		if isNetworkError(err) {
			ev.Msg("translation attempt failed (network)")
			return
		}
		ev.Msg("translation attempt failed")
	}

	out, err := backoff.RetryNotifyWithData(op, p.backOff(ctx), notify)
	if err != nil {
		log.Error().Err(err).Str("backend", b.Name).Str("lang", b.Lang).Int("attempts", attempt).Msg("translation unavailable")
		mpkg.IncTranslation(b.Name, "sentinel")
		return Sentinel
	}
	mpkg.IncTranslation(b.Name, "ok")
	return out
}
