package dispatcher

import (
	"context"
	"fmt"
	"strconv"
	"time"

	mpkg "github.com/local/docsummarizer/internal/metrics"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Breaker tracks provider:model health across requests.
type Breaker interface {
	IsCircuitOpen(ctx context.Context, provider, model string) bool
	OpenCircuitBreaker(ctx context.Context, provider, model string)
	CloseCircuitBreaker(ctx context.Context, provider, model string)
}

// CircuitBreaker manages circuit breaker state in Redis
type CircuitBreaker struct {
	redis       *redis.Client
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(redisClient *redis.Client, baseBackoff, maxBackoff time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		redis:       redisClient,
		baseBackoff: baseBackoff,
		maxBackoff:  maxBackoff,
	}
}

func breakerKey(provider, model string) string { return fmt.Sprintf("cb:%s:%s", provider, model) }

// cooldown doubles the base backoff per consecutive failure up to the max.
func cooldown(base, max time.Duration, failures int) time.Duration {
	d := base
	for i := 1; i < failures; i++ {
		d *= 2
		if d > max {
			return max
		}
	}
	return d
}

// OpenCircuitBreaker opens the breaker for a provider:model combination
func (cb *CircuitBreaker) OpenCircuitBreaker(ctx context.Context, provider, model string) {
	key := breakerKey(provider, model)

	failuresStr, _ := cb.redis.HGet(ctx, key, "failures").Result()
	failures, _ := strconv.Atoi(failuresStr)
	failures++

	backoff := cooldown(cb.baseBackoff, cb.maxBackoff, failures)
	retryAt := time.Now().Add(backoff).Unix()

	if err := cb.redis.HSet(ctx, key, map[string]interface{}{
		"state":     "open",
		"retry_at":  retryAt,
		"failures":  failures,
		"opened_at": time.Now().Unix(),
	}).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("breaker state write failed")
		return
	}
	cb.redis.Expire(ctx, key, 10*time.Minute)
	mpkg.BreakerOpened(provider, model)

	log.Warn().
		Str("provider", provider).
		Str("model", model).
		Dur("cooldown", backoff).
		Int("failures", failures).
		Time("retry_at", time.Unix(retryAt, 0)).
		Msg("circuit breaker OPENED")
}

// IsCircuitOpen reports whether the provider:model is still cooling down.
// An expired cooldown moves the breaker to half-open and lets one call through.
func (cb *CircuitBreaker) IsCircuitOpen(ctx context.Context, provider, model string) bool {
	key := breakerKey(provider, model)

	vals, err := cb.redis.HMGet(ctx, key, "state", "retry_at").Result()
	if err != nil || len(vals) != 2 {
		return false
	}
	state, _ := vals[0].(string)
	if state != "open" {
		return false
	}
	retryAtStr, _ := vals[1].(string)
	retryAt, _ := strconv.ParseInt(retryAtStr, 10, 64)

	if time.Now().Unix() >= retryAt {
		cb.redis.HSet(ctx, key, "state", "half_open")
		log.Info().
			Str("provider", provider).
			Str("model", model).
			Msg("circuit breaker moved to HALF-OPEN")
		return false
	}
	return true
}

// CloseCircuitBreaker resets the breaker after a success
func (cb *CircuitBreaker) CloseCircuitBreaker(ctx context.Context, provider, model string) {
	key := breakerKey(provider, model)

	state, _ := cb.redis.HGet(ctx, key, "state").Result()
	if state == "" || state == "closed" {
		return
	}
	cb.redis.Del(ctx, key)
	mpkg.BreakerClosed(provider, model)

	log.Info().
		Str("provider", provider).
		Str("model", model).
		Msg("circuit breaker CLOSED (reset)")
}

// NopBreaker never opens. Used when Redis is not configured.
type NopBreaker struct{}

func (NopBreaker) IsCircuitOpen(context.Context, string, string) bool { return false }
func (NopBreaker) OpenCircuitBreaker(context.Context, string, string) {}
func (NopBreaker) CloseCircuitBreaker(context.Context, string, string) {}
