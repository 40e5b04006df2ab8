package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a guest session expired or never existed.
var ErrSessionNotFound = errors.New("guest session not found")

// GuestSummary is the result kept for a visitor without an account.
type GuestSummary struct {
	Summary     string
	Filename    string
	SummaryType string
}

type RedisGuests struct {
	client *redis.Client
	keyNS  string
	ttl    time.Duration
}

// NewRedisGuests wraps an existing client. Sessions expire after ttl.
func NewRedisGuests(client *redis.Client, ttl time.Duration) *RedisGuests {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisGuests{client: client, keyNS: "guest", ttl: ttl}
}

func (s *RedisGuests) key(sessionID string) string {
	return fmt.Sprintf("%s:%s:summary", s.keyNS, sessionID)
}

// Save replaces the session's summary and refreshes its expiry.
func (s *RedisGuests) Save(ctx context.Context, sessionID string, g GuestSummary) error {
	k := s.key(sessionID)
	m := map[string]interface{}{
		"summary":      g.Summary,
		"filename":     g.Filename,
		"summary_type": g.SummaryType,
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k, m)
		p.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save guest session: %w", err)
	}
	return nil
}

func (s *RedisGuests) Get(ctx context.Context, sessionID string) (GuestSummary, error) {
	res, err := s.client.HGetAll(ctx, s.key(sessionID)).Result()
	if err != nil {
		return GuestSummary{}, fmt.Errorf("load guest session: %w", err)
	}
	if len(res) == 0 {
		return GuestSummary{}, ErrSessionNotFound
	}
	return GuestSummary{
		Summary:     res["summary"],
		Filename:    res["filename"],
		SummaryType: res["summary_type"],
	}, nil
}

func (s *RedisGuests) Delete(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, s.key(sessionID)).Err()
}
