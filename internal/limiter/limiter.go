// Package limiter caps concurrent model calls per provider and model.
package limiter

import (
	"context"
	"strings"
	"sync"
)

type Inflight struct {
	maxInflight int
	mu          sync.Mutex
	sem         map[string]chan struct{}
}

// New returns a limiter allowing maxInflight concurrent calls per provider:model.
func New(maxInflight int) *Inflight {
	if maxInflight <= 0 {
		maxInflight = 2
	}
	return &Inflight{maxInflight: maxInflight, sem: map[string]chan struct{}{}}
}

func (a *Inflight) slot(provider, model string) chan struct{} {
	key := strings.ToLower(provider) + ":" + strings.ToLower(model)
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.sem[key]
	if !ok {
		ch = make(chan struct{}, a.maxInflight)
		a.sem[key] = ch
	}
	return ch
}

// Allow tries to reserve a slot without waiting.
// Returns a release function and true if allowed; otherwise a no-op and false.
func (a *Inflight) Allow(provider, model string) (func(), bool) {
	ch := a.slot(provider, model)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, true
	default:
		return func() {}, false
	}
}

// Acquire waits for a slot until ctx is done.
func (a *Inflight) Acquire(ctx context.Context, provider, model string) (func(), error) {
	ch := a.slot(provider, model)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
