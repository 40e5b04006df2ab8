package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowCapsPerModel(t *testing.T) {
	l := New(2)
	r1, ok := l.Allow("openai", "gpt")
	require.True(t, ok)
	r2, ok := l.Allow("OpenAI", "GPT")
	require.True(t, ok)
	_, ok = l.Allow("openai", "gpt")
	assert.False(t, ok)

	_, ok = l.Allow("anthropic", "claude")
	assert.True(t, ok)

	r1()
	r3, ok := l.Allow("openai", "gpt")
	assert.True(t, ok)
	r2()
	r3()
}

func TestAcquireWaitsForRelease(t *testing.T) {
	l := New(1)
	release, err := l.Acquire(context.Background(), "openai", "gpt")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		r, err := l.Acquire(context.Background(), "openai", "gpt")
		if err == nil {
			r()
		}
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire should wait")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded")
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	l := New(1)
	_, err := l.Acquire(context.Background(), "p", "m")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Acquire(ctx, "p", "m")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
