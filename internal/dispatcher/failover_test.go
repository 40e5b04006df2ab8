package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/local/docsummarizer/internal/ai"
	cfgpkg "github.com/local/docsummarizer/internal/config"
	"github.com/local/docsummarizer/internal/limiter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	name  string
	errs  map[string]error
	calls []string
}

func (c *fakeClient) Name() string { return c.name }

func (c *fakeClient) Do(_ context.Context, req ai.Request) (ai.Response, error) {
	c.calls = append(c.calls, req.Model)
	if err := c.errs[req.Model]; err != nil {
		return ai.Response{}, err
	}
	return ai.Response{Text: c.name + ":" + req.Model}, nil
}

type memBreaker struct {
	mu     sync.Mutex
	open   map[string]bool
	opened []string
	closed []string
}

func newMemBreaker() *memBreaker { return &memBreaker{open: map[string]bool{}} }

func (b *memBreaker) IsCircuitOpen(_ context.Context, p, m string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open[breakerKey(p, m)]
}

func (b *memBreaker) OpenCircuitBreaker(_ context.Context, p, m string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open[breakerKey(p, m)] = true
	b.opened = append(b.opened, breakerKey(p, m))
}

func (b *memBreaker) CloseCircuitBreaker(_ context.Context, p, m string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.open, breakerKey(p, m))
	b.closed = append(b.closed, breakerKey(p, m))
}

func testConf() cfgpkg.ProvidersConfig {
	return cfgpkg.ProvidersConfig{
		PrimaryEngine:   "openai",
		SecondaryEngine: "anthropic",
		OpenAI:          cfgpkg.ProviderModels{Primary: "o1", Secondary: "o2"},
		Anthropic:       cfgpkg.ProviderModels{Primary: "a1", Secondary: "a2"},
		RequestTimeout:  time.Second,
	}
}

func TestFailover_PrimarySuccess(t *testing.T) {
	oa := &fakeClient{name: "openai"}
	an := &fakeClient{name: "anthropic"}
	br := newMemBreaker()
	f := NewFailover(testConf(), br, oa, an)

	resp, err := f.Generate(context.Background(), ai.Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "openai:o1", resp.Text)
	assert.Equal(t, []string{"o1"}, oa.calls)
	assert.Empty(t, an.calls)
	assert.Equal(t, []string{"cb:openai:o1"}, br.closed)
}

func TestFailover_TransientFallsThrough(t *testing.T) {
	oa := &fakeClient{name: "openai", errs: map[string]error{
		"o1": &ai.HTTPError{StatusCode: 503, Provider: "openai"},
		"o2": ai.ErrRateLimited,
	}}
	an := &fakeClient{name: "anthropic"}
	br := newMemBreaker()
	f := NewFailover(testConf(), br, oa, an)

	resp, err := f.Generate(context.Background(), ai.Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic:a1", resp.Text)
	assert.Equal(t, []string{"cb:openai:o1", "cb:openai:o2"}, br.opened)
}

func TestFailover_FatalStops(t *testing.T) {
	oa := &fakeClient{name: "openai", errs: map[string]error{"o1": &ValidationError{Message: "bad"}}}
	an := &fakeClient{name: "anthropic"}
	f := NewFailover(testConf(), newMemBreaker(), oa, an)

	_, err := f.Generate(context.Background(), ai.Request{Text: "x"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Empty(t, an.calls)
}

func TestFailover_SkipsOpenBreaker(t *testing.T) {
	oa := &fakeClient{name: "openai"}
	br := newMemBreaker()
	br.open[breakerKey("openai", "o1")] = true
	f := NewFailover(testConf(), br, oa)

	resp, err := f.Generate(context.Background(), ai.Request{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "openai:o2", resp.Text)
}

func TestFailover_Exhausted(t *testing.T) {
	boom := errors.New("connection reset by peer")
	oa := &fakeClient{name: "openai", errs: map[string]error{"o1": boom, "o2": boom}}
	an := &fakeClient{name: "anthropic", errs: map[string]error{"a1": boom, "a2": boom}}
	f := NewFailover(testConf(), nil, oa, an)

	_, err := f.Generate(context.Background(), ai.Request{Text: "x"})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, oa.calls, 2)
	assert.Len(t, an.calls, 2)
}

func TestFailover_Ready(t *testing.T) {
	assert.False(t, NewFailover(testConf(), nil).Ready())
	assert.True(t, NewFailover(testConf(), nil, &fakeClient{name: "anthropic"}).Ready())
}

func TestCooldown(t *testing.T) {
	base, max := 30*time.Second, 5*time.Minute
	assert.Equal(t, 30*time.Second, cooldown(base, max, 1))
	assert.Equal(t, 60*time.Second, cooldown(base, max, 2))
	assert.Equal(t, 240*time.Second, cooldown(base, max, 4))
	assert.Equal(t, max, cooldown(base, max, 9))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "success", classify(nil))
	assert.Equal(t, "rate_limited", classify(ai.ErrRateLimited))
	assert.Equal(t, "timeout", classify(context.DeadlineExceeded))
	assert.Equal(t, "transient", classify(&ai.HTTPError{StatusCode: 502}))
	assert.Equal(t, "fatal", classify(&ai.HTTPError{StatusCode: 400}))
	assert.Equal(t, "unknown", classify(ai.ErrMissingKey))
}

func TestFailover_SlotsReleasedAfterCall(t *testing.T) {
	oa := &fakeClient{name: "openai"}
	f := NewFailover(testConf(), newMemBreaker(), oa).WithSlots(limiter.New(1))

	for i := 0; i < 3; i++ {
		_, err := f.Generate(context.Background(), ai.Request{Text: "x"})
		require.NoError(t, err)
	}
	assert.Len(t, oa.calls, 3)
}

func TestFailover_WaitsForSlot(t *testing.T) {
	oa := &fakeClient{name: "openai"}
	slots := limiter.New(1)
	hold, err := slots.Acquire(context.Background(), "openai", "o1")
	require.NoError(t, err)
	defer hold()

	f := NewFailover(testConf(), newMemBreaker(), oa).WithSlots(slots)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = f.Generate(ctx, ai.Request{Text: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, oa.calls)
}
