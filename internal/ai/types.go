package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is a single text-in/text-out call to a model provider.
type Request struct {
	Model        string
	SystemPrompt string
	Text         string
	// MaxOutputTokens caps the generated answer; zero uses the client default.
	MaxOutputTokens int64
	// Vision fields
	ImageBase64 string
	ImageMIME   string
}

type Response struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client interface for providers like OpenAI, Anthropic.
type Client interface {
	Name() string
	Do(ctx context.Context, req Request) (Response, error)
}

var (
	ErrRateLimited    = errors.New("rate_limited")
	ErrContentRefused = errors.New("content_refused")
	ErrMissingKey     = errors.New("missing api key")
	ErrEmptyOutput    = errors.New("empty output")
)

func IsRateLimited(err error) bool    { return errors.Is(err, ErrRateLimited) }
func IsContentRefused(err error) bool { return errors.Is(err, ErrContentRefused) }

// HTTPError represents an HTTP status error from a provider.
type HTTPError struct {
	StatusCode int
	Body       string
	Provider   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.Provider, e.Body)
}

// statusError maps a provider status code to ErrRateLimited or *HTTPError.
func statusError(provider string, code int, err error) error {
	if code == 429 {
		return fmt.Errorf("%s: %w", provider, ErrRateLimited)
	}
	return &HTTPError{StatusCode: code, Body: err.Error(), Provider: provider}
}
