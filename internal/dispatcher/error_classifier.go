package dispatcher

import (
	"context"
	"errors"
	"strings"

	"github.com/local/docsummarizer/internal/ai"
)

// isTransientError reports whether the error should open the breaker and move on to the next model.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if ai.IsContentRefused(err) || ai.IsRateLimited(err) || errors.Is(err, ai.ErrEmptyOutput) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	var httpErr *ai.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		if httpErr.StatusCode == 429 {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "eof")
}

// isFatalError reports whether retrying on another model is pointless.
func isFatalError(err error) bool {
	if err == nil {
		return false
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return true
	}

	var httpErr *ai.HTTPError
	if errors.As(err, &httpErr) {
		// 401/403/404 are provider-specific, the next provider may still work
		if httpErr.StatusCode == 400 || httpErr.StatusCode == 413 || httpErr.StatusCode == 422 {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "validation failed") ||
		strings.Contains(errStr, "malformed")
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

// classify returns the metrics label for a provider call result.
func classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case ai.IsRateLimited(err):
		return "rate_limited"
	case isTimeoutError(err):
		return "timeout"
	case isTransientError(err):
		return "transient"
	case isFatalError(err):
		return "fatal"
	default:
		return "unknown"
	}
}
