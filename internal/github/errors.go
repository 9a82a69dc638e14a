package github

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// ErrNoCredentials indicates that no GitHub token (or username, where
// required) is configured.
var ErrNoCredentials = errors.New("github credentials are not configured")

// APIError is a non-2xx response from the GitHub API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "unauthorized: check your GitHub token"
	case http.StatusNotFound:
		return "not found: repository or resource doesn't exist"
	case http.StatusUnprocessableEntity:
		return fmt.Sprintf("validation failed: %s", e.Message)
	default:
		return fmt.Sprintf("GitHub API error (%d): %s", e.StatusCode, e.Message)
	}
}

// IsAuthError reports whether err is a 401 from the API or a missing
// credential.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// retryable reports whether a request that produced err is worth
// retrying. Rate limits and server-side failures are; client errors are
// permanent.
func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Transport-level failure, likely transient.
		return true
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

// backoff contains the retry pacing parameters.
type backoff struct {
	Base    time.Duration
	Max     time.Duration
	Retries int
}

func defaultBackoff() backoff {
	return backoff{Base: 500 * time.Millisecond, Max: 10 * time.Second, Retries: 3}
}

// delay returns the exponential backoff with jitter for an attempt
// (0-based).
func (b backoff) delay(attempt int) time.Duration {
	d := float64(b.Base) * math.Pow(2, float64(attempt))
	if d > float64(b.Max) {
		d = float64(b.Max)
	}
	// up to 25% jitter to avoid thundering herds on rate limit resets
	jitter := rand.Float64() * 0.25 * d
	return time.Duration(d + jitter)
}
