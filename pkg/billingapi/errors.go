package billingapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrPermanentFailure = errors.New("billing api: permanent failure")
	ErrTemporaryFailure = errors.New("billing api: temporary failure")
	ErrUnauthorized     = errors.New("billing api: unauthorized")
	ErrNotFound         = errors.New("billing api: not found")
	ErrCircuitOpen      = errors.New("billing api: circuit breaker is open")
	ErrTimeout          = errors.New("billing api: request timeout")
	ErrInvalidResponse  = errors.New("billing api: invalid response")
	ErrNoCheckoutURL    = errors.New("billing api: checkout url missing from response")
	ErrNoReference      = errors.New("billing api: transaction reference missing from response")
	ErrNoRefreshToken   = errors.New("billing api: no refresh token")
	ErrNoAccessToken    = errors.New("billing api: no access token")
)

// APIError is a non-2xx response from the billing API.
type APIError struct {
	StatusCode int
	// Message is the server-supplied explanation, taken from detail, error or message.
	Message string
	// Body is a sanitized excerpt of the raw response.
	Body string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("billing api: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Body != "" {
		return fmt.Sprintf("billing api: status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("billing api: status %d", e.StatusCode)
}

// Is classifies the status so callers can match on the sentinel errors.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrPermanentFailure:
		return isPermanentStatus(e.StatusCode)
	case ErrTemporaryFailure:
		return !isPermanentStatus(e.StatusCode)
	}
	return false
}

// Message returns the server-supplied message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// isPermanentStatus reports whether retrying the same request cannot succeed.
// 4xx is permanent except timeout, too-early and rate limiting.
func isPermanentStatus(code int) bool {
	if code < 400 || code >= 500 {
		return false
	}
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return false
	}
	return true
}

func newAPIError(code int, body []byte) *APIError {
	e := &APIError{StatusCode: code}
	if len(body) == 0 {
		return e
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"detail", "error", "message"} {
			if s, ok := payload[key].(string); ok && s != "" {
				e.Message = s
				break
			}
		}
		if e.Message == "" {
			e.Message = fieldErrors(payload)
		}
	}

	excerpt := strings.ReplaceAll(string(body), "\n", " ")
	if len(excerpt) > 200 {
		excerpt = excerpt[:200] + "..."
	}
	e.Body = excerpt
	return e
}

// fieldErrors flattens {"phone_number": ["Invalid."]} style validation bodies.
func fieldErrors(payload map[string]any) string {
	var parts []string
	for field, v := range payload {
		list, ok := v.([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if s, ok := list[0].(string); ok {
			parts = append(parts, field+": "+s)
		}
	}
	if len(parts) != 1 {
		// ambiguous ordering across several fields; fall back to the raw body
		return ""
	}
	return parts[0]
}
