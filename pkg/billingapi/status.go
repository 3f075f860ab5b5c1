package billingapi

import "strings"

// PaymentState is the normalized settlement status of a mobile-money transaction.
type PaymentState uint8

const (
	// StateUnknown is any status the client does not recognize.
	StateUnknown PaymentState = iota
	StatePending
	StateSucceeded
	StateFailed
)

func (s PaymentState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether polling must stop.
func (s PaymentState) Terminal() bool {
	return s != StatePending
}

// ParseState maps the server's status tokens case-insensitively. The backend
// has used SUCCESS, succeeded and success for the same outcome.
func ParseState(raw string) PaymentState {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "initiated", "processing", "in_progress":
		return StatePending
	case "success", "succeeded", "successful", "completed":
		return StateSucceeded
	case "failed", "failure", "expired", "rejected", "declined", "cancelled", "canceled":
		return StateFailed
	default:
		return StateUnknown
	}
}
