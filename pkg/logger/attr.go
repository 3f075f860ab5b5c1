package logger

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from attrs.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Error records err under "error". A nil err yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups the non-nil errors under "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Attempt records a 1-based attempt number (poll tick or HTTP retry).
func Attempt(n int) slog.Attr {
	return slog.Int("attempt", n)
}

func FlowID(id string) slog.Attr {
	return slog.String("flow_id", id)
}

func PlanID(id int64) slog.Attr {
	return slog.Int64("plan_id", id)
}

func CustomerID(id int64) slog.Attr {
	return slog.Int64("customer_id", id)
}

// PaymentMethod records the active rail. Accepts any fmt.Stringer so this
// package stays free of domain imports.
func PaymentMethod(m fmt.Stringer) slog.Attr {
	return slog.String("payment_method", m.String())
}

// TransactionRef records the mobile-money reference used for polling.
func TransactionRef(ref string) slog.Attr {
	if ref == "" {
		return slog.Attr{}
	}
	return slog.String("transaction_ref", ref)
}

func Status(s string) slog.Attr {
	return slog.String("status", s)
}

func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}
