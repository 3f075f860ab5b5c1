package paymethod

import (
	"errors"
	"fmt"
	"strings"
)

// Method is a payment rail offered at checkout.
type Method uint8

const (
	// None means no method has been resolved yet.
	None Method = iota
	Stripe
	MoMo
	Paystack
)

// Rail groups methods by how checkout is completed.
type Rail uint8

const (
	// RailRedirect creates a hosted checkout session and hands the browser to the provider.
	RailRedirect Rail = iota + 1
	// RailMobileMoney pushes a payment prompt to a phone and polls for settlement.
	RailMobileMoney
)

var ErrUnknownMethod = errors.New("unknown payment method")

// ParseMethod converts a wire value into a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "stripe":
		return Stripe, nil
	case "momo":
		return MoMo, nil
	case "paystack":
		return Paystack, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m Method) String() string {
	switch m {
	case Stripe:
		return "stripe"
	case MoMo:
		return "momo"
	case Paystack:
		return "paystack"
	case None:
		return ""
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// Rail reports how the method completes a checkout. None has no rail.
func (m Method) Rail() Rail {
	switch m {
	case Stripe, Paystack:
		return RailRedirect
	case MoMo:
		return RailMobileMoney
	case None:
		return 0
	}
	return 0
}

// Title is the card heading shown in the chooser.
func (m Method) Title() string {
	switch m {
	case Stripe:
		return "Card Payment"
	case MoMo:
		return "Mobile Money"
	case Paystack:
		return "Paystack"
	case None:
		return ""
	}
	return ""
}

// Description is the card subtitle shown in the chooser.
func (m Method) Description() string {
	switch m {
	case Stripe:
		return "Pay with credit or debit card"
	case MoMo:
		return "MTN, Vodafone, AirtelTigo"
	case Paystack:
		return "Cards, bank and mobile money via Paystack"
	case None:
		return ""
	}
	return ""
}

// NeedsPhone reports whether the method collects a phone number.
func (m Method) NeedsPhone() bool {
	return m.Rail() == RailMobileMoney
}

func (m Method) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*m = None
		return nil
	}
	v, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
