package paymethod

import (
	"errors"
	"slices"
)

var (
	ErrNoMethods    = errors.New("no payment methods available")
	ErrNotAvailable = errors.New("payment method is not available")
)

// Capabilities are the rails a tenant has enabled.
// Forced, when set, overrides both flags and pins a single provider.
type Capabilities struct {
	StripeEnabled bool
	MoMoEnabled   bool
	Forced        Method
}

// Selection is the resolved state of the method chooser.
type Selection struct {
	// Method is the active method, None when nothing is available.
	Method Method
	// Choices are the selectable methods; empty when the chooser is hidden.
	Choices []Method
	// Err is ErrNoMethods when the blocking error state must render.
	Err error
}

// Visible reports whether a chooser is rendered.
func (s Selection) Visible() bool {
	return len(s.Choices) > 1
}

// Available lists the methods enabled by caps, in display order.
func Available(caps Capabilities) []Method {
	if caps.Forced != None {
		return []Method{caps.Forced}
	}
	var out []Method
	if caps.StripeEnabled {
		out = append(out, Stripe)
	}
	if caps.MoMoEnabled {
		out = append(out, MoMo)
	}
	return out
}

// Resolve computes the selection for the current method:
// nothing enabled is a blocking error, a single method is implied,
// several methods keep the current choice or default to the first.
func Resolve(current Method, caps Capabilities) Selection {
	available := Available(caps)
	switch len(available) {
	case 0:
		return Selection{Method: None, Err: ErrNoMethods}
	case 1:
		return Selection{Method: available[0]}
	}
	m := current
	if !slices.Contains(available, m) {
		m = available[0]
	}
	return Selection{Method: m, Choices: available}
}

// Selector holds the active method and notifies on changes.
type Selector struct {
	caps     Capabilities
	current  Method
	onChange func(Method)
}

// NewSelector resolves the initial method. onChange is invoked whenever
// resolution or Choose changes the active method; it is never invoked when
// no method is available.
func NewSelector(initial Method, caps Capabilities, onChange func(Method)) *Selector {
	s := &Selector{caps: caps, current: initial, onChange: onChange}
	s.Sync()
	return s
}

// Current returns the active method.
func (s *Selector) Current() Method { return s.current }

// Capabilities returns the flags the selector was built with.
func (s *Selector) Capabilities() Capabilities { return s.caps }

// Selection returns the resolved chooser state without side effects.
func (s *Selector) Selection() Selection {
	return Resolve(s.current, s.caps)
}

// Sync re-resolves the active method, applying auto-selection.
func (s *Selector) Sync() Selection {
	sel := Resolve(s.current, s.caps)
	if sel.Err == nil {
		s.set(sel.Method)
	}
	return sel
}

// SetCapabilities replaces the capability flags and re-resolves.
func (s *Selector) SetCapabilities(caps Capabilities) Selection {
	s.caps = caps
	return s.Sync()
}

// Choose selects m when it is one of the available methods.
func (s *Selector) Choose(m Method) error {
	sel := Resolve(s.current, s.caps)
	if sel.Err != nil {
		return sel.Err
	}
	if !slices.Contains(Available(s.caps), m) {
		return ErrNotAvailable
	}
	s.set(m)
	return nil
}

func (s *Selector) set(m Method) {
	if m == s.current {
		return
	}
	s.current = m
	if s.onChange != nil {
		s.onChange(m)
	}
}
