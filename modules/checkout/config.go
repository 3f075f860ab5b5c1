package checkout

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config is the env-driven configuration of the checkout module.
type Config struct {
	// FlowTTL is how long an untouched flow is kept; expired flows are closed.
	FlowTTL time.Duration `env:"CHECKOUT_FLOW_TTL" envDefault:"30m"`
	// MaxFlows bounds the registry; the least recently used flow is closed first.
	MaxFlows int `env:"CHECKOUT_MAX_FLOWS" envDefault:"1000"`
	// SubmitRate is the sustained submissions per second allowed per client IP.
	SubmitRate  float64 `env:"CHECKOUT_SUBMIT_RATE" envDefault:"0.1"`
	SubmitBurst int     `env:"CHECKOUT_SUBMIT_BURST" envDefault:"5"`
	// DetectCapabilities asks the billing API which rails the tenant has
	// configured instead of using the static flags.
	DetectCapabilities bool `env:"CHECKOUT_DETECT_CAPABILITIES" envDefault:"false"`
	// PublicURL is the origin used for hosted checkout return URLs. Empty
	// derives it from the request.
	PublicURL string `env:"CHECKOUT_PUBLIC_URL"`
}

// DefaultConfig mirrors the env defaults.
func DefaultConfig() Config {
	return Config{
		FlowTTL:     30 * time.Minute,
		MaxFlows:    1000,
		SubmitRate:  0.1,
		SubmitBurst: 5,
	}
}

func (c *Config) Validate() error {
	if c.FlowTTL <= 0 {
		return fmt.Errorf("CHECKOUT_FLOW_TTL must be positive")
	}
	if c.MaxFlows <= 0 {
		return fmt.Errorf("CHECKOUT_MAX_FLOWS must be positive")
	}
	if c.SubmitRate < 0 || c.SubmitBurst < 0 {
		return fmt.Errorf("submit rate limits must not be negative")
	}
	c.PublicURL = strings.TrimRight(c.PublicURL, "/")
	return nil
}

// submitLimit is the token bucket refill rate; zero disables limiting.
func (c Config) submitLimit() rate.Limit {
	if c.SubmitRate == 0 {
		return rate.Inf
	}
	return rate.Limit(c.SubmitRate)
}
