package checkout

import (
	"fmt"
	"time"

	"golang.org/x/text/language"

	"github.com/paydesk/console/pkg/async"
	"github.com/paydesk/console/pkg/paymethod"
	"github.com/paydesk/console/pkg/phone"
)

// Config is the env-driven flow configuration.
type Config struct {
	PollInterval time.Duration `env:"CHECKOUT_POLL_INTERVAL" envDefault:"3s"`
	// MaxPollAttempts and MaxPollErrors bound polling; zero polls until a
	// terminal status arrives or the flow is cancelled.
	MaxPollAttempts int `env:"CHECKOUT_MAX_POLL_ATTEMPTS" envDefault:"0"`
	MaxPollErrors   int `env:"CHECKOUT_MAX_POLL_ERRORS" envDefault:"0"`

	StripeEnabled bool `env:"CHECKOUT_STRIPE_ENABLED" envDefault:"true"`
	MoMoEnabled   bool `env:"CHECKOUT_MOMO_ENABLED" envDefault:"true"`
	// ForceProvider pins a single provider and hides the chooser.
	ForceProvider string `env:"CHECKOUT_FORCE_PROVIDER"`

	DefaultCountry string `env:"CHECKOUT_DEFAULT_COUNTRY" envDefault:"GH"`
	Locale         string `env:"CHECKOUT_LOCALE" envDefault:"en"`
}

// DefaultConfig returns the configuration the env defaults describe.
func DefaultConfig() Config {
	return Config{
		PollInterval:   async.DefaultPollInterval,
		StripeEnabled:  true,
		MoMoEnabled:    true,
		DefaultCountry: phone.Default().Code,
		Locale:         "en",
	}
}

// Validate is called by the config loader.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("CHECKOUT_POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if c.MaxPollAttempts < 0 || c.MaxPollErrors < 0 {
		return fmt.Errorf("poll budgets must not be negative")
	}
	if _, err := c.Capabilities(); err != nil {
		return err
	}
	if _, ok := phone.Lookup(c.DefaultCountry); !ok {
		return fmt.Errorf("CHECKOUT_DEFAULT_COUNTRY %q is not supported", c.DefaultCountry)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("CHECKOUT_LOCALE: %w", err)
	}
	return nil
}

// Capabilities returns the static capability flags.
func (c Config) Capabilities() (paymethod.Capabilities, error) {
	caps := paymethod.Capabilities{StripeEnabled: c.StripeEnabled, MoMoEnabled: c.MoMoEnabled}
	if c.ForceProvider != "" {
		m, err := paymethod.ParseMethod(c.ForceProvider)
		if err != nil {
			return caps, fmt.Errorf("CHECKOUT_FORCE_PROVIDER: %w", err)
		}
		caps.Forced = m
	}
	return caps, nil
}

// Country returns the default phone country, falling back to Ghana.
func (c Config) Country() phone.Country {
	if ct, ok := phone.Lookup(c.DefaultCountry); ok {
		return ct
	}
	return phone.Default()
}

// Language returns the locale used for price formatting.
func (c Config) Language() language.Tag {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.English
	}
	return tag
}
