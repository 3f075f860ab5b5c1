package billingapi

import "time"

// Config is the env-driven client configuration.
type Config struct {
	BaseURL         string        `env:"BILLING_API_URL" envDefault:"http://localhost:8000/api/v1"`
	AccessToken     string        `env:"BILLING_API_ACCESS_TOKEN"`
	RefreshToken    string        `env:"BILLING_API_REFRESH_TOKEN"`
	APIKey          string        `env:"BILLING_API_KEY"`
	TenantID        string        `env:"BILLING_API_TENANT_ID"`
	Timeout         time.Duration `env:"BILLING_API_TIMEOUT" envDefault:"15s"`
	MaxRetries      int           `env:"BILLING_API_MAX_RETRIES" envDefault:"2"` // GET only
	CircuitFailures int           `env:"BILLING_API_CIRCUIT_FAILURES" envDefault:"5"`
	CircuitRecovery time.Duration `env:"BILLING_API_CIRCUIT_RECOVERY" envDefault:"30s"`
}
