package environment

import (
	"context"
	"strings"
)

// Environment is the deployment stage the service runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Parse maps common spellings onto an Environment; unknown values are Development.
func Parse(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	case "staging", "stage":
		return Staging
	default:
		return Development
	}
}

func (e Environment) IsProduction() bool { return e == Production }

// Live reports whether real money moves: production and staging talk to live providers.
func (e Environment) Live() bool { return e == Production || e == Staging }

type contextKey struct{}

// WithContext stores env in ctx.
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext returns the stored environment, Development when absent.
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return Development
	}
	if env, ok := ctx.Value(contextKey{}).(Environment); ok {
		return env
	}
	return Development
}
