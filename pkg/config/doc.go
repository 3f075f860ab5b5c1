// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Each configuration type is parsed
// once per process and cached; a type implementing Validator is checked
// before it is cached, so an invalid configuration never becomes visible.
//
//	type Config struct {
//		Addr         string        `env:"HTTP_ADDR" envDefault:":8080"`
//		PollInterval time.Duration `env:"CHECKOUT_POLL_INTERVAL" envDefault:"3s"`
//	}
//
//	config.MustLoadEnv(".env.local")
//	var cfg Config
//	config.MustLoad(&cfg)
//
// ResetCache clears the cache between tests.
package config
