package config_test

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paydesk/console/pkg/config"
)

type defaultsConfig struct {
	Name     string        `env:"CONFIG_DEFAULTS_NAME" envDefault:"checkout"`
	Interval time.Duration `env:"CONFIG_DEFAULTS_INTERVAL" envDefault:"3s"`
	Enabled  bool          `env:"CONFIG_DEFAULTS_ENABLED" envDefault:"true"`
}

type envConfig struct {
	Name  string `env:"CONFIG_ENV_NAME"`
	Limit int    `env:"CONFIG_ENV_LIMIT"`
}

type requiredConfig struct {
	Value string `env:"CONFIG_REQUIRED_VALUE,required"`
}

type cachedConfig struct {
	Value string `env:"CONFIG_CACHED_VALUE"`
}

type fileConfig struct {
	Name     string   `env:"CONFIG_TEST_NAME"`
	List     []string `env:"CONFIG_TEST_LIST" envSeparator:","`
	Priority string   `env:"CONFIG_TEST_PRIORITY"`
}

var errTooLow = errors.New("limit too low")

type validatedConfig struct {
	Limit int `env:"CONFIG_VALIDATED_LIMIT" envDefault:"1"`
}

func (c *validatedConfig) Validate() error {
	if c.Limit < 5 {
		return errTooLow
	}
	return nil
}

func TestLoadDefaults(t *testing.T) {
	config.ResetCache()

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "checkout", cfg.Name)
	assert.Equal(t, 3*time.Second, cfg.Interval)
	assert.True(t, cfg.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_ENV_NAME", "billing")
	t.Setenv("CONFIG_ENV_LIMIT", "7")

	var cfg envConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, envConfig{Name: "billing", Limit: 7}, cfg)
}

func TestLoadMissingRequired(t *testing.T) {
	config.ResetCache()

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
	assert.Panics(t, func() { config.MustLoad(&cfg) })
}

func TestLoadCachesPerType(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_CACHED_VALUE", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))

	t.Setenv("CONFIG_CACHED_VALUE", "second")
	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)

	config.ResetCache()
	var c cachedConfig
	require.NoError(t, config.Load(&c))
	assert.Equal(t, "second", c.Value)
}

func TestLoadValidates(t *testing.T) {
	config.ResetCache()

	var cfg validatedConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.ErrorIs(t, err, errTooLow)

	t.Setenv("CONFIG_VALIDATED_LIMIT", "10")
	require.NoError(t, config.Load(&cfg), "failed validation is not cached")
	assert.Equal(t, 10, cfg.Limit)
}

func TestLoadNilPointer(t *testing.T) {
	assert.ErrorIs(t, config.Load[envConfig](nil), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	config.ResetCache()
	t.Setenv("CONFIG_TEST_PRIORITY", "process")
	t.Cleanup(func() {
		_ = os.Unsetenv("CONFIG_TEST_NAME")
		_ = os.Unsetenv("CONFIG_TEST_LIST")
	})

	require.NoError(t, config.LoadEnv("testdata/test.env"))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from_file", cfg.Name)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.List)
	assert.Equal(t, "process", cfg.Priority, "process environment wins over files")
}

func TestLoadEnvMissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/does-not-exist.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv("testdata/does-not-exist.env") })
}
