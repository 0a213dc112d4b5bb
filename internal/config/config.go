package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/einvoicehub/einvoicehub/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Configuration struct {
	Logging   LoggingConfig             `validate:"required"`
	Secrets   SecretsConfig             `validate:"required"`
	Cache     CacheConfig               `validate:"required"`
	Sync      SyncConfig                `validate:"required"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

type SecretsConfig struct {
	// EncryptionKey is the master key used to decrypt provider credentials at rest
	EncryptionKey string `mapstructure:"encryption_key"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// TokenSafetyMargin is subtracted from a cached token's expiry before reuse
	TokenSafetyMargin time.Duration `mapstructure:"token_safety_margin"`
}

// SyncConfig drives the delivery queue retry behaviour. The backoff curve is
// capped exponential; base and cap are deployment-tunable rather than fixed.
type SyncConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts" validate:"required,min=1"`
	BatchSize       int           `mapstructure:"batch_size" validate:"required,min=1"`
	PollInterval    time.Duration `mapstructure:"poll_interval"`
	LeaseDuration   time.Duration `mapstructure:"lease_duration"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	RetryBackoffCap time.Duration `mapstructure:"retry_backoff_cap"`
	Workers         int           `mapstructure:"workers"`
}

// ProviderConfig holds deployment-level settings for one provider endpoint.
// Merchant credentials live in the provider config domain model, not here.
type ProviderConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/einvoicehub")

	v.SetEnvPrefix("EINVOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// ApplyDefaults fills in zero-valued tunables so a minimal config file works
func (c *Configuration) ApplyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = types.LogLevelInfo
	}
	if c.Cache.TokenSafetyMargin == 0 {
		c.Cache.TokenSafetyMargin = 5 * time.Minute
	}
	if c.Sync.MaxAttempts == 0 {
		c.Sync.MaxAttempts = 5
	}
	if c.Sync.BatchSize == 0 {
		c.Sync.BatchSize = 50
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = 30 * time.Second
	}
	if c.Sync.LeaseDuration == 0 {
		c.Sync.LeaseDuration = 5 * time.Minute
	}
	if c.Sync.RetryBackoff == 0 {
		c.Sync.RetryBackoff = 30 * time.Second
	}
	if c.Sync.RetryBackoffCap == 0 {
		c.Sync.RetryBackoffCap = 30 * time.Minute
	}
	if c.Sync.Workers == 0 {
		c.Sync.Workers = 4
	}
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// ProviderFor returns the deployment settings for a provider, falling back to
// a 30 second timeout when the provider has no explicit section.
func (c *Configuration) ProviderFor(provider types.ProviderType) ProviderConfig {
	if p, ok := c.Providers[provider.String()]; ok {
		if p.Timeout == 0 {
			p.Timeout = 30 * time.Second
		}
		return p
	}
	return ProviderConfig{Timeout: 30 * time.Second}
}

// GetDefaultConfig returns a default configuration for local development
// and tests. This is useful for running scripts or other non-web applications.
func GetDefaultConfig() *Configuration {
	cfg := &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Secrets: SecretsConfig{EncryptionKey: "local-development-encryption-key"},
		Cache:   CacheConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	return cfg
}
