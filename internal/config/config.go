package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	InputDir   string `mapstructure:"INPUT_DIR"`
	OutputPath string `mapstructure:"OUTPUT_PATH"`

	// BatchSize is reserved for batched-commit tuning. The store keeps its
	// own group-commit durability settings, so this knob affects throughput
	// only, never correctness.
	BatchSize int `mapstructure:"BATCH_SIZE"`

	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	MarkerWait         bool          `mapstructure:"MARKER_WAIT"`
	MarkerPath         string        `mapstructure:"MARKER_PATH"`
	MarkerTimeout      time.Duration `mapstructure:"MARKER_TIMEOUT"`
	MarkerPollInterval time.Duration `mapstructure:"MARKER_POLL_INTERVAL"`

	// StoreMaxFailures is the number of consecutive upsert failures after
	// which the store is considered unusable and the run aborts.
	StoreMaxFailures int `mapstructure:"STORE_MAX_FAILURES"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("INPUT_DIR", "intermediate")
	v.SetDefault("OUTPUT_PATH", "output/fhir_resources.sqlite")
	v.SetDefault("BATCH_SIZE", 100)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "logs/fhir-etl.log")
	v.SetDefault("MARKER_WAIT", false)
	v.SetDefault("MARKER_PATH", "intermediate/preprocessing_complete.txt")
	v.SetDefault("MARKER_TIMEOUT", "10m")
	v.SetDefault("MARKER_POLL_INTERVAL", "2s")
	v.SetDefault("STORE_MAX_FAILURES", 5)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("INPUT_DIR")
	v.BindEnv("OUTPUT_PATH")
	v.BindEnv("BATCH_SIZE")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("LOG_FILE")
	v.BindEnv("MARKER_WAIT")
	v.BindEnv("MARKER_PATH")
	v.BindEnv("MARKER_TIMEOUT")
	v.BindEnv("MARKER_POLL_INTERVAL")
	v.BindEnv("STORE_MAX_FAILURES")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configuration is safe to run with.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return fmt.Errorf("INPUT_DIR must not be empty")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH must not be empty")
	}
	if c.StoreMaxFailures < 1 {
		return fmt.Errorf("STORE_MAX_FAILURES must be at least 1, got %d", c.StoreMaxFailures)
	}
	if c.MarkerWait {
		if c.MarkerPath == "" {
			return fmt.Errorf("MARKER_PATH must be set when MARKER_WAIT is true")
		}
		if c.MarkerTimeout <= 0 {
			return fmt.Errorf("MARKER_TIMEOUT must be positive, got %s", c.MarkerTimeout)
		}
		if c.MarkerPollInterval <= 0 {
			return fmt.Errorf("MARKER_POLL_INTERVAL must be positive, got %s", c.MarkerPollInterval)
		}
	}
	return nil
}
