package qgrad

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/theapemachine/qgrad/estimator"
	"github.com/theapemachine/qgrad/pool"
)

// Config is the runtime configuration of the qgrad command.
type Config struct {
	Pool      pool.Config                 `mapstructure:"pool"`
	Estimator estimator.StatevectorConfig `mapstructure:"estimator"`

	// Precision is the gradient default precision; nil defers to the
	// estimator.
	Precision *float64 `mapstructure:"-"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Pool: *pool.NewConfig(),
	}
}

/*
LoadConfig reads path (if not empty) and QGRAD_* environment variables on
top of the defaults of NewConfig. Nested keys map to variables with dots
replaced by underscores, e.g. QGRAD_POOL_WORKERS.
*/
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	def := NewConfig()

	v.SetDefault("pool.workers", def.Pool.Workers)
	v.SetDefault("pool.scheduling_timeout", def.Pool.SchedulingTimeout)
	v.SetDefault("pool.task_timeout", def.Pool.TaskTimeout)
	v.SetDefault("pool.result_ttl", def.Pool.ResultTTL)
	v.SetDefault("pool.retry_attempts", def.Pool.RetryAttempts)
	v.SetDefault("pool.retry_initial", def.Pool.RetryInitial)
	v.SetDefault("pool.rate_limit", def.Pool.RateLimit)
	v.SetDefault("pool.rate_refill", def.Pool.RateRefill)
	v.SetDefault("estimator.default_precision", def.Estimator.DefaultPrecision)
	v.SetDefault("estimator.seed", def.Estimator.Seed)

	v.SetEnvPrefix("QGRAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if v.IsSet("precision") {
		p := v.GetFloat64("precision")
		if p < 0 {
			return nil, fmt.Errorf("decoding config: negative precision %v", p)
		}
		cfg.Precision = &p
	}

	return cfg, nil
}
