package pool

import "time"

// Config sizes the pool and sets its timeouts.
type Config struct {
	Workers           int           `mapstructure:"workers"`
	SchedulingTimeout time.Duration `mapstructure:"scheduling_timeout"`
	TaskTimeout       time.Duration `mapstructure:"task_timeout"`
	ResultTTL         time.Duration `mapstructure:"result_ttl"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryInitial      time.Duration `mapstructure:"retry_initial"`

	// RateLimit is the token bucket capacity for submissions. Zero disables
	// rate limiting.
	RateLimit  int           `mapstructure:"rate_limit"`
	RateRefill time.Duration `mapstructure:"rate_refill"`
}

// NewConfig returns the default pool configuration.
func NewConfig() *Config {
	return &Config{
		Workers:           4,
		SchedulingTimeout: 10 * time.Second,
		TaskTimeout:       30 * time.Second,
		ResultTTL:         time.Minute,
		RetryAttempts:     1,
		RetryInitial:      100 * time.Millisecond,
		RateRefill:        100 * time.Millisecond,
	}
}

// normalize fills zero fields with defaults so a partially populated
// Config is usable.
func (c *Config) normalize() *Config {
	def := NewConfig()
	if c == nil {
		return def
	}

	out := *c
	if out.Workers <= 0 {
		out.Workers = def.Workers
	}
	if out.SchedulingTimeout <= 0 {
		out.SchedulingTimeout = def.SchedulingTimeout
	}
	if out.TaskTimeout <= 0 {
		out.TaskTimeout = def.TaskTimeout
	}
	if out.ResultTTL <= 0 {
		out.ResultTTL = def.ResultTTL
	}
	if out.RetryAttempts <= 0 {
		out.RetryAttempts = def.RetryAttempts
	}
	if out.RetryInitial <= 0 {
		out.RetryInitial = def.RetryInitial
	}
	if out.RateRefill <= 0 {
		out.RateRefill = def.RateRefill
	}
	return &out
}
