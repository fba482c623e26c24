package worker

import "time"

// Config controls the submission worker loop.
type Config struct {
	Provider     string
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RunTimeout   time.Duration
}

func DefaultConfig() Config {
	return Config{
		Provider:     "amazon",
		PollInterval: 30 * time.Second,
		BatchSize:    10,
		MaxAttempts:  5,
		RunTimeout:   5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.Provider == "" {
		c.Provider = defaults.Provider
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = defaults.RunTimeout
	}
	return c
}
