package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "auto"},
		Engine: EngineConfig{
			MaxSessions:    10,
			SessionTimeout: "30m",
			MaxParallelism: 4,
			DataKinds:      []string{"quote"},
			Retention:      "1h",
		},
		Consensus: ConsensusConfig{
			Threshold:         0.6,
			MaxRounds:         3,
			RoundDelay:        "500ms",
			MaxReasoningLines: 20,
		},
	}
}

func TestValidator_Valid(t *testing.T) {
	if err := NewValidator().Validate(validConfig()); err != nil {
		t.Errorf("Validate() error = %v for a valid config", err)
	}
}

func TestValidator_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"zero sessions", func(c *Config) { c.Engine.MaxSessions = 0 }, "engine.max_sessions"},
		{"zero parallelism", func(c *Config) { c.Engine.MaxParallelism = 0 }, "engine.max_parallelism"},
		{"bad timeout", func(c *Config) { c.Engine.SessionTimeout = "soon" }, "engine.session_timeout"},
		{"negative timeout", func(c *Config) { c.Engine.SessionTimeout = "-5m" }, "engine.session_timeout"},
		{"bad retention", func(c *Config) { c.Engine.Retention = "forever" }, "engine.retention"},
		{"no data kinds", func(c *Config) { c.Engine.DataKinds = nil }, "engine.data_kinds"},
		{"threshold too high", func(c *Config) { c.Consensus.Threshold = 1.5 }, "consensus.threshold"},
		{"threshold negative", func(c *Config) { c.Consensus.Threshold = -0.1 }, "consensus.threshold"},
		{"negative rounds", func(c *Config) { c.Consensus.MaxRounds = -1 }, "consensus.max_rounds"},
		{"bad round delay", func(c *Config) { c.Consensus.RoundDelay = "a while" }, "consensus.round_delay"},
		{"zero reasoning lines", func(c *Config) { c.Consensus.MaxReasoningLines = 0 }, "consensus.max_reasoning_lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := NewValidator().Validate(cfg)
			if err == nil {
				t.Fatal("Validate() error = nil, want a validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not name the field %q", err.Error(), tt.field)
			}
		})
	}
}

func TestValidator_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Log.Level = "loud"
	cfg.Engine.MaxSessions = -1
	cfg.Consensus.Threshold = 2

	err := NewValidator().Validate(cfg)
	if err == nil {
		t.Fatal("Validate() error = nil")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("error type = %T, want ValidationErrors", err)
	}
	if len(verrs) != 3 {
		t.Errorf("got %d errors, want all 3: %v", len(verrs), verrs)
	}
}
