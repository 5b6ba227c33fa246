package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateEngine(&cfg.Engine)
	v.validateConsensus(&cfg.Consensus)

	if v.errors.HasErrors() {
		return v.errors
	}
	return nil
}

func (v *Validator) addError(field string, value interface{}, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	})
}

func (v *Validator) validateLog(cfg *LogConfig) {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		v.addError("log.level", cfg.Level, "must be one of: debug, info, warn, error")
	}

	switch cfg.Format {
	case "auto", "text", "json":
	default:
		v.addError("log.format", cfg.Format, "must be one of: auto, text, json")
	}
}

func (v *Validator) validateEngine(cfg *EngineConfig) {
	if cfg.MaxSessions < 1 {
		v.addError("engine.max_sessions", cfg.MaxSessions, "must be at least 1")
	}
	if cfg.MaxParallelism < 1 {
		v.addError("engine.max_parallelism", cfg.MaxParallelism, "must be at least 1")
	}
	if d, err := time.ParseDuration(cfg.SessionTimeout); err != nil {
		v.addError("engine.session_timeout", cfg.SessionTimeout, "must be a valid duration (e.g. 30m)")
	} else if d <= 0 {
		v.addError("engine.session_timeout", cfg.SessionTimeout, "must be positive")
	}
	if d, err := time.ParseDuration(cfg.Retention); err != nil {
		v.addError("engine.retention", cfg.Retention, "must be a valid duration (e.g. 1h)")
	} else if d < 0 {
		v.addError("engine.retention", cfg.Retention, "must not be negative")
	}
	if len(cfg.DataKinds) == 0 {
		v.addError("engine.data_kinds", cfg.DataKinds, "must name at least one data kind")
	}
}

func (v *Validator) validateConsensus(cfg *ConsensusConfig) {
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		v.addError("consensus.threshold", cfg.Threshold, "must be between 0.0 and 1.0")
	}
	if cfg.MaxRounds < 0 {
		v.addError("consensus.max_rounds", cfg.MaxRounds, "must not be negative")
	}
	if _, err := time.ParseDuration(cfg.RoundDelay); err != nil {
		v.addError("consensus.round_delay", cfg.RoundDelay, "must be a valid duration (e.g. 500ms)")
	}
	if cfg.MaxReasoningLines < 1 {
		v.addError("consensus.max_reasoning_lines", cfg.MaxReasoningLines, "must be at least 1")
	}
}
