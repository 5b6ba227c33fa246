// Package scripted provides canned analyst and data provider implementations.
// They back the CLI's demo mode and the test suite; real deployments plug in
// their own implementations of the core ports.
package scripted

import (
	"context"
	"fmt"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

// Analyst produces a fixed result after an optional delay. A configured
// failure message makes every invocation fail instead.
type Analyst struct {
	result  *core.Result
	failure error
	delay   time.Duration
}

// Option configures a scripted analyst.
type Option func(*Analyst)

// WithDelay makes the analyst sleep before answering. The sleep respects
// context cancellation.
func WithDelay(d time.Duration) Option {
	return func(a *Analyst) { a.delay = d }
}

// WithFailure makes every invocation return the given error.
func WithFailure(err error) Option {
	return func(a *Analyst) { a.failure = err }
}

// New creates a scripted analyst that always returns result.
func New(result *core.Result, opts ...Option) *Analyst {
	a := &Analyst{result: result}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze implements core.Analyst.
func (a *Analyst) Analyze(ctx context.Context, _ core.AnalystInput) (*core.Result, error) {
	if a.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.delay):
		}
	}
	if a.failure != nil {
		return nil, a.failure
	}
	return a.result.Clone(), nil
}

// FromParams builds a scripted analyst from roster manifest parameters.
// Recognized params: recommendation, confidence, reasoning ([]string),
// target_price, fail (error message string), delay (duration string).
func FromParams(params map[string]interface{}) (*Analyst, error) {
	if msg, ok := params["fail"].(string); ok && msg != "" {
		var opts []Option
		if d, err := delayFrom(params); err != nil {
			return nil, err
		} else if d > 0 {
			opts = append(opts, WithDelay(d))
		}
		opts = append(opts, WithFailure(fmt.Errorf("%s", msg)))
		return New(nil, opts...), nil
	}

	rec := core.RecommendationHold
	if s, ok := params["recommendation"].(string); ok {
		parsed, err := core.ParseRecommendation(s)
		if err != nil {
			return nil, err
		}
		rec = parsed
	}

	result := &core.Result{
		Recommendation: rec,
		Confidence:     floatFrom(params["confidence"], 0.5),
	}
	if lines, ok := params["reasoning"].([]interface{}); ok {
		for _, line := range lines {
			if s, ok := line.(string); ok {
				result.Reasoning = append(result.Reasoning, s)
			}
		}
	}
	if tp, ok := params["target_price"]; ok {
		price := floatFrom(tp, 0)
		result.TargetPrice = &price
	}

	var opts []Option
	if d, err := delayFrom(params); err != nil {
		return nil, err
	} else if d > 0 {
		opts = append(opts, WithDelay(d))
	}
	return New(result, opts...), nil
}

func delayFrom(params map[string]interface{}) (time.Duration, error) {
	s, ok := params["delay"].(string)
	if !ok || s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("bad delay %q: %w", s, err)
	}
	return d, nil
}

func floatFrom(v interface{}, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}
