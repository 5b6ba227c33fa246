package core

import (
	"fmt"
	"time"
)

// Strategy selects how a plan lays out analyst execution.
type Strategy string

const (
	// StrategySequential runs one analyst per layer, ordered by priority.
	StrategySequential Strategy = "sequential"

	// StrategyParallel runs all requested analysts in a single layer.
	StrategyParallel Strategy = "parallel"

	// StrategyDependencyDriven layers analysts so every analyst runs after
	// all of its in-set dependencies.
	StrategyDependencyDriven Strategy = "dependency-driven"

	// StrategyAdaptive is dependency-driven with layers split to respect a
	// configured maximum parallelism.
	StrategyAdaptive Strategy = "adaptive"
)

// ParseStrategy converts a string to a Strategy with validation.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	switch st {
	case StrategySequential, StrategyParallel, StrategyDependencyDriven, StrategyAdaptive:
		return st, nil
	default:
		return "", ErrValidation(CodeInvalidStrategy, fmt.Sprintf("unknown strategy: %s", s))
	}
}

// RiskAssessment holds the derived risk flags of a plan and their composite
// score. The score is a fixed weighted sum of the flags: long execution 0.4,
// high parallelism 0.3, critical path 0.2, resource contention 0.1.
type RiskAssessment struct {
	HighParallelism    bool    `json:"high_parallelism"`
	LongExecution      bool    `json:"long_execution"`
	CriticalPath       bool    `json:"critical_path"`
	ResourceContention bool    `json:"resource_contention"`
	Score              float64 `json:"score"`
}

// ComputeScore recalculates the composite score from the flags.
func (r *RiskAssessment) ComputeScore() {
	score := 0.0
	if r.LongExecution {
		score += 0.4
	}
	if r.HighParallelism {
		score += 0.3
	}
	if r.CriticalPath {
		score += 0.2
	}
	if r.ResourceContention {
		score += 0.1
	}
	r.Score = score
}

// ExecutionPlan is an ordered list of parallel layers over the requested
// analysts. Immutable once built.
type ExecutionPlan struct {
	ID                 string                `json:"id"`
	Strategy           Strategy              `json:"strategy"`
	Layers             [][]AnalystID         `json:"layers"`
	EstimatedTotalTime time.Duration         `json:"estimated_total_time"`
	ParallelismFactor  int                   `json:"parallelism_factor"`
	ResourceAllocation map[AnalystID]float64 `json:"resource_allocation"`
	Risk               RiskAssessment        `json:"risk"`
	Warnings           []string              `json:"warnings,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
}

// AnalystCount returns the number of analysts across all layers.
func (p *ExecutionPlan) AnalystCount() int {
	n := 0
	for _, layer := range p.Layers {
		n += len(layer)
	}
	return n
}

// Order returns the analysts in layer order, flattened.
func (p *ExecutionPlan) Order() []AnalystID {
	order := make([]AnalystID, 0, p.AnalystCount())
	for _, layer := range p.Layers {
		order = append(order, layer...)
	}
	return order
}
