package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// PlannerConfig bounds the planner's heuristics.
type PlannerConfig struct {
	// MaxParallelism caps adaptive layer width and drives the
	// high-parallelism risk flag.
	MaxParallelism int

	// SessionTimeout is the session's soft deadline; plans estimated above
	// 80% of it are flagged long-execution.
	SessionTimeout time.Duration
}

// DefaultPlannerConfig returns the default planner bounds.
func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		MaxParallelism: 4,
		SessionTimeout: 30 * time.Minute,
	}
}

// Planner turns a requested analyst subset and strategy into an ordered list
// of parallel execution layers.
type Planner struct {
	registry *Registry
	cfg      PlannerConfig
	logger   *logging.Logger
}

// NewPlanner creates a planner over a registry.
func NewPlanner(registry *Registry, cfg PlannerConfig, logger *logging.Logger) *Planner {
	if cfg.MaxParallelism <= 0 {
		cfg.MaxParallelism = DefaultPlannerConfig().MaxParallelism
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = DefaultPlannerConfig().SessionTimeout
	}
	return &Planner{registry: registry, cfg: cfg, logger: logger}
}

// BuildPlan produces an immutable execution plan for the requested analysts.
func (p *Planner) BuildPlan(ids []core.AnalystID, strategy core.Strategy) (*core.ExecutionPlan, error) {
	if len(ids) == 0 {
		return nil, core.ErrValidation(core.CodeEmptySelection, "no analysts requested")
	}

	descs := make(map[core.AnalystID]*core.AnalystDescriptor, len(ids))
	for _, id := range ids {
		desc, ok := p.registry.Descriptor(id)
		if !ok {
			return nil, core.ErrValidation(core.CodeUnknownAnalyst,
				fmt.Sprintf("analyst %s is not registered", id))
		}
		descs[id] = desc
	}

	plan := &core.ExecutionPlan{
		ID:        uuid.New().String(),
		Strategy:  strategy,
		CreatedAt: time.Now(),
	}

	switch strategy {
	case core.StrategySequential:
		plan.Layers = p.sequentialLayers(ids, descs)
	case core.StrategyParallel:
		plan.Layers = [][]core.AnalystID{p.byPriority(ids, descs)}
	case core.StrategyDependencyDriven:
		plan.Layers = p.dependencyLayers(ids, descs, plan)
	case core.StrategyAdaptive:
		plan.Layers = p.splitLayers(p.dependencyLayers(ids, descs, plan), p.cfg.MaxParallelism)
	default:
		return nil, core.ErrValidation(core.CodeInvalidStrategy,
			fmt.Sprintf("unknown strategy: %s", strategy))
	}

	p.finalize(plan, descs)
	return plan, nil
}

// sequentialLayers puts one analyst per layer, highest priority first.
func (p *Planner) sequentialLayers(ids []core.AnalystID, descs map[core.AnalystID]*core.AnalystDescriptor) [][]core.AnalystID {
	ordered := p.byPriority(ids, descs)
	layers := make([][]core.AnalystID, 0, len(ordered))
	for _, id := range ordered {
		layers = append(layers, []core.AnalystID{id})
	}
	return layers
}

// dependencyLayers repeatedly schedules every analyst whose dependencies are
// already scheduled or outside the requested set. If an iteration schedules
// nothing (a dependency cycle among the remaining analysts), the remainder
// becomes a single immediately-ready layer with a warning. This guarantees
// termination.
func (p *Planner) dependencyLayers(ids []core.AnalystID, descs map[core.AnalystID]*core.AnalystDescriptor, plan *core.ExecutionPlan) [][]core.AnalystID {
	requested := make(map[core.AnalystID]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	scheduled := make(map[core.AnalystID]bool, len(ids))
	layers := make([][]core.AnalystID, 0)

	for len(scheduled) < len(ids) {
		ready := make([]core.AnalystID, 0)
		for _, id := range ids {
			if scheduled[id] {
				continue
			}
			depsSatisfied := true
			for _, dep := range descs[id].Dependencies {
				// Dependencies outside the requested set (including unknown
				// IDs) count as already satisfied.
				if requested[dep] && !scheduled[dep] {
					depsSatisfied = false
					break
				}
			}
			if depsSatisfied {
				ready = append(ready, id)
			}
		}

		if len(ready) == 0 {
			remaining := make([]core.AnalystID, 0)
			for _, id := range ids {
				if !scheduled[id] {
					remaining = append(remaining, id)
				}
			}
			msg := fmt.Sprintf("dependency cycle among %d analysts, scheduling them as one layer", len(remaining))
			plan.Warnings = append(plan.Warnings, msg)
			p.logger.Warn("planner degraded to flat layer", "remaining", len(remaining))
			ready = remaining
		}

		ready = p.byPriority(ready, descs)
		for _, id := range ready {
			scheduled[id] = true
		}
		layers = append(layers, ready)
	}

	return layers
}

// splitLayers breaks any layer wider than max into sequential sub-layers of
// at most max analysts, preserving internal priority order.
func (p *Planner) splitLayers(layers [][]core.AnalystID, max int) [][]core.AnalystID {
	if max <= 0 {
		return layers
	}
	out := make([][]core.AnalystID, 0, len(layers))
	for _, layer := range layers {
		for len(layer) > max {
			out = append(out, layer[:max])
			layer = layer[max:]
		}
		if len(layer) > 0 {
			out = append(out, layer)
		}
	}
	return out
}

// byPriority orders analysts by descending execution priority, breaking ties
// by ID for determinism.
func (p *Planner) byPriority(ids []core.AnalystID, descs map[core.AnalystID]*core.AnalystDescriptor) []core.AnalystID {
	ordered := append([]core.AnalystID(nil), ids...)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := descs[ordered[i]].Priority, descs[ordered[j]].Priority
		if pi != pj {
			return pi > pj
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

// finalize fills in timing estimates, resource allocation and the risk
// assessment over the built layers.
func (p *Planner) finalize(plan *core.ExecutionPlan, descs map[core.AnalystID]*core.AnalystDescriptor) {
	plan.ResourceAllocation = make(map[core.AnalystID]float64, len(descs))

	var total time.Duration
	maxWidth := 0
	contention := false

	for _, layer := range plan.Layers {
		if len(layer) > maxWidth {
			maxWidth = len(layer)
		}

		var layerMax time.Duration
		layerWeight := 0.0
		for _, id := range layer {
			d := descs[id]
			if d.EstimatedDuration > layerMax {
				layerMax = d.EstimatedDuration
			}
			layerWeight += d.ResourceWeight
		}
		total += layerMax

		// Normalize each analyst's weight against its layer.
		for _, id := range layer {
			if layerWeight > 0 {
				plan.ResourceAllocation[id] = descs[id].ResourceWeight / layerWeight
			} else {
				plan.ResourceAllocation[id] = 1.0 / float64(len(layer))
			}
		}

		if layerWeight > float64(p.cfg.MaxParallelism) {
			contention = true
		}
	}

	plan.EstimatedTotalTime = total
	plan.ParallelismFactor = maxWidth

	risk := core.RiskAssessment{
		HighParallelism:    maxWidth > p.cfg.MaxParallelism,
		LongExecution:      total > time.Duration(float64(p.cfg.SessionTimeout)*0.8),
		CriticalPath:       p.hasCritical(plan, descs),
		ResourceContention: contention,
	}
	risk.ComputeScore()
	plan.Risk = risk
}

func (p *Planner) hasCritical(plan *core.ExecutionPlan, descs map[core.AnalystID]*core.AnalystDescriptor) bool {
	for _, layer := range plan.Layers {
		for _, id := range layer {
			if descs[id].Critical {
				return true
			}
		}
	}
	return false
}
