package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// LayerExecutor runs one plan layer at a time, fanning out to every analyst
// in the layer and joining their results. A single analyst's failure is
// captured in its execution record and never aborts siblings.
type LayerExecutor struct {
	registry *Registry
	logger   *logging.Logger
}

// NewLayerExecutor creates a layer executor over a registry.
func NewLayerExecutor(registry *Registry, logger *logging.Logger) *LayerExecutor {
	return &LayerExecutor{registry: registry, logger: logger}
}

// RunLayer executes every analyst in the layer concurrently and waits for all
// of them. Start order follows the layer's priority order; completion order
// is unconstrained. Prior results from earlier layers are visible to each
// analyst through its input.
func (e *LayerExecutor) RunLayer(ctx context.Context, session *core.Session, layer []core.AnalystID) {
	collected := session.CollectedData()
	prior := priorResults(session, layer)

	// Goroutines always return nil: failures go into the execution record so
	// one analyst cannot cancel its siblings.
	g := new(errgroup.Group)
	for _, id := range layer {
		id := id
		g.Go(func() error {
			e.runAnalyst(ctx, session, id, collected, prior)
			return nil
		})
	}
	_ = g.Wait()
}

func (e *LayerExecutor) runAnalyst(ctx context.Context, session *core.Session, id core.AnalystID, collected map[string]interface{}, prior map[core.AnalystID]*core.Result) {
	log := e.logger.WithSession(session.ID()).WithAnalyst(string(id))

	if err := session.StartRecord(id); err != nil {
		log.Error("starting execution record", "error", err)
		return
	}

	desc, impl, ok := e.registry.Get(id)
	if !ok {
		err := core.ErrExecution(core.CodeAnalystFailed, fmt.Sprintf("analyst %s disappeared from registry", id))
		_ = session.FailRecord(id, err)
		e.registry.Stats().RecordRun(id, 0, err)
		return
	}

	input := core.AnalystInput{
		SubjectID:    session.SubjectID(),
		Collected:    collected,
		PriorResults: prior,
	}

	start := time.Now()
	result, err := impl.Analyze(ctx, input)
	elapsed := time.Since(start)
	e.registry.Stats().RecordRun(id, elapsed, err)

	if err != nil {
		_ = session.FailRecord(id, err)
		if desc.Critical {
			session.AddWarning(fmt.Sprintf("critical analyst %s failed: %v", id, err))
			log.Error("critical analyst failed", "error", err, "duration", elapsed)
		} else {
			log.Warn("analyst failed", "error", err, "duration", elapsed)
		}
		return
	}
	if result == nil {
		err := core.ErrExecution(core.CodeAnalystFailed, fmt.Sprintf("analyst %s returned no result", id))
		_ = session.FailRecord(id, err)
		log.Warn("analyst returned nil result", "duration", elapsed)
		return
	}

	_ = session.CompleteRecord(id, result)
	log.Debug("analyst completed",
		"recommendation", result.Recommendation,
		"confidence", result.Confidence,
		"duration", elapsed,
	)
}

// priorResults collects successful results from earlier layers, excluding the
// analysts about to run.
func priorResults(session *core.Session, layer []core.AnalystID) map[core.AnalystID]*core.Result {
	inLayer := make(map[core.AnalystID]bool, len(layer))
	for _, id := range layer {
		inLayer[id] = true
	}
	prior := make(map[core.AnalystID]*core.Result)
	for _, ar := range session.SuccessfulResults() {
		if !inLayer[ar.AnalystID] {
			prior[ar.AnalystID] = ar.Result.Clone()
		}
	}
	return prior
}
