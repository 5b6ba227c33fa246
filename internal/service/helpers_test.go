package service

import (
	"context"
	"testing"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// testDescriptor builds a minimal valid descriptor.
func testDescriptor(id core.AnalystID, priority int, deps ...core.AnalystID) *core.AnalystDescriptor {
	return &core.AnalystDescriptor{
		ID:                id,
		Kind:              core.KindTechnical,
		Version:           "1.0.0",
		Dependencies:      deps,
		Priority:          priority,
		EstimatedDuration: 10 * time.Millisecond,
		ResourceWeight:    1.0,
	}
}

// fixedAnalyst always returns the given result.
func fixedAnalyst(rec core.Recommendation, confidence float64) core.Analyst {
	return core.AnalystFunc(func(_ context.Context, _ core.AnalystInput) (*core.Result, error) {
		return &core.Result{Recommendation: rec, Confidence: confidence}, nil
	})
}

// mustRegister registers descriptors with fixed hold results.
func mustRegister(t *testing.T, r *Registry, descs ...*core.AnalystDescriptor) {
	t.Helper()
	for _, d := range descs {
		if err := r.Register(d, fixedAnalyst(core.RecommendationHold, 0.5)); err != nil {
			t.Fatalf("Register(%s) error = %v", d.ID, err)
		}
	}
}

func testLogger() *logging.Logger {
	return logging.NewNop()
}

// result builds an analyst/result pair for resolver and integrator tests.
func result(id core.AnalystID, rec core.Recommendation, confidence float64, reasoning ...string) core.AnalystResult {
	return core.AnalystResult{
		AnalystID: id,
		Result: &core.Result{
			Recommendation: rec,
			Confidence:     confidence,
			Reasoning:      reasoning,
		},
	}
}
