package service

import (
	"fmt"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

// Integrator merges the reconciled analyst outputs into one decision.
type Integrator struct {
	registry *Registry

	// maxReasoningLines bounds the concatenated reasoning output.
	maxReasoningLines int
}

// NewIntegrator creates an integrator over a registry.
func NewIntegrator(registry *Registry, maxReasoningLines int) *Integrator {
	if maxReasoningLines <= 0 {
		maxReasoningLines = 20
	}
	return &Integrator{registry: registry, maxReasoningLines: maxReasoningLines}
}

// Integrate produces the session's final result. If a final-synthesis analyst
// completed successfully its output is adopted verbatim, since it is assumed
// to already incorporate the other analysts' outputs. Otherwise the resolved
// or unanimous recommendation is combined with the mean confidence and
// source-tagged reasoning. Zero successful analysts yield a degenerate hold
// result with confidence 0 rather than an error.
func (i *Integrator) Integrate(results []core.AnalystResult, conflict *core.ConflictResolution, consensus *core.ConsensusResult) *core.FinalResult {
	if synth := i.findSynthesis(results); synth != nil {
		r := synth.Result
		return &core.FinalResult{
			Recommendation: r.Recommendation,
			Confidence:     r.Confidence,
			Reasoning:      append([]string(nil), r.Reasoning...),
			RiskFactors:    append([]string(nil), r.RiskFactors...),
			TargetPrice:    r.TargetPrice,
			SynthesizedBy:  synth.AnalystID,
			CreatedAt:      time.Now(),
		}
	}

	if len(results) == 0 {
		return &core.FinalResult{
			Recommendation: core.RecommendationHold,
			Confidence:     0,
			Reasoning:      []string{"no analyst produced a usable result"},
			CreatedAt:      time.Now(),
		}
	}

	recommendation := results[0].Result.Recommendation
	if conflict != nil {
		recommendation = conflict.ResolvedValue
	} else if consensus != nil {
		recommendation = consensus.MajorityValue
	}

	confidence := 0.0
	reasoning := make([]string, 0, i.maxReasoningLines)
	risks := make([]string, 0)
	for _, ar := range results {
		confidence += ar.Result.Confidence
		for _, line := range ar.Result.Reasoning {
			if len(reasoning) >= i.maxReasoningLines {
				break
			}
			reasoning = append(reasoning, fmt.Sprintf("[%s] %s", ar.AnalystID, line))
		}
		risks = append(risks, ar.Result.RiskFactors...)
	}
	confidence /= float64(len(results))

	return &core.FinalResult{
		Recommendation: recommendation,
		Confidence:     confidence,
		Reasoning:      reasoning,
		RiskFactors:    risks,
		CreatedAt:      time.Now(),
	}
}

// findSynthesis returns the successful result of the designated
// final-synthesis analyst, if any.
func (i *Integrator) findSynthesis(results []core.AnalystResult) *core.AnalystResult {
	for idx := range results {
		desc, ok := i.registry.Descriptor(results[idx].AnalystID)
		if ok && desc.FinalSynthesis {
			return &results[idx]
		}
	}
	return nil
}
