package core

import "time"

// ConflictResolution records how disagreeing analyst outputs were reconciled.
// Created only when at least two successful analysts disagree; unanimous
// agreement is not logged as a resolution.
type ConflictResolution struct {
	ConflictType      string                     `json:"conflict_type"`
	ConflictingValues []Recommendation           `json:"conflicting_values"`
	ResolutionMethod  string                     `json:"resolution_method"`
	WeightsByValue    map[Recommendation]float64 `json:"weights_by_value"`
	ResolvedValue     Recommendation             `json:"resolved_value"`
	Timestamp         time.Time                  `json:"timestamp"`
}

// DebateRound records one bounded negotiation round.
type DebateRound struct {
	Round     int       `json:"round"`
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"consensus_score"`
}

// ConsensusResult is the outcome of the debate protocol.
type ConsensusResult struct {
	Score         float64        `json:"score"`          // majority fraction of successful results
	Achieved      bool           `json:"achieved"`       // cleared the configured threshold
	MajorityValue Recommendation `json:"majority_value"` // decision carried forward either way
	Rounds        int            `json:"rounds"`         // debate rounds actually run
}

// FinalResult is the session's single integrated decision.
type FinalResult struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	Reasoning      []string       `json:"reasoning"`
	RiskFactors    []string       `json:"risk_factors,omitempty"`
	TargetPrice    *float64       `json:"target_price,omitempty"`

	// SynthesizedBy names the final-synthesis analyst when its output was
	// adopted verbatim; empty for generic integration.
	SynthesizedBy AnalystID `json:"synthesized_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
