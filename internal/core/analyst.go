package core

import (
	"fmt"
	"time"
)

// AnalystID uniquely identifies a registered analyst.
type AnalystID string

// AnalysisKind classifies what an analyst looks at.
type AnalysisKind string

const (
	KindTechnical   AnalysisKind = "technical"
	KindFundamental AnalysisKind = "fundamental"
	KindNews        AnalysisKind = "news"
	KindSentiment   AnalysisKind = "sentiment"
	KindRisk        AnalysisKind = "risk"
	KindPlanning    AnalysisKind = "planning"
	KindMarket      AnalysisKind = "market"
)

// ValidKind checks if a kind string is one of the declared kinds.
func ValidKind(k AnalysisKind) bool {
	switch k {
	case KindTechnical, KindFundamental, KindNews, KindSentiment,
		KindRisk, KindPlanning, KindMarket:
		return true
	default:
		return false
	}
}

// ParseAnalysisKind converts a string to an AnalysisKind with validation.
func ParseAnalysisKind(s string) (AnalysisKind, error) {
	k := AnalysisKind(s)
	if !ValidKind(k) {
		return "", fmt.Errorf("invalid analysis kind: %s", s)
	}
	return k, nil
}

// Recommendation is the closed set of values an analyst may produce.
type Recommendation string

const (
	RecommendationBuy  Recommendation = "buy"
	RecommendationSell Recommendation = "sell"
	RecommendationHold Recommendation = "hold"
)

// ParseRecommendation converts a string to a Recommendation with validation.
func ParseRecommendation(s string) (Recommendation, error) {
	r := Recommendation(s)
	switch r {
	case RecommendationBuy, RecommendationSell, RecommendationHold:
		return r, nil
	default:
		return "", fmt.Errorf("invalid recommendation: %s", s)
	}
}

// Result is the output of one analyst invocation.
type Result struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     float64        `json:"confidence"` // 0.0 - 1.0
	Reasoning      []string       `json:"reasoning"`
	RiskFactors    []string       `json:"risk_factors,omitempty"`
	TargetPrice    *float64       `json:"target_price,omitempty"`
}

// Clone returns a deep copy of the result.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{
		Recommendation: r.Recommendation,
		Confidence:     r.Confidence,
		Reasoning:      append([]string(nil), r.Reasoning...),
		RiskFactors:    append([]string(nil), r.RiskFactors...),
	}
	if r.TargetPrice != nil {
		tp := *r.TargetPrice
		out.TargetPrice = &tp
	}
	return out
}

// AnalystDescriptor holds the metadata an analyst declares at registration.
// Immutable after registration except through an explicit registry upgrade.
type AnalystDescriptor struct {
	ID                AnalystID     `json:"id" yaml:"id"`
	Kind              AnalysisKind  `json:"kind" yaml:"kind"`
	Version           string        `json:"version" yaml:"version"`
	Dependencies      []AnalystID   `json:"dependencies,omitempty" yaml:"depends_on"`
	Priority          int           `json:"priority" yaml:"priority"`
	Critical          bool          `json:"critical" yaml:"critical"`
	EstimatedDuration time.Duration `json:"estimated_duration" yaml:"estimated_duration"`
	ResourceWeight    float64       `json:"resource_weight" yaml:"resource_weight"`

	// FinalSynthesis marks the analyst whose output, when present, is trusted
	// as the complete integrated decision.
	FinalSynthesis bool `json:"final_synthesis,omitempty" yaml:"final_synthesis"`
}

// Clone returns a deep copy of the descriptor.
func (d *AnalystDescriptor) Clone() *AnalystDescriptor {
	out := *d
	out.Dependencies = append([]AnalystID(nil), d.Dependencies...)
	return &out
}

// Validate checks descriptor invariants.
func (d *AnalystDescriptor) Validate() error {
	if d.ID == "" {
		return ErrValidation("ANALYST_ID_REQUIRED", "analyst ID cannot be empty")
	}
	if !ValidKind(d.Kind) {
		return ErrValidation("INVALID_KIND", fmt.Sprintf("unknown analysis kind: %s", d.Kind))
	}
	if d.ResourceWeight < 0 {
		return ErrValidation("INVALID_WEIGHT", "resource weight cannot be negative")
	}
	return nil
}

// AnalystInput is everything an analyst sees when invoked: the subject under
// analysis, the data collected for it, and the results of analysts from
// earlier layers.
type AnalystInput struct {
	SubjectID    string
	Collected    map[string]interface{}
	PriorResults map[AnalystID]*Result
}
