package service

import (
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

// ConflictResolver reconciles disagreeing analyst outputs through
// confidence-weighted voting.
type ConflictResolver struct{}

// NewConflictResolver creates a conflict resolver.
func NewConflictResolver() *ConflictResolver {
	return &ConflictResolver{}
}

// Resolve inspects the successful results of a session. With fewer than two
// successful results no conflict is possible and nil is returned. Unanimous
// agreement also returns nil: it is not logged as a resolution. Otherwise the
// recommendation with the highest summed confidence wins, with ties broken by
// the order in which values first appeared.
func (c *ConflictResolver) Resolve(results []core.AnalystResult) *core.ConflictResolution {
	if len(results) < 2 {
		return nil
	}

	weights := make(map[core.Recommendation]float64)
	firstSeen := make([]core.Recommendation, 0, 3)
	for _, ar := range results {
		v := ar.Result.Recommendation
		if _, ok := weights[v]; !ok {
			firstSeen = append(firstSeen, v)
		}
		weights[v] += ar.Result.Confidence
	}

	if len(firstSeen) < 2 {
		return nil
	}

	resolved := firstSeen[0]
	for _, v := range firstSeen[1:] {
		if weights[v] > weights[resolved] {
			resolved = v
		}
	}

	return &core.ConflictResolution{
		ConflictType:      "recommendation_disagreement",
		ConflictingValues: firstSeen,
		ResolutionMethod:  "weighted_voting",
		WeightsByValue:    weights,
		ResolvedValue:     resolved,
		Timestamp:         time.Now(),
	}
}
