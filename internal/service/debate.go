package service

import (
	"context"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// DebateConfig bounds the negotiation protocol.
type DebateConfig struct {
	// Threshold is the minimum majority fraction to accept consensus.
	Threshold float64

	// MaxRounds caps the number of debate rounds per session.
	MaxRounds int

	// RoundDelay paces each round; it is the only artificial suspension point
	// inside the debate loop.
	RoundDelay time.Duration
}

// DefaultDebateConfig returns the default debate bounds.
func DefaultDebateConfig() DebateConfig {
	return DebateConfig{
		Threshold:  0.6,
		MaxRounds:  3,
		RoundDelay: 500 * time.Millisecond,
	}
}

// DebateEngine runs the bounded negotiation protocol when disagreement is
// severe. The consensus score is purely the majority-agreement fraction;
// confidence enters only the weighted vote, not this score.
type DebateEngine struct {
	cfg    DebateConfig
	logger *logging.Logger
}

// NewDebateEngine creates a debate engine.
func NewDebateEngine(cfg DebateConfig, logger *logging.Logger) *DebateEngine {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultDebateConfig().Threshold
	}
	if cfg.MaxRounds < 0 {
		cfg.MaxRounds = DefaultDebateConfig().MaxRounds
	}
	return &DebateEngine{cfg: cfg, logger: logger}
}

// Run evaluates consensus and, while it stays below the threshold, gives the
// analysts up to MaxRounds paced opportunities to converge. It always
// terminates with a majority decision; Achieved is false when the threshold
// was never cleared.
func (d *DebateEngine) Run(ctx context.Context, session *core.Session, results []core.AnalystResult) *core.ConsensusResult {
	log := d.logger.WithSession(session.ID())

	score, majority := consensusScore(results)
	if len(results) == 0 {
		return &core.ConsensusResult{Score: 0, Achieved: false, MajorityValue: core.RecommendationHold}
	}
	if score >= d.cfg.Threshold {
		log.Debug("consensus accepted without debate", "score", score, "majority", majority)
		return &core.ConsensusResult{Score: score, Achieved: true, MajorityValue: majority}
	}

	rounds := 0
	for round := 1; round <= d.cfg.MaxRounds; round++ {
		if err := d.pace(ctx); err != nil {
			break
		}

		// Each round is an opportunity for positions to be revisited before
		// the score is recomputed.
		score, majority = consensusScore(results)
		rounds = round
		session.AddDebateRound(core.DebateRound{
			Round:     round,
			Timestamp: time.Now(),
			Score:     score,
		})
		log.Debug("debate round completed", "round", round, "score", score)

		if score >= d.cfg.Threshold {
			return &core.ConsensusResult{Score: score, Achieved: true, MajorityValue: majority, Rounds: rounds}
		}
	}

	log.Warn("consensus not achieved, proceeding with majority",
		"score", score,
		"threshold", d.cfg.Threshold,
		"rounds", rounds,
	)
	return &core.ConsensusResult{Score: score, Achieved: false, MajorityValue: majority, Rounds: rounds}
}

func (d *DebateEngine) pace(ctx context.Context) error {
	if d.cfg.RoundDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d.cfg.RoundDelay):
		return nil
	}
}

// consensusScore returns the fraction of successful results agreeing with the
// majority recommendation, and that recommendation. Ties break by first-seen
// order.
func consensusScore(results []core.AnalystResult) (float64, core.Recommendation) {
	if len(results) == 0 {
		return 0, core.RecommendationHold
	}

	counts := make(map[core.Recommendation]int)
	firstSeen := make([]core.Recommendation, 0, 3)
	for _, ar := range results {
		v := ar.Result.Recommendation
		if _, ok := counts[v]; !ok {
			firstSeen = append(firstSeen, v)
		}
		counts[v]++
	}

	majority := firstSeen[0]
	for _, v := range firstSeen[1:] {
		if counts[v] > counts[majority] {
			majority = v
		}
	}
	return float64(counts[majority]) / float64(len(results)), majority
}
