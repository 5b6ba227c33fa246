package core

import "fmt"

// Phase represents a stage in a session's lifecycle.
type Phase string

const (
	// PhaseInitialization is the first phase: the session slot has been
	// acquired and bookkeeping structures are being set up.
	PhaseInitialization Phase = "initialization"

	// PhaseDataCollection fetches external inputs for the subject. Individual
	// fetch failures are recorded as warnings, not fatal errors.
	PhaseDataCollection Phase = "data_collection"

	// PhaseParallelAnalysis executes the planned layers, fanning out to the
	// analysts of each layer concurrently.
	PhaseParallelAnalysis Phase = "parallel_analysis"

	// PhaseDebateConsensus reconciles disagreeing analyst outputs through
	// weighted voting and bounded debate rounds.
	PhaseDebateConsensus Phase = "debate_consensus"

	// PhaseFinalIntegration merges the reconciled outputs into one decision.
	PhaseFinalIntegration Phase = "final_integration"

	// PhaseCompleted is the terminal success state.
	PhaseCompleted Phase = "completed"

	// PhaseError is the terminal failure state, reachable from any
	// non-terminal phase.
	PhaseError Phase = "error"
)

// AllPhases returns the non-terminal phases in execution order.
func AllPhases() []Phase {
	return []Phase{
		PhaseInitialization,
		PhaseDataCollection,
		PhaseParallelAnalysis,
		PhaseDebateConsensus,
		PhaseFinalIntegration,
	}
}

// PhaseOrder returns the numeric order of a phase (0-indexed).
func PhaseOrder(p Phase) int {
	switch p {
	case PhaseInitialization:
		return 0
	case PhaseDataCollection:
		return 1
	case PhaseParallelAnalysis:
		return 2
	case PhaseDebateConsensus:
		return 3
	case PhaseFinalIntegration:
		return 4
	case PhaseCompleted:
		return 5
	case PhaseError:
		return 6
	default:
		return -1
	}
}

// NextPhase returns the phase following the given phase.
// Returns empty string for terminal phases.
func NextPhase(p Phase) Phase {
	switch p {
	case PhaseInitialization:
		return PhaseDataCollection
	case PhaseDataCollection:
		return PhaseParallelAnalysis
	case PhaseParallelAnalysis:
		return PhaseDebateConsensus
	case PhaseDebateConsensus:
		return PhaseFinalIntegration
	case PhaseFinalIntegration:
		return PhaseCompleted
	default:
		return ""
	}
}

// IsTerminal reports whether the phase admits no further transitions.
func (p Phase) IsTerminal() bool {
	return p == PhaseCompleted || p == PhaseError
}

// ValidPhase checks if a phase string is valid.
func ValidPhase(p Phase) bool {
	return PhaseOrder(p) >= 0
}

// ParsePhase converts a string to a Phase with validation.
func ParsePhase(s string) (Phase, error) {
	p := Phase(s)
	if !ValidPhase(p) {
		return "", fmt.Errorf("invalid phase: %s", s)
	}
	return p, nil
}

// String returns the string representation of the phase.
func (p Phase) String() string {
	return string(p)
}

// Description returns a human-readable description of the phase.
func (p Phase) Description() string {
	switch p {
	case PhaseInitialization:
		return "Set up the session and acquire resources"
	case PhaseDataCollection:
		return "Collect external data for the subject"
	case PhaseParallelAnalysis:
		return "Run analyst layers in bounded parallel"
	case PhaseDebateConsensus:
		return "Reconcile disagreement via voting and debate"
	case PhaseFinalIntegration:
		return "Merge analyst outputs into one decision"
	case PhaseCompleted:
		return "Session completed"
	case PhaseError:
		return "Session failed"
	default:
		return "Unknown phase"
	}
}
