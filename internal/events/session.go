package events

import "time"

// Event type constants for session lifecycle events.
const (
	TypeSessionSubmitted = "session_submitted"
	TypeSessionCompleted = "session_completed"
	TypeSessionFailed    = "session_failed"
	TypeSessionCancelled = "session_cancelled"
	TypePhaseChanged     = "phase_changed"
	TypeProgressUpdated  = "progress_updated"
	TypeAnalystFinished  = "analyst_finished"
	TypeConflictResolved = "conflict_resolved"
	TypeConsensusReached = "consensus_reached"
	TypeDebateRoundEnded = "debate_round_ended"
	TypeSessionsArchived = "sessions_archived"
)

// SessionSubmittedEvent is emitted when a session acquires a slot.
type SessionSubmittedEvent struct {
	BaseEvent
	SubjectID string `json:"subject_id"`
	Analysts  int    `json:"analysts"`
}

// NewSessionSubmittedEvent creates a session submitted event.
func NewSessionSubmittedEvent(sessionID, subjectID string, analysts int) SessionSubmittedEvent {
	return SessionSubmittedEvent{
		BaseEvent: NewBaseEvent(TypeSessionSubmitted, sessionID),
		SubjectID: subjectID,
		Analysts:  analysts,
	}
}

// PhaseChangedEvent is emitted on every phase transition.
type PhaseChangedEvent struct {
	BaseEvent
	Phase    string  `json:"phase"`
	Progress float64 `json:"progress"`
}

// NewPhaseChangedEvent creates a phase changed event.
func NewPhaseChangedEvent(sessionID, phase string, progress float64) PhaseChangedEvent {
	return PhaseChangedEvent{
		BaseEvent: NewBaseEvent(TypePhaseChanged, sessionID),
		Phase:     phase,
		Progress:  progress,
	}
}

// ProgressUpdatedEvent is emitted whenever session progress advances.
type ProgressUpdatedEvent struct {
	BaseEvent
	Progress float64 `json:"progress"`
}

// NewProgressUpdatedEvent creates a progress updated event.
func NewProgressUpdatedEvent(sessionID string, progress float64) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		BaseEvent: NewBaseEvent(TypeProgressUpdated, sessionID),
		Progress:  progress,
	}
}

// AnalystFinishedEvent is emitted when one analyst's record reaches a
// terminal status.
type AnalystFinishedEvent struct {
	BaseEvent
	AnalystID string        `json:"analyst_id"`
	Succeeded bool          `json:"succeeded"`
	Duration  time.Duration `json:"duration"`
}

// NewAnalystFinishedEvent creates an analyst finished event.
func NewAnalystFinishedEvent(sessionID, analystID string, succeeded bool, duration time.Duration) AnalystFinishedEvent {
	return AnalystFinishedEvent{
		BaseEvent: NewBaseEvent(TypeAnalystFinished, sessionID),
		AnalystID: analystID,
		Succeeded: succeeded,
		Duration:  duration,
	}
}

// ConflictResolvedEvent is emitted when weighted voting settles a
// disagreement.
type ConflictResolvedEvent struct {
	BaseEvent
	ResolvedValue string             `json:"resolved_value"`
	Weights       map[string]float64 `json:"weights"`
}

// NewConflictResolvedEvent creates a conflict resolved event.
func NewConflictResolvedEvent(sessionID, resolved string, weights map[string]float64) ConflictResolvedEvent {
	return ConflictResolvedEvent{
		BaseEvent:     NewBaseEvent(TypeConflictResolved, sessionID),
		ResolvedValue: resolved,
		Weights:       weights,
	}
}

// ConsensusReachedEvent is emitted after the debate protocol ends.
type ConsensusReachedEvent struct {
	BaseEvent
	Score    float64 `json:"score"`
	Achieved bool    `json:"achieved"`
	Rounds   int     `json:"rounds"`
}

// NewConsensusReachedEvent creates a consensus reached event.
func NewConsensusReachedEvent(sessionID string, score float64, achieved bool, rounds int) ConsensusReachedEvent {
	return ConsensusReachedEvent{
		BaseEvent: NewBaseEvent(TypeConsensusReached, sessionID),
		Score:     score,
		Achieved:  achieved,
		Rounds:    rounds,
	}
}

// DebateRoundEndedEvent is emitted after each completed debate round.
type DebateRoundEndedEvent struct {
	BaseEvent
	Round int     `json:"round"`
	Score float64 `json:"score"`
}

// NewDebateRoundEndedEvent creates a debate round ended event.
func NewDebateRoundEndedEvent(sessionID string, round int, score float64) DebateRoundEndedEvent {
	return DebateRoundEndedEvent{
		BaseEvent: NewBaseEvent(TypeDebateRoundEnded, sessionID),
		Round:     round,
		Score:     score,
	}
}

// SessionsArchivedEvent is emitted when cleanup archives terminal sessions.
type SessionsArchivedEvent struct {
	BaseEvent
	Count int `json:"count"`
}

// NewSessionsArchivedEvent creates a sessions archived event.
func NewSessionsArchivedEvent(count int) SessionsArchivedEvent {
	return SessionsArchivedEvent{
		BaseEvent: NewBaseEvent(TypeSessionsArchived, ""),
		Count:     count,
	}
}

// SessionTerminalEvent is emitted when a session reaches a terminal status.
type SessionTerminalEvent struct {
	BaseEvent
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
}

// NewSessionTerminalEvent creates a terminal event with the matching type for
// the status (completed, failed or cancelled).
func NewSessionTerminalEvent(sessionID, eventType, status string, duration time.Duration) SessionTerminalEvent {
	return SessionTerminalEvent{
		BaseEvent: NewBaseEvent(eventType, sessionID),
		Status:    status,
		Duration:  duration,
	}
}
