package core

import (
	"fmt"
	"sync"
	"time"
)

// SessionStatus is the coarse overall state of a session.
type SessionStatus string

const (
	SessionStatusPending   SessionStatus = "pending"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusFailed || s == SessionStatusCancelled
}

// Session is one analysis run over a subject. It is owned by the engine's
// session goroutine for its lifetime; all mutation goes through methods that
// hold the session lock so snapshots can be taken concurrently.
//
// Invariants: the phase only moves forward (never regresses) except into the
// terminal error phase; progress is monotonically non-decreasing; the final
// result is set exactly once and only during final integration.
type Session struct {
	mu sync.RWMutex

	id        string
	subjectID string
	phase     Phase
	status    SessionStatus
	progress  float64

	collected        map[string]interface{}
	collectionErrors []string

	plan    *ExecutionPlan
	records map[AnalystID]*ExecutionRecord

	debateRounds []DebateRound
	consensus    *ConsensusResult
	conflict     *ConflictResolution
	finalResult  *FinalResult

	errors   []string
	warnings []string

	startedAt   time.Time
	completedAt *time.Time
}

// NewSession creates a session in the initialization phase.
func NewSession(id, subjectID string) *Session {
	return &Session{
		id:        id,
		subjectID: subjectID,
		phase:     PhaseInitialization,
		status:    SessionStatusPending,
		collected: make(map[string]interface{}),
		records:   make(map[AnalystID]*ExecutionRecord),
		startedAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// SubjectID returns what is being analyzed.
func (s *Session) SubjectID() string { return s.subjectID }

// Phase returns the current phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Status returns the current overall status.
func (s *Session) Status() SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Progress returns the current progress percentage.
func (s *Session) Progress() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// StartedAt returns the session creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// MarkRunning moves the session from pending to running.
func (s *Session) MarkRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == SessionStatusPending {
		s.status = SessionStatusRunning
	}
}

// AdvancePhase moves the session to the next phase in the fixed order.
// Regressions and jumps are rejected.
func (s *Session) AdvancePhase(next Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.IsTerminal() {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("session %s is terminal (%s)", s.id, s.phase))
	}
	if NextPhase(s.phase) != next {
		return ErrState(CodePhaseRegression,
			fmt.Sprintf("cannot move from %s to %s", s.phase, next))
	}
	s.phase = next
	if next == PhaseCompleted {
		s.status = SessionStatusCompleted
		now := time.Now()
		s.completedAt = &now
		s.progress = 100
	}
	return nil
}

// ToError moves the session directly to the terminal error phase from any
// non-terminal phase. Progress is left at its last valid value.
func (s *Session) ToError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase.IsTerminal() {
		return
	}
	s.phase = PhaseError
	s.status = SessionStatusFailed
	if err != nil {
		s.errors = append(s.errors, err.Error())
	}
	now := time.Now()
	s.completedAt = &now
}

// Cancel marks the session cancelled. The phase freezes at its last valid
// value; the owning goroutine observes the status at the next phase boundary.
// Returns false if the session already reached a terminal status.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.IsTerminal() {
		return false
	}
	s.status = SessionStatusCancelled
	now := time.Now()
	s.completedAt = &now
	return true
}

// Cancelled reports whether the session has been cancelled.
func (s *Session) Cancelled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status == SessionStatusCancelled
}

// SetProgress raises the progress percentage. Values below the current
// progress are ignored to keep progress monotonic; values are clamped to 100.
func (s *Session) SetProgress(p float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p > 100 {
		p = 100
	}
	if p > s.progress {
		s.progress = p
	}
}

// SetCollected stores one named external input.
func (s *Session) SetCollected(kind string, payload interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collected[kind] = payload
}

// AddCollectionError records a failed data fetch as a warning.
func (s *Session) AddCollectionError(kind string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := fmt.Sprintf("%s: %v", kind, err)
	s.collectionErrors = append(s.collectionErrors, msg)
	s.warnings = append(s.warnings, "data collection: "+msg)
}

// CollectedData returns a copy of the collected inputs.
func (s *Session) CollectedData() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.collected))
	for k, v := range s.collected {
		out[k] = v
	}
	return out
}

// AddWarning appends to the session's warning log.
func (s *Session) AddWarning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.warnings = append(s.warnings, msg)
}

// AddError appends to the session's error log without changing phase.
func (s *Session) AddError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, msg)
}

// SetPlan attaches the execution plan and creates a pending record for every
// planned analyst.
func (s *Session) SetPlan(plan *ExecutionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	for _, id := range plan.Order() {
		if _, ok := s.records[id]; !ok {
			s.records[id] = NewExecutionRecord(id)
		}
	}
}

// Plan returns the attached execution plan.
func (s *Session) Plan() *ExecutionPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// Record returns a copy of the execution record for an analyst.
func (s *Session) Record(id AnalystID) (*ExecutionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// StartRecord marks an analyst's record running.
func (s *Session) StartRecord(id AnalystID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound("execution record", string(id))
	}
	return rec.Start()
}

// CompleteRecord marks an analyst's record completed with its result.
func (s *Session) CompleteRecord(id AnalystID, result *Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound("execution record", string(id))
	}
	return rec.Complete(result)
}

// FailRecord marks an analyst's record failed.
func (s *Session) FailRecord(id AnalystID, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound("execution record", string(id))
	}
	return rec.Fail(err)
}

// SuccessfulResults returns the results of completed analysts in plan order.
// Plan order makes downstream tie-breaks deterministic.
func (s *Session) SuccessfulResults() []AnalystResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.plan == nil {
		return nil
	}
	out := make([]AnalystResult, 0, len(s.records))
	for _, id := range s.plan.Order() {
		rec := s.records[id]
		if rec != nil && rec.Succeeded() {
			out = append(out, AnalystResult{AnalystID: id, Result: rec.Result})
		}
	}
	return out
}

// AddDebateRound appends a debate round to the session history.
func (s *Session) AddDebateRound(round DebateRound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debateRounds = append(s.debateRounds, round)
}

// SetConsensus records the consensus outcome.
func (s *Session) SetConsensus(c *ConsensusResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consensus = c
}

// SetConflict records the conflict resolution, if one was produced.
func (s *Session) SetConflict(c *ConflictResolution) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflict = c
}

// Conflict returns the conflict resolution record, if any.
func (s *Session) Conflict() *ConflictResolution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conflict
}

// SetFinalResult stores the integrated decision. It may be called exactly
// once, and only while the session is in the final integration phase.
func (s *Session) SetFinalResult(r *FinalResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseFinalIntegration {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("final result requires %s phase, session is in %s", PhaseFinalIntegration, s.phase))
	}
	if s.finalResult != nil {
		return ErrState(CodeResultAlreadySet, "final result already set")
	}
	s.finalResult = r
	return nil
}

// FinalResult returns the integrated decision, or nil before integration.
func (s *Session) FinalResult() *FinalResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finalResult
}

// CompletedAt returns the terminal timestamp, if the session has ended.
func (s *Session) CompletedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.completedAt == nil {
		return nil
	}
	t := *s.completedAt
	return &t
}

// AnalystResult pairs an analyst with its successful result.
type AnalystResult struct {
	AnalystID AnalystID
	Result    *Result
}

// SessionSnapshot is a point-in-time, caller-safe copy of a session.
type SessionSnapshot struct {
	SessionID        string                         `json:"session_id"`
	SubjectID        string                         `json:"subject_id"`
	Phase            Phase                          `json:"phase"`
	Status           SessionStatus                  `json:"status"`
	Progress         float64                        `json:"progress"`
	Records          map[AnalystID]*ExecutionRecord `json:"records"`
	CollectionErrors []string                       `json:"collection_errors,omitempty"`
	DebateRounds     []DebateRound                  `json:"debate_rounds,omitempty"`
	Consensus        *ConsensusResult               `json:"consensus,omitempty"`
	Conflict         *ConflictResolution            `json:"conflict,omitempty"`
	FinalResult      *FinalResult                   `json:"final_result,omitempty"`
	Errors           []string                       `json:"errors,omitempty"`
	Warnings         []string                       `json:"warnings,omitempty"`
	StartedAt        time.Time                      `json:"started_at"`
	CompletedAt      *time.Time                     `json:"completed_at,omitempty"`
}

// Snapshot returns a deep copy safe to hand to callers and observers.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := SessionSnapshot{
		SessionID:        s.id,
		SubjectID:        s.subjectID,
		Phase:            s.phase,
		Status:           s.status,
		Progress:         s.progress,
		Records:          make(map[AnalystID]*ExecutionRecord, len(s.records)),
		CollectionErrors: append([]string(nil), s.collectionErrors...),
		DebateRounds:     append([]DebateRound(nil), s.debateRounds...),
		Errors:           append([]string(nil), s.errors...),
		Warnings:         append([]string(nil), s.warnings...),
		StartedAt:        s.startedAt,
	}
	for id, rec := range s.records {
		snap.Records[id] = rec.Clone()
	}
	if s.consensus != nil {
		c := *s.consensus
		snap.Consensus = &c
	}
	if s.conflict != nil {
		c := *s.conflict
		snap.Conflict = &c
	}
	if s.finalResult != nil {
		f := *s.finalResult
		snap.FinalResult = &f
	}
	if s.completedAt != nil {
		t := *s.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
