package core

import (
	"fmt"
	"time"
)

// RecordStatus tracks one analyst's execution within a session.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusRunning   RecordStatus = "running"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusFailed    RecordStatus = "failed"
)

// ExecutionRecord is the per-analyst, per-session execution record. It is
// written by exactly one concurrent unit of work; transitions run
// Pending -> Running -> Completed | Failed and the terminal transition
// happens exactly once.
type ExecutionRecord struct {
	AnalystID   AnalystID     `json:"analyst_id"`
	Status      RecordStatus  `json:"status"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Result      *Result       `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewExecutionRecord creates a pending record for an analyst.
func NewExecutionRecord(id AnalystID) *ExecutionRecord {
	return &ExecutionRecord{
		AnalystID: id,
		Status:    RecordStatusPending,
	}
}

// Start marks the record running.
func (r *ExecutionRecord) Start() error {
	if r.Status != RecordStatusPending {
		return ErrState(CodeInvalidState,
			fmt.Sprintf("cannot start record for %s in %s state", r.AnalystID, r.Status))
	}
	now := time.Now()
	r.Status = RecordStatusRunning
	r.StartedAt = &now
	return nil
}

// Complete marks the record completed with its result.
func (r *ExecutionRecord) Complete(result *Result) error {
	if err := r.finish(RecordStatusCompleted); err != nil {
		return err
	}
	r.Result = result
	return nil
}

// Fail marks the record failed with the analyst's error.
func (r *ExecutionRecord) Fail(err error) error {
	if ferr := r.finish(RecordStatusFailed); ferr != nil {
		return ferr
	}
	if err != nil {
		r.Error = err.Error()
	}
	return nil
}

func (r *ExecutionRecord) finish(status RecordStatus) error {
	if r.Status != RecordStatusRunning {
		return ErrState(CodeRecordTerminal,
			fmt.Sprintf("record for %s already %s", r.AnalystID, r.Status))
	}
	now := time.Now()
	r.Status = status
	r.CompletedAt = &now
	if r.StartedAt != nil {
		r.Duration = now.Sub(*r.StartedAt)
	}
	return nil
}

// Succeeded reports whether the record holds a usable result.
func (r *ExecutionRecord) Succeeded() bool {
	return r.Status == RecordStatusCompleted && r.Result != nil
}

// Clone returns a deep copy of the record.
func (r *ExecutionRecord) Clone() *ExecutionRecord {
	out := *r
	out.Result = r.Result.Clone()
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
