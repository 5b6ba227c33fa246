package core

import (
	"errors"
	"testing"
)

func TestExecutionRecord_Lifecycle(t *testing.T) {
	rec := NewExecutionRecord("technical")
	if rec.Status != RecordStatusPending {
		t.Errorf("Status = %s, want %s", rec.Status, RecordStatusPending)
	}

	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if rec.Status != RecordStatusRunning {
		t.Errorf("Status = %s, want %s", rec.Status, RecordStatusRunning)
	}

	result := &Result{Recommendation: RecommendationBuy, Confidence: 0.8}
	if err := rec.Complete(result); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if !rec.Succeeded() {
		t.Error("Succeeded() = false after Complete()")
	}
	if rec.Duration <= 0 {
		t.Error("Duration should be set on completion")
	}
}

func TestExecutionRecord_TerminalOnce(t *testing.T) {
	rec := NewExecutionRecord("technical")
	if err := rec.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := rec.Fail(errors.New("upstream timeout")); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	// Any further transition is rejected
	if err := rec.Complete(&Result{Recommendation: RecommendationHold}); err == nil {
		t.Error("Complete() should fail on a terminal record")
	}
	if err := rec.Fail(errors.New("again")); err == nil {
		t.Error("Fail() should fail on a terminal record")
	}
	if err := rec.Start(); err == nil {
		t.Error("Start() should fail on a terminal record")
	}
	if rec.Succeeded() {
		t.Error("Succeeded() = true for a failed record")
	}
}

func TestExecutionRecord_Clone(t *testing.T) {
	rec := NewExecutionRecord("risk")
	rec.Start()
	rec.Complete(&Result{Recommendation: RecommendationSell, Confidence: 0.4, Reasoning: []string{"drawdown"}})

	clone := rec.Clone()
	clone.Result.Reasoning[0] = "mutated"
	if rec.Result.Reasoning[0] != "drawdown" {
		t.Error("Clone() should deep-copy the result")
	}
}
