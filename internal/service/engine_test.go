package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

func fastEngineConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.MaxSessions = 2
	cfg.SessionTimeout = 5 * time.Second
	cfg.DataKinds = []string{"quote"}
	cfg.Debate = DebateConfig{Threshold: 0.6, MaxRounds: 2, RoundDelay: 0}
	return cfg
}

func waitTerminal(t *testing.T, e *Engine, sessionID string) core.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap, err := e.Status(sessionID)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if snap.Status.IsTerminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("session never reached a terminal status")
	return core.SessionSnapshot{}
}

type testProvider struct{}

func (testProvider) Fetch(_ context.Context, subjectID, kind string) (interface{}, error) {
	return map[string]string{"subject": subjectID, "kind": kind}, nil
}

func demoRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	techDesc := testDescriptor("technical", 10)
	fundDesc := testDescriptor("fundamental", 8)
	riskDesc := testDescriptor("risk", 5, "technical", "fundamental")

	if err := r.Register(techDesc, fixedAnalyst(core.RecommendationBuy, 0.8)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(fundDesc, fixedAnalyst(core.RecommendationBuy, 0.7)); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(riskDesc, fixedAnalyst(core.RecommendationHold, 0.6)); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestEngine_SessionLifecycle(t *testing.T) {
	e := NewEngine(fastEngineConfig(), demoRegistry(t), testProvider{}, testLogger())

	id, err := e.Submit(context.Background(), SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitTerminal(t, e, id)
	if snap.Status != core.SessionStatusCompleted {
		t.Fatalf("Status = %s, want completed (errors: %v)", snap.Status, snap.Errors)
	}
	if snap.Phase != core.PhaseCompleted {
		t.Errorf("Phase = %s, want completed", snap.Phase)
	}
	if snap.Progress != 100 {
		t.Errorf("Progress = %f, want 100", snap.Progress)
	}
	if snap.FinalResult == nil {
		t.Fatal("FinalResult missing on a completed session")
	}
	// Weighted vote: buy 1.5 beats hold 0.6
	if snap.FinalResult.Recommendation != core.RecommendationBuy {
		t.Errorf("Recommendation = %s, want buy", snap.FinalResult.Recommendation)
	}
	if snap.Consensus == nil || !snap.Consensus.Achieved {
		t.Error("2/3 agreement should clear the consensus threshold")
	}
	if snap.Conflict == nil {
		t.Error("buy/hold disagreement should record a conflict resolution")
	}
	for _, rec := range snap.Records {
		if rec.Status != core.RecordStatusCompleted {
			t.Errorf("record %s = %s, want completed", rec.AnalystID, rec.Status)
		}
	}
}

func TestEngine_SessionTimeout(t *testing.T) {
	cfg := fastEngineConfig()
	cfg.SessionTimeout = time.Nanosecond

	e := NewEngine(cfg, demoRegistry(t), testProvider{}, testLogger())

	id, err := e.Submit(context.Background(), SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	snap := waitTerminal(t, e, id)
	if snap.Status != core.SessionStatusFailed {
		t.Fatalf("Status = %s, want failed", snap.Status)
	}
	if snap.Phase != core.PhaseError {
		t.Errorf("Phase = %s, want error", snap.Phase)
	}
	found := false
	for _, msg := range snap.Errors {
		if strings.Contains(msg, "timeout") {
			found = true
		}
	}
	if !found {
		t.Errorf("Errors = %v, want a timeout entry", snap.Errors)
	}
	if snap.FinalResult != nil {
		t.Error("timed-out session must not carry a final result")
	}
}

func TestEngine_SubmitValidation(t *testing.T) {
	e := NewEngine(fastEngineConfig(), demoRegistry(t), testProvider{}, testLogger())
	ctx := context.Background()

	if _, err := e.Submit(ctx, SubmitRequest{}); err == nil {
		t.Error("Submit() should reject an empty subject")
	}
	if _, err := e.Submit(ctx, SubmitRequest{SubjectID: "ACME", Analysts: []core.AnalystID{"ghost"}}); err == nil {
		t.Error("Submit() should reject unknown analysts")
	}
	if _, err := e.Submit(ctx, SubmitRequest{SubjectID: "ACME", Strategy: core.Strategy("greedy")}); err == nil {
		t.Error("Submit() should reject unknown strategies")
	}
	if _, err := e.Submit(ctx, SubmitRequest{SubjectID: "ACME"}); err != nil {
		t.Errorf("Submit() error = %v for a valid request", err)
	}
}

func TestEngine_CapacityRejection(t *testing.T) {
	r := NewRegistry()
	release := make(chan struct{})
	slow := testDescriptor("slow", 1)
	if err := r.Register(slow, core.AnalystFunc(func(ctx context.Context, _ core.AnalystInput) (*core.Result, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &core.Result{Recommendation: core.RecommendationHold, Confidence: 0.5}, nil
	})); err != nil {
		t.Fatal(err)
	}

	cfg := fastEngineConfig()
	cfg.MaxSessions = 1
	e := NewEngine(cfg, r, testProvider{}, testLogger())
	ctx := context.Background()

	first, err := e.Submit(ctx, SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	// The single slot is held; the second submit is rejected synchronously
	// and no session is created for it.
	rejectedID, err := e.Submit(ctx, SubmitRequest{SubjectID: "OTHER"})
	if err == nil {
		t.Fatal("Submit() should reject when all slots are busy")
	}
	if !core.IsCapacity(err) {
		t.Errorf("error = %v, want a capacity error", err)
	}
	if rejectedID != "" {
		t.Errorf("rejected submit returned session ID %q", rejectedID)
	}

	close(release)
	waitTerminal(t, e, first)

	// Slot released: capacity is available again
	second, err := e.Submit(ctx, SubmitRequest{SubjectID: "OTHER"})
	if err != nil {
		t.Fatalf("Submit() error = %v after slot release", err)
	}
	waitTerminal(t, e, second)
}

func TestEngine_Cancel(t *testing.T) {
	r := NewRegistry()
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	slow := testDescriptor("slow", 1)
	if err := r.Register(slow, core.AnalystFunc(func(ctx context.Context, _ core.AnalystInput) (*core.Result, error) {
		once.Do(func() { close(started) })
		select {
		case <-release:
		case <-ctx.Done():
		}
		return &core.Result{Recommendation: core.RecommendationHold, Confidence: 0.5}, nil
	})); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(fastEngineConfig(), r, testProvider{}, testLogger())
	id, err := e.Submit(context.Background(), SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	<-started
	if !e.Cancel(id) {
		t.Fatal("Cancel() = false for a running session")
	}
	close(release)

	snap := waitTerminal(t, e, id)
	if snap.Status != core.SessionStatusCancelled {
		t.Errorf("Status = %s, want cancelled", snap.Status)
	}
	if snap.Phase == core.PhaseCompleted {
		t.Error("a cancelled session must never report the completed phase")
	}
	if snap.FinalResult != nil {
		t.Error("a cancelled session must not carry a final result")
	}

	// Cancelling a terminal session is a no-op
	if e.Cancel(id) {
		t.Error("Cancel() = true on a terminal session")
	}
	if e.Cancel("unknown") {
		t.Error("Cancel() = true for an unknown session")
	}
}

func TestEngine_StatusUnknownSession(t *testing.T) {
	e := NewEngine(fastEngineConfig(), demoRegistry(t), testProvider{}, testLogger())

	_, err := e.Status("missing")
	if err == nil {
		t.Fatal("Status() should fail for an unknown session")
	}
	if !core.IsNotFound(err) {
		t.Errorf("error = %v, want not-found", err)
	}
}

func TestEngine_ProgressMonotonicAcrossSnapshots(t *testing.T) {
	e := NewEngine(fastEngineConfig(), demoRegistry(t), testProvider{}, testLogger())

	var mu sync.Mutex
	progress := []float64{}
	e.RegisterObserver(func(snap core.SessionSnapshot) {
		mu.Lock()
		progress = append(progress, snap.Progress)
		mu.Unlock()
	})

	id, err := e.Submit(context.Background(), SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitTerminal(t, e, id)

	mu.Lock()
	defer mu.Unlock()
	if len(progress) == 0 {
		t.Fatal("observers never fired")
	}
	for i := 1; i < len(progress); i++ {
		if progress[i] < progress[i-1] {
			t.Fatalf("progress regressed: %v", progress)
		}
	}
	if progress[len(progress)-1] != 100 {
		t.Errorf("final progress = %f, want 100", progress[len(progress)-1])
	}
}

func TestEngine_CleanupArchivesAndFrees(t *testing.T) {
	cfg := fastEngineConfig()
	cfg.Retention = time.Nanosecond
	cfg.ArchiveDir = t.TempDir()
	e := NewEngine(cfg, demoRegistry(t), testProvider{}, testLogger())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := e.Submit(ctx, SubmitRequest{SubjectID: "ACME"})
		if err != nil {
			t.Fatalf("Submit() #%d error = %v", i, err)
		}
		waitTerminal(t, e, id)
	}
	if e.ActiveSessions() != 0 {
		t.Errorf("ActiveSessions() = %d after all sessions finished, want 0", e.ActiveSessions())
	}

	n := e.Cleanup(time.Nanosecond)
	if n != 3 {
		t.Errorf("Cleanup() = %d, want 3", n)
	}

	// Archived sessions are no longer queryable
	if _, err := e.Status("anything"); err == nil {
		t.Error("Status() should fail after archiving")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestEngine_NoProviderStillCompletes(t *testing.T) {
	e := NewEngine(fastEngineConfig(), demoRegistry(t), nil, testLogger())

	id, err := e.Submit(context.Background(), SubmitRequest{SubjectID: "ACME"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	snap := waitTerminal(t, e, id)

	if snap.Status != core.SessionStatusCompleted {
		t.Errorf("Status = %s, data collection failures must not fail the session", snap.Status)
	}
	if len(snap.Warnings) == 0 {
		t.Error("missing provider should surface as warnings")
	}
}
