package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/events"
	"github.com/finsight-labs/conclave/internal/logging"
)

// EngineConfig holds the engine's tunables.
type EngineConfig struct {
	// MaxSessions bounds concurrently active sessions (the slot pool).
	MaxSessions int64

	// SessionTimeout is a soft deadline checked at phase boundaries.
	SessionTimeout time.Duration

	// MaxParallelism bounds adaptive layer width.
	MaxParallelism int

	// DataKinds names the external inputs collected per session.
	DataKinds []string

	// Retention is how long terminal sessions stay queryable before Cleanup
	// may archive them.
	Retention time.Duration

	// ArchiveDir receives archived session snapshots as JSON files.
	// Empty disables archiving to disk (sessions are still removed).
	ArchiveDir string

	// MaxReasoningLines bounds the integrated reasoning output.
	MaxReasoningLines int

	// Debate bounds the negotiation protocol.
	Debate DebateConfig
}

// DefaultEngineConfig returns the default engine configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxSessions:       10,
		SessionTimeout:    30 * time.Minute,
		MaxParallelism:    4,
		DataKinds:         []string{"quote", "fundamentals", "news", "profile"},
		Retention:         time.Hour,
		MaxReasoningLines: 20,
		Debate:            DefaultDebateConfig(),
	}
}

// SubmitRequest describes one analysis request.
type SubmitRequest struct {
	SubjectID string

	// Analysts selects the workers to run; empty means every registered
	// analyst.
	Analysts []core.AnalystID

	// Strategy defaults to dependency-driven when empty.
	Strategy core.Strategy
}

// Engine is the orchestration engine: it owns sessions for their lifetime,
// drives each through the phase state machine in its own goroutine, and
// exposes the submit/status/cancel/cleanup control surface. Construct one per
// process scope that needs one; there is no package-level instance.
type Engine struct {
	cfg        EngineConfig
	registry   *Registry
	planner    *Planner
	executor   *LayerExecutor
	conflict   *ConflictResolver
	debate     *DebateEngine
	integrator *Integrator
	provider   core.DataProvider

	slots *semaphore.Weighted

	mu       sync.RWMutex
	sessions map[string]*core.Session

	bus       *events.Bus
	observers *events.ObserverList
	logger    *logging.Logger
	wg        sync.WaitGroup
}

// NewEngine constructs an engine. The provider may be nil, in which case data
// collection records a warning per kind and the analysis proceeds without
// external inputs.
func NewEngine(cfg EngineConfig, registry *Registry, provider core.DataProvider, logger *logging.Logger) *Engine {
	def := DefaultEngineConfig()
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	if cfg.SessionTimeout <= 0 {
		cfg.SessionTimeout = def.SessionTimeout
	}
	if cfg.MaxParallelism <= 0 {
		cfg.MaxParallelism = def.MaxParallelism
	}
	if cfg.MaxReasoningLines <= 0 {
		cfg.MaxReasoningLines = def.MaxReasoningLines
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	if len(cfg.DataKinds) == 0 {
		cfg.DataKinds = def.DataKinds
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	plannerCfg := PlannerConfig{
		MaxParallelism: cfg.MaxParallelism,
		SessionTimeout: cfg.SessionTimeout,
	}

	return &Engine{
		cfg:        cfg,
		registry:   registry,
		planner:    NewPlanner(registry, plannerCfg, logger),
		executor:   NewLayerExecutor(registry, logger),
		conflict:   NewConflictResolver(),
		debate:     NewDebateEngine(cfg.Debate, logger),
		integrator: NewIntegrator(registry, cfg.MaxReasoningLines),
		provider:   provider,
		slots:      semaphore.NewWeighted(cfg.MaxSessions),
		sessions:   make(map[string]*core.Session),
		bus:        events.NewBus(256),
		observers:  events.NewObserverList(logger),
		logger:     logger,
	}
}

// Bus exposes the engine's event bus for channel subscribers.
func (e *Engine) Bus() *events.Bus {
	return e.bus
}

// RegisterObserver adds a snapshot callback notified on every phase or
// progress change; the returned handle unregisters it.
func (e *Engine) RegisterObserver(fn events.Observer) int {
	return e.observers.Register(fn)
}

// UnregisterObserver removes a snapshot callback.
func (e *Engine) UnregisterObserver(id int) {
	e.observers.Unregister(id)
}

// Registry returns the engine's analyst registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Submit validates the request, acquires a session slot and starts the
// session's goroutine. When the slot pool is exhausted the request is
// rejected synchronously with a capacity error; the session never enters
// initialization.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if req.SubjectID == "" {
		return "", core.ErrValidation(core.CodeEmptySubject, "subject ID cannot be empty")
	}

	analysts := req.Analysts
	if len(analysts) == 0 {
		analysts = e.registry.List()
	}
	if len(analysts) == 0 {
		return "", core.ErrValidation(core.CodeEmptySelection, "no analysts registered")
	}
	for _, id := range analysts {
		if !e.registry.Has(id) {
			return "", core.ErrValidation(core.CodeUnknownAnalyst,
				fmt.Sprintf("analyst %s is not registered", id))
		}
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = core.StrategyDependencyDriven
	}
	if _, err := core.ParseStrategy(string(strategy)); err != nil {
		return "", err
	}

	if !e.slots.TryAcquire(1) {
		return "", core.ErrCapacity(
			fmt.Sprintf("all %d session slots busy, retry later", e.cfg.MaxSessions))
	}

	session := core.NewSession(uuid.New().String(), req.SubjectID)

	e.mu.Lock()
	e.sessions[session.ID()] = session
	e.mu.Unlock()

	e.bus.Publish(events.NewSessionSubmittedEvent(session.ID(), req.SubjectID, len(analysts)))
	e.logger.Info("session submitted",
		"session_id", session.ID(),
		"subject_id", req.SubjectID,
		"analysts", len(analysts),
		"strategy", strategy,
	)

	e.wg.Add(1)
	go e.runSession(session, analysts, strategy)

	return session.ID(), nil
}

// Status returns a point-in-time snapshot of a session, or a not-found error
// for unknown or already archived IDs.
func (e *Engine) Status(sessionID string) (core.SessionSnapshot, error) {
	e.mu.RLock()
	session, ok := e.sessions[sessionID]
	e.mu.RUnlock()

	if !ok {
		return core.SessionSnapshot{}, core.ErrNotFound("session", sessionID).
			WithDetail("code", core.CodeSessionNotFound)
	}
	return session.Snapshot(), nil
}

// Cancel marks a session cancelled. The owning goroutine observes it at the
// next phase boundary; in-flight analysts in the current layer finish rather
// than being forcibly killed. Returns false for unknown or already terminal
// sessions.
func (e *Engine) Cancel(sessionID string) bool {
	e.mu.RLock()
	session, ok := e.sessions[sessionID]
	e.mu.RUnlock()

	if !ok {
		return false
	}
	if !session.Cancel() {
		return false
	}
	e.logger.Info("session cancelled", "session_id", sessionID)
	return true
}

// Cleanup archives terminal sessions older than maxAge and removes them from
// the engine. Returns the number of sessions archived. A maxAge below the
// configured retention is raised to it.
func (e *Engine) Cleanup(maxAge time.Duration) int {
	if maxAge < e.cfg.Retention {
		maxAge = e.cfg.Retention
	}
	cutoff := time.Now().Add(-maxAge)

	e.mu.Lock()
	expired := make([]*core.Session, 0)
	for id, session := range e.sessions {
		endedAt := session.CompletedAt()
		if session.Status().IsTerminal() && endedAt != nil && endedAt.Before(cutoff) {
			expired = append(expired, session)
			delete(e.sessions, id)
		}
	}
	e.mu.Unlock()

	for _, session := range expired {
		if err := e.archive(session.Snapshot()); err != nil {
			e.logger.Warn("archiving session", "session_id", session.ID(), "error", err)
		}
	}

	if len(expired) > 0 {
		e.bus.Publish(events.NewSessionsArchivedEvent(len(expired)))
		e.logger.Info("sessions archived", "count", len(expired))
	}
	return len(expired)
}

// ActiveSessions returns the number of sessions currently holding a slot.
func (e *Engine) ActiveSessions() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	n := 0
	for _, s := range e.sessions {
		if !s.Status().IsTerminal() {
			n++
		}
	}
	return n
}

// Shutdown waits for all session goroutines to finish, bounded by ctx.
func (e *Engine) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.bus.Close()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// =============================================================================
// Session pipeline
// =============================================================================

// runSession drives one session through the phase state machine. Whatever
// happens, the slot is released on exit; no failure below this boundary ever
// propagates into caller code.
func (e *Engine) runSession(session *core.Session, analysts []core.AnalystID, strategy core.Strategy) {
	log := e.logger.WithSession(session.ID()).WithSubject(session.SubjectID())

	defer e.wg.Done()
	defer e.slots.Release(1)
	defer func() {
		if r := recover(); r != nil {
			session.ToError(core.ErrState("SESSION_PANIC", fmt.Sprintf("session panicked: %v", r)))
			e.finishSession(session, log)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session.MarkRunning()
	e.notify(session)

	steps := []struct {
		phase core.Phase
		run   func(context.Context, *core.Session) error
	}{
		{core.PhaseDataCollection, e.collectData},
		{core.PhaseParallelAnalysis, func(ctx context.Context, s *core.Session) error {
			return e.runAnalysis(ctx, s, analysts, strategy)
		}},
		{core.PhaseDebateConsensus, e.runDebate},
		{core.PhaseFinalIntegration, e.runIntegration},
	}

	for _, step := range steps {
		// Cancellation and the soft timeout are checked between phases only;
		// in-flight work inside a phase is joined, not preempted.
		if session.Cancelled() {
			log.Info("session stopped at phase boundary", "phase", session.Phase())
			e.finishSession(session, log)
			return
		}
		if time.Since(session.StartedAt()) > e.cfg.SessionTimeout {
			session.ToError(core.ErrTimeout(
				fmt.Sprintf("session exceeded %s timeout", e.cfg.SessionTimeout)))
			e.finishSession(session, log)
			return
		}

		if err := session.AdvancePhase(step.phase); err != nil {
			session.ToError(err)
			e.finishSession(session, log)
			return
		}
		e.notify(session)
		log.Debug("phase started", "phase", step.phase)

		if err := step.run(ctx, session); err != nil {
			session.ToError(err)
			e.finishSession(session, log)
			return
		}
		e.notify(session)
	}

	if session.Cancelled() {
		e.finishSession(session, log)
		return
	}
	if err := session.AdvancePhase(core.PhaseCompleted); err != nil {
		session.ToError(err)
	}
	e.finishSession(session, log)
}

// collectData fetches each configured data kind. Fetch failures become
// session warnings; the analysis proceeds with partial data.
func (e *Engine) collectData(ctx context.Context, session *core.Session) error {
	session.SetProgress(10)

	if e.provider == nil {
		for _, kind := range e.cfg.DataKinds {
			session.AddCollectionError(kind, fmt.Errorf("no data provider configured"))
		}
		session.SetProgress(30)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, kind := range e.cfg.DataKinds {
		kind := kind
		g.Go(func() error {
			payload, err := e.provider.Fetch(gctx, session.SubjectID(), kind)
			if err != nil {
				session.AddCollectionError(kind, err)
				return nil
			}
			session.SetCollected(kind, payload)
			return nil
		})
	}
	_ = g.Wait()

	session.SetProgress(30)
	return nil
}

// runAnalysis plans the requested analysts and executes the layers, scaling
// progress across the 30-70 band.
func (e *Engine) runAnalysis(ctx context.Context, session *core.Session, analysts []core.AnalystID, strategy core.Strategy) error {
	plan, err := e.planner.BuildPlan(analysts, strategy)
	if err != nil {
		return err
	}
	for _, w := range plan.Warnings {
		session.AddWarning(w)
	}
	session.SetPlan(plan)

	log := e.logger.WithSession(session.ID())
	log.Info("execution plan built",
		"plan_id", plan.ID,
		"strategy", plan.Strategy,
		"layers", len(plan.Layers),
		"estimated_time", plan.EstimatedTotalTime,
		"risk_score", plan.Risk.Score,
	)

	for i, layer := range plan.Layers {
		if session.Cancelled() {
			return nil
		}
		e.executor.RunLayer(ctx, session, layer)
		e.publishLayerResults(session, layer)

		session.SetProgress(30 + 40*float64(i+1)/float64(len(plan.Layers)))
		e.notify(session)
	}
	return nil
}

func (e *Engine) publishLayerResults(session *core.Session, layer []core.AnalystID) {
	for _, id := range layer {
		if rec, ok := session.Record(id); ok {
			e.bus.Publish(events.NewAnalystFinishedEvent(
				session.ID(), string(id), rec.Succeeded(), rec.Duration))
		}
	}
}

// runDebate resolves conflicts by weighted vote and runs the bounded debate
// protocol over the successful results.
func (e *Engine) runDebate(ctx context.Context, session *core.Session) error {
	results := session.SuccessfulResults()

	if resolution := e.conflict.Resolve(results); resolution != nil {
		session.SetConflict(resolution)
		weights := make(map[string]float64, len(resolution.WeightsByValue))
		for v, w := range resolution.WeightsByValue {
			weights[string(v)] = w
		}
		e.bus.Publish(events.NewConflictResolvedEvent(
			session.ID(), string(resolution.ResolvedValue), weights))
	}

	consensus := e.debate.Run(ctx, session, results)
	session.SetConsensus(consensus)
	for _, round := range session.Snapshot().DebateRounds {
		e.bus.Publish(events.NewDebateRoundEndedEvent(session.ID(), round.Round, round.Score))
	}
	e.bus.Publish(events.NewConsensusReachedEvent(
		session.ID(), consensus.Score, consensus.Achieved, consensus.Rounds))

	session.SetProgress(85)
	return nil
}

// runIntegration produces and stores the final decision.
func (e *Engine) runIntegration(_ context.Context, session *core.Session) error {
	snapshot := session.Snapshot()
	final := e.integrator.Integrate(session.SuccessfulResults(), snapshot.Conflict, snapshot.Consensus)
	if err := session.SetFinalResult(final); err != nil {
		return err
	}
	session.SetProgress(100)
	return nil
}

// finishSession publishes the terminal event and notifies observers.
func (e *Engine) finishSession(session *core.Session, log *logging.Logger) {
	status := session.Status()
	duration := time.Since(session.StartedAt())

	var eventType string
	switch status {
	case core.SessionStatusCompleted:
		eventType = events.TypeSessionCompleted
	case core.SessionStatusCancelled:
		eventType = events.TypeSessionCancelled
	default:
		eventType = events.TypeSessionFailed
	}
	e.bus.Publish(events.NewSessionTerminalEvent(session.ID(), eventType, string(status), duration))
	e.notify(session)

	log.Info("session finished",
		"status", status,
		"phase", session.Phase(),
		"progress", session.Progress(),
		"duration", duration,
	)
}

// notify publishes phase/progress events and invokes observer callbacks.
func (e *Engine) notify(session *core.Session) {
	snap := session.Snapshot()
	e.bus.Publish(events.NewPhaseChangedEvent(snap.SessionID, string(snap.Phase), snap.Progress))
	e.bus.Publish(events.NewProgressUpdatedEvent(snap.SessionID, snap.Progress))
	e.observers.Notify(snap)
}

// archive writes a session snapshot to the archive directory atomically.
func (e *Engine) archive(snap core.SessionSnapshot) error {
	if e.cfg.ArchiveDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.cfg.ArchiveDir, 0o755); err != nil {
		return fmt.Errorf("creating archive dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", snap.SessionID, err)
	}

	path := filepath.Join(e.cfg.ArchiveDir, snap.SessionID+".json")
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}
