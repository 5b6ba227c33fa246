package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/conclave/internal/adapters/scripted"
	"github.com/finsight-labs/conclave/internal/config"
	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
	"github.com/finsight-labs/conclave/internal/service"
)

var (
	runAnalysts string
	runStrategy string
	rosterPath  string
	rosterWatch bool
)

var runCmd = &cobra.Command{
	Use:   "run SUBJECT",
	Short: "Run an analysis session over a subject",
	Long: `Run submits one analysis session and waits for it to finish, printing
phase transitions as they happen and the integrated recommendation at the end.

Without --roster a built-in demo roster of scripted analysts is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runAnalysts, "analysts", "",
		"comma-separated analyst IDs (default: all registered)")
	runCmd.Flags().StringVar(&runStrategy, "strategy", "",
		"execution strategy (sequential, parallel, dependency-driven, adaptive)")
	runCmd.Flags().StringVar(&rosterPath, "roster", "",
		"analyst roster manifest (YAML)")
	runCmd.Flags().BoolVar(&rosterWatch, "watch-roster", false,
		"reload the roster manifest on change")
	rootCmd.AddCommand(runCmd)
}

func runRun(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	registry := service.NewRegistry()
	if err := populateRegistry(cfg, registry, logger); err != nil {
		return err
	}

	engine, err := buildEngine(cfg, registry, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := rosterPath
	if path == "" {
		path = cfg.Roster.Path
	}
	if path != "" && (rosterWatch || cfg.Roster.Watch) {
		watcher, err := service.NewRosterWatcher(path, registry, analystFactory, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("roster watcher stopped", "error", err)
			}
		}()
	}

	var analysts []core.AnalystID
	if runAnalysts != "" {
		for _, id := range strings.Split(runAnalysts, ",") {
			analysts = append(analysts, core.AnalystID(strings.TrimSpace(id)))
		}
	}

	done := make(chan core.SessionSnapshot, 1)
	lastPhase := core.Phase("")
	engine.RegisterObserver(func(snap core.SessionSnapshot) {
		if snap.Phase != lastPhase {
			lastPhase = snap.Phase
			fmt.Printf("  %-20s %5.1f%%\n", snap.Phase, snap.Progress)
		}
		if snap.Status.IsTerminal() {
			select {
			case done <- snap:
			default:
			}
		}
	})

	sessionID, err := engine.Submit(ctx, service.SubmitRequest{
		SubjectID: args[0],
		Analysts:  analysts,
		Strategy:  core.Strategy(runStrategy),
	})
	if err != nil {
		return err
	}
	fmt.Printf("Session %s analyzing %s\n", sessionID, args[0])

	var final core.SessionSnapshot
	select {
	case final = <-done:
	case <-ctx.Done():
		engine.Cancel(sessionID)
		final = <-done
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Shutdown(shutdownCtx); err != nil {
		logger.Warn("engine shutdown", "error", err)
	}

	printOutcome(final)
	if final.Status == core.SessionStatusFailed {
		return fmt.Errorf("session failed: %s", strings.Join(final.Errors, "; "))
	}
	return nil
}

// populateRegistry fills the registry from the roster manifest or, when no
// manifest is configured, a built-in demo roster.
func populateRegistry(cfg *config.Config, registry *service.Registry, logger *logging.Logger) error {
	path := rosterPath
	if path == "" {
		path = cfg.Roster.Path
	}
	if path != "" {
		roster, err := service.LoadRoster(path)
		if err != nil {
			return err
		}
		return service.ApplyRoster(registry, roster, analystFactory, logger)
	}

	roster, err := service.ParseRoster([]byte(demoRoster))
	if err != nil {
		return err
	}
	return service.ApplyRoster(registry, roster, analystFactory, logger)
}

// analystFactory builds analyst implementations for roster entries. Only the
// scripted driver is built in.
func analystFactory(_ *core.AnalystDescriptor, driver string, params map[string]interface{}) (core.Analyst, error) {
	switch driver {
	case "", "scripted":
		return scripted.FromParams(params)
	default:
		return nil, fmt.Errorf("unknown driver: %s", driver)
	}
}

// buildEngine assembles the engine from validated configuration.
func buildEngine(cfg *config.Config, registry *service.Registry, logger *logging.Logger) (*service.Engine, error) {
	sessionTimeout, err := parseDuration("engine.session_timeout", cfg.Engine.SessionTimeout)
	if err != nil {
		return nil, err
	}
	retention, err := parseDuration("engine.retention", cfg.Engine.Retention)
	if err != nil {
		return nil, err
	}
	roundDelay, err := parseDuration("consensus.round_delay", cfg.Consensus.RoundDelay)
	if err != nil {
		return nil, err
	}

	engineCfg := service.EngineConfig{
		MaxSessions:       cfg.Engine.MaxSessions,
		SessionTimeout:    sessionTimeout,
		MaxParallelism:    cfg.Engine.MaxParallelism,
		DataKinds:         cfg.Engine.DataKinds,
		Retention:         retention,
		ArchiveDir:        cfg.Engine.ArchiveDir,
		MaxReasoningLines: cfg.Consensus.MaxReasoningLines,
		Debate: service.DebateConfig{
			Threshold:  cfg.Consensus.Threshold,
			MaxRounds:  cfg.Consensus.MaxRounds,
			RoundDelay: roundDelay,
		},
	}

	provider := scripted.NewProvider(nil, false)
	return service.NewEngine(engineCfg, registry, provider, logger), nil
}

func printOutcome(snap core.SessionSnapshot) {
	fmt.Println()
	fmt.Printf("Status: %s\n", snap.Status)

	if snap.Consensus != nil {
		fmt.Printf("Consensus: score %.2f, achieved %v, rounds %d\n",
			snap.Consensus.Score, snap.Consensus.Achieved, snap.Consensus.Rounds)
	}
	if snap.Conflict != nil {
		fmt.Printf("Conflict resolved by %s: %s\n",
			snap.Conflict.ResolutionMethod, snap.Conflict.ResolvedValue)
	}
	if snap.FinalResult != nil {
		fmt.Println()
		fmt.Printf("Recommendation: %s (confidence %.2f)\n",
			snap.FinalResult.Recommendation, snap.FinalResult.Confidence)
		if snap.FinalResult.SynthesizedBy != "" {
			fmt.Printf("Synthesized by: %s\n", snap.FinalResult.SynthesizedBy)
		}
		for _, line := range snap.FinalResult.Reasoning {
			fmt.Printf("  - %s\n", line)
		}
	}
	for _, w := range snap.Warnings {
		fmt.Printf("  ⚠ %s\n", w)
	}
}

// demoRoster exercises the full pipeline without external services: two
// leaves the planner can run in parallel, a dependent analyst, and a
// synthesizer that consumes everything.
const demoRoster = `
analysts:
  - id: technical
    kind: technical
    priority: 10
    estimated_duration: 100ms
    params:
      recommendation: buy
      confidence: 0.8
      reasoning: ["momentum positive", "volume above average"]
  - id: fundamental
    kind: fundamental
    priority: 8
    estimated_duration: 100ms
    params:
      recommendation: buy
      confidence: 0.7
      reasoning: ["earnings growing"]
  - id: risk
    kind: risk
    priority: 5
    depends_on: [technical, fundamental]
    estimated_duration: 100ms
    params:
      recommendation: hold
      confidence: 0.6
      reasoning: ["volatility elevated"]
  - id: synthesizer
    kind: planning
    priority: 1
    critical: true
    final_synthesis: true
    depends_on: [technical, fundamental, risk]
    estimated_duration: 100ms
    params:
      recommendation: buy
      confidence: 0.75
      reasoning: ["weight of evidence favors entry", "size position for volatility"]
`
