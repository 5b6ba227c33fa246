package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/finsight-labs/conclave/internal/core"
	"github.com/finsight-labs/conclave/internal/logging"
)

// RosterEntry is one analyst declaration in the roster manifest.
type RosterEntry struct {
	ID                string                 `yaml:"id"`
	Kind              string                 `yaml:"kind"`
	Version           string                 `yaml:"version"`
	DependsOn         []string               `yaml:"depends_on"`
	Priority          int                    `yaml:"priority"`
	Critical          bool                   `yaml:"critical"`
	EstimatedDuration string                 `yaml:"estimated_duration"`
	ResourceWeight    float64                `yaml:"resource_weight"`
	FinalSynthesis    bool                   `yaml:"final_synthesis"`
	Driver            string                 `yaml:"driver"`
	Params            map[string]interface{} `yaml:"params"`
}

// Roster is the parsed manifest.
type Roster struct {
	Analysts []RosterEntry `yaml:"analysts"`
}

// AnalystFactory builds a worker implementation from a manifest entry.
// Drivers beyond the built-in ones are supplied here.
type AnalystFactory func(descriptor *core.AnalystDescriptor, driver string, params map[string]interface{}) (core.Analyst, error)

// ParseRoster decodes a roster manifest.
func ParseRoster(data []byte) (*Roster, error) {
	var roster Roster
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, core.ErrData(core.CodeRosterParseFailed,
			fmt.Sprintf("parsing roster: %v", err))
	}
	if len(roster.Analysts) == 0 {
		return nil, core.ErrData(core.CodeRosterParseFailed, "roster declares no analysts")
	}
	return &roster, nil
}

// LoadRoster reads and parses a roster manifest file.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ErrData(core.CodeRosterParseFailed,
			fmt.Sprintf("reading roster %s: %v", path, err)).WithCause(err)
	}
	return ParseRoster(data)
}

// descriptor converts a manifest entry into an analyst descriptor.
func (e RosterEntry) descriptor() (*core.AnalystDescriptor, error) {
	kind, err := core.ParseAnalysisKind(e.Kind)
	if err != nil {
		return nil, err
	}

	estimated := 30 * time.Second
	if e.EstimatedDuration != "" {
		d, err := time.ParseDuration(e.EstimatedDuration)
		if err != nil {
			return nil, core.ErrData(core.CodeRosterParseFailed,
				fmt.Sprintf("analyst %s: bad estimated_duration %q", e.ID, e.EstimatedDuration))
		}
		estimated = d
	}

	weight := e.ResourceWeight
	if weight <= 0 {
		weight = 1.0
	}
	version := e.Version
	if version == "" {
		version = "1.0.0"
	}

	deps := make([]core.AnalystID, 0, len(e.DependsOn))
	for _, d := range e.DependsOn {
		deps = append(deps, core.AnalystID(d))
	}

	descriptor := &core.AnalystDescriptor{
		ID:                core.AnalystID(e.ID),
		Kind:              kind,
		Version:           version,
		Dependencies:      deps,
		Priority:          e.Priority,
		Critical:          e.Critical,
		EstimatedDuration: estimated,
		ResourceWeight:    weight,
		FinalSynthesis:    e.FinalSynthesis,
	}
	if err := descriptor.Validate(); err != nil {
		return nil, err
	}
	return descriptor, nil
}

// ApplyRoster registers every manifest entry with the registry. Entries whose
// ID already exists are upgraded in place when the version changed and left
// alone otherwise; accumulated statistics survive upgrades.
func ApplyRoster(registry *Registry, roster *Roster, factory AnalystFactory, logger *logging.Logger) error {
	if factory == nil {
		return core.ErrValidation("NO_FACTORY", "analyst factory is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	for _, entry := range roster.Analysts {
		descriptor, err := entry.descriptor()
		if err != nil {
			return err
		}

		impl, err := factory(descriptor, entry.Driver, entry.Params)
		if err != nil {
			return core.ErrData(core.CodeRosterParseFailed,
				fmt.Sprintf("analyst %s: %v", entry.ID, err)).WithCause(err)
		}

		existing, ok := registry.Descriptor(descriptor.ID)
		switch {
		case !ok:
			if err := registry.Register(descriptor, impl); err != nil {
				return err
			}
			logger.Info("analyst registered", "analyst_id", descriptor.ID, "version", descriptor.Version)
		case existing.Version != descriptor.Version:
			if err := registry.Upgrade(descriptor, impl); err != nil {
				return err
			}
			logger.Info("analyst upgraded",
				"analyst_id", descriptor.ID,
				"from_version", existing.Version,
				"to_version", descriptor.Version,
			)
		default:
			logger.Debug("analyst unchanged", "analyst_id", descriptor.ID, "version", descriptor.Version)
		}
	}
	return nil
}

// RosterWatcher reloads the roster manifest when the file changes on disk.
type RosterWatcher struct {
	path     string
	registry *Registry
	factory  AnalystFactory
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
}

// NewRosterWatcher creates a watcher for the given manifest path. Watching
// starts with Run.
func NewRosterWatcher(path string, registry *Registry, factory AnalystFactory, logger *logging.Logger) (*RosterWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating roster watcher: %w", err)
	}
	// Watch the directory, not the file: editors replace files on save and
	// the inode-level watch would be lost.
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RosterWatcher{
		path:     path,
		registry: registry,
		factory:  factory,
		logger:   logger,
		watcher:  w,
	}, nil
}

// Run blocks, reapplying the roster on every write to the manifest, until ctx
// is cancelled. A reload failure keeps the previous roster in effect.
func (rw *RosterWatcher) Run(ctx context.Context) error {
	defer rw.watcher.Close()

	base := filepath.Base(rw.path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			rw.reload()
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return nil
			}
			rw.logger.Warn("roster watcher", "error", err)
		}
	}
}

func (rw *RosterWatcher) reload() {
	roster, err := LoadRoster(rw.path)
	if err != nil {
		rw.logger.Warn("roster reload skipped", "path", rw.path, "error", err)
		return
	}
	if err := ApplyRoster(rw.registry, roster, rw.factory, rw.logger); err != nil {
		rw.logger.Warn("roster reload failed", "path", rw.path, "error", err)
		return
	}
	rw.logger.Info("roster reloaded",
		"path", rw.path,
		"analysts", strings.Join(idsToStrings(rw.registry.List()), ","),
	)
}

func idsToStrings(ids []core.AnalystID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
