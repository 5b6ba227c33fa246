package service

import (
	"sync"
	"time"

	"github.com/finsight-labs/conclave/internal/core"
)

// AnalystStats holds per-analyst execution statistics. The registry keeps
// these across version upgrades.
type AnalystStats struct {
	AnalystID   core.AnalystID `json:"analyst_id"`
	Invocations int            `json:"invocations"`
	Failures    int            `json:"failures"`
	TotalTime   time.Duration  `json:"total_time"`
	AvgTime     time.Duration  `json:"avg_time"`
	LastRun     time.Time      `json:"last_run"`
	LastError   string         `json:"last_error,omitempty"`
}

// Stats collects analyst execution statistics across sessions.
type Stats struct {
	mu        sync.RWMutex
	byAnalyst map[core.AnalystID]*AnalystStats
}

// NewStats creates an empty statistics collector.
func NewStats() *Stats {
	return &Stats{
		byAnalyst: make(map[core.AnalystID]*AnalystStats),
	}
}

// RecordRun records one invocation outcome for an analyst.
func (s *Stats) RecordRun(id core.AnalystID, duration time.Duration, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.byAnalyst[id]
	if !ok {
		st = &AnalystStats{AnalystID: id}
		s.byAnalyst[id] = st
	}

	st.Invocations++
	st.TotalTime += duration
	st.AvgTime = st.TotalTime / time.Duration(st.Invocations)
	st.LastRun = time.Now()
	if err != nil {
		st.Failures++
		st.LastError = err.Error()
	}
}

// Get returns a copy of the statistics for one analyst.
func (s *Stats) Get(id core.AnalystID) (AnalystStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.byAnalyst[id]
	if !ok {
		return AnalystStats{}, false
	}
	return *st, true
}

// Snapshot returns a copy of all analyst statistics.
func (s *Stats) Snapshot() map[core.AnalystID]AnalystStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[core.AnalystID]AnalystStats, len(s.byAnalyst))
	for id, st := range s.byAnalyst {
		out[id] = *st
	}
	return out
}
