package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/conclave/internal/core"
)

func TestLoadArchivedSnapshot(t *testing.T) {
	dir := t.TempDir()
	snap := core.SessionSnapshot{
		SessionID: "abc-123",
		SubjectID: "ACME",
		Phase:     core.PhaseCompleted,
		Status:    core.SessionStatusCompleted,
		Progress:  100,
		FinalResult: &core.FinalResult{
			Recommendation: core.RecommendationBuy,
			Confidence:     0.75,
			Reasoning:      []string{"[technical] momentum positive"},
		},
		StartedAt: time.Now().Add(-time.Minute),
	}
	data, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc-123.json"), data, 0o644))

	loaded, err := loadArchivedSnapshot(dir, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "ACME", loaded.SubjectID)
	assert.Equal(t, core.SessionStatusCompleted, loaded.Status)
	require.NotNil(t, loaded.FinalResult)
	assert.Equal(t, core.RecommendationBuy, loaded.FinalResult.Recommendation)
}

func TestLoadArchivedSnapshot_NotFound(t *testing.T) {
	_, err := loadArchivedSnapshot(t.TempDir(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadArchivedSnapshot_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err := loadArchivedSnapshot(dir, "bad")
	require.Error(t, err)
}
