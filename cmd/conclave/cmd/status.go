package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/conclave/internal/core"
)

var statusArchiveDir string

var statusCmd = &cobra.Command{
	Use:   "status SESSION_ID",
	Short: "Show an archived session's outcome",
	Long: `Status reads a session snapshot from the archive directory and prints its
phase, progress and integrated recommendation. Sessions land in the archive
when the engine's cleanup runs after the retention window; live sessions
belong to the process that owns them.`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusArchiveDir, "archive-dir", "",
		"archive directory (default: engine.archive_dir from config)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, args []string) error {
	dir := statusArchiveDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Engine.ArchiveDir
	}
	if dir == "" {
		return fmt.Errorf("no archive directory configured, set engine.archive_dir or --archive-dir")
	}

	snap, err := loadArchivedSnapshot(dir, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Session %s analyzing %s\n", snap.SessionID, snap.SubjectID)
	fmt.Printf("Phase: %s (%.1f%%)\n", snap.Phase, snap.Progress)
	printOutcome(snap)
	return nil
}

// loadArchivedSnapshot reads one archived session snapshot from dir.
func loadArchivedSnapshot(dir, sessionID string) (core.SessionSnapshot, error) {
	path := filepath.Join(dir, sessionID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.SessionSnapshot{}, fmt.Errorf("session %s not found in %s", sessionID, dir)
		}
		return core.SessionSnapshot{}, err
	}

	var snap core.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.SessionSnapshot{}, fmt.Errorf("decoding archive %s: %w", path, err)
	}
	return snap, nil
}
