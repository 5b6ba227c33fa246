package config

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Consensus ConsensusConfig `mapstructure:"consensus"`
	Roster    RosterConfig    `mapstructure:"roster"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// EngineConfig configures the orchestration engine.
type EngineConfig struct {
	MaxSessions    int64    `mapstructure:"max_sessions"`
	SessionTimeout string   `mapstructure:"session_timeout"`
	MaxParallelism int      `mapstructure:"max_parallelism"`
	DataKinds      []string `mapstructure:"data_kinds"`
	Retention      string   `mapstructure:"retention"`
	ArchiveDir     string   `mapstructure:"archive_dir"`
}

// ConsensusConfig configures conflict resolution and the debate protocol.
type ConsensusConfig struct {
	Threshold         float64 `mapstructure:"threshold"`
	MaxRounds         int     `mapstructure:"max_rounds"`
	RoundDelay        string  `mapstructure:"round_delay"`
	MaxReasoningLines int     `mapstructure:"max_reasoning_lines"`
}

// RosterConfig configures the analyst roster manifest.
type RosterConfig struct {
	Path  string `mapstructure:"path"`
	Watch bool   `mapstructure:"watch"`
}
