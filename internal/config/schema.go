// Package config loads and validates the loadout YAML configuration.
package config

// Config is the root configuration document (loadout.yaml).
type Config struct {
	// Workspace is the directory holding section sources and state.
	Workspace string `yaml:"workspace"`

	// Budget is the total compilation budget in cost units.
	Budget int `yaml:"budget"`

	Cost      CostConfig      `yaml:"cost"`
	Compiler  CompilerConfig  `yaml:"compiler"`
	Attention AttentionConfig `yaml:"attention"`
	Storage   StorageConfig   `yaml:"storage"`
	Sections  SectionsConfig  `yaml:"sections"`
	Server    ServerConfig    `yaml:"server"`
}

// CostConfig converts content size into cost units.
type CostConfig struct {
	// CharsPerUnit is the characters-per-cost-unit ratio. 0 means 4.0.
	CharsPerUnit float64 `yaml:"chars_per_unit"`
}

// CompilerConfig holds the degradation thresholds.
type CompilerConfig struct {
	// SkeletonThreshold is the minimum remaining budget for skeletonizing
	// an overflowing section. 0 means the default (300).
	SkeletonThreshold int `yaml:"skeleton_threshold"`

	// FooterFloor is the minimum remaining budget for an omission footer.
	// 0 means the default (100).
	FooterFloor int `yaml:"footer_floor"`

	// HeaderShare is the budget fraction the skeletonizer may spend on
	// header lines. 0 means the default (0.4).
	HeaderShare float64 `yaml:"header_share"`
}

// AttentionConfig holds the learning constants.
type AttentionConfig struct {
	// ReinforcementIncrement added per reinforcement. 0 means 0.1.
	ReinforcementIncrement float64 `yaml:"reinforcement_increment"`

	// DecayFactor multiplies weights each decay tick. 0 means 0.95.
	DecayFactor float64 `yaml:"decay_factor"`

	// ForgetEpsilon removes entries below it. 0 means 0.01.
	ForgetEpsilon float64 `yaml:"forget_epsilon"`
}

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// StorageConfig selects the durable-map backend.
type StorageConfig struct {
	// Backend is "file" (JSON documents, atomic rename) or "sqlite".
	// Empty means "file".
	Backend string `yaml:"backend"`
}

// SectionsConfig supplies per-name defaults for sources whose frontmatter
// does not carry them.
type SectionsConfig struct {
	// Priorities maps section name to static priority.
	Priorities map[string]int `yaml:"priorities"`

	// Critical lists section names protected by the integrity monitor.
	Critical []string `yaml:"critical"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	// Listen is the HTTP listen address. Empty means ":8600".
	Listen string `yaml:"listen"`

	// AuthToken protects the mutating endpoints with a Bearer token.
	// Empty leaves them open (local use).
	AuthToken string `yaml:"auth_token"`

	// DecaySchedule is the cron expression for the attention decay tick.
	// Empty disables the job.
	DecaySchedule string `yaml:"decay_schedule"`

	// DriftSchedule is the cron expression for the integrity drift sweep.
	// Empty disables the job.
	DriftSchedule string `yaml:"drift_schedule"`
}

// DefaultListen is the serve-mode listen address when none is configured.
const DefaultListen = ":8600"
