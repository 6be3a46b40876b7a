// Package config loads tool configuration from defaults, an optional
// YAML file, HYGIENE_-prefixed environment variables, and CLI flags,
// in ascending precedence.
package config

// Config is the fully resolved tool configuration.
type Config struct {
	// RulesFile is the YAML rule batch to execute.
	RulesFile string `koanf:"rules_file"`

	// DatasetFile is the CSV dataset to validate.
	DatasetFile string `koanf:"dataset_file"`

	// StatePath is the results database location. ":memory:" disables
	// persistence across invocations.
	StatePath string `koanf:"state_path"`

	// Mode is the execution mode: sequential, parallel, or adaptive.
	Mode string `koanf:"mode"`

	// Workers bounds the pool size; 0 picks min(4, NumCPU+1).
	Workers int `koanf:"workers"`

	// MemoryCeilingMB gates adaptive parallelism.
	MemoryCeilingMB int `koanf:"memory_ceiling_mb"`

	// Chunking overrides; 0 keeps the framework defaults.
	ChunkThreshold int `koanf:"chunk_threshold"`
	ChunkSize      int `koanf:"chunk_size"`

	// SecurityLevel is the sandbox preset: high, medium, or low.
	SecurityLevel string `koanf:"security_level"`

	// Output selects the report format: table or json.
	Output string `koanf:"output"`

	Verbose bool `koanf:"verbose"`
}

// Defaults used when neither file, env, nor flags provide a value.
const (
	DefaultStatePath     = "hygiene.db"
	DefaultMode          = "adaptive"
	DefaultSecurityLevel = "medium"
	DefaultOutput        = "table"
)
