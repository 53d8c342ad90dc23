// Package config handles avmat configuration loading and management.
package config

// Config holds all avmat settings.
type Config struct {
	Operators []string      `yaml:"operators" validate:"dive,oneof=combine one-tex one-tex-only standardize"`
	Output    OutputConfig  `yaml:"output"`
	Images    ImagesConfig  `yaml:"images"`
	Logging   LoggingConfig `yaml:"logging"`
}

// OutputConfig controls where and how the edited scene is written.
type OutputConfig struct {
	Path   string `yaml:"path"`   // Explicit output file, empty derives one from the input
	Suffix string `yaml:"suffix"` // Appended to the input base name when Path is empty
}

// ImagesConfig holds texture lookup settings.
type ImagesConfig struct {
	Root  string `yaml:"root"`  // Base directory for relative image paths, empty means the scene's directory
	Probe bool   `yaml:"probe"` // Probe images after loading
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level" validate:"oneof=debug info warn error"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=1"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Operators: []string{"combine"},
		Output: OutputConfig{
			Suffix: "_combined",
		},
		Images: ImagesConfig{
			Probe: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}
