package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SaveTo writes the config to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// OutputPath returns the file the edited scene of input is written to.
func (c *Config) OutputPath(input string) string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	ext := filepath.Ext(input)
	return input[:len(input)-len(ext)] + c.Output.Suffix + ext
}
