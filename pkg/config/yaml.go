package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigPath returns the path of the YAML configuration file under the
// given root directory.
func ConfigPath(rootDir string) string {
	return filepath.Join(rootDir, ConfigBaseName+"."+ConfigExtension)
}

// SaveAsYaml writes the configuration as YAML into its root directory,
// creating the directory if needed.
func (c Config) SaveAsYaml() error {
	if c.RootDir == "" {
		return fmt.Errorf("root directory not set")
	}
	if err := os.MkdirAll(c.RootDir, DefaultDirPerm); err != nil {
		return fmt.Errorf("error creating directory %s: %w", c.RootDir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("error marshalling config to YAML: %w", err)
	}

	if err := os.WriteFile(ConfigPath(c.RootDir), data, 0o600); err != nil {
		return fmt.Errorf("error writing YAML config file: %w", err)
	}
	return nil
}
