// Package config loads the project-level .openadmin.yml file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the working directory.
const FileName = ".openadmin.yml"

// Config is the parsed project configuration.
type Config struct {
	Version  string `yaml:"version"`
	Database struct {
		Driver            string `yaml:"driver"`
		ConnectionString  string `yaml:"connection_string"`
		MaxConnections    int32  `yaml:"max_connections"`
		MinConnections    int32  `yaml:"min_connections"`
		ConnectionTimeout int    `yaml:"connection_timeout"`
	} `yaml:"database"`
	Generator struct {
		Output  string `yaml:"output"`
		Package string `yaml:"package"`
	} `yaml:"generator"`
}

// Loader reads and validates the config file of one working directory.
type Loader struct {
	workDir  string
	filePath string
}

// NewLoader creates a loader rooted at workDir.
func NewLoader(workDir string) *Loader {
	return &Loader{
		workDir:  workDir,
		filePath: filepath.Join(workDir, FileName),
	}
}

// Load reads the config file, expanding ${VAR} environment references before
// parsing so connection strings never need to be committed in plain text.
func (l *Loader) Load() (*Config, error) {
	content, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s", l.filePath)
		}
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	expanded := os.ExpandEnv(string(content))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database.Driver != "" && cfg.Database.Driver != "postgresql" {
		return fmt.Errorf("unsupported database driver %q (only postgresql)", cfg.Database.Driver)
	}
	if cfg.Database.MaxConnections < 0 {
		return fmt.Errorf("max_connections must not be negative")
	}
	return nil
}
