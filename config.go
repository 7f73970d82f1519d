package edgecache

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otogaleri/edge-cache/policy"
)

// FileConfig is the yaml configuration surface of the edge cache binary.
type FileConfig struct {
	Port          int      `yaml:"port"`
	Origin        string   `yaml:"origin"`
	Provider      string   `yaml:"provider"`
	DBPath        string   `yaml:"dbPath"`
	Version       string   `yaml:"version"`
	Precache      []string `yaml:"precache"`
	OfflinePath   string   `yaml:"offlinePath"`
	OriginTimeout string   `yaml:"originTimeout"`
	// Rules override the built-in per-path Cache-Control dispatch.
	Rules policy.Rules `yaml:"rules"`

	// compiled
	originTimeout time.Duration
}

// OriginTimeoutDuration returns the parsed originTimeout value.
func (c FileConfig) OriginTimeoutDuration() time.Duration {
	return c.originTimeout
}

// LoadConfig reads and validates a yaml config file.
func LoadConfig(filename string) (FileConfig, error) {
	var config FileConfig
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	if err := yaml.Unmarshal(configBytes, &config); err != nil {
		return config, err
	}
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.Provider == "" {
		config.Provider = "sqlite"
	}
	switch config.Provider {
	case "memory", "sqlite", "leveldb":
	default:
		return config, fmt.Errorf("unsupported provider %q", config.Provider)
	}
	if config.Origin == "" {
		return config, fmt.Errorf("origin is required")
	}
	if config.OriginTimeout != "" {
		d, err := time.ParseDuration(config.OriginTimeout)
		if err != nil {
			return config, fmt.Errorf("originTimeout: %w", err)
		}
		config.originTimeout = d
	}
	if err := config.Rules.Compile(); err != nil {
		return config, fmt.Errorf("rules: %w", err)
	}
	return config, nil
}
