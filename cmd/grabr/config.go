package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/grabr-ai/grabr/grab"
	"github.com/grabr-ai/grabr/inspect"
)

// fileConfig is the optional grabr.yaml configuration.
type fileConfig struct {
	Browser   browserConfig   `yaml:"browser"`
	Inspector inspectorConfig `yaml:"inspector"`
	Delivery  deliveryConfig  `yaml:"delivery"`
}

// browserConfig controls the Chrome connection for live grabs.
type browserConfig struct {
	Remote          string        `yaml:"remote"` // WebSocket URL, empty = launch local
	Headful         bool          `yaml:"headful"`
	Stealth         bool          `yaml:"stealth"`
	NavigateTimeout time.Duration `yaml:"navigate_timeout"`
}

// inspectorConfig controls component-tree introspection.
type inspectorConfig struct {
	Mode      string `yaml:"mode"`       // best-effort | required | off
	MaxFrames int    `yaml:"max_frames"` // [1,64]
}

// deliveryConfig selects where finished sessions go.
type deliveryConfig struct {
	Provider string `yaml:"provider"` // clipboard | stdout
}

// loadConfig reads a YAML configuration file, or returns defaults when
// path is empty.
func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *fileConfig) applyDefaults() {
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Inspector.Mode == "" {
		c.Inspector.Mode = string(inspect.ModeBestEffort)
	}
	if c.Inspector.MaxFrames == 0 {
		c.Inspector.MaxFrames = grab.DefaultStackFrames
	}
	if c.Delivery.Provider == "" {
		c.Delivery.Provider = "clipboard"
	}
}

// runtime translates the inspector section into an engine configuration.
// Validation happens at client construction.
func (c *fileConfig) runtime() grab.RuntimeConfig {
	rt := grab.DefaultRuntimeConfig()
	rt.InspectorMode = inspect.Mode(c.Inspector.Mode)
	rt.MaxStackFrames = c.Inspector.MaxFrames
	return rt
}
