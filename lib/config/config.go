// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "BITFLIP_CONFIG"

// Config holds bitflip's operating parameters.
type Config struct {
	// Bus is the bus number to analyze. Default: 0
	Bus int `yaml:"bus"`

	// Multiplex enables multiplex detection. Default: false
	Multiplex bool `yaml:"multiplex"`

	// PollInterval is the live-mode poll cadence. Default: 20ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// LogRoot is the directory holding recorded routes.
	// Default: ${HOME}/.cache/bitflip/routes
	LogRoot string `yaml:"log_root"`

	// Color selects ANSI color for report output: auto, always, or
	// never. Default: auto
	Color string `yaml:"color"`

	// Live configures the live frame subscription.
	Live LiveConfig `yaml:"live"`

	// Record configures the route recorder.
	Record RecordConfig `yaml:"record"`
}

// LiveConfig configures where live frames come from.
type LiveConfig struct {
	// Transport is one of "socket", "websocket", or "socketcan".
	// Default: socket
	Transport string `yaml:"transport"`

	// Address is the Unix socket path (socket), the ws:// URL
	// (websocket), or the interface name such as can0 (socketcan).
	// Default: /run/bitflip/can.sock
	Address string `yaml:"address"`

	// Channel is the subscription channel name. Default: can
	Channel string `yaml:"channel"`
}

// RecordConfig configures the route recorder.
type RecordConfig struct {
	// Compression is one of "none", "zstd", or "lz4". Default: zstd
	Compression string `yaml:"compression"`

	// SegmentRecords is the number of records per segment before the
	// recorder rolls to the next segment. Default: 60000
	SegmentRecords int `yaml:"segment_records"`
}

// Transports lists the valid live transport names.
var Transports = []string{"socket", "websocket", "socketcan"}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Bus:          0,
		Multiplex:    false,
		PollInterval: 20 * time.Millisecond,
		LogRoot:      filepath.Join("${HOME}", ".cache", "bitflip", "routes"),
		Color:        "auto",
		Live: LiveConfig{
			Transport: "socket",
			Address:   "/run/bitflip/can.sock",
			Channel:   "can",
		},
		Record: RecordConfig{
			Compression:    "zstd",
			SegmentRecords: 60000,
		},
	}
}

// Resolve loads the file named by path, or by BITFLIP_CONFIG when
// path is empty. With neither set it returns the expanded defaults.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		cfg := Default()
		cfg.expandVariables()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// path fields.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME":         os.Getenv("HOME"),
		"BITFLIP_ROOT": filepath.Join(os.Getenv("HOME"), ".cache", "bitflip"),
	}
	c.LogRoot = expandVars(c.LogRoot, vars)
	if c.Live.Transport != "websocket" {
		c.Live.Address = expandVars(c.Live.Address, vars)
	}
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		name := parts[1]
		defaultValue := parts[2]

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs []error

	if c.Bus < 0 || c.Bus > 255 {
		errs = append(errs, fmt.Errorf("bus must be between 0 and 255, got %d", c.Bus))
	}
	if c.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval))
	}
	if c.LogRoot == "" {
		errs = append(errs, errors.New("log_root is required"))
	}
	if !slices.Contains([]string{"auto", "always", "never"}, c.Color) {
		errs = append(errs, fmt.Errorf("color must be one of auto, always, never; got %q", c.Color))
	}
	if !slices.Contains(Transports, c.Live.Transport) {
		errs = append(errs, fmt.Errorf("live.transport must be one of %v, got %q", Transports, c.Live.Transport))
	}
	if c.Live.Address == "" {
		errs = append(errs, errors.New("live.address is required"))
	}
	if c.Live.Channel == "" {
		errs = append(errs, errors.New("live.channel is required"))
	}
	if !slices.Contains([]string{"none", "zstd", "lz4"}, c.Record.Compression) {
		errs = append(errs, fmt.Errorf("record.compression must be one of none, zstd, lz4; got %q", c.Record.Compression))
	}
	if c.Record.SegmentRecords <= 0 {
		errs = append(errs, fmt.Errorf("record.segment_records must be positive, got %d", c.Record.SegmentRecords))
	}

	return errors.Join(errs...)
}
