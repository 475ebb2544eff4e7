// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bitflip/lib/cli"
	"github.com/bureau-foundation/bitflip/lib/clock"
	"github.com/bureau-foundation/bitflip/lib/config"
	"github.com/bureau-foundation/bitflip/lib/logstore"
	"github.com/bureau-foundation/bitflip/lib/report"
)

// environment is what commands need from the process. Tests replace
// the writers and the clock.
type environment struct {
	stdout io.Writer
	stderr io.Writer
	clock  clock.Clock
}

func rootCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "bitflip",
		Summary: "Print the bits of CAN messages that change",
		Description: `Print the bits of CAN messages that change.

Every payload bit of every message address is tracked. A line is
printed whenever a bit is seen set ("+") or clear ("-") for the first
time. Seed the tracker from a baseline route to print only behavior
that differs from it.`,
		Subcommands: []*cli.Command{
			watchCommand(env),
			diffCommand(env),
			recordCommand(env),
			publishCommand(env),
			versionCommand(env),
		},
		HelpOutput: env.stderr,
	}
}

// commonParams are the flags every command accepts.
type commonParams struct {
	Config  string `flag:"config" desc:"configuration file (default: $BITFLIP_CONFIG)"`
	Verbose bool   `flag:"verbose,v" desc:"log per-frame diagnostics"`
	LogRoot string `flag:"log-root" desc:"directory of recorded routes (default from config)"`
}

// analysisParams are the flags of the commands that run a session.
type analysisParams struct {
	commonParams
	Bus       int    `flag:"bus,b" desc:"CAN bus to analyze" default:"0"`
	Multiplex bool   `flag:"multiplex,m" desc:"detect multiplexed addresses and track each sub-id separately"`
	Table     bool   `flag:"table" desc:"print a summary of newly toggled bits at the end"`
	Color     string `flag:"color" desc:"color output: auto, always, or never" default:"auto"`
}

// liveParams select the live stream, overriding the configuration.
type liveParams struct {
	Transport string `flag:"transport" desc:"live transport: socket, websocket, or socketcan"`
	Address   string `flag:"address" desc:"socket path, tcp://host:port, ws:// URL, or CAN interface"`
}

// flagCapture remembers the flag set a command parsed, so Run can
// tell flags given on the command line from defaults.
type flagCapture struct {
	set *pflag.FlagSet
}

func (f *flagCapture) bind(name string, params any) func() *pflag.FlagSet {
	return func() *pflag.FlagSet {
		f.set = cli.FlagsFromParams(name, params)
		return f.set
	}
}

func (f *flagCapture) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

// settings is everything a command resolved before doing work.
type settings struct {
	config *config.Config
	logger *slog.Logger
	store  *logstore.Store
}

// load resolves the configuration file, applies command-line
// overrides, validates, and builds the logger.
func (p *commonParams) load(env *environment, command string, flags *flagCapture, overrides func(*config.Config)) (*settings, error) {
	cfg, err := config.Resolve(p.Config)
	if err != nil {
		return nil, err
	}
	if flags.changed("log-root") {
		cfg.LogRoot = p.LogRoot
	}
	if overrides != nil {
		overrides(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := cli.NewCommandLogger(env.stderr, p.Verbose).With("command", command)
	return &settings{
		config: cfg,
		logger: logger,
		store:  logstore.NewStore(cfg.LogRoot, logger),
	}, nil
}

// overrides applies the analysis flags that were given on top of cfg.
func (p *analysisParams) overrides(flags *flagCapture) func(*config.Config) {
	return func(cfg *config.Config) {
		if flags.changed("bus") {
			cfg.Bus = p.Bus
		}
		if flags.changed("multiplex") {
			cfg.Multiplex = p.Multiplex
		}
		if flags.changed("color") {
			cfg.Color = p.Color
		}
	}
}

func (p *liveParams) apply(flags *flagCapture, cfg *config.Config) {
	if flags.changed("transport") {
		cfg.Live.Transport = p.Transport
	}
	if flags.changed("address") {
		cfg.Live.Address = p.Address
	}
}

// newReporter builds the stdout reporter from the resolved color
// mode.
func newReporter(env *environment, cfg *config.Config) (*report.Reporter, error) {
	mode, err := report.ParseColorMode(cfg.Color)
	if err != nil {
		return nil, err
	}
	return report.NewReporter(env.stdout, mode), nil
}
