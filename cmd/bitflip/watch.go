// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/bitflip/lib/cli"
	"github.com/bureau-foundation/bitflip/lib/config"
	"github.com/bureau-foundation/bitflip/lib/source"
)

type watchParams struct {
	analysisParams
	liveParams
	Baseline      string `flag:"baseline" desc:"route or segment whose behavior is already known"`
	BaselineEmpty bool   `flag:"baseline-empty" desc:"start from all-zero watermarks (the default)"`
}

func watchCommand(env *environment) *cli.Command {
	var params watchParams
	var flags flagCapture
	command := &cli.Command{
		Name:    "watch",
		Summary: "Print bit transitions on a live bus",
		Description: `Print bit transitions on a live bus until interrupted.

Frames are read from the live stream configured under "live" (or given
with --transport and --address) and polled every poll_interval. With
--baseline, the named route is replayed silently first so that only
transitions not present in it are printed.`,
		Usage: "bitflip watch [flags]",
		Examples: []cli.Example{
			{Description: "Watch bus 0 of the default live socket", Command: "bitflip watch"},
			{Description: "Watch a SocketCAN interface, ignoring what a parked-car route already shows", Command: "bitflip watch --transport socketcan --address can0 --baseline 'a2a0ccea32023010|2023-07-27--13-01-19'"},
			{Description: "Split multiplexed messages and print a summary on Ctrl-C", Command: "bitflip watch --bus 1 --multiplex --table"},
		},
		Flags: flags.bind("watch", &params),
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return command.Usagef("unexpected argument %q", args[0])
		}
		if params.Baseline != "" && params.BaselineEmpty {
			return command.Usagef("--baseline and --baseline-empty are mutually exclusive")
		}
		analysisOverrides := params.overrides(&flags)
		resolved, err := params.load(env, "watch", &flags, func(cfg *config.Config) {
			analysisOverrides(cfg)
			params.liveParams.apply(&flags, cfg)
		})
		if err != nil {
			return err
		}
		return runWatch(ctx, env, resolved, params.Baseline, params.Table)
	}
	return command
}

func runWatch(ctx context.Context, env *environment, resolved *settings, baseline string, table bool) error {
	run, err := newAnalysis(env, resolved)
	if err != nil {
		return err
	}

	// Resolve the baseline before connecting so a bad name fails
	// without touching the live stream.
	baselineSource, closeBaseline, err := run.openRoute(baseline)
	if err != nil {
		return err
	}
	defer closeBaseline()

	live := resolved.config.Live
	subscriber, err := source.Dial(ctx, live.Transport, live.Address, live.Channel, run.bus, env.clock, resolved.logger)
	if err != nil {
		return fmt.Errorf("connecting to live stream: %w", err)
	}
	stream := source.NewLive(subscriber, run.bus, env.clock, resolved.config.PollInterval, resolved.logger)
	defer stream.Close()
	run.live = stream

	if seeded, err := run.seed(ctx, baselineSource); err != nil || !seeded {
		return err
	}

	if err := run.reporter.Printf("Waiting for messages on bus %d", run.bus); err != nil {
		return err
	}
	resolved.logger.Debug("polling live stream",
		"transport", live.Transport,
		"address", live.Address,
		"interval", resolved.config.PollInterval,
	)

	if err := run.session.Observe(ctx, stream); err != nil {
		return err
	}
	return run.finish(table)
}
