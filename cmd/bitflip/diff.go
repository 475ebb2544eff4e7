// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/bureau-foundation/bitflip/lib/cli"
)

type diffParams struct {
	analysisParams
}

func diffCommand(env *environment) *cli.Command {
	var params diffParams
	var flags flagCapture
	command := &cli.Command{
		Name:    "diff",
		Summary: "Print bit transitions of one route relative to another",
		Description: `Print the bit transitions in <comparison> that do not occur in <baseline>.

The baseline is replayed silently to learn which bits are already
known to toggle; the comparison is then replayed and every new
transition is printed. Each argument is a route, a segment, or a path
to a log file. Pass "" as the baseline to compare against all-zero
watermarks.`,
		Usage: "bitflip diff [flags] <baseline> <comparison>",
		Examples: []cli.Example{
			{
				Description: "Find the bits that changed when the turn signal was used",
				Command:     "bitflip diff 'a2a0ccea32023010|2023-07-27--13-01-19--2' 'a2a0ccea32023010|2023-07-27--13-01-19--3'",
			},
			{
				Description: "Print every transition in a segment, with a summary",
				Command:     "bitflip diff --table '' 'a2a0ccea32023010|2023-07-27--13-01-19/0'",
			},
		},
		Flags: flags.bind("diff", &params),
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) != 2 {
			return command.Usagef("expected <baseline> and <comparison>, got %d arguments", len(args))
		}
		resolved, err := params.load(env, "diff", &flags, params.overrides(&flags))
		if err != nil {
			return err
		}
		return runDiff(ctx, env, resolved, args[0], args[1], params.Table)
	}
	return command
}

func runDiff(ctx context.Context, env *environment, resolved *settings, baseline, comparison string, table bool) error {
	run, err := newAnalysis(env, resolved)
	if err != nil {
		return err
	}

	// Both names resolve before any frame is processed.
	baselineSource, closeBaseline, err := run.openRoute(baseline)
	if err != nil {
		return err
	}
	defer closeBaseline()
	comparisonSource, closeComparison, err := run.openRoute(comparison)
	if err != nil {
		return err
	}
	defer closeComparison()

	if seeded, err := run.seed(ctx, baselineSource); err != nil || !seeded {
		return err
	}
	if err := run.session.Observe(ctx, comparisonSource); err != nil {
		return err
	}
	return run.finish(table)
}
