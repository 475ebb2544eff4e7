// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bitflip/lib/cli"
	"github.com/bureau-foundation/bitflip/lib/version"
)

func versionCommand(env *environment) *cli.Command {
	var full bool
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "include Go version and platform")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			text := version.Info()
			if full {
				text = version.Full()
			}
			_, err := fmt.Fprintf(env.stdout, "bitflip %s\n", text)
			return err
		},
	}
}
