// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework behind the bitflip binary.
//
// A [Command] is a node in a tree: it either dispatches to
// Subcommands by the first positional argument or parses its flags
// and calls Run. Help output is generated from the tree (summary,
// description, usage, flags, examples) and unknown commands or flags
// get an edit-distance suggestion.
//
// Flags are declared on a params struct with struct tags and bound by
// [FlagsFromParams]:
//
//	type watchParams struct {
//	    Bus       int  `flag:"bus,b"    desc:"CAN bus to watch" default:"0"`
//	    Multiplex bool `flag:"multiplex" desc:"detect multiplexed addresses"`
//	}
//
// [NewCommandLogger] builds the slog logger every command uses: text
// on a terminal, JSON otherwise, always on stderr so stdout carries
// only report lines.
package cli
