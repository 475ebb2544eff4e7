// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for bitflip.
//
// Configuration comes from at most one file, named either by the
// --config flag or by the BITFLIP_CONFIG environment variable (see
// [Resolve]). There is no file discovery: with neither set, [Default]
// values are used as-is. Command-line flags are applied on top of the
// loaded file by the CLI, so flags always win.
//
// ${HOME}, ${BITFLIP_ROOT}, and ${VAR:-default} patterns are expanded
// in path fields after loading.
//
// This package depends on no other bitflip packages.
package config
