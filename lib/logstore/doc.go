// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package logstore stores and replays recorded drives.
//
// A route is one recording session, named "<dongle>|<timestamp>",
// and lives in a directory of that name under the store root. A
// route is split into numbered segments, each a directory holding a
// single log file:
//
//	<root>/<dongle>|<timestamp>/0/rlog.zst
//	<root>/<dongle>|<timestamp>/1/rlog.zst
//
// The log file is a sequence of CBOR-encoded can.Record values,
// optionally compressed with zstd (".zst") or LZ4 frames (".lz4").
// Segments are named "<route>--<n>" or "<route>/<n>".
//
// [Store.Open] resolves a route, a segment, or a direct file path to
// a [Reader] that yields records across segments in order. A
// [Writer] records a live stream into a new route, rolling to a new
// segment every SegmentRecords records.
package logstore
