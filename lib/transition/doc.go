// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package transition tracks which payload bits of each CAN message
// have ever been observed as 1 and as 0.
//
// Each [Key] (address plus multiplex id) owns a [Watermark] pair.
// A payload is read as one big-endian unsigned integer v of
// 8*len(payload) bits; Observe ORs v into Ones and the complement of
// v, taken at that same width, into Zeros. Growth of Ones is reported
// as [Rising], growth of Zeros as [Falling]. When both grow on one
// frame the [Change] carries both directions; nothing is overwritten.
//
// The accumulation is additive and idempotent, so the final
// watermarks do not depend on frame order and an interrupted run
// always leaves them consistent. A bit set in both watermarks has
// been seen toggling; see [Watermark.Toggled].
//
// The width of a key is fixed by its first payload. Later payloads of
// a different length are rejected with [ErrLengthMismatch] rather
// than folded in at a mismatched width.
package transition
