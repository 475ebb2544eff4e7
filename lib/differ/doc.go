// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package differ runs a bit-transition analysis: seed watermarks
// silently from a baseline source, then report every bit that toggles
// for the first time in a comparison source.
//
// A [Session] owns one run's state. [Session.Seed] consumes the
// baseline to exhaustion without reporting; [Session.Observe] consumes
// the comparison and forwards each transition to the [Sink], returning
// when the comparison ends or its context is cancelled. Every frame is
// classified (multiplex detection), tracked (watermarks), and
// reported before the next is considered.
//
// After Observe, [Session.Deltas] lists for each key the bits that
// toggled during the comparison but had not toggled in the baseline.
package differ
