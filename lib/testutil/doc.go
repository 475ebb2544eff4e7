// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for bitflip packages.
//
// [RequireReceive], [RequireSend], and [RequireClosed] wrap the
// select-with-timeout pattern so individual tests never call
// time.After directly. They are the only place tests use real
// wall-clock timeouts; everything else waits on lib/clock.Fake.
//
// [SocketDir] returns a short temporary directory for Unix sockets.
// [UniqueID] generates non-colliding identifiers.
//
// Helpers call t.Fatalf on failure rather than returning errors.
package testutil
