// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Components that wait take a Clock instead of calling time.After or
// time.Sleep directly. Real() wraps the time package. Fake() returns
// a clock that stands still until the test calls Advance:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go live.Next(ctx)                     // registers a 20ms wait
//	fake.WaitForTimers(1)                 // block until it has
//	fake.Advance(20 * time.Millisecond)   // release it
//
// WaitForTimers closes the race between a goroutine registering its
// wait and the test advancing time.
package clock
