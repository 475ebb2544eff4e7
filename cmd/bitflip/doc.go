// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Bitflip prints the bits of CAN messages that change.
//
// Trigger a physical action (a turn signal, a door) while bitflip
// watches a bus and it prints, live, every message whose payload
// shows a bit in a state not seen before:
//
//	bitflip watch --bus 0
//	12.35	0x200	(512)	+01
//
// "+" means a bit was seen set for the first time, "-" means a bit
// was seen clear for the first time. A baseline route seeds the known
// behavior first so only new changes are printed:
//
//	bitflip watch --baseline 'a2a0ccea32023010|2023-07-27--13-01-19'
//	bitflip diff  baseline-route comparison-route
//
// The record and publish commands capture a live stream into a route
// and replay a route onto a socket in real time.
package main
