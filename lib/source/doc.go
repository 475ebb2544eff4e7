// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package source provides the frame sequences bitflip analyzes.
//
// A [Source] yields batches of [can.Frame] for one bus. [Log] replays
// a recorded route to completion; [Live] polls a [Subscriber] every
// interval until its context is cancelled. Subscribers receive
// records in the background and hand them over on Drain:
//
//   - [Stream] reads CBOR records from a Unix or TCP socket
//   - [WebSocket] reads one CBOR record per binary message
//   - [SocketCAN] reads raw frames from a Linux CAN interface
//
// [Publisher] is the serving side of the stream and websocket
// protocols. It fans records out to every subscriber and drops
// records for subscribers that fall behind rather than blocking.
package source
