// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package can defines the frame and record shapes shared by every
// bitflip component.
//
// A [Record] is the envelope delivered by the live bus and stored in
// route logs. Only records whose Which field is "can" carry frames;
// every other envelope type is skipped. [Record.Frames] flattens a
// record into [Frame] values for a single bus, which is the only
// shape the analysis pipeline consumes.
//
// Payloads are fixed per message instance and at most 64 bytes (CAN
// FD). A zero-length payload carries no bits and is rejected by
// [Frame.Validate].
//
// [ParseSocketCAN] decodes the Linux SocketCAN can_frame and
// canfd_frame layouts read from a raw AF_CAN socket.
package can
