// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package can

import (
	"errors"
	"fmt"
)

// MaxPayload is the largest payload a frame may carry (CAN FD).
const MaxPayload = 64

// WhichCAN is the envelope tag of records that carry CAN frames.
const WhichCAN = "can"

var (
	// ErrEmptyPayload is returned for frames with no payload bytes.
	// A zero-width payload has no bits to track.
	ErrEmptyPayload = errors.New("can: empty payload")

	// ErrPayloadTooLong is returned for payloads over MaxPayload bytes.
	ErrPayloadTooLong = errors.New("can: payload exceeds 64 bytes")
)

// Frame is one timestamped message observed on a bus. Frames are
// treated as immutable once produced: consumers must not modify
// Payload.
type Frame struct {
	// Bus is the bus number the frame was received on.
	Bus uint8

	// Address is the message identifier (11-bit or 29-bit).
	Address uint32

	// Payload is the raw data bytes, most significant byte first.
	Payload []byte

	// Timestamp is the monotonic receive time in seconds.
	Timestamp float64
}

// Validate returns an error if the frame cannot be tracked.
func (f Frame) Validate() error {
	switch {
	case len(f.Payload) == 0:
		return ErrEmptyPayload
	case len(f.Payload) > MaxPayload:
		return fmt.Errorf("%w: got %d", ErrPayloadTooLong, len(f.Payload))
	}
	return nil
}

// Message is a single CAN message inside a record. Src is the bus
// number, matching the field name used by the upstream logging
// format.
type Message struct {
	Address uint32 `cbor:"address"`
	Data    []byte `cbor:"dat"`
	Src     uint8  `cbor:"src"`
}

// Record is the envelope carried by the live bus and stored in route
// logs. MonoTime is nanoseconds on the producer's monotonic clock.
type Record struct {
	Which    string    `cbor:"which"`
	MonoTime uint64    `cbor:"logMonoTime"`
	CAN      []Message `cbor:"can,omitempty"`
}

// Frames returns the frames in r that were received on bus, in
// message order. Records of any other envelope type yield nil.
func (r Record) Frames(bus uint8) []Frame {
	if r.Which != WhichCAN {
		return nil
	}
	timestamp := float64(r.MonoTime) / 1e9
	var frames []Frame
	for _, message := range r.CAN {
		if message.Src != bus {
			continue
		}
		frames = append(frames, Frame{
			Bus:       message.Src,
			Address:   message.Address,
			Payload:   message.Data,
			Timestamp: timestamp,
		})
	}
	return frames
}
