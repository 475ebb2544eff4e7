// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package can

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// SocketCAN frame sizes: struct can_frame and struct canfd_frame.
const (
	SocketCANFrameSize   = 16
	SocketCANFDFrameSize = 72
)

// can_id flag bits and identifier masks from linux/can.h.
const (
	socketCANExtendedFlag = 0x80000000
	socketCANRemoteFlag   = 0x40000000
	socketCANErrorFlag    = 0x20000000
	socketCANExtendedMask = 0x1FFFFFFF
	socketCANStandardMask = 0x7FF
)

// ErrNotDataFrame is returned by ParseSocketCAN for remote request
// and error frames, which carry no payload worth tracking.
var ErrNotDataFrame = errors.New("can: not a data frame")

// ParseSocketCAN decodes one frame read from a raw AF_CAN socket. The
// layout is selected by length: 16 bytes for classical CAN, 72 bytes
// for CAN FD. The can_id word is host byte order, which is little
// endian on every platform bitflip targets.
func ParseSocketCAN(data []byte, bus uint8) (Message, error) {
	var maxLength int
	switch len(data) {
	case SocketCANFrameSize:
		maxLength = 8
	case SocketCANFDFrameSize:
		maxLength = MaxPayload
	default:
		return Message{}, fmt.Errorf("can: socketcan frame must be %d or %d bytes, got %d",
			SocketCANFrameSize, SocketCANFDFrameSize, len(data))
	}

	id := binary.LittleEndian.Uint32(data[0:4])
	if id&(socketCANRemoteFlag|socketCANErrorFlag) != 0 {
		return Message{}, ErrNotDataFrame
	}

	address := id & socketCANStandardMask
	if id&socketCANExtendedFlag != 0 {
		address = id & socketCANExtendedMask
	}

	length := int(data[4])
	if length > maxLength {
		return Message{}, fmt.Errorf("can: socketcan length %d exceeds %d", length, maxLength)
	}

	payload := make([]byte, length)
	copy(payload, data[8:8+length])
	return Message{Address: address, Data: payload, Src: bus}, nil
}
