// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package can

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestFrameValidate(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    error
	}{
		{"single byte", []byte{0x01}, nil},
		{"classic", make([]byte, 8), nil},
		{"fd", make([]byte, 64), nil},
		{"empty", nil, ErrEmptyPayload},
		{"too long", make([]byte, 65), ErrPayloadTooLong},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			err := Frame{Address: 0x200, Payload: test.payload}.Validate()
			if test.want == nil {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if !errors.Is(err, test.want) {
				t.Fatalf("Validate = %v, want %v", err, test.want)
			}
		})
	}
}

func TestRecordFramesFiltersBus(t *testing.T) {
	record := Record{
		Which:    WhichCAN,
		MonoTime: 2_500_000_000,
		CAN: []Message{
			{Address: 0x100, Data: []byte{1}, Src: 0},
			{Address: 0x101, Data: []byte{2}, Src: 1},
			{Address: 0x102, Data: []byte{3}, Src: 0},
		},
	}

	frames := record.Frames(0)
	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if frames[0].Address != 0x100 || frames[1].Address != 0x102 {
		t.Errorf("addresses = %#x, %#x; want 0x100, 0x102", frames[0].Address, frames[1].Address)
	}
	if frames[0].Timestamp != 2.5 {
		t.Errorf("timestamp = %v, want 2.5", frames[0].Timestamp)
	}

	if got := record.Frames(2); len(got) != 0 {
		t.Errorf("bus 2: got %d frames, want 0", len(got))
	}
}

func TestRecordFramesSkipsOtherEnvelopes(t *testing.T) {
	record := Record{
		Which: "sendcan",
		CAN:   []Message{{Address: 0x100, Data: []byte{1}, Src: 0}},
	}
	if frames := record.Frames(0); frames != nil {
		t.Fatalf("got %d frames from non-can envelope", len(frames))
	}
}

func socketCANFrame(size int, id uint32, payload []byte) []byte {
	data := make([]byte, size)
	binary.LittleEndian.PutUint32(data[0:4], id)
	data[4] = byte(len(payload))
	copy(data[8:], payload)
	return data
}

func TestParseSocketCANClassic(t *testing.T) {
	data := socketCANFrame(SocketCANFrameSize, 0x7FF|0x1000, []byte{0xDE, 0xAD})

	message, err := ParseSocketCAN(data, 2)
	if err != nil {
		t.Fatalf("ParseSocketCAN: %v", err)
	}
	if message.Address != 0x7FF {
		t.Errorf("address = %#x, want 0x7ff (standard mask)", message.Address)
	}
	if !bytes.Equal(message.Data, []byte{0xDE, 0xAD}) {
		t.Errorf("data = %x, want dead", message.Data)
	}
	if message.Src != 2 {
		t.Errorf("src = %d, want 2", message.Src)
	}
}

func TestParseSocketCANExtendedFD(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 48)
	data := socketCANFrame(SocketCANFDFrameSize, 0x18DAF110|socketCANExtendedFlag, payload)

	message, err := ParseSocketCAN(data, 0)
	if err != nil {
		t.Fatalf("ParseSocketCAN: %v", err)
	}
	if message.Address != 0x18DAF110 {
		t.Errorf("address = %#x, want 0x18daf110", message.Address)
	}
	if len(message.Data) != 48 {
		t.Errorf("length = %d, want 48", len(message.Data))
	}
}

func TestParseSocketCANRejects(t *testing.T) {
	remote := socketCANFrame(SocketCANFrameSize, 0x100|socketCANRemoteFlag, nil)
	if _, err := ParseSocketCAN(remote, 0); !errors.Is(err, ErrNotDataFrame) {
		t.Errorf("remote frame: err = %v, want ErrNotDataFrame", err)
	}

	if _, err := ParseSocketCAN(make([]byte, 10), 0); err == nil {
		t.Error("short buffer: expected error")
	}

	overlong := socketCANFrame(SocketCANFrameSize, 0x100, nil)
	overlong[4] = 9
	if _, err := ParseSocketCAN(overlong, 0); err == nil {
		t.Error("classic frame with length 9: expected error")
	}
}
