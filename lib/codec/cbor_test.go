// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

// sampleRecord mirrors the shape of can.Record without importing it.
type sampleRecord struct {
	Which    string `cbor:"which"`
	MonoTime uint64 `cbor:"logMonoTime"`
	Data     []byte `cbor:"dat,omitempty"`
}

func TestMarshalDeterministic(t *testing.T) {
	record := sampleRecord{Which: "can", MonoTime: 42, Data: []byte{1, 2, 3}}

	first, err := Marshal(record)
	if err != nil {
		t.Fatalf("first Marshal: %v", err)
	}
	second, err := Marshal(record)
	if err != nil {
		t.Fatalf("second Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("deterministic encoding violated: %x != %x", first, second)
	}
}

func TestStreamSequence(t *testing.T) {
	records := []sampleRecord{
		{Which: "can", MonoTime: 1, Data: []byte{0x00}},
		{Which: "carState", MonoTime: 2},
		{Which: "can", MonoTime: 3, Data: []byte{0xFF, 0x01}},
	}

	var buffer bytes.Buffer
	encoder := NewEncoder(&buffer)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			t.Fatalf("Encode: %v", err)
		}
	}

	decoder := NewDecoder(&buffer)
	for i, want := range records {
		var got sampleRecord
		if err := decoder.Decode(&got); err != nil {
			t.Fatalf("Decode record %d: %v", i, err)
		}
		if got.Which != want.Which || got.MonoTime != want.MonoTime || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("record %d: got %+v, want %+v", i, got, want)
		}
	}

	var extra sampleRecord
	if err := decoder.Decode(&extra); !errors.Is(err, io.EOF) {
		t.Errorf("Decode past end: err = %v, want io.EOF", err)
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{"which": "can", "logMonoTime": 7, "valid": true})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var record sampleRecord
	if err := Unmarshal(data, &record); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if record.Which != "can" || record.MonoTime != 7 {
		t.Errorf("got %+v", record)
	}
}

func TestUnmarshalInvalidCBOR(t *testing.T) {
	var record sampleRecord
	if err := Unmarshal([]byte{0xFF, 0xFE, 0xFD}, &record); err == nil {
		t.Error("Unmarshal should reject invalid CBOR")
	}
}
