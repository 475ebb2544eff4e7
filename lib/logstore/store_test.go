// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
	"github.com/bureau-foundation/bitflip/lib/testutil"
)

func testRecord(index int) can.Record {
	return can.Record{
		Which:    can.WhichCAN,
		MonoTime: uint64(index) * 1e7,
		CAN: []can.Message{
			{Address: 0x200, Data: []byte{byte(index)}, Src: 0},
			{Address: 0x300, Data: []byte{0xFF, byte(index)}, Src: 1},
		},
	}
}

func writeRoute(t *testing.T, store *Store, compression Compression, segmentRecords, count int) Name {
	t.Helper()
	name := NewRouteName(testutil.UniqueID("dongle"), time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	writer, err := store.Create(name, WriterOptions{Compression: compression, SegmentRecords: segmentRecords})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for index := 0; index < count; index++ {
		if err := writer.WriteRecord(testRecord(index)); err != nil {
			t.Fatalf("WriteRecord(%d): %v", index, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return name
}

func readAll(t *testing.T, reader *Reader) []can.Record {
	t.Helper()
	defer reader.Close()
	var records []can.Record
	for {
		record, err := reader.ReadRecord()
		if errors.Is(err, io.EOF) {
			return records
		}
		if err != nil {
			t.Fatalf("ReadRecord: %v", err)
		}
		records = append(records, record)
	}
}

func TestRoundTripAcrossSegments(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		t.Run(compression.String(), func(t *testing.T) {
			store := NewStore(t.TempDir(), nil)
			name := writeRoute(t, store, compression, 4, 10)

			segments, err := store.Segments(name)
			if err != nil {
				t.Fatalf("Segments: %v", err)
			}
			if len(segments) != 3 {
				t.Fatalf("Segments = %v, want 3 segments", segments)
			}

			reader, err := store.Open(name.String())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			records := readAll(t, reader)
			if len(records) != 10 {
				t.Fatalf("read %d records, want 10", len(records))
			}
			for index, record := range records {
				if record.MonoTime != uint64(index)*1e7 {
					t.Errorf("record %d MonoTime = %d", index, record.MonoTime)
				}
				if record.CAN[0].Data[0] != byte(index) {
					t.Errorf("record %d payload = %x", index, record.CAN[0].Data)
				}
			}
		})
	}
}

func TestResolveSegmentForms(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	name := writeRoute(t, store, CompressionZstd, 2, 6)
	want := filepath.Join(store.RouteDir(name), "1", "rlog.zst")

	for _, input := range []string{
		name.WithSegment(1).String(),
		name.Route() + "/1",
		filepath.Join(store.RouteDir(name), "1"),
		want,
	} {
		paths, err := store.Resolve(input)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", input, err)
		}
		if len(paths) != 1 || paths[0] != want {
			t.Errorf("Resolve(%q) = %v, want [%s]", input, paths, want)
		}
	}
}

func TestResolveMissing(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	if _, err := store.Resolve("abc|2026-01-01--00-00-00"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing route: %v, want ErrNotFound", err)
	}

	name := writeRoute(t, store, CompressionNone, 10, 1)
	if _, err := store.Resolve(name.WithSegment(7).String()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing segment: %v, want ErrNotFound", err)
	}
	if _, err := store.Resolve("not a route"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("bad name: %v, want ErrInvalidName", err)
	}
}

func TestCreateRejectsExistingRoute(t *testing.T) {
	store := NewStore(t.TempDir(), nil)
	name := writeRoute(t, store, CompressionNone, 10, 1)
	if _, err := store.Create(name, WriterOptions{}); err == nil {
		t.Error("Create succeeded for an existing route")
	}
	if _, err := store.Create(name.WithSegment(0), WriterOptions{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Create(segment) = %v, want ErrInvalidName", err)
	}
}

func TestReaderToleratesTruncatedSegment(t *testing.T) {
	directory := t.TempDir()
	first := filepath.Join(directory, "first")
	second := filepath.Join(directory, "second")

	var data []byte
	for index := 0; index < 3; index++ {
		encoded, err := codec.Marshal(testRecord(index))
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		data = append(data, encoded...)
	}
	// Cut the last record in half.
	if err := os.WriteFile(first, data[:len(data)-5], 0o644); err != nil {
		t.Fatal(err)
	}
	encoded, err := codec.Marshal(testRecord(9))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(second, encoded, 0o644); err != nil {
		t.Fatal(err)
	}

	reader := NewReader([]string{first, second}, nil)
	records := readAll(t, reader)
	if len(records) != 3 {
		t.Fatalf("read %d records, want 2 complete + 1 from the next file", len(records))
	}
	if records[2].MonoTime != 9e7 {
		t.Errorf("third record MonoTime = %d, want the next file's record", records[2].MonoTime)
	}
	if reader.Truncated() != 1 {
		t.Errorf("Truncated = %d, want 1", reader.Truncated())
	}
}

func TestParseCompression(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionLZ4} {
		parsed, err := ParseCompression(compression.String())
		if err != nil || parsed != compression {
			t.Errorf("ParseCompression(%q) = (%v, %v)", compression.String(), parsed, err)
		}
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(\"gzip\") should fail")
	}
}
