// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
)

// DefaultSegmentRecords is the number of records per segment when
// WriterOptions.SegmentRecords is zero. At one record per CAN message
// and a few thousand messages per second this is about a minute.
const DefaultSegmentRecords = 60000

// WriterOptions configures a Writer.
type WriterOptions struct {
	Compression    Compression
	SegmentRecords int
	Logger         *slog.Logger
}

// Writer records a stream of records into a new route, rolling to the
// next segment directory every SegmentRecords records. Not safe for
// concurrent use.
type Writer struct {
	routeDir string
	name     Name
	options  WriterOptions

	segment    int
	written    int
	total      uint64
	file       *os.File
	compressor io.WriteCloser
	encoder    *codec.Encoder
}

// Create makes the directory for route name and returns a Writer for
// it. The route must not already exist.
func (s *Store) Create(name Name, options WriterOptions) (*Writer, error) {
	if name.IsSegment() {
		return nil, fmt.Errorf("%w: %s names a segment, not a route", ErrInvalidName, name)
	}
	if options.SegmentRecords <= 0 {
		options.SegmentRecords = DefaultSegmentRecords
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return nil, fmt.Errorf("creating log root: %w", err)
	}
	routeDir := s.RouteDir(name)
	if err := os.Mkdir(routeDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating route %s: %w", name.Route(), err)
	}
	return &Writer{routeDir: routeDir, name: name, options: options}, nil
}

// Name returns the route being written.
func (w *Writer) Name() Name {
	return w.name
}

// WriteRecord appends record to the current segment, starting a new
// segment first if the current one is full.
func (w *Writer) WriteRecord(record can.Record) error {
	if w.encoder != nil && w.written >= w.options.SegmentRecords {
		if err := w.closeSegment(); err != nil {
			return err
		}
		w.segment++
	}
	if w.encoder == nil {
		if err := w.openSegment(); err != nil {
			return err
		}
	}
	if err := w.encoder.Encode(record); err != nil {
		return fmt.Errorf("writing %s: %w", w.name.WithSegment(w.segment), err)
	}
	w.written++
	w.total++
	return nil
}

func (w *Writer) openSegment() error {
	dir := filepath.Join(w.routeDir, strconv.Itoa(w.segment))
	if err := os.Mkdir(dir, 0o755); err != nil {
		return fmt.Errorf("creating segment directory: %w", err)
	}
	path := filepath.Join(dir, w.options.Compression.FileName())
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("creating segment log: %w", err)
	}
	compressed, err := compressor(file, w.options.Compression)
	if err != nil {
		file.Close()
		return err
	}
	w.file = file
	w.compressor = compressed
	w.encoder = codec.NewEncoder(compressed)
	w.written = 0
	w.options.Logger.Debug("started segment", "segment", w.name.WithSegment(w.segment).String(), "path", path)
	return nil
}

func (w *Writer) closeSegment() error {
	if w.encoder == nil {
		return nil
	}
	flushErr := w.compressor.Close()
	closeErr := w.file.Close()
	w.file = nil
	w.compressor = nil
	w.encoder = nil
	if err := errors.Join(flushErr, closeErr); err != nil {
		return fmt.Errorf("closing segment %d: %w", w.segment, err)
	}
	return nil
}

// Segments returns the number of segments started so far.
func (w *Writer) Segments() int {
	if w.total == 0 {
		return 0
	}
	return w.segment + 1
}

// Records returns the number of records written.
func (w *Writer) Records() uint64 {
	return w.total
}

// Close flushes and closes the current segment.
func (w *Writer) Close() error {
	return w.closeSegment()
}
