// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
)

// Reader yields the records of a sequence of log files in order,
// opening each file only when the previous one is exhausted. It
// implements source.RecordReader.
type Reader struct {
	paths  []string
	logger *slog.Logger

	file      *os.File
	release   func()
	decoder   *codec.Decoder
	path      string
	records   int
	truncated int
}

// NewReader returns a Reader over the log files at paths.
func NewReader(paths []string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reader{paths: paths, logger: logger}
}

// ReadRecord returns the next record, or io.EOF after the last file.
// A file that ends mid-record (a recorder that was killed) is logged
// and treated as ending at its last complete record.
func (r *Reader) ReadRecord() (can.Record, error) {
	for {
		if r.decoder == nil {
			if len(r.paths) == 0 {
				return can.Record{}, io.EOF
			}
			if err := r.openNext(); err != nil {
				return can.Record{}, err
			}
		}

		var record can.Record
		err := r.decoder.Decode(&record)
		if err == nil {
			r.records++
			return record, nil
		}
		switch {
		case errors.Is(err, io.EOF):
		case errors.Is(err, io.ErrUnexpectedEOF):
			r.truncated++
			r.logger.Warn("log file ends mid-record", "path", r.path, "records", r.records)
		default:
			path := r.path
			r.closeCurrent()
			return can.Record{}, fmt.Errorf("reading %s: %w", path, err)
		}
		r.closeCurrent()
	}
}

func (r *Reader) openNext() error {
	path := r.paths[0]
	r.paths = r.paths[1:]

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	reader, release, err := decompressor(file, compressionForPath(path))
	if err != nil {
		file.Close()
		return fmt.Errorf("opening %s: %w", path, err)
	}
	r.file = file
	r.release = release
	r.decoder = codec.NewDecoder(reader)
	r.path = path
	r.records = 0
	r.logger.Debug("reading log", "path", path)
	return nil
}

func (r *Reader) closeCurrent() {
	if r.file == nil {
		return
	}
	r.release()
	r.file.Close()
	r.file = nil
	r.release = nil
	r.decoder = nil
}

// Truncated returns how many files ended mid-record.
func (r *Reader) Truncated() int {
	return r.truncated
}

// Close releases the open file, if any. Remaining files are not
// read.
func (r *Reader) Close() error {
	r.closeCurrent()
	r.paths = nil
	return nil
}
