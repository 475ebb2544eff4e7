// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"io"

	"github.com/bureau-foundation/bitflip/lib/can"
)

// ErrClosed is returned by subscribers after Close.
var ErrClosed = errors.New("source: closed")

// Source yields frames for one bus, lazily, in order. Next returns
// the next batch of frames; a batch may be empty. At the end of a
// finite sequence Next returns io.EOF, possibly alongside a final
// batch. Sources are not rewindable: to replay, construct a new one.
type Source interface {
	Next(ctx context.Context) ([]can.Frame, error)
}

// RecordReader yields records in order and returns io.EOF at the end.
// *logstore.Reader implements it.
type RecordReader interface {
	ReadRecord() (can.Record, error)
}

// Log replays a finite, time-ordered record sequence as frames of
// one bus. Non-"can" records and frames of other buses are skipped.
type Log struct {
	records RecordReader
	bus     uint8
}

// NewLog returns a Log source reading from records.
func NewLog(records RecordReader, bus uint8) *Log {
	return &Log{records: records, bus: bus}
}

// Next returns the frames of the next record that has any on the
// selected bus.
func (l *Log) Next(ctx context.Context) ([]can.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := l.records.ReadRecord()
		if err != nil {
			return nil, err
		}
		if frames := record.Frames(l.bus); len(frames) > 0 {
			return frames, nil
		}
	}
}

// Empty returns a source with no frames. Seeding from it leaves every
// watermark at zero, which is how a comparison against "all zeros" is
// expressed.
func Empty() Source {
	return NewLog(Records(), 0)
}

// Records returns a RecordReader over an in-memory slice.
func Records(records ...can.Record) RecordReader {
	return &sliceReader{records: records}
}

type sliceReader struct {
	records []can.Record
}

func (r *sliceReader) ReadRecord() (can.Record, error) {
	if len(r.records) == 0 {
		return can.Record{}, io.EOF
	}
	record := r.records[0]
	r.records = r.records[1:]
	return record, nil
}
