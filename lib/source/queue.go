// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"fmt"
	"sync"

	"github.com/bureau-foundation/bitflip/lib/can"
)

// queue is the handoff between a subscriber's receive goroutine and
// the poll loop. It is a bounded FIFO: when a push would exceed the
// capacity, the oldest records are dropped. Arrival order is always
// preserved for the records that remain.
//
// Thread-safe: one receive goroutine pushes while the poll loop
// drains.
type queue struct {
	mu       sync.Mutex
	records  []can.Record
	capacity int
	dropped  uint64

	// err is the terminal receive error, reported by drain once the
	// queued records have been handed out.
	err error
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		panic(fmt.Sprintf("source: queue capacity must be positive, got %d", capacity))
	}
	return &queue{capacity: capacity}
}

// push appends a record, dropping the oldest if the queue is full.
func (q *queue) push(record can.Record) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) >= q.capacity {
		q.records[0] = can.Record{} // release for GC
		q.records = q.records[1:]
		q.dropped++
	}
	q.records = append(q.records, record)
}

// fail records the terminal receive error. Only the first error is
// kept.
func (q *queue) fail(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err == nil {
		q.err = err
	}
}

// drain removes and returns every queued record in arrival order. The
// terminal error is returned only when no records remain, so nothing
// received before a disconnect is lost.
func (q *queue) drain() ([]can.Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.records) == 0 {
		return nil, q.err
	}
	records := q.records
	q.records = nil
	return records, nil
}

// droppedCount returns the number of records dropped on overflow.
func (q *queue) droppedCount() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
