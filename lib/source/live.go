// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/clock"
)

// DefaultPollInterval is the live poll cadence. It bounds both the
// latency between a frame arriving and being reported and the idle
// wakeup rate.
const DefaultPollInterval = 20 * time.Millisecond

// Subscriber delivers records from a running producer. Receiving
// happens in the background; Drain hands over everything accumulated
// since the previous call, in arrival order, without blocking.
type Subscriber interface {
	// Drain returns all records received since the last call. A nil
	// slice with a nil error means nothing arrived. A non-nil error
	// means the subscription has ended and no more records will
	// arrive.
	Drain() ([]can.Record, error)

	// Dropped returns the number of records discarded because Drain
	// was not called often enough.
	Dropped() uint64

	// Close stops receiving and releases the connection.
	Close() error
}

// Live is an unbounded source polling a Subscriber at a fixed
// interval. It ends only when its context is cancelled or the
// subscription fails.
type Live struct {
	poller *Poller
	bus    uint8
}

// NewLive returns a Live source. A non-positive interval uses
// DefaultPollInterval. Lost records are logged to logger.
func NewLive(subscriber Subscriber, bus uint8, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Live {
	return &Live{poller: NewPoller(subscriber, clk, interval, logger), bus: bus}
}

// Next waits one poll interval (the first call does not wait) and
// returns every frame on the selected bus received since the last
// call. The batch is often empty. Next returns ctx.Err() when the
// context is cancelled during the wait.
func (l *Live) Next(ctx context.Context) ([]can.Frame, error) {
	records, err := l.poller.Poll(ctx)
	var frames []can.Frame
	for _, record := range records {
		frames = append(frames, record.Frames(l.bus)...)
	}
	return frames, err
}

// Dropped returns the number of records lost before they could be
// polled.
func (l *Live) Dropped() uint64 {
	return l.poller.Dropped()
}

// Close closes the underlying subscriber.
func (l *Live) Close() error {
	return l.poller.Close()
}
