// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/clock"
)

// Poller drains a Subscriber on a fixed cadence. It is the one poll
// loop shared by Live and the recorder.
type Poller struct {
	subscriber Subscriber
	clock      clock.Clock
	interval   time.Duration
	logger     *slog.Logger
	started    bool

	// reported is the subscriber's drop count as of the last warning.
	reported uint64
}

// NewPoller returns a Poller. A non-positive interval uses
// DefaultPollInterval.
func NewPoller(subscriber Subscriber, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Poller {
	if subscriber == nil {
		panic("source: NewPoller requires a subscriber")
	}
	if clk == nil {
		panic("source: NewPoller requires a clock")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Poller{subscriber: subscriber, clock: clk, interval: interval, logger: logger}
}

// Poll waits one interval (the first call does not wait) and returns
// every record received since the previous call. It returns ctx.Err()
// when the context is cancelled during the wait. Records lost to
// subscriber overflow since the previous call are logged at Warn.
func (p *Poller) Poll(ctx context.Context) ([]can.Record, error) {
	if p.started {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.clock.After(p.interval):
		}
	}
	p.started = true

	records, err := p.subscriber.Drain()
	if dropped := p.subscriber.Dropped(); dropped > p.reported {
		p.logger.Warn("live records lost, poll loop fell behind",
			"lost", dropped-p.reported,
			"total_lost", dropped,
			"interval", p.interval,
		)
		p.reported = dropped
	}
	if err != nil {
		return records, fmt.Errorf("live subscription: %w", err)
	}
	return records, nil
}

// Dropped returns the number of records the subscriber discarded.
func (p *Poller) Dropped() uint64 {
	return p.subscriber.Dropped()
}

// Close closes the underlying subscriber.
func (p *Poller) Close() error {
	return p.subscriber.Close()
}
