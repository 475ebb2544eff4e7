// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/multiplex"
	"github.com/bureau-foundation/bitflip/lib/report"
	"github.com/bureau-foundation/bitflip/lib/source"
	"github.com/bureau-foundation/bitflip/lib/transition"
)

// Sink receives reported transitions. *report.Reporter implements it.
type Sink interface {
	Transition(report.Event) error
}

// Options configures a Session.
type Options struct {
	// Multiplex enables multiplex detection. When false every
	// address is tracked under multiplex id 0 from its first frame.
	Multiplex bool

	// Sink receives transitions during the observe phase. Required.
	Sink Sink

	// Logger receives per-frame drop diagnostics at debug level. A
	// nil Logger discards them.
	Logger *slog.Logger
}

// Stats counts what a session has processed.
type Stats struct {
	// Frames is every frame handed to the session.
	Frames uint64
	// Buffered is frames held back while their address was pending
	// multiplex classification.
	Buffered uint64
	// Dropped is malformed frames skipped.
	Dropped uint64
	// Transitions is the number of reported lines.
	Transitions uint64
}

// Session owns all accumulation state of one analysis run: the
// multiplex classifier, the watermark tracker, and the snapshot taken
// after the baseline. Create one per run; state is never shared
// between sessions.
type Session struct {
	classifier *multiplex.Classifier
	tracker    *transition.Tracker
	baseline   *transition.Tracker

	// multiplexed records, per key, whether the address was
	// classified multiplexed when the key was first tracked. The
	// classifier's current decision can revert to Pending later.
	multiplexed map[transition.Key]bool

	sink   Sink
	logger *slog.Logger
	stats  Stats
}

// NewSession returns a Session with empty watermarks.
func NewSession(options Options) *Session {
	if options.Sink == nil {
		panic("differ: Options.Sink is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	tracker := transition.NewTracker()
	return &Session{
		classifier:  multiplex.NewClassifier(options.Multiplex),
		tracker:     tracker,
		baseline:    tracker.Clone(),
		multiplexed: make(map[transition.Key]bool),
		sink:        options.Sink,
		logger:      logger,
	}
}

// Seed consumes frames from baseline silently, establishing the
// watermarks that represent known behavior. It returns once baseline
// is exhausted. The watermarks at that point become the reference for
// Deltas.
func (s *Session) Seed(ctx context.Context, baseline source.Source) error {
	if err := s.consume(ctx, baseline, false); err != nil {
		return fmt.Errorf("seeding baseline: %w", err)
	}
	s.baseline = s.tracker.Clone()
	return nil
}

// Observe consumes frames from comparison, reporting every transition
// to the sink. It returns nil when the source is exhausted or when ctx
// is cancelled, which is the normal way to stop live mode.
func (s *Session) Observe(ctx context.Context, comparison source.Source) error {
	err := s.consume(ctx, comparison, true)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Session) consume(ctx context.Context, frames source.Source, reporting bool) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch, err := frames.Next(ctx)
		for _, frame := range batch {
			if processErr := s.Process(frame, reporting); processErr != nil {
				return processErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Process runs one frame through classification and tracking, and
// forwards any transitions to the sink when reporting is true. Malformed
// frames are logged and skipped. The only error returned is a sink
// write failure.
func (s *Session) Process(frame can.Frame, reporting bool) error {
	s.stats.Frames++

	if err := frame.Validate(); err != nil {
		s.drop(frame, err)
		return nil
	}

	decision := s.classifier.Observe(frame.Address, frame.Payload)
	if decision == multiplex.Pending {
		s.stats.Buffered++
		return nil
	}

	key := transition.Key{Address: frame.Address, ID: decision.ID(frame.Payload)}
	change, err := s.tracker.Observe(key, frame.Payload)
	if err != nil {
		s.drop(frame, err)
		return nil
	}
	if _, seen := s.multiplexed[key]; !seen {
		s.multiplexed[key] = decision == multiplex.Multiplexed
	}

	if !reporting || change == 0 {
		return nil
	}
	for _, direction := range change.Directions() {
		event := reportEvent(frame, key, decision, direction)
		if err := s.sink.Transition(event); err != nil {
			return fmt.Errorf("reporting transition for %s: %w", key, err)
		}
		s.stats.Transitions++
	}
	return nil
}

func reportEvent(frame can.Frame, key transition.Key, decision multiplex.Decision, direction transition.Change) report.Event {
	return report.Event{
		Timestamp:   frame.Timestamp,
		Address:     key.Address,
		ID:          key.ID,
		Multiplexed: decision == multiplex.Multiplexed,
		Direction:   direction,
		Payload:     frame.Payload,
	}
}

func (s *Session) drop(frame can.Frame, reason error) {
	s.stats.Dropped++
	s.logger.Debug("dropping frame",
		"address", fmt.Sprintf("%#x", frame.Address),
		"bus", frame.Bus,
		"length", len(frame.Payload),
		"reason", reason,
	)
}

// Stats returns the session's counters.
func (s *Session) Stats() Stats {
	return s.stats
}

// Tracker returns the live tracker. Callers must not mutate it while
// the session is processing.
func (s *Session) Tracker() *transition.Tracker {
	return s.tracker
}

// Deltas returns, for every key whose set of toggled bits grew since
// the baseline, the newly toggled bits. Keys are in ascending order.
func (s *Session) Deltas() []report.Delta {
	var deltas []report.Delta
	for _, key := range s.tracker.Keys() {
		changed := new(big.Int).AndNot(s.tracker.Toggled(key), s.baseline.Toggled(key))
		if changed.Sign() == 0 {
			continue
		}
		mark, _ := s.tracker.Watermark(key)
		deltas = append(deltas, report.Delta{
			Key:         key,
			Multiplexed: s.multiplexed[key],
			Changed:     changed,
			Width:       mark.Width,
		})
	}
	return deltas
}
