// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/bureau-foundation/bitflip/lib/differ"
	"github.com/bureau-foundation/bitflip/lib/report"
	"github.com/bureau-foundation/bitflip/lib/source"
)

// analysis is one seed-then-observe run shared by watch and diff.
type analysis struct {
	settings *settings
	reporter *report.Reporter
	session  *differ.Session
	bus      uint8

	// live is set when the comparison is a live stream, so its losses
	// can be reported.
	live *source.Live
}

func newAnalysis(env *environment, resolved *settings) (*analysis, error) {
	reporter, err := newReporter(env, resolved.config)
	if err != nil {
		return nil, err
	}
	session := differ.NewSession(differ.Options{
		Multiplex: resolved.config.Multiplex,
		Sink:      reporter,
		Logger:    resolved.logger,
	})
	return &analysis{
		settings: resolved,
		reporter: reporter,
		session:  session,
		bus:      uint8(resolved.config.Bus),
	}, nil
}

// openRoute resolves a route or segment name to a Log source on the
// analysis bus. The empty name is the empty source.
func (a *analysis) openRoute(name string) (source.Source, func(), error) {
	if name == "" {
		return source.Empty(), func() {}, nil
	}
	reader, err := a.settings.store.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %q: %w", name, err)
	}
	return source.NewLog(reader, a.bus), func() { reader.Close() }, nil
}

// finish prints the summary table when requested and logs the run's
// counters.
func (a *analysis) finish(table bool) error {
	if table {
		if err := a.reporter.Table(a.session.Deltas()); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
	}
	stats := a.session.Stats()
	attrs := []any{
		"bus", a.bus,
		"frames", stats.Frames,
		"buffered", stats.Buffered,
		"dropped", stats.Dropped,
		"transitions", stats.Transitions,
		"keys", a.session.Tracker().Len(),
	}
	if a.live != nil {
		attrs = append(attrs, "lost", a.live.Dropped())
	}
	a.settings.logger.Info("analysis finished", attrs...)
	return nil
}

// seed replays the baseline silently. It reports false when the run
// was interrupted before observing began, which is a clean stop like
// an interrupt while observing.
func (a *analysis) seed(ctx context.Context, baseline source.Source) (bool, error) {
	err := a.session.Seed(ctx, baseline)
	if errors.Is(err, context.Canceled) {
		a.settings.logger.Info("interrupted while seeding baseline")
		return false, nil
	}
	return err == nil, err
}
