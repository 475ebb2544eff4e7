// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package differ

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/multiplex"
	"github.com/bureau-foundation/bitflip/lib/report"
	"github.com/bureau-foundation/bitflip/lib/source"
	"github.com/bureau-foundation/bitflip/lib/transition"
)

// recordingSink collects reported events.
type recordingSink struct {
	events []report.Event
	err    error
}

func (r *recordingSink) Transition(event report.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

// frames builds a Log source of single-message records on bus 0, one
// per payload, 10 ms apart.
func frames(address uint32, payloads ...[]byte) source.Source {
	var records []can.Record
	for index, payload := range payloads {
		records = append(records, can.Record{
			Which:    can.WhichCAN,
			MonoTime: uint64(index+1) * 1e7,
			CAN:      []can.Message{{Address: address, Data: payload}},
		})
	}
	return source.NewLog(source.Records(records...), 0)
}

func run(t *testing.T, options Options, baseline, comparison source.Source) *Session {
	t.Helper()
	session := NewSession(options)
	ctx := context.Background()
	if err := session.Seed(ctx, baseline); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := session.Observe(ctx, comparison); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	return session
}

func TestBaselineSuppressesKnownBehavior(t *testing.T) {
	sink := &recordingSink{}
	run(t, Options{Sink: sink}, frames(0x200, []byte{0x00}), frames(0x200, []byte{0x00}))
	if len(sink.events) != 0 {
		t.Fatalf("reported %d transitions for an unchanged payload, want 0: %+v", len(sink.events), sink.events)
	}
}

func TestComparisonReportsNewRisingBit(t *testing.T) {
	sink := &recordingSink{}
	session := run(t, Options{Sink: sink}, frames(0x200, []byte{0x00}), frames(0x200, []byte{0x01}))

	if len(sink.events) != 1 {
		t.Fatalf("reported %d transitions, want 1: %+v", len(sink.events), sink.events)
	}
	event := sink.events[0]
	if event.Direction != transition.Rising || event.Address != 0x200 || event.Multiplexed {
		t.Errorf("event = %+v, want plain rising on 0x200", event)
	}
	if got := report.FormatLine(event); got != "0.01\t0x200\t(512)\t+01" {
		t.Errorf("line = %q", got)
	}

	// Bit 0 was 0 in the baseline and 1 in the comparison, so it has
	// now been seen both ways.
	deltas := session.Deltas()
	if len(deltas) != 1 || deltas[0].Bytes()[0] != 0x01 {
		t.Errorf("Deltas = %+v, want bit 0 of 0x200", deltas)
	}
}

func TestEmptyBaselineReportsFirstNonzeroFrame(t *testing.T) {
	sink := &recordingSink{}
	run(t, Options{Sink: sink}, source.Empty(), frames(0x123, []byte{0x00, 0x80}))

	if len(sink.events) == 0 {
		t.Fatal("no transition reported for a nonzero first frame")
	}
	if sink.events[0].Direction != transition.Rising {
		t.Errorf("first event direction = %v, want rising", sink.events[0].Direction)
	}
}

func TestBothDirectionsReportedRisingFirst(t *testing.T) {
	sink := &recordingSink{}
	run(t, Options{Sink: sink}, frames(0x10, []byte{0x0F}), frames(0x10, []byte{0xF0}))

	if len(sink.events) != 2 {
		t.Fatalf("reported %d transitions, want 2: %+v", len(sink.events), sink.events)
	}
	if sink.events[0].Direction != transition.Rising || sink.events[1].Direction != transition.Falling {
		t.Errorf("directions = %v, %v; want rising then falling", sink.events[0].Direction, sink.events[1].Direction)
	}
}

func TestDeltasListBitsToggledSinceBaseline(t *testing.T) {
	sink := &recordingSink{}
	session := run(t, Options{Sink: sink},
		frames(0x300, []byte{0x01, 0x00}, []byte{0x00, 0x00}),
		frames(0x300, []byte{0x01, 0x80}, []byte{0x00, 0x00}),
	)

	deltas := session.Deltas()
	if len(deltas) != 1 {
		t.Fatalf("Deltas = %+v, want one key", deltas)
	}
	if got := deltas[0].Bytes(); len(got) != 2 || got[0] != 0x00 || got[1] != 0x80 {
		t.Errorf("delta bytes = %x, want 0080", got)
	}
}

func TestMultiplexedAddressesTrackPerID(t *testing.T) {
	// Eleven frames cycling the first byte 0,1,2,...: classified
	// multiplexed once the eleventh arrives.
	var payloads [][]byte
	for index := 0; index < 11; index++ {
		payloads = append(payloads, []byte{byte(index % 3), 0x00})
	}
	payloads = append(payloads, []byte{0x01, 0x40})

	sink := &recordingSink{}
	session := run(t, Options{Multiplex: true, Sink: sink}, source.Empty(), frames(0x1D2, payloads...))

	stats := session.Stats()
	if stats.Buffered != multiplex.MinMessagesCheck {
		t.Errorf("Buffered = %d, want %d", stats.Buffered, multiplex.MinMessagesCheck)
	}
	var last report.Event
	for _, event := range sink.events {
		if !event.Multiplexed {
			t.Errorf("event %+v not marked multiplexed", event)
		}
		last = event
	}
	if last.ID != 0x01 || last.Direction != transition.Rising {
		t.Errorf("last event = %+v, want rising under id 1", last)
	}
	if got := report.FormatLine(last); got != "0.12\t0x1d2:m1\t(466:m1)\t+0140" {
		t.Errorf("line = %q", got)
	}
}

func TestMultiplexDisabledTracksFromFirstFrame(t *testing.T) {
	sink := &recordingSink{}
	session := run(t, Options{Sink: sink}, source.Empty(), frames(0x400, []byte{0x01}))
	if session.Stats().Buffered != 0 {
		t.Errorf("Buffered = %d with detection disabled, want 0", session.Stats().Buffered)
	}
	if len(sink.events) != 1 {
		t.Errorf("reported %d transitions, want 1", len(sink.events))
	}
}

func TestMalformedFramesAreDropped(t *testing.T) {
	sink := &recordingSink{}
	session := run(t, Options{Sink: sink},
		frames(0x500, []byte{0x00}),
		frames(0x500, []byte{}, []byte{0x00, 0x01}, make([]byte, can.MaxPayload+1), []byte{0x02}),
	)

	stats := session.Stats()
	if stats.Dropped != 3 {
		t.Errorf("Dropped = %d, want 3 (empty, length change, oversized)", stats.Dropped)
	}
	if stats.Frames != 5 {
		t.Errorf("Frames = %d, want 5", stats.Frames)
	}
	if len(sink.events) != 1 || sink.events[0].Payload[0] != 0x02 {
		t.Errorf("events = %+v, want one rising for 0x02", sink.events)
	}
	mark, _ := session.Tracker().Watermark(transition.Key{Address: 0x500})
	if mark.Width != 1 {
		t.Errorf("watermark width = %d, want 1", mark.Width)
	}
}

func TestSinkErrorStopsObserve(t *testing.T) {
	sinkErr := errors.New("stdout closed")
	session := NewSession(Options{Sink: &recordingSink{err: sinkErr}})
	err := session.Observe(context.Background(), frames(0x600, []byte{0x01}))
	if !errors.Is(err, sinkErr) {
		t.Fatalf("Observe = %v, want wrapped sink error", err)
	}
}

func TestObserveCancelledIsClean(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := NewSession(Options{Sink: &recordingSink{}})
	if err := session.Observe(ctx, frames(0x700, []byte{0x01})); err != nil {
		t.Fatalf("Observe after cancel = %v, want nil", err)
	}
}

func TestSeedNeverReports(t *testing.T) {
	sink := &recordingSink{}
	session := NewSession(Options{Sink: sink})
	if err := session.Seed(context.Background(), frames(0x800, []byte{0x00}, []byte{0xFF}, []byte{0x00})); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("Seed reported %d transitions", len(sink.events))
	}
	if session.Stats().Transitions != 0 {
		t.Errorf("Transitions = %d after Seed", session.Stats().Transitions)
	}
}

func TestDeltasKeepMultiplexedLabelAfterReclassification(t *testing.T) {
	// The first byte cycles 0..3; the second byte alternates every
	// four frames so each sub-id toggles bit 0 of byte 1.
	var payloads [][]byte
	for index := 0; index < 40; index++ {
		payloads = append(payloads, []byte{byte(index % 4), byte(index / 4 % 2)})
	}
	// A frame of a different length resets the classifier.
	payloads = append(payloads, []byte{0x00, 0x00, 0x00})

	session := run(t, Options{Multiplex: true, Sink: &recordingSink{}}, source.Empty(), frames(0x100, payloads...))

	if got := session.classifier.Decision(0x100); got != multiplex.Pending {
		t.Fatalf("decision after length change = %v, want Pending", got)
	}
	deltas := session.Deltas()
	if len(deltas) != 4 {
		t.Fatalf("got %d deltas, want one per sub-id", len(deltas))
	}
	for index, delta := range deltas {
		if delta.Key.ID != uint8(index) {
			t.Errorf("delta %d key = %s, want id %d", index, delta.Key, index)
		}
		if !delta.Multiplexed {
			t.Errorf("delta for %s lost its multiplexed label", delta.Key)
		}
	}
}
