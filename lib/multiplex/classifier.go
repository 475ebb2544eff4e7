// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package multiplex decides whether a CAN address carries several
// logical messages distinguished by their first payload byte.
//
// The heuristic looks for a rolling counter in byte 0: once more than
// [MinMessagesCheck] first bytes have been buffered for an address,
// the address is multiplexed if consecutive differences are constant,
// or if they are exactly {1, -max} (a counter that increments by one
// and wraps to zero). It never catches sub-identifiers that jump.
//
// The decision is computed once per address and cached. A change in
// the address's payload length discards the buffer and the cached
// decision, since a different length means a different message.
package multiplex

// MinMessagesCheck is the number of buffered first bytes an address
// must exceed before it is classified.
const MinMessagesCheck = 10

// Decision is the classification state of one address.
type Decision int

const (
	// Pending means too few samples have been seen to decide. Frames
	// for a pending address are not tracked.
	Pending Decision = iota

	// Plain means the address is tracked as a single message with
	// multiplex id 0.
	Plain

	// Multiplexed means the first payload byte is a sub-identifier.
	Multiplexed
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Plain:
		return "plain"
	case Multiplexed:
		return "multiplexed"
	default:
		return "unknown"
	}
}

// ID returns the multiplex id for a payload under this decision: the
// first payload byte when multiplexed, otherwise 0.
func (d Decision) ID(payload []byte) uint8 {
	if d != Multiplexed || len(payload) == 0 {
		return 0
	}
	return payload[0]
}

// Classifier holds per-address sample buffers and cached decisions.
// It is not safe for concurrent use; the analysis pipeline has a
// single consumer.
type Classifier struct {
	enabled   bool
	addresses map[uint32]*addressState
}

type addressState struct {
	// samples holds first bytes until a decision is made, capped at
	// MinMessagesCheck+1 values.
	samples  []byte
	length   int
	decision Decision
}

// NewClassifier returns a Classifier. When enabled is false every
// address is immediately Plain and nothing is buffered.
func NewClassifier(enabled bool) *Classifier {
	return &Classifier{
		enabled:   enabled,
		addresses: make(map[uint32]*addressState),
	}
}

// Enabled reports whether multiplex detection is active.
func (c *Classifier) Enabled() bool {
	return c.enabled
}

// Observe records the payload's first byte for address and returns
// the address's decision including this sample. The caller must not
// pass an empty payload.
func (c *Classifier) Observe(address uint32, payload []byte) Decision {
	if !c.enabled {
		return Plain
	}

	state, ok := c.addresses[address]
	if !ok {
		state = &addressState{samples: make([]byte, 0, MinMessagesCheck+1)}
		c.addresses[address] = state
	}

	if state.length != 0 && state.length != len(payload) {
		state.samples = state.samples[:0]
		state.decision = Pending
	}
	state.length = len(payload)

	if state.decision != Pending {
		return state.decision
	}

	state.samples = append(state.samples, payload[0])
	if len(state.samples) <= MinMessagesCheck {
		return Pending
	}

	state.decision = Plain
	if Check(state.samples) {
		state.decision = Multiplexed
	}
	return state.decision
}

// Decision returns the cached decision for address without recording
// a sample. Unseen addresses are Pending, or Plain when detection is
// disabled.
func (c *Classifier) Decision(address uint32) Decision {
	if !c.enabled {
		return Plain
	}
	state, ok := c.addresses[address]
	if !ok {
		return Pending
	}
	return state.decision
}

// Check applies the rolling-counter heuristic to a sample sequence.
// Fewer than two samples have no differences and are never
// multiplexed.
//
// A constant sequence has the single difference 0 and is classified
// multiplexed. This is a known gap in the heuristic, kept so that
// classification matches recordings analyzed with the reference tool.
func Check(samples []byte) bool {
	if len(samples) < 2 {
		return false
	}

	maximum := 0
	differences := make(map[int]struct{}, 2)
	for i, sample := range samples {
		maximum = max(maximum, int(sample))
		if i > 0 {
			differences[int(sample)-int(samples[i-1])] = struct{}{}
		}
	}

	switch len(differences) {
	case 1:
		return true
	case 2:
		_, increments := differences[1]
		_, wraps := differences[-maximum]
		return increments && wraps
	default:
		return false
	}
}
