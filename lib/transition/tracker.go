// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package transition

import (
	"errors"
	"fmt"
	"math/big"
	"slices"

	"github.com/bureau-foundation/bitflip/lib/can"
)

// ErrLengthMismatch is returned when a payload's length differs from
// the length already recorded for its key. Mixing widths would shift
// the big-endian interpretation and corrupt both watermarks, so the
// frame is rejected and the watermarks are left untouched.
var ErrLengthMismatch = errors.New("transition: payload length differs from key's recorded length")

// Key identifies one tracked logical message: an address plus the
// multiplex id (0 for addresses that are not multiplexed).
type Key struct {
	Address uint32
	ID      uint8
}

// String formats the key as hex address and multiplex id.
func (k Key) String() string {
	return fmt.Sprintf("%#x:m%x", k.Address, k.ID)
}

// Compare orders keys by address, then multiplex id.
func (k Key) Compare(other Key) int {
	switch {
	case k.Address < other.Address:
		return -1
	case k.Address > other.Address:
		return 1
	case k.ID < other.ID:
		return -1
	case k.ID > other.ID:
		return 1
	}
	return 0
}

// Change is the set of watermarks that grew on one observation.
type Change uint8

const (
	// Rising means a bit was seen as 1 for the first time.
	Rising Change = 1 << iota

	// Falling means a bit was seen as 0 for the first time.
	Falling
)

// Has reports whether every direction in d is present in c.
func (c Change) Has(d Change) bool {
	return c&d == d && d != 0
}

// Directions splits c into its single directions, rising first.
func (c Change) Directions() []Change {
	var directions []Change
	for _, direction := range []Change{Rising, Falling} {
		if c.Has(direction) {
			directions = append(directions, direction)
		}
	}
	return directions
}

// Marker returns "+" for Rising and "-" for Falling. A combined
// change returns "+-"; callers that print one line per direction
// should split with Directions first.
func (c Change) Marker() string {
	marker := ""
	if c.Has(Rising) {
		marker += "+"
	}
	if c.Has(Falling) {
		marker += "-"
	}
	return marker
}

// Watermark is the accumulated bit history of one key. Ones is the
// OR of every payload seen; Zeros is the OR of every payload's
// complement at the payload's own width. Both only grow.
type Watermark struct {
	Ones  big.Int
	Zeros big.Int

	// Width is the payload length in bytes, fixed by the first
	// observation.
	Width int
}

// Toggled returns the bits observed as both 0 and 1.
func (w *Watermark) Toggled() *big.Int {
	return new(big.Int).And(&w.Ones, &w.Zeros)
}

// Tracker maintains a Watermark per Key. It is not safe for
// concurrent use: watermark mutation is confined to the single
// pipeline consumer.
type Tracker struct {
	marks map[Key]*Watermark

	// value and scratch are reused across observations.
	value   big.Int
	scratch big.Int
}

// NewTracker returns an empty Tracker. Every key starts with both
// watermarks at zero.
func NewTracker() *Tracker {
	return &Tracker{marks: make(map[Key]*Watermark)}
}

// Observe folds payload into the watermarks for key and returns which
// watermarks grew. A zero Change means the payload revealed nothing
// new. Observing the same payload twice never changes anything the
// second time.
func (t *Tracker) Observe(key Key, payload []byte) (Change, error) {
	if len(payload) == 0 {
		return 0, can.ErrEmptyPayload
	}
	if len(payload) > can.MaxPayload {
		return 0, fmt.Errorf("%w: got %d", can.ErrPayloadTooLong, len(payload))
	}

	mark, ok := t.marks[key]
	if !ok {
		mark = &Watermark{Width: len(payload)}
		t.marks[key] = mark
	} else if mark.Width != len(payload) {
		return 0, fmt.Errorf("%w: %s has %d-byte payloads, got %d",
			ErrLengthMismatch, key, mark.Width, len(payload))
	}

	var change Change

	t.value.SetBytes(payload)
	t.scratch.Or(&mark.Ones, &t.value)
	if t.scratch.Cmp(&mark.Ones) != 0 {
		mark.Ones.Set(&t.scratch)
		change |= Rising
	}

	t.value.Xor(&t.value, Mask(len(payload)))
	t.scratch.Or(&mark.Zeros, &t.value)
	if t.scratch.Cmp(&mark.Zeros) != 0 {
		mark.Zeros.Set(&t.scratch)
		change |= Falling
	}

	return change, nil
}

// Watermark returns a copy of the watermark for key.
func (t *Tracker) Watermark(key Key) (Watermark, bool) {
	mark, ok := t.marks[key]
	if !ok {
		return Watermark{}, false
	}
	return mark.clone(), true
}

// Toggled returns the bits of key observed as both 0 and 1, or zero
// for an unseen key.
func (t *Tracker) Toggled(key Key) *big.Int {
	mark, ok := t.marks[key]
	if !ok {
		return new(big.Int)
	}
	return mark.Toggled()
}

// Keys returns every tracked key in ascending order.
func (t *Tracker) Keys() []Key {
	keys := make([]Key, 0, len(t.marks))
	for key := range t.marks {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, Key.Compare)
	return keys
}

// Len returns the number of tracked keys.
func (t *Tracker) Len() int {
	return len(t.marks)
}

// Clone returns an independent deep copy of the tracker. The
// differencing session clones after the baseline pass to remember
// what was already known before reporting began.
func (t *Tracker) Clone() *Tracker {
	clone := NewTracker()
	for key, mark := range t.marks {
		copied := mark.clone()
		clone.marks[key] = &copied
	}
	return clone
}

func (w *Watermark) clone() Watermark {
	var copied Watermark
	copied.Ones.Set(&w.Ones)
	copied.Zeros.Set(&w.Zeros)
	copied.Width = w.Width
	return copied
}

// masks caches the all-ones value for each payload width.
var masks = func() [can.MaxPayload + 1]*big.Int {
	var table [can.MaxPayload + 1]*big.Int
	one := big.NewInt(1)
	for width := range table {
		mask := new(big.Int).Lsh(one, uint(width*8))
		table[width] = mask.Sub(mask, one)
	}
	return table
}()

// Mask returns the all-ones value for a payload of width bytes. The
// returned value is shared and must not be modified. Width must be
// between 0 and can.MaxPayload.
func Mask(width int) *big.Int {
	return masks[width]
}
