// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/bureau-foundation/bitflip/lib/transition"
)

// Delta is the set of bits of one key that toggled during the
// reporting phase but had not toggled by the end of the baseline.
type Delta struct {
	Key         transition.Key
	Multiplexed bool

	// Changed holds the newly toggled bits, big-endian over Width
	// bytes.
	Changed *big.Int
	Width   int
}

// Bytes returns Changed as exactly Width big-endian bytes.
func (d Delta) Bytes() []byte {
	return d.Changed.FillBytes(make([]byte, d.Width))
}

// Table writes the summary of deltas: a header per key, the changed
// bits in hex with nonzero digits highlighted, and a bit grid with
// one row per payload byte.
func (r *Reporter) Table(deltas []Delta) error {
	var builder strings.Builder
	for _, delta := range deltas {
		changed := delta.Bytes()

		var digits strings.Builder
		for _, digit := range hex.EncodeToString(changed) {
			if digit == '0' {
				digits.WriteRune(digit)
				continue
			}
			digits.WriteString(r.changed.Render(string(digit)))
		}

		fmt.Fprintf(&builder, "%s %s\n", tableHeader(delta), digits.String())
		builder.WriteString(BitGrid(changed))
		builder.WriteString("\n")
	}
	_, err := io.WriteString(r.output, builder.String())
	return err
}

// tableHeader formats "<hex addr>(<decimal addr>)" padded to line up
// columns for 11-bit identifiers.
func tableHeader(delta Delta) string {
	address := fmt.Sprintf("%#x", delta.Key.Address)
	decimal := strconv.FormatUint(uint64(delta.Key.Address), 10)
	if delta.Multiplexed {
		suffix := ":m" + strconv.FormatUint(uint64(delta.Key.ID), 16)
		address += suffix
		decimal += suffix
	}
	return fmt.Sprintf("%-6s(%-4s)", address, decimal)
}

// BitGrid renders data as a grid with one row per byte and one column
// per bit, most significant bit first. Set bits are shown as "1",
// clear bits as ".".
func BitGrid(data []byte) string {
	var builder strings.Builder
	builder.WriteString("      7 6 5 4 3 2 1 0\n")
	for index, value := range data {
		fmt.Fprintf(&builder, "  %2d |", index)
		for bit := 7; bit >= 0; bit-- {
			if value&(1<<bit) != 0 {
				builder.WriteString(" 1")
			} else {
				builder.WriteString(" .")
			}
		}
		builder.WriteString("\n")
	}
	return builder.String()
}
