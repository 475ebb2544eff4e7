// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report formats bit transitions as human-readable lines.
//
// Each transition is one line:
//
//	<timestamp>\t<hex address>[:m<hex id>]\t(<decimal address>[:m<hex id>])\t<+|-><hex payload>
//
// [FormatLine] is the pure formatter. [Reporter] writes lines to an
// io.Writer and optionally colors the direction marker; it also
// renders the end-of-run summary table of newly toggled bits.
package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/bureau-foundation/bitflip/lib/transition"
)

// Event is one reported transition.
type Event struct {
	// Timestamp is the frame's monotonic time in seconds.
	Timestamp float64

	Address     uint32
	ID          uint8
	Multiplexed bool

	// Direction is a single direction, Rising or Falling.
	Direction transition.Change

	Payload []byte
}

// FormatLine renders an event without color or trailing newline.
func FormatLine(event Event) string {
	return formatLine(event, event.Direction.Marker())
}

func formatLine(event Event, marker string) string {
	suffix := ""
	if event.Multiplexed {
		suffix = ":m" + strconv.FormatUint(uint64(event.ID), 16)
	}
	return fmt.Sprintf("%.2f\t%#x%s\t(%d%s)\t%s%s",
		event.Timestamp,
		event.Address, suffix,
		event.Address, suffix,
		marker, hex.EncodeToString(event.Payload))
}

// ColorMode selects when the Reporter emits ANSI color.
type ColorMode string

const (
	// ColorAuto colors output only when the writer is a terminal.
	ColorAuto ColorMode = "auto"
	// ColorAlways forces ANSI color.
	ColorAlways ColorMode = "always"
	// ColorNever disables color.
	ColorNever ColorMode = "never"
)

// ParseColorMode validates a color mode name.
func ParseColorMode(name string) (ColorMode, error) {
	switch mode := ColorMode(name); mode {
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	}
	return "", fmt.Errorf("unknown color mode %q (want auto, always, or never)", name)
}

// Reporter writes transition lines. It holds no state beyond its
// output and styles.
type Reporter struct {
	output  io.Writer
	rising  lipgloss.Style
	falling lipgloss.Style
	changed lipgloss.Style
}

// NewReporter returns a Reporter writing to output. With ColorAuto,
// color is enabled only if output is an *os.File attached to a
// terminal.
func NewReporter(output io.Writer, mode ColorMode) *Reporter {
	profile := termenv.Ascii
	switch mode {
	case ColorAlways:
		profile = termenv.ANSI
	case ColorAuto:
		if file, ok := output.(*os.File); ok && term.IsTerminal(int(file.Fd())) {
			profile = termenv.ANSI
		}
	}

	renderer := lipgloss.NewRenderer(output, termenv.WithProfile(profile))
	renderer.SetColorProfile(profile)

	return &Reporter{
		output:  output,
		rising:  renderer.NewStyle().Foreground(lipgloss.Color("10")),
		falling: renderer.NewStyle().Foreground(lipgloss.Color("9")),
		changed: renderer.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// Transition writes one line for event.
func (r *Reporter) Transition(event Event) error {
	marker := event.Direction.Marker()
	switch event.Direction {
	case transition.Rising:
		marker = r.rising.Render(marker)
	case transition.Falling:
		marker = r.falling.Render(marker)
	}
	_, err := fmt.Fprintln(r.output, formatLine(event, marker))
	return err
}

// Printf writes a free-form status line, such as the live-mode
// banner, to the report output.
func (r *Reporter) Printf(format string, args ...any) error {
	_, err := fmt.Fprintf(r.output, format+"\n", args...)
	return err
}
