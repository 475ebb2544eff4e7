// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidName is returned when a route or segment name does
	// not parse.
	ErrInvalidName = errors.New("logstore: invalid route name")

	// ErrNotFound is returned when a name parses but nothing is
	// recorded under it.
	ErrNotFound = errors.New("logstore: not found")
)

// TimestampLayout is the time format of the timestamp half of a route
// name.
const TimestampLayout = "2006-01-02--15-04-05"

var (
	donglePattern    = regexp.MustCompile(`^[0-9A-Za-z_-]+$`)
	timestampPattern = regexp.MustCompile(`^[0-9A-Za-z-]+$`)
)

// Name identifies a route or one segment of it.
type Name struct {
	Dongle    string
	Timestamp string

	// Segment is the segment number, or -1 when the name refers to
	// the whole route.
	Segment int
}

// ParseName parses "dongle|timestamp" (a route), or a segment in
// either "dongle|timestamp--N" or "dongle|timestamp/N" form. A "/" may
// also stand in for the "|" separator, as it does in URLs.
func ParseName(name string) (Name, error) {
	separator := strings.IndexByte(name, '|')
	if separator < 0 {
		separator = strings.IndexByte(name, '/')
	}
	if separator <= 0 {
		return Name{}, fmt.Errorf("%w: %q has no dongle separator", ErrInvalidName, name)
	}
	parsed := Name{Dongle: name[:separator], Segment: -1}
	rest := name[separator+1:]

	if slash := strings.LastIndexByte(rest, '/'); slash >= 0 {
		segment, err := parseSegment(rest[slash+1:])
		if err != nil {
			return Name{}, fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
		}
		parsed.Segment = segment
		rest = rest[:slash]
	} else if dashes := strings.LastIndex(rest, "--"); dashes >= 0 && isDigits(rest[dashes+2:]) {
		segment, err := parseSegment(rest[dashes+2:])
		if err != nil {
			return Name{}, fmt.Errorf("%w: %q: %v", ErrInvalidName, name, err)
		}
		parsed.Segment = segment
		rest = rest[:dashes]
	}
	parsed.Timestamp = rest

	if !donglePattern.MatchString(parsed.Dongle) {
		return Name{}, fmt.Errorf("%w: dongle %q", ErrInvalidName, parsed.Dongle)
	}
	if !timestampPattern.MatchString(parsed.Timestamp) {
		return Name{}, fmt.Errorf("%w: timestamp %q", ErrInvalidName, parsed.Timestamp)
	}
	return parsed, nil
}

func parseSegment(text string) (int, error) {
	if !isDigits(text) {
		return 0, fmt.Errorf("segment %q is not a number", text)
	}
	segment, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("segment %q: %w", text, err)
	}
	return segment, nil
}

func isDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Route returns the route directory name, "dongle|timestamp".
func (n Name) Route() string {
	return n.Dongle + "|" + n.Timestamp
}

// IsSegment reports whether n names a single segment.
func (n Name) IsSegment() bool {
	return n.Segment >= 0
}

// WithSegment returns the name of segment number segment of n's
// route.
func (n Name) WithSegment(segment int) Name {
	n.Segment = segment
	return n
}

// String returns the canonical form: "dongle|timestamp" for a route
// and "dongle|timestamp--N" for a segment.
func (n Name) String() string {
	if n.IsSegment() {
		return fmt.Sprintf("%s--%d", n.Route(), n.Segment)
	}
	return n.Route()
}

// NewRouteName returns a route name for a recording starting at
// start. An empty dongle is replaced by a random 16-hex-digit id.
func NewRouteName(dongle string, start time.Time) Name {
	if dongle == "" {
		dongle = RandomDongle()
	}
	return Name{
		Dongle:    dongle,
		Timestamp: start.Format(TimestampLayout),
		Segment:   -1,
	}
}

// RandomDongle returns a fresh 16-hex-digit device id taken from a
// random UUID.
func RandomDongle() string {
	id := uuid.New()
	return hex.EncodeToString(id[:8])
}
