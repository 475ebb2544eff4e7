// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"testing"
	"time"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		input string
		want  Name
	}{
		{"a2a0ccea32023010|2023-07-27--13-01-19", Name{"a2a0ccea32023010", "2023-07-27--13-01-19", -1}},
		{"a2a0ccea32023010|2023-07-27--13-01-19--3", Name{"a2a0ccea32023010", "2023-07-27--13-01-19", 3}},
		{"a2a0ccea32023010|2023-07-27--13-01-19/12", Name{"a2a0ccea32023010", "2023-07-27--13-01-19", 12}},
		{"a2a0ccea32023010/2023-07-27--13-01-19", Name{"a2a0ccea32023010", "2023-07-27--13-01-19", -1}},
		{"a2a0ccea32023010/2023-07-27--13-01-19/0", Name{"a2a0ccea32023010", "2023-07-27--13-01-19", 0}},
		{"dongle-1|000000cc--8863c0ab28", Name{"dongle-1", "000000cc--8863c0ab28", -1}},
	}
	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			got, err := ParseName(test.input)
			if err != nil {
				t.Fatalf("ParseName: %v", err)
			}
			if got != test.want {
				t.Errorf("ParseName = %+v, want %+v", got, test.want)
			}
		})
	}
}

func TestParseNameRejects(t *testing.T) {
	for _, input := range []string{
		"",
		"no-separator",
		"|2023-07-27--13-01-19",
		"dongle|",
		"dongle|2023-07-27--13-01-19/x",
		"dongle|time stamp",
	} {
		if _, err := ParseName(input); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ParseName(%q) = %v, want ErrInvalidName", input, err)
		}
	}
}

func TestNameString(t *testing.T) {
	name := Name{Dongle: "abc", Timestamp: "2023-07-27--13-01-19", Segment: -1}
	if got := name.String(); got != "abc|2023-07-27--13-01-19" {
		t.Errorf("route String = %q", got)
	}
	if got := name.WithSegment(4).String(); got != "abc|2023-07-27--13-01-19--4" {
		t.Errorf("segment String = %q", got)
	}

	reparsed, err := ParseName(name.WithSegment(4).String())
	if err != nil || reparsed != name.WithSegment(4) {
		t.Errorf("ParseName(String()) = (%+v, %v)", reparsed, err)
	}
}

func TestNewRouteName(t *testing.T) {
	start := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	name := NewRouteName("", start)
	if len(name.Dongle) != 16 {
		t.Errorf("random dongle %q is not 16 characters", name.Dongle)
	}
	if name.Timestamp != "2026-03-04--05-06-07" {
		t.Errorf("Timestamp = %q", name.Timestamp)
	}
	if name.IsSegment() {
		t.Error("new route name should not be a segment")
	}
	if fixed := NewRouteName("mydongle", start); fixed.Dongle != "mydongle" {
		t.Errorf("Dongle = %q, want mydongle", fixed.Dongle)
	}
}
