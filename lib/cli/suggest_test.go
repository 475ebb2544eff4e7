// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"testing"

	"github.com/spf13/pflag"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"watch", "watch", 0},
		{"wacth", "watch", 2},
		{"dif", "diff", 1},
		{"kitten", "sitting", 3},
	}
	for _, test := range tests {
		if got := levenshtein(test.a, test.b); got != test.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", test.a, test.b, got, test.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []*Command{{Name: "watch"}, {Name: "diff"}, {Name: "record"}, {Name: "publish"}}
	if got := suggestCommand("recrod", commands); got != "record" {
		t.Errorf("suggestCommand(recrod) = %q", got)
	}
	if got := suggestCommand("completely-different", commands); got != "" {
		t.Errorf("suggestCommand(far) = %q, want none", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flagSet.IntP("bus", "b", 0, "")
	flagSet.Bool("multiplex", false, "")

	if got := suggestFlag([]string{"-b", "1", "--multiplx"}, flagSet); got != "--multiplex" {
		t.Errorf("suggestFlag = %q, want --multiplex", got)
	}
	if got := suggestFlag([]string{"--bus=1", "--zzzzzzzz"}, flagSet); got != "" {
		t.Errorf("suggestFlag far = %q, want none", got)
	}
}
