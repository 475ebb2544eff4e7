// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package multiplex

import "testing"

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		samples []byte
		want    bool
	}{
		{"constant stride one", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, true},
		{"constant stride four", []byte{0, 4, 8, 12, 16, 20, 24, 28, 32, 36, 40}, true},
		{"wrapping counter", []byte{0, 1, 2, 3, 0, 1, 2, 3, 0, 1, 2}, true},
		{"toggle between two values", []byte{0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0}, true},
		{"jump in ids", []byte{0, 1, 2, 5, 6, 7, 0, 1, 2, 5, 6}, false},
		{"wrap not to zero", []byte{1, 2, 3, 1, 2, 3, 1, 2, 3, 1, 2}, false},
		{"random", []byte{0x12, 0x80, 0x03, 0xFF, 0x40, 0x41, 0x00, 0x99, 0x12, 0x07, 0x55}, false},
		{"single sample", []byte{7}, false},
		{"empty", nil, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Check(test.samples); got != test.want {
				t.Errorf("Check(%v) = %v, want %v", test.samples, got, test.want)
			}
		})
	}
}

// TestCheckConstantSequenceIsMultiplexed pins the known gap: a first
// byte that never changes has one distinct difference (zero) and is
// therefore classified multiplexed. Such an address ends up tracked
// under a single multiplex id, so the only visible effect is the
// ":m<id>" suffix in reports.
func TestCheckConstantSequenceIsMultiplexed(t *testing.T) {
	samples := []byte{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 5}
	if !Check(samples) {
		t.Fatal("constant first byte should classify as multiplexed (stride 0)")
	}
}

func TestClassifierPendingUntilThreshold(t *testing.T) {
	classifier := NewClassifier(true)

	for i := range MinMessagesCheck {
		decision := classifier.Observe(0x200, []byte{byte(i), 0xAA})
		if decision != Pending {
			t.Fatalf("sample %d: decision = %v, want pending", i, decision)
		}
	}

	decision := classifier.Observe(0x200, []byte{MinMessagesCheck, 0xAA})
	if decision != Multiplexed {
		t.Fatalf("after %d samples: decision = %v, want multiplexed", MinMessagesCheck+1, decision)
	}
	if got := decision.ID([]byte{0x07, 0xAA}); got != 0x07 {
		t.Errorf("ID = %#x, want 0x07", got)
	}
}

func TestClassifierCachesDecision(t *testing.T) {
	classifier := NewClassifier(true)

	samples := []byte{0x12, 0x80, 0x03, 0xFF, 0x40, 0x41, 0x00, 0x99, 0x12, 0x07, 0x55}
	var decision Decision
	for _, sample := range samples {
		decision = classifier.Observe(0x300, []byte{sample})
	}
	if decision != Plain {
		t.Fatalf("decision = %v, want plain", decision)
	}

	// A later run of counter-like bytes does not reopen the decision.
	for i := range 20 {
		if got := classifier.Observe(0x300, []byte{byte(i)}); got != Plain {
			t.Fatalf("frame %d after decision: got %v, want cached plain", i, got)
		}
	}
	if got := classifier.Decision(0x300); got != Plain {
		t.Errorf("Decision = %v, want plain", got)
	}
	if got := len(classifier.addresses[0x300].samples); got != MinMessagesCheck+1 {
		t.Errorf("buffered %d samples, want cap of %d", got, MinMessagesCheck+1)
	}
}

func TestClassifierLengthChangeInvalidates(t *testing.T) {
	classifier := NewClassifier(true)

	for i := range MinMessagesCheck + 1 {
		classifier.Observe(0x400, []byte{byte(i), 0})
	}
	if got := classifier.Decision(0x400); got != Multiplexed {
		t.Fatalf("decision = %v, want multiplexed", got)
	}

	if got := classifier.Observe(0x400, []byte{0, 0, 0}); got != Pending {
		t.Fatalf("after length change: decision = %v, want pending", got)
	}
	if got := len(classifier.addresses[0x400].samples); got != 1 {
		t.Errorf("buffer holds %d samples after reset, want 1", got)
	}
}

func TestClassifierDisabled(t *testing.T) {
	classifier := NewClassifier(false)

	if got := classifier.Observe(0x200, []byte{1}); got != Plain {
		t.Fatalf("disabled classifier: decision = %v, want plain", got)
	}
	if got := classifier.Decision(0x999); got != Plain {
		t.Errorf("disabled classifier, unseen address: decision = %v, want plain", got)
	}
	if got := Plain.ID([]byte{0x42}); got != 0 {
		t.Errorf("plain ID = %#x, want 0", got)
	}
}

func TestClassifierAddressesIndependent(t *testing.T) {
	classifier := NewClassifier(true)

	for i := range MinMessagesCheck + 1 {
		classifier.Observe(0x100, []byte{byte(i)})
	}
	if got := classifier.Observe(0x101, []byte{0}); got != Pending {
		t.Fatalf("new address: decision = %v, want pending", got)
	}
	if got := classifier.Decision(0x100); got != Multiplexed {
		t.Errorf("first address: decision = %v, want multiplexed", got)
	}
}
