// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package source

import (
	"errors"
	"log/slog"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/clock"
)

// SocketCAN is only available on Linux.
type SocketCAN struct{}

// DialSocketCAN always fails outside Linux.
func DialSocketCAN(iface string, bus uint8, clk clock.Clock, logger *slog.Logger) (*SocketCAN, error) {
	return nil, errors.New("socketcan is only supported on linux")
}

// Drain implements Subscriber.
func (s *SocketCAN) Drain() ([]can.Record, error) { return nil, ErrClosed }

// Dropped implements Subscriber.
func (s *SocketCAN) Dropped() uint64 { return 0 }

// Close implements Subscriber.
func (s *SocketCAN) Close() error { return nil }
