// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package source

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/clock"
)

// SocketCAN subscribes to a local CAN interface through a raw AF_CAN
// socket. Every frame read becomes a one-message record stamped with
// the clock's current time, tagged with the configured bus number.
type SocketCAN struct {
	file   *os.File
	bus    uint8
	clock  clock.Clock
	queue  *queue
	logger *slog.Logger
	closed atomic.Bool
	done   chan struct{}
}

// DialSocketCAN binds a raw CAN socket to the named interface (for
// example "can0" or "vcan0"). CAN FD frames are enabled when the
// kernel supports them.
func DialSocketCAN(iface string, bus uint8, clk clock.Clock, logger *slog.Logger) (*SocketCAN, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	netInterface, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("looking up CAN interface %q: %w", iface, err)
	}

	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return nil, fmt.Errorf("creating CAN socket: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_FD_FRAMES, 1); err != nil {
		logger.Debug("CAN FD frames unavailable", "interface", iface, "error", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: netInterface.Index}); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding CAN socket to %q: %w", iface, err)
	}
	// Non-blocking so the runtime poller owns the fd and Close
	// interrupts a pending Read.
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("setting CAN socket non-blocking: %w", err)
	}

	subscriber := &SocketCAN{
		file:   os.NewFile(uintptr(fd), "can:"+iface),
		bus:    bus,
		clock:  clk,
		queue:  newQueue(queueCapacity),
		logger: logger,
		done:   make(chan struct{}),
	}
	go subscriber.receive()
	return subscriber, nil
}

func (s *SocketCAN) receive() {
	defer close(s.done)
	buffer := make([]byte, can.SocketCANFDFrameSize)
	for {
		n, err := s.file.Read(buffer)
		if err != nil {
			if s.closed.Load() || errors.Is(err, os.ErrClosed) {
				s.queue.fail(ErrClosed)
			} else {
				s.queue.fail(fmt.Errorf("reading CAN socket: %w", err))
			}
			return
		}
		message, err := can.ParseSocketCAN(buffer[:n], s.bus)
		if err != nil {
			if !errors.Is(err, can.ErrNotDataFrame) {
				s.logger.Debug("skipping CAN frame", "length", n, "error", err)
			}
			continue
		}
		s.queue.push(can.Record{
			Which:    can.WhichCAN,
			MonoTime: uint64(s.clock.Now().UnixNano()),
			CAN:      []can.Message{message},
		})
	}
}

// Drain implements Subscriber.
func (s *SocketCAN) Drain() ([]can.Record, error) {
	return s.queue.drain()
}

// Dropped implements Subscriber.
func (s *SocketCAN) Dropped() uint64 {
	return s.queue.droppedCount()
}

// Close implements Subscriber.
func (s *SocketCAN) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.file.Close()
	<-s.done
	return err
}
