// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
)

// Subscription is the first value a client sends on a stream
// connection. After it the server writes a sequence of CBOR-encoded
// can.Record values until either side closes.
type Subscription struct {
	Channel string `cbor:"channel"`
}

// dialTimeout bounds connection establishment for stream and
// websocket subscribers.
const dialTimeout = 5 * time.Second

// queueCapacity is the number of records a subscriber holds between
// polls. At 20 ms polls and a few thousand frames per second per bus
// this is several seconds of slack.
const queueCapacity = 8192

// Stream subscribes to a record stream over a Unix or TCP socket.
type Stream struct {
	conn   net.Conn
	queue  *queue
	logger *slog.Logger
	closed atomic.Bool
	done   chan struct{}
}

// DialStream connects to address on network ("unix" or "tcp"),
// subscribes to channel, and starts receiving in the background.
func DialStream(ctx context.Context, network, address, channel string, logger *slog.Logger) (*Stream, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s %s: %w", network, address, err)
	}

	conn.SetWriteDeadline(time.Now().Add(dialTimeout))
	if err := codec.NewEncoder(conn).Encode(Subscription{Channel: channel}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to %q: %w", channel, err)
	}
	conn.SetWriteDeadline(time.Time{})

	stream := &Stream{
		conn:   conn,
		queue:  newQueue(queueCapacity),
		logger: logger,
		done:   make(chan struct{}),
	}
	go stream.receive()
	return stream, nil
}

func (s *Stream) receive() {
	defer close(s.done)
	decoder := codec.NewDecoder(s.conn)
	for {
		var record can.Record
		if err := decoder.Decode(&record); err != nil {
			switch {
			case s.closed.Load():
				s.queue.fail(ErrClosed)
			case errors.Is(err, io.EOF):
				s.logger.Info("stream ended by publisher")
				s.queue.fail(io.EOF)
			default:
				s.queue.fail(fmt.Errorf("decoding record: %w", err))
			}
			return
		}
		s.queue.push(record)
	}
}

// Drain implements Subscriber.
func (s *Stream) Drain() ([]can.Record, error) {
	return s.queue.drain()
}

// Dropped implements Subscriber.
func (s *Stream) Dropped() uint64 {
	return s.queue.droppedCount()
}

// Close implements Subscriber. It waits for the receive goroutine to
// exit.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := s.conn.Close()
	<-s.done
	return err
}
