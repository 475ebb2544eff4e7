// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
)

// WebSocket subscribes to a record stream over a WebSocket. The
// protocol matches Stream with one CBOR value per binary message.
type WebSocket struct {
	conn   *websocket.Conn
	queue  *queue
	logger *slog.Logger
	closed atomic.Bool
	done   chan struct{}
}

// DialWebSocket connects to url (ws:// or wss://), subscribes to
// channel, and starts receiving in the background.
func DialWebSocket(ctx context.Context, url, channel string, logger *slog.Logger) (*WebSocket, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", url, err)
	}

	request, err := codec.Marshal(Subscription{Channel: channel})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("encoding subscription: %w", err)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, request); err != nil {
		conn.Close()
		return nil, fmt.Errorf("subscribing to %q: %w", channel, err)
	}

	subscriber := &WebSocket{
		conn:   conn,
		queue:  newQueue(queueCapacity),
		logger: logger,
		done:   make(chan struct{}),
	}
	go subscriber.receive()
	return subscriber, nil
}

func (w *WebSocket) receive() {
	defer close(w.done)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			switch {
			case w.closed.Load():
				w.queue.fail(ErrClosed)
			case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
				w.logger.Info("websocket closed by publisher")
				w.queue.fail(io.EOF)
			default:
				w.queue.fail(fmt.Errorf("reading websocket: %w", err))
			}
			return
		}
		if messageType != websocket.BinaryMessage {
			continue
		}
		var record can.Record
		if err := codec.Unmarshal(data, &record); err != nil {
			w.logger.Warn("skipping undecodable websocket message", "length", len(data), "error", err)
			continue
		}
		w.queue.push(record)
	}
}

// Drain implements Subscriber.
func (w *WebSocket) Drain() ([]can.Record, error) {
	return w.queue.drain()
}

// Dropped implements Subscriber.
func (w *WebSocket) Dropped() uint64 {
	return w.queue.droppedCount()
}

// Close implements Subscriber.
func (w *WebSocket) Close() error {
	if !w.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := w.conn.Close()
	<-w.done
	return err
}
