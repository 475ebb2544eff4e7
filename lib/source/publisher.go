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
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/codec"
)

// subscriberBuffer is the per-subscriber channel depth. A subscriber
// that falls this far behind loses records rather than stalling the
// publisher and every other subscriber.
const subscriberBuffer = 1024

// subscriptionTimeout is how long a new connection has to send its
// Subscription.
const subscriptionTimeout = 10 * time.Second

// writeTimeout bounds a single record write to a subscriber.
const writeTimeout = 10 * time.Second

// Publisher fans records out to every connected subscriber, over
// stream sockets (ServeStream) and WebSockets (ServeHTTP). Publish
// never blocks: a subscriber whose buffer is full drops the record.
type Publisher struct {
	channel  string
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	closed      bool
	// joined is closed and replaced every time a subscriber
	// registers, waking WaitForSubscribers.
	joined chan struct{}

	published atomic.Uint64
	dropped   atomic.Uint64
	wg        sync.WaitGroup
}

type subscriber struct {
	records chan can.Record
}

// PublisherStats counts records handled by a Publisher.
type PublisherStats struct {
	Published   uint64
	Dropped     uint64
	Subscribers int
}

// NewPublisher returns a Publisher serving channel.
func NewPublisher(channel string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{
		channel:     channel,
		logger:      logger,
		subscribers: make(map[*subscriber]struct{}),
		joined:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Publish sends record to every subscriber without blocking.
func (p *Publisher) Publish(record can.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.published.Add(1)
	for sub := range p.subscribers {
		select {
		case sub.records <- record:
		default:
			p.dropped.Add(1)
		}
	}
}

// Stats returns the publisher's counters.
func (p *Publisher) Stats() PublisherStats {
	p.mu.Lock()
	count := len(p.subscribers)
	p.mu.Unlock()
	return PublisherStats{
		Published:   p.published.Load(),
		Dropped:     p.dropped.Load(),
		Subscribers: count,
	}
}

// WaitForSubscribers blocks until at least n subscribers are
// registered or ctx is done.
func (p *Publisher) WaitForSubscribers(ctx context.Context, n int) error {
	for {
		p.mu.Lock()
		count := len(p.subscribers)
		joined := p.joined
		p.mu.Unlock()
		if count >= n {
			return nil
		}
		select {
		case <-joined:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close ends every subscription. Subscribers finish writing what is
// already buffered and then see a clean end of stream. Close waits
// for all subscriber connections to finish.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		for sub := range p.subscribers {
			close(sub.records)
		}
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) register() (*subscriber, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	sub := &subscriber{records: make(chan can.Record, subscriberBuffer)}
	p.subscribers[sub] = struct{}{}
	close(p.joined)
	p.joined = make(chan struct{})
	return sub, nil
}

func (p *Publisher) unregister(sub *subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subscribers[sub]; !ok {
		return
	}
	delete(p.subscribers, sub)
	if !p.closed {
		close(sub.records)
	}
}

func (p *Publisher) checkSubscription(request Subscription) error {
	if request.Channel != p.channel {
		return fmt.Errorf("unknown channel %q (serving %q)", request.Channel, p.channel)
	}
	return nil
}

// ServeStream accepts stream connections on listener until ctx is
// cancelled or the listener fails. The listener is closed on return.
func (p *Publisher) ServeStream(ctx context.Context, listener net.Listener) error {
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	p.logger.Info("publisher listening", "address", listener.Addr().String(), "channel", p.channel)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accepting: %w", err)
		}
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.handleStream(conn)
		}()
	}
}

func (p *Publisher) handleStream(conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(subscriptionTimeout))
	var request Subscription
	if err := codec.NewDecoder(conn).Decode(&request); err != nil {
		if !errors.Is(err, io.EOF) {
			p.logger.Warn("invalid subscription", "remote", conn.RemoteAddr().String(), "error", err)
		}
		return
	}
	conn.SetReadDeadline(time.Time{})
	if err := p.checkSubscription(request); err != nil {
		p.logger.Warn("rejecting subscriber", "error", err)
		return
	}

	sub, err := p.register()
	if err != nil {
		return
	}
	defer p.unregister(sub)
	p.logger.Debug("stream subscriber joined", "remote", conn.RemoteAddr().String())

	encoder := codec.NewEncoder(conn)
	for record := range sub.records {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := encoder.Encode(record); err != nil {
			p.logger.Debug("stream subscriber left", "error", err)
			return
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and streams records
// to it. The first binary message must be a Subscription.
func (p *Publisher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	p.wg.Add(1)
	defer p.wg.Done()
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(subscriptionTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return
	}
	var request Subscription
	if err := codec.Unmarshal(data, &request); err != nil {
		p.logger.Warn("invalid websocket subscription", "error", err)
		return
	}
	if err := p.checkSubscription(request); err != nil {
		p.logger.Warn("rejecting subscriber", "error", err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeTimeout))
		return
	}
	conn.SetReadDeadline(time.Time{})

	sub, err := p.register()
	if err != nil {
		return
	}
	defer p.unregister(sub)
	p.logger.Debug("websocket subscriber joined", "remote", r.RemoteAddr)

	// Reading is required to process control frames; a read error
	// means the peer went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case record, ok := <-sub.records:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(writeTimeout))
				return
			}
			data, err := codec.Marshal(record)
			if err != nil {
				p.logger.Error("encoding record", "error", err)
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				p.logger.Debug("websocket subscriber left", "error", err)
				return
			}
		case <-gone:
			return
		}
	}
}
