// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bureau-foundation/bitflip/lib/clock"
)

// Transport names accepted by Dial.
const (
	TransportSocket    = "socket"
	TransportWebSocket = "websocket"
	TransportSocketCAN = "socketcan"
)

// StreamAddress splits a stream address into a network and address
// for net.Dial and net.Listen. "tcp://host:port" selects TCP;
// "unix://path" or a bare path selects a Unix socket.
func StreamAddress(address string) (network, addr string) {
	switch {
	case strings.HasPrefix(address, "tcp://"):
		return "tcp", strings.TrimPrefix(address, "tcp://")
	case strings.HasPrefix(address, "unix://"):
		return "unix", strings.TrimPrefix(address, "unix://")
	default:
		return "unix", address
	}
}

// Dial opens a live Subscriber over transport. address is a stream
// address for "socket", a ws:// URL for "websocket", and an interface
// name for "socketcan". channel is ignored by socketcan, which tags
// every frame with bus.
func Dial(ctx context.Context, transport, address, channel string, bus uint8, clk clock.Clock, logger *slog.Logger) (Subscriber, error) {
	var (
		subscriber Subscriber
		err        error
	)
	switch transport {
	case TransportSocket:
		network, addr := StreamAddress(address)
		var stream *Stream
		stream, err = DialStream(ctx, network, addr, channel, logger)
		subscriber = stream
	case TransportWebSocket:
		var websocket *WebSocket
		websocket, err = DialWebSocket(ctx, address, channel, logger)
		subscriber = websocket
	case TransportSocketCAN:
		var socketCAN *SocketCAN
		socketCAN, err = DialSocketCAN(address, bus, clk, logger)
		subscriber = socketCAN
	default:
		return nil, fmt.Errorf("unknown live transport %q", transport)
	}
	if err != nil {
		return nil, err
	}
	return subscriber, nil
}
