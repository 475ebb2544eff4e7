// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/bureau-foundation/bitflip/lib/cli"
	"github.com/bureau-foundation/bitflip/lib/config"
	"github.com/bureau-foundation/bitflip/lib/source"
)

type publishParams struct {
	commonParams
	Address   string `flag:"address" desc:"stream address to serve: socket path or tcp://host:port (default from config)"`
	WebSocket string `flag:"websocket" desc:"also serve websocket subscribers on this host:port"`
	Wait      int    `flag:"wait" desc:"wait for this many subscribers before replaying" default:"0"`
	Realtime  bool   `flag:"realtime" desc:"pace records by their recorded timestamps" default:"true"`
}

func publishCommand(env *environment) *cli.Command {
	var params publishParams
	var flags flagCapture
	command := &cli.Command{
		Name:    "publish",
		Summary: "Replay a route onto the live stream socket",
		Description: `Replay a recorded route to live stream subscribers.

Records are served on the stream socket (and optionally a websocket
endpoint) on the configured channel, paced by their recorded
timestamps unless --realtime=false. Subscribers see the stream end
when the route is exhausted.`,
		Usage: "bitflip publish [flags] <route>",
		Examples: []cli.Example{
			{Description: "Replay a segment for a watch session in another terminal", Command: "bitflip publish --wait 1 'a2a0ccea32023010|2023-07-27--13-01-19--3'"},
			{Description: "Serve websocket subscribers as fast as possible", Command: "bitflip publish --websocket 127.0.0.1:7020 --realtime=false route-dir/0/rlog.zst"},
		},
		Flags: flags.bind("publish", &params),
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			return command.Usagef("expected exactly one <route>, got %d arguments", len(args))
		}
		resolved, err := params.load(env, "publish", &flags, func(cfg *config.Config) {
			if flags.changed("address") {
				cfg.Live.Transport = source.TransportSocket
				cfg.Live.Address = params.Address
			}
		})
		if err != nil {
			return err
		}
		if resolved.config.Live.Transport != source.TransportSocket {
			return fmt.Errorf("publish serves the %q transport; configured transport is %q",
				source.TransportSocket, resolved.config.Live.Transport)
		}
		return runPublish(ctx, env, resolved, args[0], params)
	}
	return command
}

func runPublish(ctx context.Context, env *environment, resolved *settings, route string, params publishParams) error {
	reader, err := resolved.store.Open(route)
	if err != nil {
		return fmt.Errorf("opening %q: %w", route, err)
	}
	defer reader.Close()

	listener, cleanup, err := listenStream(resolved.config.Live.Address)
	if err != nil {
		return err
	}
	defer cleanup()

	publisher := source.NewPublisher(resolved.config.Live.Channel, resolved.logger)
	serveCtx, stopServing := context.WithCancel(ctx)
	defer stopServing()

	served := make(chan error, 1)
	go func() { served <- publisher.ServeStream(serveCtx, listener) }()

	if params.WebSocket != "" {
		server := &http.Server{Handler: publisher, ReadHeaderTimeout: 10 * time.Second}
		webListener, err := net.Listen("tcp", params.WebSocket)
		if err != nil {
			publisher.Close()
			return fmt.Errorf("listening for websocket on %s: %w", params.WebSocket, err)
		}
		go server.Serve(webListener)
		defer server.Close()
		resolved.logger.Info("serving websocket", "address", webListener.Addr().String())
	}

	if params.Wait > 0 {
		resolved.logger.Info("waiting for subscribers", "count", params.Wait)
		if err := publisher.WaitForSubscribers(ctx, params.Wait); err != nil {
			publisher.Close()
			return nil
		}
	}

	replayErr := replay(ctx, env, reader, publisher, params.Realtime)
	publisher.Close()
	stopServing()
	if err := <-served; err != nil {
		resolved.logger.Warn("stream server stopped", "error", err)
	}
	if replayErr != nil {
		return replayErr
	}

	stats := publisher.Stats()
	resolved.logger.Info("replay finished",
		"route", route,
		"published", stats.Published,
		"dropped", stats.Dropped,
	)
	return nil
}

// replay publishes every record of reader in order. With realtime
// set, the gap between consecutive records' MonoTime is reproduced on
// the clock. Cancellation stops the replay without error.
func replay(ctx context.Context, env *environment, reader source.RecordReader, publisher *source.Publisher, realtime bool) error {
	var previous uint64
	for first := true; ; first = false {
		record, err := reader.ReadRecord()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if realtime && !first && record.MonoTime > previous {
			select {
			case <-ctx.Done():
				return nil
			case <-env.clock.After(time.Duration(record.MonoTime - previous)):
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		previous = record.MonoTime
		publisher.Publish(record)
	}
}

// listenStream listens on a stream address. A stale Unix socket file
// is replaced and removed again by the returned cleanup.
func listenStream(address string) (net.Listener, func(), error) {
	network, addr := source.StreamAddress(address)
	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(addr), 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating socket directory: %w", err)
		}
		if err := os.Remove(addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("removing stale socket %s: %w", addr, err)
		}
	}
	listener, err := net.Listen(network, addr)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on %s: %w", address, err)
	}
	cleanup := func() {
		listener.Close()
		if network == "unix" {
			os.Remove(addr)
		}
	}
	return listener, cleanup, nil
}
