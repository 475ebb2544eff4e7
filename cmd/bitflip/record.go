// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bureau-foundation/bitflip/lib/can"
	"github.com/bureau-foundation/bitflip/lib/cli"
	"github.com/bureau-foundation/bitflip/lib/config"
	"github.com/bureau-foundation/bitflip/lib/logstore"
	"github.com/bureau-foundation/bitflip/lib/source"
)

type recordParams struct {
	commonParams
	liveParams
	Route          string `flag:"route" desc:"route name to create, dongle|timestamp (default: random dongle, current time)"`
	Dongle         string `flag:"dongle" desc:"dongle id for a generated route name"`
	Compression    string `flag:"compression" desc:"segment compression: none, zstd, or lz4 (default from config)"`
	SegmentRecords int    `flag:"segment-records" desc:"records per segment (default from config)"`
	MaxRecords     int    `flag:"max-records" desc:"stop after this many records (0: until interrupted)"`
}

func recordCommand(env *environment) *cli.Command {
	var params recordParams
	var flags flagCapture
	command := &cli.Command{
		Name:    "record",
		Summary: "Record the live stream into a new route",
		Description: `Record every record of the live stream into a new route under log_root.

The route is split into numbered segments of segment_records records.
Recording stops on interrupt, when the stream ends, or after
--max-records. The route name is printed on stdout when recording
finishes so it can be passed to watch --baseline or diff.`,
		Usage: "bitflip record [flags]",
		Examples: []cli.Example{
			{Description: "Record a parked-car baseline", Command: "bitflip record --dongle mycar"},
			{Description: "Record from a SocketCAN interface without compression", Command: "bitflip record --transport socketcan --address vcan0 --compression none"},
		},
		Flags: flags.bind("record", &params),
	}
	command.Run = func(ctx context.Context, args []string) error {
		if len(args) > 0 {
			return command.Usagef("unexpected argument %q", args[0])
		}
		if params.Route != "" && params.Dongle != "" {
			return command.Usagef("--route and --dongle are mutually exclusive")
		}
		resolved, err := params.load(env, "record", &flags, func(cfg *config.Config) {
			params.liveParams.apply(&flags, cfg)
			if flags.changed("compression") {
				cfg.Record.Compression = params.Compression
			}
			if flags.changed("segment-records") {
				cfg.Record.SegmentRecords = params.SegmentRecords
			}
		})
		if err != nil {
			return err
		}

		name := logstore.NewRouteName(params.Dongle, env.clock.Now())
		if params.Route != "" {
			name, err = logstore.ParseName(params.Route)
			if err != nil {
				return err
			}
		}
		return runRecord(ctx, env, resolved, name, params.MaxRecords)
	}
	return command
}

func runRecord(ctx context.Context, env *environment, resolved *settings, name logstore.Name, maxRecords int) error {
	compression, err := logstore.ParseCompression(resolved.config.Record.Compression)
	if err != nil {
		return err
	}

	live := resolved.config.Live
	subscriber, err := source.Dial(ctx, live.Transport, live.Address, live.Channel, uint8(resolved.config.Bus), env.clock, resolved.logger)
	if err != nil {
		return fmt.Errorf("connecting to live stream: %w", err)
	}
	defer subscriber.Close()

	writer, err := resolved.store.Create(name, logstore.WriterOptions{
		Compression:    compression,
		SegmentRecords: resolved.config.Record.SegmentRecords,
		Logger:         resolved.logger,
	})
	if err != nil {
		return err
	}
	resolved.logger.Info("recording", "route", name.String(), "compression", compression.String())

	poller := source.NewPoller(subscriber, env.clock, resolved.config.PollInterval, resolved.logger)
	recordErr := pump(ctx, poller, func(record can.Record) (bool, error) {
		if err := writer.WriteRecord(record); err != nil {
			return false, err
		}
		return maxRecords > 0 && writer.Records() >= uint64(maxRecords), nil
	})
	closeErr := writer.Close()
	if err := errors.Join(recordErr, closeErr); err != nil {
		return err
	}

	resolved.logger.Info("recording finished",
		"route", name.String(),
		"records", writer.Records(),
		"segments", writer.Segments(),
		"lost", poller.Dropped(),
	)
	_, err = fmt.Fprintln(env.stdout, name.String())
	return err
}

// pump hands each polled record to handle until handle reports done,
// the stream ends, or ctx is cancelled. Only a failure is returned as
// an error.
func pump(ctx context.Context, poller *source.Poller, handle func(can.Record) (bool, error)) error {
	for {
		records, err := poller.Poll(ctx)
		for _, record := range records {
			done, handleErr := handle(record)
			if handleErr != nil {
				return handleErr
			}
			if done {
				return nil
			}
		}
		if ctx.Err() != nil || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
