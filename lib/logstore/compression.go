// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how segment log files are compressed.
type Compression uint8

const (
	// CompressionNone stores the raw CBOR record stream in "rlog".
	CompressionNone Compression = iota

	// CompressionZstd stores "rlog.zst". The default: CAN logs are
	// highly repetitive and zstd gets several times better ratios
	// than LZ4 on them.
	CompressionZstd

	// CompressionLZ4 stores "rlog.lz4" in the LZ4 frame format, for
	// recorders that are CPU-bound.
	CompressionLZ4
)

// logBaseName is the file name of a segment's log before its
// compression suffix.
const logBaseName = "rlog"

// String returns the configuration name of c.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a configuration name.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q (expected none, zstd, or lz4)", name)
	}
}

// Suffix returns the file name suffix for c, including the dot.
func (c Compression) Suffix() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

// FileName returns the segment log file name for c.
func (c Compression) FileName() string {
	return logBaseName + c.Suffix()
}

// compressionForPath infers the compression of a log file from its
// name.
func compressionForPath(path string) Compression {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return CompressionZstd
	case strings.HasSuffix(path, ".lz4"):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

// decompressor wraps r with the decoder for c. The returned close
// function releases decoder resources; it does not close r.
func decompressor(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case CompressionZstd:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	default:
		return bufio.NewReader(r), func() {}, nil
	}
}

// compressor wraps w with the encoder for c. Closing the returned
// writer flushes the encoder; it does not close w.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return encoder, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return &bufferedWriter{bufio.NewWriter(w)}, nil
	}
}

// bufferedWriter adapts bufio.Writer to io.WriteCloser; Close
// flushes.
type bufferedWriter struct {
	*bufio.Writer
}

func (b *bufferedWriter) Close() error {
	return b.Flush()
}
