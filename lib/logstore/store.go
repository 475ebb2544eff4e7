// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// Store is a directory of recorded routes.
type Store struct {
	// Root is the directory containing one subdirectory per route.
	Root string

	// Logger receives warnings about damaged segments. Nil discards
	// them.
	Logger *slog.Logger
}

// NewStore returns a Store rooted at root.
func NewStore(root string, logger *slog.Logger) *Store {
	return &Store{Root: root, Logger: logger}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

// RouteDir returns the directory holding name's route.
func (s *Store) RouteDir(name Name) string {
	return filepath.Join(s.Root, name.Route())
}

// Resolve returns the log files for name, in replay order. name may
// be a path to a log file or a segment directory, a route name, or a
// segment name. A route resolves to every segment that has a log
// file, in segment-number order.
func (s *Store) Resolve(name string) ([]string, error) {
	if info, err := os.Stat(name); err == nil {
		if !info.IsDir() {
			return []string{name}, nil
		}
		if path, err := segmentLog(name); err == nil {
			return []string{path}, nil
		}
	}

	parsed, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	routeDir := s.RouteDir(parsed)

	if parsed.IsSegment() {
		path, err := segmentLog(filepath.Join(routeDir, strconv.Itoa(parsed.Segment)))
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", parsed, err)
		}
		return []string{path}, nil
	}

	segments, err := s.Segments(parsed)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, segment := range segments {
		path, err := segmentLog(filepath.Join(routeDir, strconv.Itoa(segment)))
		if err != nil {
			s.logger().Warn("skipping segment without a log", "route", parsed.Route(), "segment", segment)
			continue
		}
		paths = append(paths, path)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("route %s has no segment logs: %w", parsed.Route(), ErrNotFound)
	}
	return paths, nil
}

// Segments returns the segment numbers present in name's route, in
// ascending order.
func (s *Store) Segments(name Name) ([]int, error) {
	entries, err := os.ReadDir(s.RouteDir(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("route %s under %s: %w", name.Route(), s.Root, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("listing route %s: %w", name.Route(), err)
	}
	var segments []int
	for _, entry := range entries {
		if !entry.IsDir() || !isDigits(entry.Name()) {
			continue
		}
		segment, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		segments = append(segments, segment)
	}
	sort.Ints(segments)
	return segments, nil
}

// Open resolves name and returns a Reader over its records.
func (s *Store) Open(name string) (*Reader, error) {
	paths, err := s.Resolve(name)
	if err != nil {
		return nil, err
	}
	return NewReader(paths, s.logger()), nil
}

// segmentLog returns the log file inside a segment directory.
func segmentLog(dir string) (string, error) {
	for _, compression := range []Compression{CompressionZstd, CompressionLZ4, CompressionNone} {
		path := filepath.Join(dir, compression.FileName())
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNotFound
}
