// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by route logs and
// the live stream protocol.
//
// A route segment is a CBOR sequence of can.Record values, one after
// another with no framing. The live stream protocol sends the same
// sequence over a socket after a single subscribe request. Both sides
// use this package so encoding is identical everywhere:
//
//	encoder := codec.NewEncoder(file)
//	err := encoder.Encode(record)
//
//	decoder := codec.NewDecoder(conn)
//	err := decoder.Decode(&record)
package codec
