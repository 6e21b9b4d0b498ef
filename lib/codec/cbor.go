// Copyright 2026 The ConnectX Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec is the CBOR encoding used for on-disk client state,
// currently the query cache snapshot. Encoding is deterministic (Core
// Deterministic Encoding, RFC 8949 section 4.2) so identical cache
// contents produce identical files. Times are tagged RFC 3339 strings.
package codec

import (
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encOptions.TimeTag = cbor.EncTagRequired
	var err error
	if encMode, err = encOptions.EncMode(); err != nil {
		panic("codec: building encoder: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		DefaultByteStringType: reflect.TypeOf([]byte(nil)),
	}.DecMode()
	if err != nil {
		panic("codec: building decoder: " + err.Error())
	}
}

// RawMessage is an encoded CBOR value whose decoding is deferred.
type RawMessage = cbor.RawMessage

// Marshal encodes v deterministically.
func Marshal(v any) ([]byte, error) { return encMode.Marshal(v) }

// Unmarshal decodes data into v. Untyped maps decode as map[string]any.
func Unmarshal(data []byte, v any) error { return decMode.Unmarshal(data, v) }

// Stamp truncates t to the resolution stored on disk so values compare
// equal after a snapshot round trip.
func Stamp(t time.Time) time.Time { return t.UTC().Truncate(time.Microsecond) }
