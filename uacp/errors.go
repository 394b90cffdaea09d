// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package uacp implements the OPC UA TCP transport: the HEL/ACK/ERR
// handshake and the raw chunked send/receive of MSG/OPN/CLO frames
// described in spec.md §4.2 (C2).
package uacp

import (
	"fmt"

	"github.com/convertersystems/opcua-client/ua"
)

// Error is returned when the remote end sends an ERR message, or when a
// locally-detected transport fault (oversized frame, malformed header)
// forces the connection closed. It satisfies the error interface and
// carries the raw StatusCode so callers can inspect Good/Bad/severity.
type Error struct {
	Code   ua.StatusCode
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("uacp: %s: %s", e.Code, e.Reason)
}

// Errorf constructs an *Error from a status code and formatted reason.
func Errorf(code ua.StatusCode, format string, args ...interface{}) error {
	return &Error{Code: code, Reason: fmt.Sprintf(format, args...)}
}
