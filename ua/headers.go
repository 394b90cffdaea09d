// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// RequestHeader is the common envelope prefixed to every service request.
// Its layout is plain enough to be handled by the generic struct codec in
// codec.go; no custom Encode/Decode is needed.
type RequestHeader struct {
	AuthenticationToken *NodeId
	Timestamp           time.Time
	RequestHandle       uint32
	ReturnDiagnostics   uint32
	AuditEntryID        string
	TimeoutHint         uint32
	AdditionalHeader    *ExtensionObject
}

// ResponseHeader is the common envelope prefixed to every service response.
type ResponseHeader struct {
	Timestamp          time.Time
	RequestHandle      uint32
	ServiceResult      StatusCode
	ServiceDiagnostics *DiagnosticInfo
	StringTable        []string
	AdditionalHeader   *ExtensionObject
}
