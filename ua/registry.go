// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"reflect"
	"sync"

	"github.com/convertersystems/opcua-client/errors"
)

// encodingTable is the append-only, bidirectional registry described in
// spec.md §3/§4.1: ExpandedNodeId (here reduced to the namespace-0 numeric
// encoding id most servers use) to Go type, for both top-level services and
// decoded ExtensionObject bodies. It is safe for concurrent use. The client
// writes to it only at process start, through the Register calls in this
// package's init functions; it adds no entries per session and does not
// read a server's NamespaceArray.
type encodingTable struct {
	mu     sync.RWMutex
	byID   map[uint32]reflect.Type
	byType map[reflect.Type]uint32
}

var globalTable = &encodingTable{
	byID:   make(map[uint32]reflect.Type),
	byType: make(map[reflect.Type]uint32),
}

// Register associates a DefaultBinary encoding id with the zero value's Go
// type. Re-registering the same id is ignored, matching the "attempts to
// re-register the same type id are ignored" rule for the process-wide type
// registry (spec.md §5).
func Register(encodingID uint32, zero interface{}) {
	globalTable.mu.Lock()
	defer globalTable.mu.Unlock()
	t := reflect.TypeOf(zero)
	if _, exists := globalTable.byID[encodingID]; exists {
		return
	}
	globalTable.byID[encodingID] = t
	globalTable.byType[t] = encodingID
}

// EncodingIDOf looks up the DefaultBinary id registered for the exact type
// of v. The second return is false for unregistered (unknown-to-us) types.
func EncodingIDOf(v interface{}) (uint32, bool) {
	globalTable.mu.RLock()
	defer globalTable.mu.RUnlock()
	id, ok := globalTable.byType[reflect.TypeOf(v)]
	return id, ok
}

// newByID allocates a new zero value of the type registered for id, or nil
// if id is unknown.
func newByID(id uint32) interface{} {
	globalTable.mu.RLock()
	t, ok := globalTable.byID[id]
	globalTable.mu.RUnlock()
	if !ok {
		return nil
	}
	return reflect.New(t.Elem()).Interface()
}

// Request is implemented by every service request DTO.
type Request interface {
	Header() *RequestHeader
	SetHeader(*RequestHeader)
}

// Response is implemented by every service response DTO.
type Response interface {
	Header() *ResponseHeader
}

// ServiceTypeID returns the DefaultBinary encoding id registered for req's
// concrete type, or 0 if it was never registered (the caller treats 0 as
// "did you call Register?", per the teacher's own check in uasc).
func ServiceTypeID(v interface{}) uint32 {
	id, _ := EncodingIDOf(v)
	return id
}

// DecodeService reads the leading NodeId encoding-id envelope and decodes
// the remainder into the registered Go type. Used for both the MSG body
// (a Request/Response) and decoded ExtensionObject payloads.
func DecodeService(b []byte) (uint32, interface{}, error) {
	n := new(NodeId)
	used, err := n.Decode(b)
	if err != nil {
		return 0, nil, errors.Wrap(err, "decode service type id")
	}
	id := n.IntID()
	zero := newByID(id)
	if zero == nil {
		return id, nil, errors.Errorf("ua: unregistered service type id %d", id)
	}
	if _, err := Decode(b[used:], zero); err != nil {
		return id, nil, errors.Wrapf(err, "decode service body for type id %d", id)
	}
	return id, zero, nil
}

// EncodeService writes the NodeId type-id envelope followed by v's encoded
// body.
func EncodeService(v interface{}) ([]byte, error) {
	id, ok := EncodingIDOf(v)
	if !ok {
		return nil, errors.Errorf("ua: unknown service %T. Did you call Register?", v)
	}
	n := NewNumericNodeID(0, id)
	nb, err := n.Encode()
	if err != nil {
		return nil, err
	}
	body, err := Encode(v)
	if err != nil {
		return nil, err
	}
	e := NewEncoder()
	e.WriteBytes(nb)
	e.WriteBytes(body)
	return e.Bytes(), nil
}
