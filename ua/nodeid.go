// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/convertersystems/opcua-client/errors"
)

// IdType is the discriminator for the NodeId identifier union.
type IdType byte

const (
	IdTypeNumeric IdType = 0
	IdTypeString  IdType = 1
	IdTypeGUID    IdType = 2
	IdTypeOpaque  IdType = 3
)

// NodeId encoding mask values (Part 6 §5.2.2.9).
const (
	nodeIDTwoByte   byte = 0x00
	nodeIDFourByte  byte = 0x01
	nodeIDNumeric   byte = 0x02
	nodeIDString    byte = 0x03
	nodeIDGUID      byte = 0x04
	nodeIDByteString byte = 0x05
)

// NodeId identifies a node in the address space: a namespace index plus one
// of four identifier kinds. It is immutable once constructed and compares
// structurally.
type NodeId struct {
	ns     uint16
	idType IdType
	num    uint32
	str    string
	guid   [16]byte
	opaque []byte
}

// NewTwoByteNodeID returns the smallest numeric NodeId (namespace 0).
func NewTwoByteNodeID(id byte) *NodeId {
	return &NodeId{idType: IdTypeNumeric, num: uint32(id)}
}

// NewNumericNodeID returns a numeric NodeId on the given namespace.
func NewNumericNodeID(ns uint16, id uint32) *NodeId {
	return &NodeId{ns: ns, idType: IdTypeNumeric, num: id}
}

// NewStringNodeID returns a string NodeId.
func NewStringNodeID(ns uint16, id string) *NodeId {
	return &NodeId{ns: ns, idType: IdTypeString, str: id}
}

// NewGUIDNodeID returns a UUID NodeId.
func NewGUIDNodeID(ns uint16, id [16]byte) *NodeId {
	return &NodeId{ns: ns, idType: IdTypeGUID, guid: id}
}

// NewByteStringNodeID returns an opaque-bytes NodeId.
func NewByteStringNodeID(ns uint16, id []byte) *NodeId {
	return &NodeId{ns: ns, idType: IdTypeOpaque, opaque: id}
}

func (n *NodeId) Namespace() uint16 { return n.ns }
func (n *NodeId) Type() IdType      { return n.idType }
func (n *NodeId) IntID() uint32     { return n.num }
func (n *NodeId) StringID() string  { return n.str }
func (n *NodeId) GUIDID() [16]byte  { return n.guid }
func (n *NodeId) ByteID() []byte    { return n.opaque }

// Equal reports structural equality, comparing opaque bytes element-wise.
func (n *NodeId) Equal(o *NodeId) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.ns != o.ns || n.idType != o.idType {
		return false
	}
	switch n.idType {
	case IdTypeNumeric:
		return n.num == o.num
	case IdTypeString:
		return n.str == o.str
	case IdTypeGUID:
		return n.guid == o.guid
	case IdTypeOpaque:
		if len(n.opaque) != len(o.opaque) {
			return false
		}
		for i := range n.opaque {
			if n.opaque[i] != o.opaque[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the XML-style NodeId notation, e.g. "ns=2;s=Demo.Value".
func (n *NodeId) String() string {
	var b strings.Builder
	if n.ns != 0 {
		fmt.Fprintf(&b, "ns=%d;", n.ns)
	}
	switch n.idType {
	case IdTypeNumeric:
		fmt.Fprintf(&b, "i=%d", n.num)
	case IdTypeString:
		fmt.Fprintf(&b, "s=%s", n.str)
	case IdTypeGUID:
		fmt.Fprintf(&b, "g=%s", formatGUID(n.guid))
	case IdTypeOpaque:
		fmt.Fprintf(&b, "b=%x", n.opaque)
	}
	return b.String()
}

func formatGUID(g [16]byte) string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		g[0:4], g[4:6], g[6:8], g[8:10], g[10:16])
}

// ParseNodeID parses the XML-style notation used by String, e.g.
// "ns=2;s=Demo.Value" or "i=2258".
func ParseNodeID(s string) (*NodeId, error) {
	var ns uint16
	rest := s
	if idx := strings.Index(s, ";"); idx >= 0 && strings.HasPrefix(s, "ns=") {
		nsStr := s[3:idx]
		v, err := strconv.ParseUint(nsStr, 10, 16)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid namespace in %q", s)
		}
		ns = uint16(v)
		rest = s[idx+1:]
	}
	if len(rest) < 2 || rest[1] != '=' {
		return nil, errors.Errorf("invalid node id %q", s)
	}
	kind, val := rest[0], rest[2:]
	switch kind {
	case 'i':
		v, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid numeric id in %q", s)
		}
		return NewNumericNodeID(ns, uint32(v)), nil
	case 's':
		return NewStringNodeID(ns, val), nil
	case 'g':
		b, err := parseHex(strings.Replace(val, "-", "", -1))
		if err != nil {
			return nil, err
		}
		if len(b) != 16 {
			return nil, errors.Errorf("invalid guid in %q", s)
		}
		var g [16]byte
		copy(g[:], b)
		return NewGUIDNodeID(ns, g), nil
	case 'b':
		b, err := parseHex(val)
		if err != nil {
			return nil, err
		}
		return NewByteStringNodeID(ns, b), nil
	default:
		return nil, errors.Errorf("unsupported node id kind %q in %q", string(kind), s)
	}
}

func parseHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, errors.Errorf("odd-length hex string %q", s)
	}
	b := make([]byte, len(s)/2)
	for i := range b {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid hex in %q", s)
		}
		b[i] = byte(v)
	}
	return b, nil
}

// Encode writes the smallest legal NodeId encoding: two-byte when ns==0 and
// id<256, four-byte when ns<256 and id<65536, otherwise the full numeric,
// string, GUID or opaque form.
func (n *NodeId) Encode() ([]byte, error) {
	e := NewEncoder()
	switch n.idType {
	case IdTypeNumeric:
		switch {
		case n.ns == 0 && n.num < 256:
			e.WriteByte(nodeIDTwoByte)
			e.WriteByte(byte(n.num))
		case n.ns < 256 && n.num < 65536:
			e.WriteByte(nodeIDFourByte)
			e.WriteByte(byte(n.ns))
			e.WriteUint16(uint16(n.num))
		default:
			e.WriteByte(nodeIDNumeric)
			e.WriteUint16(n.ns)
			e.WriteUint32(n.num)
		}
	case IdTypeString:
		e.WriteByte(nodeIDString)
		e.WriteUint16(n.ns)
		e.WriteString(n.str, false)
	case IdTypeGUID:
		e.WriteByte(nodeIDGUID)
		e.WriteUint16(n.ns)
		e.WriteGUID(n.guid)
	case IdTypeOpaque:
		e.WriteByte(nodeIDByteString)
		e.WriteUint16(n.ns)
		e.WriteByteString(n.opaque)
	default:
		return nil, errors.Errorf("nodeid: unknown id type %d", n.idType)
	}
	return e.Bytes(), nil
}

// Decode accepts all four NodeId widths equivalently.
func (n *NodeId) Decode(b []byte) (int, error) {
	d := NewDecoder(b)
	mask, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	switch mask {
	case nodeIDTwoByte:
		id, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		*n = NodeId{idType: IdTypeNumeric, num: uint32(id)}
	case nodeIDFourByte:
		ns, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		id, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		*n = NodeId{ns: uint16(ns), idType: IdTypeNumeric, num: uint32(id)}
	case nodeIDNumeric:
		ns, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		id, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}
		*n = NodeId{ns: ns, idType: IdTypeNumeric, num: id}
	case nodeIDString:
		ns, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		s, _, err := d.ReadString()
		if err != nil {
			return 0, err
		}
		*n = NodeId{ns: ns, idType: IdTypeString, str: s}
	case nodeIDGUID:
		ns, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		g, err := d.ReadGUID()
		if err != nil {
			return 0, err
		}
		*n = NodeId{ns: ns, idType: IdTypeGUID, guid: g}
	case nodeIDByteString:
		ns, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		b, err := d.ReadByteString()
		if err != nil {
			return 0, err
		}
		*n = NodeId{ns: ns, idType: IdTypeOpaque, opaque: b}
	default:
		return 0, errors.Wrapf(StatusBadDecodingError, "nodeid: unknown encoding mask 0x%02x", mask)
	}
	return d.Pos(), nil
}
