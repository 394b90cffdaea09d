// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

const (
	expandedNodeIDURIFlag   byte = 0x80
	expandedNodeIDIndexFlag byte = 0x40
	expandedNodeIDMask      byte = 0x3F
)

// ExpandedNodeId is a NodeId plus an optional namespace URI (preferred over
// the index when present) and a server index. When both the URI and server
// index are absent its wire encoding is bit-compatible with NodeId.
type ExpandedNodeId struct {
	NodeID      *NodeId
	NamespaceURI string
	ServerIndex uint32
}

// NewExpandedNodeID wraps a NodeId with no URI/server-index.
func NewExpandedNodeID(id *NodeId) *ExpandedNodeId {
	return &ExpandedNodeId{NodeID: id}
}

// Encode writes the NodeId form with the two extra mask bits set as needed.
func (e *ExpandedNodeId) Encode() ([]byte, error) {
	nb, err := e.NodeID.Encode()
	if err != nil {
		return nil, err
	}
	mask := nb[0] & expandedNodeIDMask
	hasURI := e.NamespaceURI != ""
	hasIndex := e.ServerIndex != 0
	if hasURI {
		mask |= expandedNodeIDURIFlag
	}
	if hasIndex {
		mask |= expandedNodeIDIndexFlag
	}
	nb[0] = mask

	enc := NewEncoder()
	enc.WriteBytes(nb)
	if hasURI {
		enc.WriteString(e.NamespaceURI, false)
	}
	if hasIndex {
		enc.WriteUint32(e.ServerIndex)
	}
	return enc.Bytes(), nil
}

// Decode reads a NodeId plus the trailing URI/server-index fields flagged
// by the top two mask bits.
func (e *ExpandedNodeId) Decode(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, StatusBadDecodingError
	}
	mask := b[0]
	hasURI := mask&expandedNodeIDURIFlag != 0
	hasIndex := mask&expandedNodeIDIndexFlag != 0

	nb := make([]byte, len(b))
	copy(nb, b)
	nb[0] = mask & expandedNodeIDMask

	n := new(NodeId)
	used, err := n.Decode(nb)
	if err != nil {
		return 0, err
	}
	e.NodeID = n
	pos := used

	d := NewDecoder(b[pos:])
	if hasURI {
		uri, _, err := d.ReadString()
		if err != nil {
			return 0, err
		}
		e.NamespaceURI = uri
	}
	if hasIndex {
		idx, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}
		e.ServerIndex = idx
	}
	return pos + d.Pos(), nil
}
