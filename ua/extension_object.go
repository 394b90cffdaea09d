// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// ExtensionObject body kinds (Part 6 §5.2.2.15).
const (
	ExtensionObjectBodyNone       byte = 0
	ExtensionObjectBodyByteString byte = 1
	ExtensionObjectBodyXML        byte = 2
)

// ExtensionObject carries a type id plus one of: no body, an opaque byte
// string, an opaque XML element, or a decoded structure known to the
// encoding registry. Unknown type ids decode as opaque bytes rather than as
// an error, so a server's private extensions never break decoding.
type ExtensionObject struct {
	TypeID *ExpandedNodeId
	Kind   byte
	Bytes  []byte      // set when Kind is ByteString/XML, or for an unrecognized decoded body
	Value  interface{} // set when Kind is ByteString and TypeID resolves via the registry
}

// NewExtensionObject wraps v as a binary body whose TypeID is v's
// registered encoding id, or the null NodeId when v's type is not
// registered. A nil v gives an empty body (Kind == None), as used for the
// AdditionalHeader field most service headers carry but never populate.
func NewExtensionObject(v interface{}) *ExtensionObject {
	if v == nil {
		return &ExtensionObject{TypeID: NewExpandedNodeID(NewTwoByteNodeID(0)), Kind: ExtensionObjectBodyNone}
	}
	id, ok := EncodingIDOf(v)
	eo := &ExtensionObject{Kind: ExtensionObjectBodyByteString, Value: v}
	if ok {
		eo.TypeID = NewExpandedNodeID(NewNumericNodeID(0, id))
	} else {
		eo.TypeID = NewExpandedNodeID(NewTwoByteNodeID(0))
	}
	return eo
}

func (x *ExtensionObject) Encode() ([]byte, error) {
	e := NewEncoder()
	typeID := x.TypeID
	if typeID == nil {
		typeID = NewExpandedNodeID(NewTwoByteNodeID(0))
	}
	tb, err := typeID.Encode()
	if err != nil {
		return nil, err
	}
	e.WriteBytes(tb)

	kind := x.Kind
	var body []byte
	switch {
	case x.Value != nil:
		kind = ExtensionObjectBodyByteString
		body, err = Encode(x.Value)
		if err != nil {
			return nil, err
		}
	case kind == ExtensionObjectBodyByteString || kind == ExtensionObjectBodyXML:
		body = x.Bytes
	default:
		kind = ExtensionObjectBodyNone
	}
	e.WriteByte(kind)
	if kind != ExtensionObjectBodyNone {
		e.WriteByteString(body)
	}
	return e.Bytes(), nil
}

func (x *ExtensionObject) Decode(b []byte) (int, error) {
	typeID := new(ExpandedNodeId)
	used, err := typeID.Decode(b)
	if err != nil {
		return 0, err
	}
	x.TypeID = typeID
	pos := used

	d := NewDecoder(b[pos:])
	kind, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	x.Kind = kind
	pos += d.Pos()

	if kind == ExtensionObjectBodyNone {
		return pos, nil
	}

	d2 := NewDecoder(b[pos:])
	body, err := d2.ReadByteString()
	if err != nil {
		return 0, err
	}
	pos += d2.Pos()

	if kind == ExtensionObjectBodyByteString && typeID.NodeID != nil && typeID.NodeID.Type() == IdTypeNumeric {
		if zero := newByID(typeID.NodeID.IntID()); zero != nil {
			if _, err := Decode(body, zero); err == nil {
				x.Value = zero
				return pos, nil
			}
		}
	}
	x.Bytes = body
	return pos, nil
}
