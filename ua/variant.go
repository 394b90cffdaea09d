// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"time"

	"github.com/convertersystems/opcua-client/errors"
)

// VariantType is the 6-bit built-in type id in a Variant's first byte.
type VariantType byte

const (
	VariantNull VariantType = iota
	VariantBoolean
	VariantSByte
	VariantByte
	VariantInt16
	VariantUInt16
	VariantInt32
	VariantUInt32
	VariantInt64
	VariantUInt64
	VariantFloat
	VariantDouble
	VariantString
	VariantDateTime
	VariantGUID
	VariantByteString
	VariantXMLElement
	VariantNodeID
	VariantExpandedNodeID
	VariantStatusCode
	VariantQualifiedName
	VariantLocalizedText
	VariantExtensionObject
	VariantDataValue
	VariantVariant
	VariantDiagnosticInfo
)

const (
	variantArrayFlag      byte = 0x80
	variantDimensionsFlag byte = 0x40
	variantTypeMask       byte = 0x3F
)

// Variant is a dynamically typed scalar or array value. Dimensions is only
// populated for multi-dimensional arrays.
type Variant struct {
	Type       VariantType
	Value      interface{} // scalar, or []interface{} when IsArray
	IsArray    bool
	Dimensions []int32
}

// NewVariant infers the VariantType from the concrete Go type of v.
func NewVariant(v interface{}) (*Variant, error) {
	t, isArray, err := inferVariantType(v)
	if err != nil {
		return nil, err
	}
	return &Variant{Type: t, Value: v, IsArray: isArray}, nil
}

func inferVariantType(v interface{}) (VariantType, bool, error) {
	switch v.(type) {
	case bool:
		return VariantBoolean, false, nil
	case int8:
		return VariantSByte, false, nil
	case byte:
		return VariantByte, false, nil
	case int16:
		return VariantInt16, false, nil
	case uint16:
		return VariantUInt16, false, nil
	case int32:
		return VariantInt32, false, nil
	case uint32:
		return VariantUInt32, false, nil
	case int64:
		return VariantInt64, false, nil
	case uint64:
		return VariantUInt64, false, nil
	case float32:
		return VariantFloat, false, nil
	case float64:
		return VariantDouble, false, nil
	case string:
		return VariantString, false, nil
	case time.Time:
		return VariantDateTime, false, nil
	case [16]byte:
		return VariantGUID, false, nil
	case []byte:
		return VariantByteString, false, nil
	case *NodeId:
		return VariantNodeID, false, nil
	case *ExpandedNodeId:
		return VariantExpandedNodeID, false, nil
	case StatusCode:
		return VariantStatusCode, false, nil
	case *QualifiedName:
		return VariantQualifiedName, false, nil
	case *LocalizedText:
		return VariantLocalizedText, false, nil
	case *ExtensionObject:
		return VariantExtensionObject, false, nil
	case *DataValue:
		return VariantDataValue, false, nil
	case *Variant:
		return VariantVariant, false, nil
	case []interface{}:
		return VariantNull, true, nil // caller must set Type explicitly for arrays of ambiguous element type
	default:
		return 0, false, errors.Errorf("variant: unsupported go type %T", v)
	}
}

func (v *Variant) Encode() ([]byte, error) {
	e := NewEncoder()
	mask := byte(v.Type) & variantTypeMask
	if v.IsArray {
		mask |= variantArrayFlag
		if len(v.Dimensions) > 0 {
			mask |= variantDimensionsFlag
		}
	}
	e.WriteByte(mask)

	if v.IsArray {
		items, ok := v.Value.([]interface{})
		if !ok {
			return nil, errors.Errorf("variant: array value is %T, want []interface{}", v.Value)
		}
		e.WriteInt32(int32(len(items)))
		for _, item := range items {
			b, err := encodeVariantScalar(v.Type, item)
			if err != nil {
				return nil, err
			}
			e.WriteBytes(b)
		}
		if len(v.Dimensions) > 0 {
			e.WriteInt32(int32(len(v.Dimensions)))
			for _, dim := range v.Dimensions {
				e.WriteInt32(dim)
			}
		}
		return e.Bytes(), nil
	}

	b, err := encodeVariantScalar(v.Type, v.Value)
	if err != nil {
		return nil, err
	}
	e.WriteBytes(b)
	return e.Bytes(), nil
}

func (v *Variant) Decode(b []byte) (int, error) {
	d := NewDecoder(b)
	mask, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	v.Type = VariantType(mask & variantTypeMask)
	v.IsArray = mask&variantArrayFlag != 0
	hasDims := mask&variantDimensionsFlag != 0

	if v.Type == VariantNull {
		return d.Pos(), nil
	}

	if v.IsArray {
		n, err := d.ReadInt32()
		if err != nil {
			return 0, err
		}
		items := make([]interface{}, 0)
		if n >= 0 {
			items = make([]interface{}, n)
			for i := range items {
				val, used, err := decodeVariantScalar(v.Type, b[d.Pos():])
				if err != nil {
					return 0, err
				}
				items[i] = val
				d.pos += used
			}
		}
		v.Value = items
		if hasDims {
			dn, err := d.ReadInt32()
			if err != nil {
				return 0, err
			}
			dims := make([]int32, dn)
			for i := range dims {
				dv, err := d.ReadInt32()
				if err != nil {
					return 0, err
				}
				dims[i] = dv
			}
			v.Dimensions = dims
		}
		return d.Pos(), nil
	}

	val, used, err := decodeVariantScalar(v.Type, b[d.Pos():])
	if err != nil {
		return 0, err
	}
	v.Value = val
	d.pos += used
	return d.Pos(), nil
}

func encodeVariantScalar(t VariantType, v interface{}) ([]byte, error) {
	e := NewEncoder()
	switch t {
	case VariantBoolean:
		e.WriteBool(v.(bool))
	case VariantSByte:
		e.WriteSByte(v.(int8))
	case VariantByte:
		e.WriteByte(v.(byte))
	case VariantInt16:
		e.WriteInt16(v.(int16))
	case VariantUInt16:
		e.WriteUint16(v.(uint16))
	case VariantInt32:
		e.WriteInt32(v.(int32))
	case VariantUInt32:
		e.WriteUint32(v.(uint32))
	case VariantInt64:
		e.WriteInt64(v.(int64))
	case VariantUInt64:
		e.WriteUint64(v.(uint64))
	case VariantFloat:
		e.WriteFloat32(v.(float32))
	case VariantDouble:
		e.WriteFloat64(v.(float64))
	case VariantString:
		e.WriteString(v.(string), false)
	case VariantDateTime:
		e.WriteDateTime(v.(time.Time))
	case VariantGUID:
		e.WriteGUID(v.([16]byte))
	case VariantByteString, VariantXMLElement:
		e.WriteByteString(v.([]byte))
	case VariantStatusCode:
		e.WriteUint32(uint32(v.(StatusCode)))
	case VariantNodeID:
		b, err := v.(*NodeId).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantExpandedNodeID:
		b, err := v.(*ExpandedNodeId).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantQualifiedName:
		b, err := v.(*QualifiedName).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantLocalizedText:
		b, err := v.(*LocalizedText).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantExtensionObject:
		b, err := v.(*ExtensionObject).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantDataValue:
		b, err := v.(*DataValue).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	case VariantVariant:
		b, err := v.(*Variant).Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	default:
		return nil, errors.Errorf("variant: unsupported built-in type id %d", t)
	}
	return e.Bytes(), nil
}

func decodeVariantScalar(t VariantType, b []byte) (interface{}, int, error) {
	d := NewDecoder(b)
	switch t {
	case VariantBoolean:
		v, err := d.ReadBool()
		return v, d.Pos(), err
	case VariantSByte:
		v, err := d.ReadSByte()
		return v, d.Pos(), err
	case VariantByte:
		v, err := d.ReadByte()
		return v, d.Pos(), err
	case VariantInt16:
		v, err := d.ReadInt16()
		return v, d.Pos(), err
	case VariantUInt16:
		v, err := d.ReadUint16()
		return v, d.Pos(), err
	case VariantInt32:
		v, err := d.ReadInt32()
		return v, d.Pos(), err
	case VariantUInt32:
		v, err := d.ReadUint32()
		return v, d.Pos(), err
	case VariantInt64:
		v, err := d.ReadInt64()
		return v, d.Pos(), err
	case VariantUInt64:
		v, err := d.ReadUint64()
		return v, d.Pos(), err
	case VariantFloat:
		v, err := d.ReadFloat32()
		return v, d.Pos(), err
	case VariantDouble:
		v, err := d.ReadFloat64()
		return v, d.Pos(), err
	case VariantString:
		v, _, err := d.ReadString()
		return v, d.Pos(), err
	case VariantDateTime:
		v, err := d.ReadDateTime()
		return v, d.Pos(), err
	case VariantGUID:
		v, err := d.ReadGUID()
		return v, d.Pos(), err
	case VariantByteString, VariantXMLElement:
		v, err := d.ReadByteString()
		return v, d.Pos(), err
	case VariantStatusCode:
		v, err := d.ReadUint32()
		return StatusCode(v), d.Pos(), err
	case VariantNodeID:
		n := new(NodeId)
		used, err := n.Decode(b)
		return n, used, err
	case VariantExpandedNodeID:
		n := new(ExpandedNodeId)
		used, err := n.Decode(b)
		return n, used, err
	case VariantQualifiedName:
		q := new(QualifiedName)
		used, err := q.Decode(b)
		return q, used, err
	case VariantLocalizedText:
		l := new(LocalizedText)
		used, err := l.Decode(b)
		return l, used, err
	case VariantExtensionObject:
		x := new(ExtensionObject)
		used, err := x.Decode(b)
		return x, used, err
	case VariantDataValue:
		dv := new(DataValue)
		used, err := dv.Decode(b)
		return dv, used, err
	case VariantVariant:
		v := new(Variant)
		used, err := v.Decode(b)
		return v, used, err
	default:
		return nil, 0, errors.Errorf("variant: unsupported built-in type id %d", t)
	}
}
