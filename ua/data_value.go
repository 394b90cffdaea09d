// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "time"

// DataValue encoding mask bits (Part 6 §5.2.2.17).
const (
	dataValueValueFlag             byte = 0x01
	dataValueStatusCodeFlag        byte = 0x02
	dataValueSourceTimestampFlag   byte = 0x04
	dataValueServerTimestampFlag   byte = 0x08
	dataValueSourcePicosecondsFlag byte = 0x10
	dataValueServerPicosecondsFlag byte = 0x20
)

// DataValue carries a Variant plus quality and timestamp metadata.
type DataValue struct {
	Value               *Variant
	Status              StatusCode
	SourceTimestamp     time.Time
	SourcePicoseconds   uint16
	ServerTimestamp     time.Time
	ServerPicoseconds   uint16

	hasValue           bool
	hasStatus          bool
	hasSourceTimestamp bool
	hasServerTimestamp bool
	hasSourcePico      bool
	hasServerPico      bool
}

// NewDataValue returns a DataValue wrapping v with the given status and
// with ts as both source and server timestamp.
func NewDataValue(v *Variant, status StatusCode, ts time.Time) *DataValue {
	return &DataValue{
		Value: v, Status: status, SourceTimestamp: ts, ServerTimestamp: ts,
		hasValue: true, hasStatus: true, hasSourceTimestamp: true, hasServerTimestamp: true,
	}
}

func (dv *DataValue) mask() byte {
	var m byte
	if dv.Value != nil {
		m |= dataValueValueFlag
	}
	if dv.hasStatus || dv.Status != StatusOK {
		m |= dataValueStatusCodeFlag
	}
	if dv.hasSourceTimestamp || !dv.SourceTimestamp.IsZero() {
		m |= dataValueSourceTimestampFlag
	}
	if dv.hasServerTimestamp || !dv.ServerTimestamp.IsZero() {
		m |= dataValueServerTimestampFlag
	}
	if dv.SourcePicoseconds != 0 {
		m |= dataValueSourcePicosecondsFlag
	}
	if dv.ServerPicoseconds != 0 {
		m |= dataValueServerPicosecondsFlag
	}
	return m
}

func (dv *DataValue) Encode() ([]byte, error) {
	e := NewEncoder()
	m := dv.mask()
	e.WriteByte(m)
	if m&dataValueValueFlag != 0 {
		b, err := dv.Value.Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	}
	if m&dataValueStatusCodeFlag != 0 {
		e.WriteUint32(uint32(dv.Status))
	}
	if m&dataValueSourceTimestampFlag != 0 {
		e.WriteDateTime(dv.SourceTimestamp)
	}
	if m&dataValueSourcePicosecondsFlag != 0 {
		e.WriteUint16(dv.SourcePicoseconds)
	}
	if m&dataValueServerTimestampFlag != 0 {
		e.WriteDateTime(dv.ServerTimestamp)
	}
	if m&dataValueServerPicosecondsFlag != 0 {
		e.WriteUint16(dv.ServerPicoseconds)
	}
	return e.Bytes(), nil
}

func (dv *DataValue) Decode(b []byte) (int, error) {
	d := NewDecoder(b)
	m, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	if m&dataValueValueFlag != 0 {
		v := new(Variant)
		used, err := v.Decode(b[d.Pos():])
		if err != nil {
			return 0, err
		}
		d.pos += used
		dv.Value = v
		dv.hasValue = true
	}
	if m&dataValueStatusCodeFlag != 0 {
		s, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}
		dv.Status = StatusCode(s)
		dv.hasStatus = true
	}
	if m&dataValueSourceTimestampFlag != 0 {
		t, err := d.ReadDateTime()
		if err != nil {
			return 0, err
		}
		dv.SourceTimestamp = t
		dv.hasSourceTimestamp = true
	}
	if m&dataValueSourcePicosecondsFlag != 0 {
		p, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		dv.SourcePicoseconds = p
		dv.hasSourcePico = true
	}
	if m&dataValueServerTimestampFlag != 0 {
		t, err := d.ReadDateTime()
		if err != nil {
			return 0, err
		}
		dv.ServerTimestamp = t
		dv.hasServerTimestamp = true
	}
	if m&dataValueServerPicosecondsFlag != 0 {
		p, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		dv.ServerPicoseconds = p
		dv.hasServerPico = true
	}
	return d.Pos(), nil
}
