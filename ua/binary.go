// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"bytes"
	"encoding/binary"
	"math"
	"time"

	"github.com/convertersystems/opcua-client/errors"
)

// epoch is the OPC UA / Windows FILETIME origin: 1601-01-01 UTC.
var epoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

const maxTicks = int64(0x7FFFFFFFFFFFFFFF)

// BinaryEncoder is implemented by every wire type with a layout that cannot
// be derived generically from its Go struct fields (NodeId, Variant, ...).
type BinaryEncoder interface {
	Encode() ([]byte, error)
}

// BinaryDecoder is the decode-side counterpart of BinaryEncoder. Decode
// returns the number of bytes it consumed from b.
type BinaryDecoder interface {
	Decode(b []byte) (int, error)
}

// Encoder accumulates encoded primitives into a byte slice. It never
// returns an error itself; encode failures for variable-length types are
// reported by the caller that produced the bytes being appended.
type Encoder struct {
	buf bytes.Buffer
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder { return &Encoder{} }

// Bytes returns the accumulated buffer.
func (e *Encoder) Bytes() []byte { return e.buf.Bytes() }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.buf.Len() }

func (e *Encoder) WriteBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *Encoder) WriteByte(v byte)   { e.buf.WriteByte(v) }
func (e *Encoder) WriteSByte(v int8)  { e.buf.WriteByte(byte(v)) }
func (e *Encoder) WriteBytes(b []byte) { e.buf.Write(b) }

func (e *Encoder) WriteUint16(v uint16) { e.put(2, func(b []byte) { binary.LittleEndian.PutUint16(b, v) }) }
func (e *Encoder) WriteUint32(v uint32) { e.put(4, func(b []byte) { binary.LittleEndian.PutUint32(b, v) }) }
func (e *Encoder) WriteUint64(v uint64) { e.put(8, func(b []byte) { binary.LittleEndian.PutUint64(b, v) }) }
func (e *Encoder) WriteInt16(v int16)   { e.WriteUint16(uint16(v)) }
func (e *Encoder) WriteInt32(v int32)   { e.WriteUint32(uint32(v)) }
func (e *Encoder) WriteInt64(v int64)   { e.WriteUint64(uint64(v)) }
func (e *Encoder) WriteFloat32(v float32) { e.WriteUint32(math.Float32bits(v)) }
func (e *Encoder) WriteFloat64(v float64) { e.WriteUint64(math.Float64bits(v)) }

func (e *Encoder) put(n int, f func([]byte)) {
	var b [8]byte
	f(b[:n])
	e.buf.Write(b[:n])
}

// WriteString writes a length-prefixed UTF-8 string. A nil/absent string is
// distinguished from an empty one by a length prefix of -1.
func (e *Encoder) WriteString(s string, null bool) {
	if null {
		e.WriteInt32(-1)
		return
	}
	e.WriteInt32(int32(len(s)))
	e.buf.WriteString(s)
}

// WriteByteString writes a length-prefixed opaque byte sequence. nil and
// empty are distinguished the same way as WriteString.
func (e *Encoder) WriteByteString(b []byte) {
	if b == nil {
		e.WriteInt32(-1)
		return
	}
	e.WriteInt32(int32(len(b)))
	e.buf.Write(b)
}

// WriteDateTime writes t as 100ns ticks since the OPC UA epoch, clamped:
// the zero Time encodes as 0 (null) and times at/after the ticks ceiling
// encode as max int64 (infinity).
func (e *Encoder) WriteDateTime(t time.Time) {
	if t.IsZero() {
		e.WriteInt64(0)
		return
	}
	// 11644473600 is the number of seconds from the epoch to 1970-01-01.
	secs := t.Unix() + 11644473600
	var ticks int64
	switch {
	case secs < 0:
		ticks = 0
	case secs >= maxTicks/10000000:
		ticks = maxTicks
	default:
		ticks = secs*10000000 + int64(t.Nanosecond()/100)
	}
	e.WriteInt64(ticks)
}

// WriteGUID writes a UUID in OPC UA mixed-endian form: Data1 (u32 LE), Data2
// (u16 LE), Data3 (u16 LE), then 8 bytes big-endian.
func (e *Encoder) WriteGUID(u [16]byte) {
	e.WriteUint32(binary.BigEndian.Uint32(u[0:4]))
	e.WriteUint16(binary.BigEndian.Uint16(u[4:6]))
	e.WriteUint16(binary.BigEndian.Uint16(u[6:8]))
	e.buf.Write(u[8:16])
}

// Decoder reads primitives off a fixed byte slice, tracking how many bytes
// have been consumed so composite Decode methods can report it back.
type Decoder struct {
	b   []byte
	pos int
}

// NewDecoder wraps b for sequential reads.
func NewDecoder(b []byte) *Decoder { return &Decoder{b: b} }

// Pos returns the number of bytes consumed so far.
func (d *Decoder) Pos() int { return d.pos }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.b) - d.pos }

func (d *Decoder) take(n int) ([]byte, error) {
	if d.Remaining() < n {
		return nil, errors.Wrapf(StatusBadDecodingError, "need %d bytes, have %d", n, d.Remaining())
	}
	b := d.b[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadBool() (bool, error) {
	b, err := d.take(1)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (d *Decoder) ReadByte() (byte, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadSByte() (int8, error) {
	b, err := d.ReadByte()
	return int8(b), err
}

func (d *Decoder) ReadBytes(n int) ([]byte, error) { return d.take(n) }

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *Decoder) ReadInt16() (int16, error) { v, err := d.ReadUint16(); return int16(v), err }
func (d *Decoder) ReadInt32() (int32, error) { v, err := d.ReadUint32(); return int32(v), err }
func (d *Decoder) ReadInt64() (int64, error) { v, err := d.ReadUint64(); return int64(v), err }

func (d *Decoder) ReadFloat32() (float32, error) {
	v, err := d.ReadUint32()
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadFloat64() (float64, error) {
	v, err := d.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadString reads a length-prefixed UTF-8 string. A length of -1 yields ""
// with null=true.
func (d *Decoder) ReadString() (s string, null bool, err error) {
	n, err := d.ReadInt32()
	if err != nil {
		return "", false, err
	}
	if n < 0 {
		return "", true, nil
	}
	b, err := d.take(int(n))
	if err != nil {
		return "", false, err
	}
	return string(b), false, nil
}

// ReadByteString reads a length-prefixed opaque byte sequence; a length of
// -1 yields a nil slice.
func (d *Decoder) ReadByteString() ([]byte, error) {
	n, err := d.ReadInt32()
	if err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, nil
	}
	b, err := d.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadDateTime reads 100ns-tick DateTime, 0 decoding as the zero Time.
func (d *Decoder) ReadDateTime() (time.Time, error) {
	ticks, err := d.ReadInt64()
	if err != nil {
		return time.Time{}, err
	}
	if ticks == 0 {
		return time.Time{}, nil
	}
	if ticks < 0 {
		ticks = maxTicks
	}
	secs := ticks/10000000 - 11644473600
	return time.Unix(secs, (ticks%10000000)*100).UTC(), nil
}

// ReadGUID reads a UUID in OPC UA mixed-endian form.
func (d *Decoder) ReadGUID() ([16]byte, error) {
	var u [16]byte
	data1, err := d.ReadUint32()
	if err != nil {
		return u, err
	}
	data2, err := d.ReadUint16()
	if err != nil {
		return u, err
	}
	data3, err := d.ReadUint16()
	if err != nil {
		return u, err
	}
	rest, err := d.take(8)
	if err != nil {
		return u, err
	}
	binary.BigEndian.PutUint32(u[0:4], data1)
	binary.BigEndian.PutUint16(u[4:6], data2)
	binary.BigEndian.PutUint16(u[6:8], data3)
	copy(u[8:16], rest)
	return u, nil
}
