// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// This file implements the generic, reflection-based struct codec used for
// the large catalog of per-service request/response DTOs (ua/services_*.go).
// Core wire types with a layout that cannot be derived from Go struct shape
// (NodeId, Variant, DataValue, ExtensionObject, ...) implement BinaryEncoder/
// BinaryDecoder by hand and are picked up automatically here; everything
// else is walked field by field in declaration order, exactly mirroring the
// byte layout of the corresponding OPC UA structure.
package ua

import (
	"reflect"
	"time"

	"github.com/convertersystems/opcua-client/errors"
)

var timeType = reflect.TypeOf(time.Time{})

// Encode serializes v, which must be a struct, pointer to struct, or any
// type implementing BinaryEncoder.
func Encode(v interface{}) ([]byte, error) {
	if enc, ok := v.(BinaryEncoder); ok {
		return enc.Encode()
	}
	return encodeField(reflect.ValueOf(v))
}

// Decode deserializes b into v, which must be a non-nil pointer.
func Decode(b []byte, v interface{}) (int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return 0, errors.Errorf("ua: Decode requires a non-nil pointer, got %T", v)
	}
	if dec, ok := v.(BinaryDecoder); ok {
		return dec.Decode(b)
	}
	return decodeValue(b, rv.Elem())
}

func encodeField(f reflect.Value) ([]byte, error) {
	if f.Kind() == reflect.Ptr {
		if f.IsNil() {
			f = reflect.New(f.Type().Elem())
		}
	}
	if f.CanInterface() {
		if enc, ok := f.Interface().(BinaryEncoder); ok {
			return enc.Encode()
		}
	}
	if f.Type() == timeType {
		e := NewEncoder()
		e.WriteDateTime(f.Interface().(time.Time))
		return e.Bytes(), nil
	}

	switch f.Kind() {
	case reflect.Ptr:
		return encodeField(f.Elem())
	case reflect.Struct:
		e := NewEncoder()
		for i := 0; i < f.NumField(); i++ {
			ft := f.Type().Field(i)
			if ft.PkgPath != "" {
				continue
			}
			b, err := encodeField(f.Field(i))
			if err != nil {
				return nil, errors.Wrapf(err, "encode %s.%s", f.Type().Name(), ft.Name)
			}
			e.WriteBytes(b)
		}
		return e.Bytes(), nil
	case reflect.Bool:
		e := NewEncoder()
		e.WriteBool(f.Bool())
		return e.Bytes(), nil
	case reflect.Int8:
		e := NewEncoder()
		e.WriteSByte(int8(f.Int()))
		return e.Bytes(), nil
	case reflect.Uint8:
		e := NewEncoder()
		e.WriteByte(byte(f.Uint()))
		return e.Bytes(), nil
	case reflect.Int16:
		e := NewEncoder()
		e.WriteInt16(int16(f.Int()))
		return e.Bytes(), nil
	case reflect.Uint16:
		e := NewEncoder()
		e.WriteUint16(uint16(f.Uint()))
		return e.Bytes(), nil
	case reflect.Int32:
		e := NewEncoder()
		e.WriteInt32(int32(f.Int()))
		return e.Bytes(), nil
	case reflect.Uint32:
		e := NewEncoder()
		e.WriteUint32(uint32(f.Uint()))
		return e.Bytes(), nil
	case reflect.Int64:
		e := NewEncoder()
		e.WriteInt64(f.Int())
		return e.Bytes(), nil
	case reflect.Uint64:
		e := NewEncoder()
		e.WriteUint64(f.Uint())
		return e.Bytes(), nil
	case reflect.Float32:
		e := NewEncoder()
		e.WriteFloat32(float32(f.Float()))
		return e.Bytes(), nil
	case reflect.Float64:
		e := NewEncoder()
		e.WriteFloat64(f.Float())
		return e.Bytes(), nil
	case reflect.String:
		e := NewEncoder()
		e.WriteString(f.String(), false)
		return e.Bytes(), nil
	case reflect.Slice:
		et := f.Type().Elem()
		e := NewEncoder()
		if et.Kind() == reflect.Uint8 {
			if f.IsNil() {
				e.WriteByteString(nil)
			} else {
				e.WriteByteString(f.Bytes())
			}
			return e.Bytes(), nil
		}
		if f.IsNil() {
			e.WriteInt32(-1)
			return e.Bytes(), nil
		}
		e.WriteInt32(int32(f.Len()))
		for i := 0; i < f.Len(); i++ {
			b, err := encodeField(f.Index(i))
			if err != nil {
				return nil, err
			}
			e.WriteBytes(b)
		}
		return e.Bytes(), nil
	default:
		return nil, errors.Errorf("ua: encode: unsupported kind %s (type %s)", f.Kind(), f.Type())
	}
}

func decodeValue(b []byte, rv reflect.Value) (int, error) {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		if dec, ok := rv.Interface().(BinaryDecoder); ok {
			return dec.Decode(b)
		}
		return decodeValue(b, rv.Elem())
	}
	if rv.Type() == timeType {
		d := NewDecoder(b)
		t, err := d.ReadDateTime()
		if err != nil {
			return 0, err
		}
		rv.Set(reflect.ValueOf(t))
		return d.Pos(), nil
	}

	switch rv.Kind() {
	case reflect.Struct:
		pos := 0
		for i := 0; i < rv.NumField(); i++ {
			ft := rv.Type().Field(i)
			if ft.PkgPath != "" {
				continue
			}
			used, err := decodeValue(b[pos:], rv.Field(i))
			if err != nil {
				return 0, errors.Wrapf(err, "decode %s.%s", rv.Type().Name(), ft.Name)
			}
			pos += used
		}
		return pos, nil
	case reflect.Bool:
		d := NewDecoder(b)
		v, err := d.ReadBool()
		if err != nil {
			return 0, err
		}
		rv.SetBool(v)
		return d.Pos(), nil
	case reflect.Int8:
		d := NewDecoder(b)
		v, err := d.ReadSByte()
		if err != nil {
			return 0, err
		}
		rv.SetInt(int64(v))
		return d.Pos(), nil
	case reflect.Uint8:
		d := NewDecoder(b)
		v, err := d.ReadByte()
		if err != nil {
			return 0, err
		}
		rv.SetUint(uint64(v))
		return d.Pos(), nil
	case reflect.Int16:
		d := NewDecoder(b)
		v, err := d.ReadInt16()
		if err != nil {
			return 0, err
		}
		rv.SetInt(int64(v))
		return d.Pos(), nil
	case reflect.Uint16:
		d := NewDecoder(b)
		v, err := d.ReadUint16()
		if err != nil {
			return 0, err
		}
		rv.SetUint(uint64(v))
		return d.Pos(), nil
	case reflect.Int32:
		d := NewDecoder(b)
		v, err := d.ReadInt32()
		if err != nil {
			return 0, err
		}
		rv.SetInt(int64(v))
		return d.Pos(), nil
	case reflect.Uint32:
		d := NewDecoder(b)
		v, err := d.ReadUint32()
		if err != nil {
			return 0, err
		}
		rv.SetUint(uint64(v))
		return d.Pos(), nil
	case reflect.Int64:
		d := NewDecoder(b)
		v, err := d.ReadInt64()
		if err != nil {
			return 0, err
		}
		rv.SetInt(v)
		return d.Pos(), nil
	case reflect.Uint64:
		d := NewDecoder(b)
		v, err := d.ReadUint64()
		if err != nil {
			return 0, err
		}
		rv.SetUint(v)
		return d.Pos(), nil
	case reflect.Float32:
		d := NewDecoder(b)
		v, err := d.ReadFloat32()
		if err != nil {
			return 0, err
		}
		rv.SetFloat(float64(v))
		return d.Pos(), nil
	case reflect.Float64:
		d := NewDecoder(b)
		v, err := d.ReadFloat64()
		if err != nil {
			return 0, err
		}
		rv.SetFloat(v)
		return d.Pos(), nil
	case reflect.String:
		d := NewDecoder(b)
		v, _, err := d.ReadString()
		if err != nil {
			return 0, err
		}
		rv.SetString(v)
		return d.Pos(), nil
	case reflect.Slice:
		et := rv.Type().Elem()
		d := NewDecoder(b)
		if et.Kind() == reflect.Uint8 {
			v, err := d.ReadByteString()
			if err != nil {
				return 0, err
			}
			rv.SetBytes(v)
			return d.Pos(), nil
		}
		n, err := d.ReadInt32()
		if err != nil {
			return 0, err
		}
		pos := d.Pos()
		if n < 0 {
			rv.Set(reflect.Zero(rv.Type()))
			return pos, nil
		}
		slice := reflect.MakeSlice(rv.Type(), int(n), int(n))
		for i := 0; i < int(n); i++ {
			used, err := decodeValue(b[pos:], slice.Index(i))
			if err != nil {
				return 0, err
			}
			pos += used
		}
		rv.Set(slice)
		return pos, nil
	default:
		return 0, errors.Errorf("ua: decode: unsupported kind %s (type %s)", rv.Kind(), rv.Type())
	}
}
