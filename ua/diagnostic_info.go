// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// DiagnosticInfo encoding mask bits (Part 6 §5.2.2.12).
const (
	diagSymbolicID         byte = 0x01
	diagNamespaceURI       byte = 0x02
	diagLocalizedText      byte = 0x04
	diagLocale             byte = 0x08
	diagAdditionalInfo     byte = 0x10
	diagInnerStatusCode    byte = 0x20
	diagInnerDiagnosticInfo byte = 0x40
)

// DiagnosticInfo carries optional extended diagnostics for a response,
// selected by the diagnostics_hint bit-flags on the request (spec.md §6).
// Every field is optional; a zero-value DiagnosticInfo encodes as a single
// mask byte of 0.
type DiagnosticInfo struct {
	SymbolicID         int32
	NamespaceURI       int32
	Locale             int32
	LocalizedText      int32
	AdditionalInfo     string
	InnerStatusCode    StatusCode
	InnerDiagnosticInfo *DiagnosticInfo

	hasSymbolicID      bool
	hasNamespaceURI    bool
	hasLocale          bool
	hasLocalizedText   bool
	hasAdditionalInfo  bool
	hasInnerStatus     bool
	hasInnerDiag       bool
}

func (d *DiagnosticInfo) mask() byte {
	var m byte
	if d.hasSymbolicID {
		m |= diagSymbolicID
	}
	if d.hasNamespaceURI {
		m |= diagNamespaceURI
	}
	if d.hasLocalizedText {
		m |= diagLocalizedText
	}
	if d.hasLocale {
		m |= diagLocale
	}
	if d.hasAdditionalInfo {
		m |= diagAdditionalInfo
	}
	if d.hasInnerStatus {
		m |= diagInnerStatusCode
	}
	if d.hasInnerDiag {
		m |= diagInnerDiagnosticInfo
	}
	return m
}

func (d *DiagnosticInfo) Encode() ([]byte, error) {
	e := NewEncoder()
	m := d.mask()
	e.WriteByte(m)
	if m&diagSymbolicID != 0 {
		e.WriteInt32(d.SymbolicID)
	}
	if m&diagNamespaceURI != 0 {
		e.WriteInt32(d.NamespaceURI)
	}
	if m&diagLocalizedText != 0 {
		e.WriteInt32(d.LocalizedText)
	}
	if m&diagLocale != 0 {
		e.WriteInt32(d.Locale)
	}
	if m&diagAdditionalInfo != 0 {
		e.WriteString(d.AdditionalInfo, false)
	}
	if m&diagInnerStatusCode != 0 {
		e.WriteUint32(uint32(d.InnerStatusCode))
	}
	if m&diagInnerDiagnosticInfo != 0 {
		b, err := d.InnerDiagnosticInfo.Encode()
		if err != nil {
			return nil, err
		}
		e.WriteBytes(b)
	}
	return e.Bytes(), nil
}

func (d *DiagnosticInfo) Decode(b []byte) (int, error) {
	dec := NewDecoder(b)
	m, err := dec.ReadByte()
	if err != nil {
		return 0, err
	}
	if m&diagSymbolicID != 0 {
		if d.SymbolicID, err = dec.ReadInt32(); err != nil {
			return 0, err
		}
		d.hasSymbolicID = true
	}
	if m&diagNamespaceURI != 0 {
		if d.NamespaceURI, err = dec.ReadInt32(); err != nil {
			return 0, err
		}
		d.hasNamespaceURI = true
	}
	if m&diagLocalizedText != 0 {
		if d.LocalizedText, err = dec.ReadInt32(); err != nil {
			return 0, err
		}
		d.hasLocalizedText = true
	}
	if m&diagLocale != 0 {
		if d.Locale, err = dec.ReadInt32(); err != nil {
			return 0, err
		}
		d.hasLocale = true
	}
	if m&diagAdditionalInfo != 0 {
		s, _, err := dec.ReadString()
		if err != nil {
			return 0, err
		}
		d.AdditionalInfo = s
		d.hasAdditionalInfo = true
	}
	if m&diagInnerStatusCode != 0 {
		v, err := dec.ReadUint32()
		if err != nil {
			return 0, err
		}
		d.InnerStatusCode = StatusCode(v)
		d.hasInnerStatus = true
	}
	if m&diagInnerDiagnosticInfo != 0 {
		inner := new(DiagnosticInfo)
		used, err := inner.Decode(b[dec.Pos():])
		if err != nil {
			return 0, err
		}
		dec.pos += used
		d.InnerDiagnosticInfo = inner
		d.hasInnerDiag = true
	}
	return dec.Pos(), nil
}
