// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// QualifiedName is a namespace-scoped name.
type QualifiedName struct {
	NamespaceIndex uint16
	Name           string
}

func (q *QualifiedName) Encode() ([]byte, error) {
	e := NewEncoder()
	e.WriteUint16(q.NamespaceIndex)
	e.WriteString(q.Name, q.Name == "" && false)
	return e.Bytes(), nil
}

func (q *QualifiedName) Decode(b []byte) (int, error) {
	d := NewDecoder(b)
	ns, err := d.ReadUint16()
	if err != nil {
		return 0, err
	}
	name, _, err := d.ReadString()
	if err != nil {
		return 0, err
	}
	q.NamespaceIndex = ns
	q.Name = name
	return d.Pos(), nil
}

// localizedTextLocaleFlag / localizedTextTextFlag are the presence bits
// that precede a LocalizedText's optional locale/text fields.
const (
	localizedTextLocaleFlag byte = 0x01
	localizedTextTextFlag   byte = 0x02
)

// LocalizedText is a (locale, text) pair; either field may be absent.
type LocalizedText struct {
	Locale string
	Text   string
	hasLocale bool
	hasText   bool
}

// NewLocalizedText returns a LocalizedText with both fields present.
func NewLocalizedText(locale, text string) *LocalizedText {
	return &LocalizedText{Locale: locale, Text: text, hasLocale: true, hasText: true}
}

func (l *LocalizedText) Encode() ([]byte, error) {
	e := NewEncoder()
	var mask byte
	hasLocale := l.hasLocale || l.Locale != ""
	hasText := l.hasText || l.Text != ""
	if hasLocale {
		mask |= localizedTextLocaleFlag
	}
	if hasText {
		mask |= localizedTextTextFlag
	}
	e.WriteByte(mask)
	if hasLocale {
		e.WriteString(l.Locale, false)
	}
	if hasText {
		e.WriteString(l.Text, false)
	}
	return e.Bytes(), nil
}

func (l *LocalizedText) Decode(b []byte) (int, error) {
	d := NewDecoder(b)
	mask, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	if mask&localizedTextLocaleFlag != 0 {
		s, _, err := d.ReadString()
		if err != nil {
			return 0, err
		}
		l.Locale = s
		l.hasLocale = true
	}
	if mask&localizedTextTextFlag != 0 {
		s, _, err := d.ReadString()
		if err != nil {
			return 0, err
		}
		l.Text = s
		l.hasText = true
	}
	return d.Pos(), nil
}
