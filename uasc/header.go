package uasc

import (
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
)

// Header is the 8-byte uacp frame header plus the 4-byte SecureChannelID
// that precedes every MSG/OPN/CLO body (spec.md §4.2/§4.3): 12 bytes total.
type Header struct {
	MessageType     string // "MSG", "OPN", "CLO"
	ChunkType       byte   // 'F', 'C', 'A'
	MessageSize     uint32
	SecureChannelID uint32
}

func (h *Header) Encode() ([]byte, error) {
	e := ua.NewEncoder()
	e.WriteBytes([]byte(h.MessageType))
	e.WriteByte(h.ChunkType)
	e.WriteUint32(h.MessageSize)
	e.WriteUint32(h.SecureChannelID)
	return e.Bytes(), nil
}

func (h *Header) Decode(b []byte) (int, error) {
	if len(b) < 12 {
		return 0, errors.New("uasc: short header")
	}
	d := ua.NewDecoder(b)
	mt, err := d.ReadBytes(3)
	if err != nil {
		return 0, err
	}
	ct, err := d.ReadByte()
	if err != nil {
		return 0, err
	}
	size, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	scid, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	h.MessageType = string(mt)
	h.ChunkType = ct
	h.MessageSize = size
	h.SecureChannelID = scid
	return d.Pos(), nil
}

// AsymmetricSecurityHeader precedes an OPN chunk: the policy URI plus
// sender certificate and a thumbprint identifying which of the receiver's
// certificates to use (spec.md §4.3 step 2).
type AsymmetricSecurityHeader struct {
	SecurityPolicyURI            string
	SenderCertificate             []byte
	ReceiverCertificateThumbprint []byte
}

func (h *AsymmetricSecurityHeader) Encode() ([]byte, error) {
	e := ua.NewEncoder()
	e.WriteString(h.SecurityPolicyURI, false)
	e.WriteByteString(h.SenderCertificate)
	e.WriteByteString(h.ReceiverCertificateThumbprint)
	return e.Bytes(), nil
}

func (h *AsymmetricSecurityHeader) Decode(b []byte) (int, error) {
	d := ua.NewDecoder(b)
	uri, _, err := d.ReadString()
	if err != nil {
		return 0, err
	}
	sender, err := d.ReadByteString()
	if err != nil {
		return 0, err
	}
	thumb, err := d.ReadByteString()
	if err != nil {
		return 0, err
	}
	h.SecurityPolicyURI = uri
	h.SenderCertificate = sender
	h.ReceiverCertificateThumbprint = thumb
	return d.Pos(), nil
}

// SymmetricSecurityHeader precedes an MSG/CLO chunk and names which of the
// channel's (old, renewing) tokens signed/encrypted it.
type SymmetricSecurityHeader struct {
	TokenID uint32
}

func (h *SymmetricSecurityHeader) Encode() ([]byte, error) {
	e := ua.NewEncoder()
	e.WriteUint32(h.TokenID)
	return e.Bytes(), nil
}

func (h *SymmetricSecurityHeader) Decode(b []byte) (int, error) {
	d := ua.NewDecoder(b)
	tok, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	h.TokenID = tok
	return d.Pos(), nil
}

// SequenceHeader carries the per-channel monotonic sequence number and the
// per-request id used to correlate chunks belonging to the same logical
// message (spec.md §4.3 step 2).
type SequenceHeader struct {
	SequenceNumber uint32
	RequestID      uint32
}

func (h *SequenceHeader) Encode() ([]byte, error) {
	e := ua.NewEncoder()
	e.WriteUint32(h.SequenceNumber)
	e.WriteUint32(h.RequestID)
	return e.Bytes(), nil
}

func (h *SequenceHeader) Decode(b []byte) (int, error) {
	d := ua.NewDecoder(b)
	seq, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	reqid, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	h.SequenceNumber = seq
	h.RequestID = reqid
	return d.Pos(), nil
}

// MessageAbort is the body of an 'A' chunk: the reason an in-progress
// multi-chunk message was cancelled (spec.md §4.3 decode path).
type MessageAbort struct {
	ErrorCode uint32
	Reason    string
}

func (m *MessageAbort) Encode() ([]byte, error) {
	e := ua.NewEncoder()
	e.WriteUint32(m.ErrorCode)
	e.WriteString(m.Reason, true)
	return e.Bytes(), nil
}

func (m *MessageAbort) Decode(b []byte) (int, error) {
	d := ua.NewDecoder(b)
	code, err := d.ReadUint32()
	if err != nil {
		return 0, err
	}
	reason, _, err := d.ReadString()
	if err != nil {
		return 0, err
	}
	m.ErrorCode = code
	m.Reason = reason
	return d.Pos(), nil
}
