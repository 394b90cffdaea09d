package uasc

import (
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
)

// Message is the logical (unchunked) representation of one outbound
// service call: a header whose MessageType/SecureChannelID are already
// known, the security headers appropriate to that message type, and the
// sequence header assigned when it was queued. SecureChannel.sendChunks
// splits EncodedBody across one or more wire chunks.
type Message struct {
	Header                   *Header
	AsymmetricSecurityHeader *AsymmetricSecurityHeader
	SymmetricSecurityHeader  *SymmetricSecurityHeader
	SequenceHeader           *SequenceHeader
	Service                  interface{}
}

// NewMessage builds a Message for svc, choosing MessageType from its Go
// type (OpenSecureChannel{Request,Response} use "OPN",
// CloseSecureChannel{Request,Response} use "CLO", everything else,
// ServiceFault included, is a plain "MSG").
func NewMessage(svc interface{}, cfg *Config) *Message {
	mt := "MSG"
	switch svc.(type) {
	case *ua.OpenSecureChannelRequest, *ua.OpenSecureChannelResponse:
		mt = "OPN"
	case *ua.CloseSecureChannelRequest, *ua.CloseSecureChannelResponse:
		mt = "CLO"
	}

	m := &Message{
		Header: &Header{
			MessageType:     mt,
			SecureChannelID: cfg.SecureChannelID,
		},
		SequenceHeader: &SequenceHeader{
			SequenceNumber: cfg.SequenceNumber,
			RequestID:      cfg.RequestID,
		},
		Service: svc,
	}

	if mt == "OPN" {
		m.AsymmetricSecurityHeader = &AsymmetricSecurityHeader{
			SecurityPolicyURI: cfg.SecurityPolicyURI,
			SenderCertificate: cfg.LocalCertificate,
		}
	} else {
		m.SymmetricSecurityHeader = &SymmetricSecurityHeader{TokenID: cfg.SecurityTokenID}
	}
	return m
}

// EncodeBody encodes the service's type-id envelope and payload, i.e. the
// bytes that get split across chunks and follow the sequence header.
func (m *Message) EncodeBody() ([]byte, error) {
	return ua.EncodeService(m.Service)
}

// MessageChunk is one decoded wire chunk: the 12-byte Header, whichever
// security header its MessageType implies, the sequence header, and the
// still-encrypted-if-applicable payload in Data.
type MessageChunk struct {
	Header                   *Header
	AsymmetricSecurityHeader *AsymmetricSecurityHeader
	SymmetricSecurityHeader  *SymmetricSecurityHeader
	SequenceHeader           *SequenceHeader
	Data                     []byte
}

// Decode parses b (one complete uacp frame, header included) into its
// Header and, depending on MessageType, either AsymmetricSecurityHeader or
// SymmetricSecurityHeader. Data is left holding everything after those
// headers; the caller (SecureChannel) still owes it decryption, signature
// verification and SequenceHeader decoding before use.
func (m *MessageChunk) Decode(b []byte) (int, error) {
	h := new(Header)
	n, err := h.Decode(b)
	if err != nil {
		return 0, errors.Wrap(err, "uasc: decode header failed")
	}
	m.Header = h

	switch h.MessageType {
	case "OPN":
		ash := new(AsymmetricSecurityHeader)
		used, err := ash.Decode(b[n:])
		if err != nil {
			return 0, errors.Wrap(err, "uasc: decode asymmetric security header failed")
		}
		m.AsymmetricSecurityHeader = ash
		n += used
	case "MSG", "CLO":
		ssh := new(SymmetricSecurityHeader)
		used, err := ssh.Decode(b[n:])
		if err != nil {
			return 0, errors.Wrap(err, "uasc: decode symmetric security header failed")
		}
		m.SymmetricSecurityHeader = ssh
		n += used
	default:
		return 0, errors.Errorf("uasc: unknown message type %q", h.MessageType)
	}

	m.Data = b[n:]
	return n, nil
}
