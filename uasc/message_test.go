package uasc

import (
	"testing"

	"github.com/convertersystems/opcua-client/ua"
)

func TestNewMessageChoosesMessageType(t *testing.T) {
	cfg := &Config{SecureChannelID: 5, SecurityTokenID: 9}

	tests := []struct {
		svc  interface{}
		want string
	}{
		{&ua.OpenSecureChannelRequest{}, "OPN"},
		{&ua.OpenSecureChannelResponse{}, "OPN"},
		{&ua.CloseSecureChannelRequest{}, "CLO"},
		{&ua.CloseSecureChannelResponse{}, "CLO"},
		{&ua.ReadRequest{}, "MSG"},
	}
	for _, tt := range tests {
		m := NewMessage(tt.svc, cfg)
		if m.Header.MessageType != tt.want {
			t.Fatalf("NewMessage(%T).Header.MessageType = %q, want %q", tt.svc, m.Header.MessageType, tt.want)
		}
	}
}

func TestNewMessageSecurityHeaderChoice(t *testing.T) {
	cfg := &Config{SecureChannelID: 5, SecurityTokenID: 9, SecurityPolicyURI: "http://opcfoundation.org/UA/SecurityPolicy#None"}

	opn := NewMessage(&ua.OpenSecureChannelRequest{}, cfg)
	if opn.AsymmetricSecurityHeader == nil {
		t.Fatal("OPN message has no AsymmetricSecurityHeader")
	}
	if opn.SymmetricSecurityHeader != nil {
		t.Fatal("OPN message unexpectedly has a SymmetricSecurityHeader")
	}

	msg := NewMessage(&ua.ReadRequest{}, cfg)
	if msg.SymmetricSecurityHeader == nil {
		t.Fatal("MSG message has no SymmetricSecurityHeader")
	}
	if msg.SymmetricSecurityHeader.TokenID != 9 {
		t.Fatalf("SymmetricSecurityHeader.TokenID = %d, want 9", msg.SymmetricSecurityHeader.TokenID)
	}
	if msg.AsymmetricSecurityHeader != nil {
		t.Fatal("MSG message unexpectedly has an AsymmetricSecurityHeader")
	}
}

func TestMessageChunkDecodeDispatchesByMessageType(t *testing.T) {
	hdr := &Header{MessageType: "MSG", ChunkType: 'F', SecureChannelID: 1}
	ssh := &SymmetricSecurityHeader{TokenID: 1}
	seq := &SequenceHeader{SequenceNumber: 1, RequestID: 1}

	sb, _ := ssh.Encode()
	qb, _ := seq.Encode()
	hdr.MessageSize = uint32(12 + len(sb) + len(qb) + len("payload"))
	hb, _ := hdr.Encode()

	b := append(append(append(hb, sb...), qb...), []byte("payload")...)

	chunk := new(MessageChunk)
	n, err := chunk.Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if chunk.SymmetricSecurityHeader == nil || chunk.SymmetricSecurityHeader.TokenID != 1 {
		t.Fatalf("SymmetricSecurityHeader not decoded correctly: %+v", chunk.SymmetricSecurityHeader)
	}
	if string(chunk.Data) != string(qb)+"payload" {
		t.Fatalf("Data = %q, want sequence header + payload", chunk.Data)
	}
	if n != len(hb)+len(sb) {
		t.Fatalf("Decode consumed %d bytes, want %d", n, len(hb)+len(sb))
	}
}
