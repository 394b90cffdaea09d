package uasc

import (
	"testing"

	"github.com/pascaldekloe/goe/verify"
)

func TestHeaderEncodeDecodeRoundtrip(t *testing.T) {
	want := &Header{
		MessageType:     "MSG",
		ChunkType:       'F',
		MessageSize:     128,
		SecureChannelID: 7,
	}
	b, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(b) != 12 {
		t.Fatalf("encoded length = %d, want 12", len(b))
	}

	got := new(Header)
	n, err := got.Decode(b)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if n != 12 {
		t.Fatalf("Decode consumed %d bytes, want 12", n)
	}
	verify.Values(t, "header", got, want)
}

func TestSequenceHeaderEncodeDecodeRoundtrip(t *testing.T) {
	want := &SequenceHeader{SequenceNumber: 99, RequestID: 55}
	b, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got := new(SequenceHeader)
	if _, err := got.Decode(b); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	verify.Values(t, "sequence header", got, want)
}

func TestAsymmetricSecurityHeaderEncodeDecodeRoundtrip(t *testing.T) {
	want := &AsymmetricSecurityHeader{
		SecurityPolicyURI:             "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256",
		SenderCertificate:             []byte{0x01, 0x02, 0x03},
		ReceiverCertificateThumbprint: []byte{0x0a, 0x0b},
	}
	b, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got := new(AsymmetricSecurityHeader)
	if _, err := got.Decode(b); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	verify.Values(t, "asymmetric security header", got, want)
}

func TestSymmetricSecurityHeaderEncodeDecodeRoundtrip(t *testing.T) {
	want := &SymmetricSecurityHeader{TokenID: 3}
	b, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got := new(SymmetricSecurityHeader)
	if _, err := got.Decode(b); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	verify.Values(t, "symmetric security header", got, want)
}

func TestMessageAbortEncodeDecodeRoundtrip(t *testing.T) {
	want := &MessageAbort{ErrorCode: 0x80010000, Reason: "channel closed"}
	b, err := want.Encode()
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	got := new(MessageAbort)
	if _, err := got.Decode(b); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	verify.Values(t, "message abort", got, want)
}
