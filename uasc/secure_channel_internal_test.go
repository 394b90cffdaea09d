package uasc

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/convertersystems/opcua-client/ua"
	"github.com/convertersystems/opcua-client/uacp"
	"github.com/convertersystems/opcua-client/uapolicy"
)

// newTestChannel builds a SecureChannel with symmetric keys already derived,
// bypassing NewSecureChannel (which requires a live uacp.Conn) so the chunk
// build/unwrap path can be exercised as a pure function.
func newTestChannel(t *testing.T, mode ua.MessageSecurityMode) *SecureChannel {
	t.Helper()
	policy := uapolicy.Basic256Sha256
	keys := policy.DeriveKeys([]byte("remote-nonce-bytes-0000000000000"), []byte("local-nonce-bytes-00000000000000"))

	return &SecureChannel{
		EndpointURL: "opc.tcp://localhost:4840",
		c:           &uacp.Conn{SendBufSize: 8192},
		cfg: &Config{
			SecurityPolicyURI: policy.URI,
			SecurityMode:      mode,
			SecureChannelID:   1,
			SecurityTokenID:   1,
		},
		policy:  policy,
		reqhdr:  &ua.RequestHeader{AdditionalHeader: ua.NewExtensionObject(nil)},
		handler: make(map[uint32]chan Response),
		chunks:  make(map[uint32][]*MessageChunk),
		outbound: keys,
		inbound:  keys,
	}
}

func TestBuildAndUnwrapSymmetricChunkRoundtrip(t *testing.T) {
	for _, mode := range []ua.MessageSecurityMode{ua.MessageSecurityModeSign, ua.MessageSecurityModeSignAndEncrypt} {
		t.Run(mode.String(), func(t *testing.T) {
			s := newTestChannel(t, mode)

			body := []byte("a service body that needs sign/encrypt round-tripping, long enough to span a block or two")
			msg := NewMessage(struct{}{}, s.cfg)
			msg.SequenceHeader.RequestID = 42
			msg.SequenceHeader.SequenceNumber = s.nextSequenceNumber()

			chunks, err := s.buildSymmetricChunks(msg, body)
			if err != nil {
				t.Fatalf("buildSymmetricChunks failed: %v", err)
			}
			if len(chunks) != 1 {
				t.Fatalf("got %d chunks, want 1 for a body this size", len(chunks))
			}

			chunk := new(MessageChunk)
			if _, err := chunk.Decode(chunks[0]); err != nil {
				t.Fatalf("MessageChunk.Decode failed: %v", err)
			}

			got, err := s.unwrapSymmetric(chunk)
			if err != nil {
				t.Fatalf("unwrapSymmetric failed: %v", err)
			}

			seqHdr := new(SequenceHeader)
			n, err := seqHdr.Decode(got)
			if err != nil {
				t.Fatalf("SequenceHeader.Decode failed: %v", err)
			}
			if seqHdr.RequestID != 42 {
				t.Fatalf("RequestID = %d, want 42", seqHdr.RequestID)
			}
			if !bytes.Equal(got[n:], body) {
				t.Fatalf("body mismatch after unwrap: got %q, want %q", got[n:], body)
			}
		})
	}
}

// selfSignedCert returns a DER-encoded self-signed certificate for key, so
// tests can populate cfg.RemoteCertificate the way a real OpenSecureChannel
// response's server certificate would be parsed.
func selfSignedCert(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "test-server"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate failed: %v", err)
	}
	return der
}

func TestUnwrapAsymmetricVerifiesServerSignature(t *testing.T) {
	policy := uapolicy.Basic256Sha256
	serverKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	serverCert := selfSignedCert(t, serverKey)

	s := &SecureChannel{
		c: &uacp.Conn{SendBufSize: 8192},
		cfg: &Config{
			SecurityPolicyURI: policy.URI,
			SecurityMode:      ua.MessageSecurityModeSign,
			RemoteCertificate: serverCert,
		},
		policy: policy,
	}

	body := []byte("sequence header bytes followed by an OpenSecureChannelResponse body")
	sig, err := policy.AsymSign(serverKey, body)
	if err != nil {
		t.Fatalf("AsymSign failed: %v", err)
	}

	got, err := s.unwrapAsymmetric(&MessageChunk{Data: append(append([]byte{}, body...), sig...)})
	if err != nil {
		t.Fatalf("unwrapAsymmetric rejected a validly signed response: %v", err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("unwrapAsymmetric body = %q, want %q", got, body)
	}

	tampered := append([]byte{}, body...)
	tampered[0] ^= 0xff
	if _, err := s.unwrapAsymmetric(&MessageChunk{Data: append(tampered, sig...)}); err == nil {
		t.Fatal("unwrapAsymmetric accepted a forged OpenSecureChannelResponse")
	}

	forgedKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	forgedSig, err := policy.AsymSign(forgedKey, body)
	if err != nil {
		t.Fatalf("AsymSign failed: %v", err)
	}
	if _, err := s.unwrapAsymmetric(&MessageChunk{Data: append(append([]byte{}, body...), forgedSig...)}); err == nil {
		t.Fatal("unwrapAsymmetric accepted a signature from a key other than the remote certificate's")
	}
}

func TestSequenceNumberWraparound(t *testing.T) {
	s := newTestChannel(t, ua.MessageSecurityModeNone)
	s.cfg.SequenceNumber = 0xFFFFFFFF - 1024
	got := s.nextSequenceNumber()
	if got != 1 {
		t.Fatalf("nextSequenceNumber() after near-wraparound = %d, want 1", got)
	}
}

func TestRequestIDNeverZero(t *testing.T) {
	s := newTestChannel(t, ua.MessageSecurityModeNone)
	s.cfg.RequestID = 0xFFFFFFFF
	got := s.nextRequestID()
	if got != 1 {
		t.Fatalf("nextRequestID() after wraparound = %d, want 1 (never 0)", got)
	}
}
