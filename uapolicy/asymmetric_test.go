package uapolicy

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"
)

func genKey(t *testing.T, bits int) *rsa.PrivateKey {
	t.Helper()
	k, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	return k
}

func TestAsymSignVerifyRoundtrip(t *testing.T) {
	for _, p := range []*Policy{Basic128Rsa15, Basic256Sha256, Aes256Sha256RsaPss} {
		t.Run(p.URI, func(t *testing.T) {
			key := genKey(t, 2048)
			data := []byte("open secure channel request body")

			sig, err := p.AsymSign(key, data)
			if err != nil {
				t.Fatalf("AsymSign failed: %v", err)
			}
			if len(sig) != p.AsymSignatureSize(key) {
				t.Fatalf("signature length = %d, want %d", len(sig), p.AsymSignatureSize(key))
			}
			if err := p.AsymVerify(&key.PublicKey, data, sig); err != nil {
				t.Fatalf("AsymVerify rejected a valid signature: %v", err)
			}

			tampered := append([]byte{}, data...)
			tampered[0] ^= 0xff
			if err := p.AsymVerify(&key.PublicKey, tampered, sig); err == nil {
				t.Fatal("AsymVerify accepted a signature over tampered data")
			}
		})
	}
}

func TestAsymEncryptDecryptRoundtrip(t *testing.T) {
	for _, p := range []*Policy{Basic128Rsa15, Basic256, Aes256Sha256RsaPss} {
		t.Run(p.URI, func(t *testing.T) {
			key := genKey(t, 2048)
			plaintext := bytes.Repeat([]byte{0x5a}, p.AsymPlaintextBlockSize(&key.PublicKey))

			ciphertext, err := p.AsymEncrypt(&key.PublicKey, plaintext)
			if err != nil {
				t.Fatalf("AsymEncrypt failed: %v", err)
			}
			if len(ciphertext) != p.AsymCipherTextBlockSize(&key.PublicKey) {
				t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), p.AsymCipherTextBlockSize(&key.PublicKey))
			}

			decrypted, err := p.AsymDecrypt(key, ciphertext)
			if err != nil {
				t.Fatalf("AsymDecrypt failed: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Fatalf("roundtrip mismatch: got %x, want %x", decrypted, plaintext)
			}
		})
	}
}
