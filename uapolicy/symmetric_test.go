package uapolicy

import (
	"bytes"
	"testing"
)

func TestDeriveKeysDeterministic(t *testing.T) {
	secret := []byte("remote-nonce-bytes-000000000000")
	seed := []byte("local-nonce-bytes-0000000000000")

	k1 := Basic256Sha256.DeriveKeys(secret, seed)
	k2 := Basic256Sha256.DeriveKeys(secret, seed)

	if !bytes.Equal(k1.SigningKey, k2.SigningKey) {
		t.Fatal("DeriveKeys is not deterministic for SigningKey")
	}
	if !bytes.Equal(k1.EncryptingKey, k2.EncryptingKey) {
		t.Fatal("DeriveKeys is not deterministic for EncryptingKey")
	}
	if len(k1.SigningKey) != Basic256Sha256.SymSignatureSize {
		t.Fatalf("SigningKey length = %d, want %d", len(k1.SigningKey), Basic256Sha256.SymSignatureSize)
	}
	if len(k1.EncryptingKey) != Basic256Sha256.SymKeySize {
		t.Fatalf("EncryptingKey length = %d, want %d", len(k1.EncryptingKey), Basic256Sha256.SymKeySize)
	}
	if len(k1.IV) != Basic256Sha256.SymBlockSize {
		t.Fatalf("IV length = %d, want %d", len(k1.IV), Basic256Sha256.SymBlockSize)
	}
}

func TestDeriveKeysDirectionality(t *testing.T) {
	localNonce := []byte("0123456789abcdef0123456789abcde")
	remoteNonce := []byte("fedcba9876543210fedcba9876543210")

	outbound := Basic256Sha256.DeriveKeys(remoteNonce, localNonce)
	inbound := Basic256Sha256.DeriveKeys(localNonce, remoteNonce)

	if bytes.Equal(outbound.SigningKey, inbound.SigningKey) {
		t.Fatal("outbound and inbound signing keys must differ when nonces differ")
	}
}

func TestSymSignVerifyRoundtrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	data := []byte("a sequence header and a service body")

	sig := Basic256Sha256.SymSign(key, data)
	if err := Basic256Sha256.SymVerify(key, data, sig); err != nil {
		t.Fatalf("SymVerify failed on a valid signature: %v", err)
	}

	tampered := append([]byte{}, data...)
	tampered[0] ^= 0xff
	if err := Basic256Sha256.SymVerify(key, tampered, sig); err == nil {
		t.Fatal("SymVerify accepted a signature over tampered data")
	}
}

func TestSymEncryptDecryptRoundtrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x11}, Basic256Sha256.SymKeySize)
	iv := bytes.Repeat([]byte{0x22}, Basic256Sha256.SymBlockSize)

	plaintext := []byte("0123456789abcdef0123456789abcdef") // 32 bytes, still gets a full block of padding
	padded := Basic256Sha256.PadForEncryption(append([]byte{}, plaintext...), 0)

	ciphertext, err := Basic256Sha256.SymEncrypt(key, iv, padded)
	if err != nil {
		t.Fatalf("SymEncrypt failed: %v", err)
	}
	decrypted, err := Basic256Sha256.SymDecrypt(key, iv, ciphertext)
	if err != nil {
		t.Fatalf("SymDecrypt failed: %v", err)
	}
	unpadded, err := Basic256Sha256.StripPadding(decrypted)
	if err != nil {
		t.Fatalf("StripPadding failed: %v", err)
	}
	if !bytes.Equal(unpadded, plaintext) {
		t.Fatalf("roundtrip mismatch: got %q, want %q", unpadded, plaintext)
	}
}

func TestNewNonceLength(t *testing.T) {
	n, err := Basic256Sha256.NewNonce()
	if err != nil {
		t.Fatalf("NewNonce failed: %v", err)
	}
	if len(n) != Basic256Sha256.NonceLength {
		t.Fatalf("nonce length = %d, want %d", len(n), Basic256Sha256.NonceLength)
	}

	n, err = None.NewNonce()
	if err != nil {
		t.Fatalf("NewNonce failed for None policy: %v", err)
	}
	if len(n) != 1 {
		t.Fatalf("None policy nonce length = %d, want 1 (the single placeholder byte)", len(n))
	}
}
