package uapolicy

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"

	"github.com/convertersystems/opcua-client/errors"
)

// SymmetricKeys are the three values derived from a pair of nonces:
// a signing key, an encryption key, and an IV (spec.md §4.3 step 4).
type SymmetricKeys struct {
	SigningKey []byte
	EncryptingKey []byte
	IV          []byte
}

// DeriveKeys runs the policy's P_SHA keyed-expansion function over secret
// and seed and slices the result into signing key, encryption key and IV,
// per Part 6 §6.7.5. Inbound keys are derived with (localNonce, remoteNonce)
// swapped relative to outbound; see uasc.SecureChannel.deriveKeys.
func (p *Policy) DeriveKeys(secret, seed []byte) *SymmetricKeys {
	want := p.SymSignatureSize + p.SymKeySize + p.SymBlockSize
	out := p.pSHA(secret, seed, want)
	return &SymmetricKeys{
		SigningKey:    out[:p.SymSignatureSize],
		EncryptingKey: out[p.SymSignatureSize : p.SymSignatureSize+p.SymKeySize],
		IV:            out[p.SymSignatureSize+p.SymKeySize:],
	}
}

// pSHA implements the TLS-1.1-style P_hash expansion function used by OPC UA
// key derivation: A(0) = seed, A(i) = HMAC(secret, A(i-1)),
// output = HMAC(secret, A(1)||seed) || HMAC(secret, A(2)||seed) || ...
// truncated to length bytes.
func (p *Policy) pSHA(secret, seed []byte, length int) []byte {
	h := hmac.New(p.hashFunc, secret)

	a := seed
	out := make([]byte, 0, length+p.hashFunc().Size())
	for len(out) < length {
		h.Reset()
		h.Write(a)
		a = h.Sum(nil)

		h.Reset()
		h.Write(a)
		h.Write(seed)
		out = h.Sum(out)
	}
	return out[:length]
}

// SymSign returns the HMAC of data under key, SymSignatureSize bytes long.
func (p *Policy) SymSign(key, data []byte) []byte {
	h := hmac.New(p.hashFunc, key)
	h.Write(data)
	return h.Sum(nil)
}

// SymVerify reports whether sig is the HMAC of data under key.
func (p *Policy) SymVerify(key, data, sig []byte) error {
	want := p.SymSign(key, data)
	if !hmac.Equal(want, sig) {
		return errors.New("uapolicy: symmetric signature verification failed")
	}
	return nil
}

// PadForEncryption appends PKCS#7-style padding to plaintext so that its
// length plus reserve (e.g. a trailing signature appended after padding)
// becomes a multiple of the cipher block size.
func (p *Policy) PadForEncryption(plaintext []byte, reserve int) []byte {
	if p.SymEncryptionAlgorithm == "" {
		return plaintext
	}
	return append(plaintext, p.pkcs7Pad(len(plaintext), reserve)...)
}

// SymEncrypt AES-CBC-encrypts plaintext (already padded to a block
// multiple) under key/iv. A None policy returns plaintext unchanged.
func (p *Policy) SymEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	if p.SymEncryptionAlgorithm == "" {
		return plaintext, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "uapolicy: aes.NewCipher failed")
	}
	if len(plaintext)%block.BlockSize() != 0 {
		return nil, errors.New("uapolicy: plaintext is not a block multiple")
	}
	out := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, plaintext)
	return out, nil
}

// SymDecrypt is the inverse of SymEncrypt. The result still has the
// trailing signature and, underneath it, PKCS#7 padding; the caller strips
// the signature (after verifying it) before calling StripPadding, since the
// padding length is only meaningful once the signature bytes are removed.
func (p *Policy) SymDecrypt(key, iv, ciphertext []byte) ([]byte, error) {
	if p.SymEncryptionAlgorithm == "" {
		return ciphertext, nil
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "uapolicy: aes.NewCipher failed")
	}
	if len(ciphertext)%block.BlockSize() != 0 {
		return nil, errors.New("uapolicy: ciphertext is not a block multiple")
	}
	out := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
	return out, nil
}

// NewNonce returns a cryptographically random nonce of the policy's
// NonceLength, or a single zero byte for the None policy (some servers
// reject a truly empty ClientNonce).
func (p *Policy) NewNonce() ([]byte, error) {
	n := p.NonceLength
	if n == 0 {
		return []byte{0}, nil
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, errors.Wrap(err, "uapolicy: nonce generation failed")
	}
	return b, nil
}
