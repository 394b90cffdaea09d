// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package pki is a directory-based certificate store implementing the
// two-method certificate-store interface spec.md §6 describes at the
// interface level only: get_local_certificate/validate_remote_certificate.
// It lays out three subdirectories under its root the way the C# client's
// own on-disk PKI does: own/ (the client's identity), trusted/ (server
// certificates accepted for SignAndEncrypt/Sign channels) and rejected/
// (certificates Validate refused, kept for operator inspection).
package pki

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	opcua "github.com/convertersystems/opcua-client"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
)

const (
	ownDir      = "own"
	trustedDir  = "trusted"
	rejectedDir = "rejected"

	certFile = "cert.der"
	keyFile  = "key.pem"

	pbkdf2Iterations = 100000
	pbkdf2KeyLen     = 32
)

// Store is a directory-based certificate store rooted at Dir, with own/,
// trusted/ and rejected/ subdirectories created on first use.
type Store struct {
	Dir string
}

// NewStore creates (if necessary) dir/own, dir/trusted and dir/rejected
// and returns a Store over them.
func NewStore(dir string) (*Store, error) {
	for _, sub := range []string{ownDir, trustedDir, rejectedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0700); err != nil {
			return nil, errors.Wrapf(err, "pki: create %s", sub)
		}
	}
	return &Store{Dir: dir}, nil
}

// GetLocalCertificate loads the client's own DER certificate and RSA
// private key from own/. When own/key.pem is passphrase-protected (see
// SealPrivateKey), passphrase must decrypt it; pass an empty string for an
// unencrypted key. desc is unused today (a single identity per store) but
// is part of the interface spec.md §6 describes, for stores that keep more
// than one identity.
func (s *Store) GetLocalCertificate(desc *ua.ApplicationDescription, passphrase string) ([]byte, *rsa.PrivateKey, error) {
	certPath := filepath.Join(s.Dir, ownDir, certFile)
	certDER, err := os.ReadFile(certPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "pki: read local certificate")
	}

	keyPath := filepath.Join(s.Dir, ownDir, keyFile)
	if err := checkPrivateKeyMode(keyPath); err != nil {
		return nil, nil, err
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, nil, errors.Wrap(err, "pki: read local private key")
	}

	key, err := decodePrivateKey(keyPEM, passphrase)
	if err != nil {
		return nil, nil, err
	}
	return certDER, key, nil
}

// ClientOption loads the store's local certificate and key (see
// GetLocalCertificate) and returns an opcua.Certificate Option configuring
// a Client with them, so an application can go straight from a Store to
// opcua.NewClient(endpoint, store.ClientOption(...)) without handling the
// key material itself.
func (s *Store) ClientOption(desc *ua.ApplicationDescription, passphrase string) (opcua.Option, error) {
	certDER, key, err := s.GetLocalCertificate(desc, passphrase)
	if err != nil {
		return nil, err
	}
	return opcua.Certificate(certDER, key), nil
}

// ValidateRemoteCertificate reports whether certDER matches a certificate
// already present in trusted/. A rejected certificate is copied into
// rejected/ (named by its SHA-1 thumbprint) for operator inspection,
// mirroring how the wider corpus's directory PKI stores leave a paper
// trail instead of just returning false.
func (s *Store) ValidateRemoteCertificate(certDER []byte) (bool, error) {
	if _, err := x509.ParseCertificate(certDER); err != nil {
		return false, errors.Wrap(err, "pki: parse remote certificate")
	}

	thumbprint := hex.EncodeToString(sha1Sum(certDER))
	trustedPath := filepath.Join(s.Dir, trustedDir, thumbprint+".der")
	if existing, err := os.ReadFile(trustedPath); err == nil {
		return bytes.Equal(existing, certDER), nil
	}

	rejectedPath := filepath.Join(s.Dir, rejectedDir, thumbprint+".der")
	if err := os.WriteFile(rejectedPath, certDER, 0600); err != nil {
		return false, errors.Wrap(err, "pki: write rejected certificate")
	}
	return false, nil
}

// Trust copies certDER into trusted/, named by its thumbprint, so a future
// ValidateRemoteCertificate call accepts it.
func (s *Store) Trust(certDER []byte) error {
	thumbprint := hex.EncodeToString(sha1Sum(certDER))
	return os.WriteFile(filepath.Join(s.Dir, trustedDir, thumbprint+".der"), certDER, 0600)
}

// SealPrivateKey PKCS#1-DER-encodes key and encrypts it under a key
// derived from passphrase via PBKDF2-HMAC-SHA256, writing the result to
// own/key.pem as an AES-256-GCM ciphertext PEM block. An empty passphrase
// writes the key unencrypted, matching the plain PKCS#1 PEM block
// GetLocalCertificate/decodePrivateKey falls back to.
func (s *Store) SealPrivateKey(key *rsa.PrivateKey, passphrase string) error {
	der := x509.MarshalPKCS1PrivateKey(key)
	keyPath := filepath.Join(s.Dir, ownDir, keyFile)

	if passphrase == "" {
		block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}
		return os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return errors.Wrap(err, "pki: generate salt")
	}
	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrap(err, "pki: generate nonce")
	}
	ciphertext := gcm.Seal(nil, nonce, der, nil)

	block := &pem.Block{
		Type: "ENCRYPTED RSA PRIVATE KEY",
		Headers: map[string]string{
			"Salt":  hex.EncodeToString(salt),
			"Nonce": hex.EncodeToString(nonce),
		},
		Bytes: ciphertext,
	}
	return os.WriteFile(keyPath, pem.EncodeToMemory(block), 0600)
}

func decodePrivateKey(keyPEM []byte, passphrase string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(keyPEM)
	if block == nil {
		return nil, errors.New("pki: no PEM block found in private key file")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "ENCRYPTED RSA PRIVATE KEY":
		if passphrase == "" {
			return nil, errors.New("pki: private key is encrypted, no passphrase supplied")
		}
		salt, err := hex.DecodeString(block.Headers["Salt"])
		if err != nil {
			return nil, errors.Wrap(err, "pki: decode salt")
		}
		nonce, err := hex.DecodeString(block.Headers["Nonce"])
		if err != nil {
			return nil, errors.Wrap(err, "pki: decode nonce")
		}

		gcm, err := newGCM(passphrase, salt)
		if err != nil {
			return nil, err
		}
		der, err := gcm.Open(nil, nonce, block.Bytes, nil)
		if err != nil {
			return nil, errors.Wrap(err, "pki: decrypt private key (wrong passphrase?)")
		}
		return x509.ParsePKCS1PrivateKey(der)
	default:
		return nil, errors.Errorf("pki: unsupported PEM block type %q", block.Type)
	}
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, pbkdf2KeyLen, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "pki: new cipher")
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Wrap(err, "pki: new GCM")
	}
	return gcm, nil
}

func sha1Sum(b []byte) []byte {
	sum := sha1.Sum(b)
	return sum[:]
}

// checkPrivateKeyMode rejects a key file that is readable by anyone but
// its owner, the same POSIX permission check directory PKI stores in the
// wider corpus apply before loading key material.
func checkPrivateKeyMode(path string) error {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return errors.Wrap(err, "pki: stat private key")
	}
	if st.Mode&(unix.S_IRWXG|unix.S_IRWXO) != 0 {
		return errors.Errorf("pki: private key %s is group/world accessible (mode %04o)", path, st.Mode&0777)
	}
	return nil
}

// ReadPassphrase prompts on the controlling terminal (no echo) and returns
// the entered passphrase, for callers that keep own/key.pem encrypted.
func ReadPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", errors.Wrap(err, "pki: read passphrase")
	}
	return string(b), nil
}
