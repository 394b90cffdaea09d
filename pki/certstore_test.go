package pki

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func selfSignedCert(t *testing.T, key *rsa.PrivateKey) []byte {
	t.Helper()
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "pki-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	return der
}

func TestNewStoreCreatesLayout(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for _, sub := range []string{ownDir, trustedDir, rejectedDir} {
		if fi, err := filepath.Glob(filepath.Join(s.Dir, sub)); err != nil || len(fi) != 1 {
			t.Errorf("subdirectory %s not created: %v", sub, err)
		}
	}
}

func TestSealAndLoadPrivateKeyUnencrypted(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if err := s.SealPrivateKey(key, ""); err != nil {
		t.Fatalf("SealPrivateKey: %v", err)
	}

	certDER := selfSignedCert(t, key)
	certPath := filepath.Join(s.Dir, ownDir, certFile)
	if err := os.WriteFile(certPath, certDER, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}

	gotCert, gotKey, err := s.GetLocalCertificate(nil, "")
	if err != nil {
		t.Fatalf("GetLocalCertificate: %v", err)
	}
	if string(gotCert) != string(certDER) {
		t.Errorf("certificate round-trip mismatch")
	}
	if gotKey.D.Cmp(key.D) != 0 {
		t.Errorf("private key round-trip mismatch")
	}
}

func TestSealAndLoadPrivateKeyEncrypted(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if err := s.SealPrivateKey(key, "correct horse battery staple"); err != nil {
		t.Fatalf("SealPrivateKey: %v", err)
	}

	certDER := selfSignedCert(t, key)
	if err := os.WriteFile(filepath.Join(s.Dir, ownDir, certFile), certDER, 0644); err != nil {
		t.Fatalf("write cert: %v", err)
	}

	if _, _, err := s.GetLocalCertificate(nil, "wrong passphrase"); err == nil {
		t.Fatal("GetLocalCertificate with wrong passphrase: want error, got nil")
	}

	_, gotKey, err := s.GetLocalCertificate(nil, "correct horse battery staple")
	if err != nil {
		t.Fatalf("GetLocalCertificate: %v", err)
	}
	if gotKey.D.Cmp(key.D) != 0 {
		t.Errorf("private key round-trip mismatch")
	}
}

func TestValidateRemoteCertificate(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	certDER := selfSignedCert(t, key)

	ok, err := s.ValidateRemoteCertificate(certDER)
	if err != nil {
		t.Fatalf("ValidateRemoteCertificate: %v", err)
	}
	if ok {
		t.Fatal("untrusted certificate validated true, want false")
	}
	if fi, _ := filepath.Glob(filepath.Join(s.Dir, rejectedDir, "*.der")); len(fi) != 1 {
		t.Errorf("rejected certificate was not filed, got %d files", len(fi))
	}

	if err := s.Trust(certDER); err != nil {
		t.Fatalf("Trust: %v", err)
	}
	ok, err = s.ValidateRemoteCertificate(certDER)
	if err != nil {
		t.Fatalf("ValidateRemoteCertificate: %v", err)
	}
	if !ok {
		t.Fatal("trusted certificate validated false, want true")
	}
}
