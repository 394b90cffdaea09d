package uapolicy

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"

	"github.com/convertersystems/opcua-client/errors"
)

// RSAPublicKey extracts the RSA public key from an X.509 certificate,
// returning an error if the certificate uses a different key algorithm
// (OPC UA's RSA-based security policies cannot use it).
func RSAPublicKey(cert *x509.Certificate) (*rsa.PublicKey, error) {
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, errors.Errorf("uapolicy: certificate key is %T, want *rsa.PublicKey", cert.PublicKey)
	}
	return pub, nil
}

// AsymSign signs data with priv using the policy's asymmetric signature
// algorithm; used only to sign the OPN request/response body (spec.md §4.3
// step 2).
func (p *Policy) AsymSign(priv *rsa.PrivateKey, data []byte) ([]byte, error) {
	switch p.AsymSignatureAlgorithm {
	case "RSA-SHA1":
		sum := sha1.Sum(data)
		return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA1, sum[:])
	case "RSA-SHA256":
		sum := sha256.Sum256(data)
		return rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, sum[:])
	case "RSA-PSS-SHA256":
		sum := sha256.Sum256(data)
		return rsa.SignPSS(rand.Reader, priv, crypto.SHA256, sum[:], &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	default:
		return nil, errors.Errorf("uapolicy: unknown asymmetric signature algorithm %q", p.AsymSignatureAlgorithm)
	}
}

// AsymVerify checks sig over data against pub.
func (p *Policy) AsymVerify(pub *rsa.PublicKey, data, sig []byte) error {
	switch p.AsymSignatureAlgorithm {
	case "RSA-SHA1":
		sum := sha1.Sum(data)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA1, sum[:], sig)
	case "RSA-SHA256":
		sum := sha256.Sum256(data)
		return rsa.VerifyPKCS1v15(pub, crypto.SHA256, sum[:], sig)
	case "RSA-PSS-SHA256":
		sum := sha256.Sum256(data)
		return rsa.VerifyPSS(pub, crypto.SHA256, sum[:], sig, &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash})
	default:
		return errors.Errorf("uapolicy: unknown asymmetric signature algorithm %q", p.AsymSignatureAlgorithm)
	}
}

// AsymEncrypt encrypts plaintext (at most AsymPlaintextBlockSize(pub) bytes)
// under the server's public key, used to protect the ClientNonce/UserName
// password payloads.
func (p *Policy) AsymEncrypt(pub *rsa.PublicKey, plaintext []byte) ([]byte, error) {
	switch p.AsymEncryptionAlgorithm {
	case "RSA-PKCS1V15":
		return rsa.EncryptPKCS1v15(rand.Reader, pub, plaintext)
	case "RSA-OAEP-SHA1":
		return rsa.EncryptOAEP(sha1.New(), rand.Reader, pub, plaintext, nil)
	case "RSA-OAEP-SHA256":
		return rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, plaintext, nil)
	default:
		return nil, errors.Errorf("uapolicy: unknown asymmetric encryption algorithm %q", p.AsymEncryptionAlgorithm)
	}
}

// AsymDecrypt is the inverse of AsymEncrypt using the local private key.
func (p *Policy) AsymDecrypt(priv *rsa.PrivateKey, ciphertext []byte) ([]byte, error) {
	switch p.AsymEncryptionAlgorithm {
	case "RSA-PKCS1V15":
		return rsa.DecryptPKCS1v15(rand.Reader, priv, ciphertext)
	case "RSA-OAEP-SHA1":
		return rsa.DecryptOAEP(sha1.New(), rand.Reader, priv, ciphertext, nil)
	case "RSA-OAEP-SHA256":
		return rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	default:
		return nil, errors.Errorf("uapolicy: unknown asymmetric encryption algorithm %q", p.AsymEncryptionAlgorithm)
	}
}

// AsymPlaintextBlockSize is the maximum number of plaintext bytes
// AsymEncrypt can take for a key of pub's size under this policy's padding
// scheme.
func (p *Policy) AsymPlaintextBlockSize(pub *rsa.PublicKey) int {
	keyBytes := pub.Size()
	switch p.AsymEncryptionAlgorithm {
	case "RSA-PKCS1V15":
		return keyBytes - 11
	case "RSA-OAEP-SHA1":
		return keyBytes - 2*sha1.Size - 2
	case "RSA-OAEP-SHA256":
		return keyBytes - 2*sha256.Size - 2
	default:
		return 0
	}
}

// AsymCipherTextBlockSize is the ciphertext size produced per plaintext
// block, equal to the RSA modulus size in bytes.
func (p *Policy) AsymCipherTextBlockSize(pub *rsa.PublicKey) int {
	return pub.Size()
}

// AsymSignatureSize is the signature length produced by AsymSign for a key
// of priv's size: one RSA modulus width.
func (p *Policy) AsymSignatureSize(priv *rsa.PrivateKey) int {
	return priv.Size()
}
