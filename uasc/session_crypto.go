package uasc

import (
	"crypto/x509"

	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/uapolicy"
)

// NewSessionSignature signs serverCertificate||serverNonce with the
// channel's local key, producing the ClientSignature CreateSession/
// ActivateSession prove possession of the local certificate with
// (Part 4 §5.6.2/5.6.3). Returns a nil signature and no error when the
// channel's policy is None, since there is no key to sign with.
func (s *SecureChannel) NewSessionSignature(serverCertificate, serverNonce []byte) ([]byte, string, error) {
	if s.policy.IsNone() {
		return nil, "", nil
	}
	sig, err := s.policy.AsymSign(s.cfg.LocalKey, concat(serverCertificate, serverNonce))
	if err != nil {
		return nil, "", errors.Wrap(err, "uasc: session signature failed")
	}
	return sig, s.policy.AsymSignatureAlgorithm, nil
}

// VerifySessionSignature checks the server's signature over
// localCertificate||clientNonce against the public key parsed from
// serverCertificate.
func (s *SecureChannel) VerifySessionSignature(serverCertificate, clientNonce, signature []byte) error {
	if s.policy.IsNone() {
		return nil
	}
	cert, err := x509.ParseCertificate(serverCertificate)
	if err != nil {
		return errors.Wrap(err, "uasc: parse server certificate failed")
	}
	pub, err := uapolicy.RSAPublicKey(cert)
	if err != nil {
		return err
	}
	return s.policy.AsymVerify(pub, concat(s.cfg.LocalCertificate, clientNonce), signature)
}

// NewUserTokenSignature signs serverCertificate||serverNonce the same way
// NewSessionSignature does, for an X509IdentityToken's UserTokenSignature;
// policyURI lets a future multi-policy identity token use a different
// algorithm than the channel's own, though today they coincide.
func (s *SecureChannel) NewUserTokenSignature(policyURI string, serverCertificate, serverNonce []byte) ([]byte, string, error) {
	return s.NewSessionSignature(serverCertificate, serverNonce)
}

// EncryptUserPassword encrypts a UserNameIdentityToken's password under the
// server's certificate, per Part 4 §7.35.2: the plaintext is
// password||serverNonce, length-prefixed as a UA ByteString before
// encryption. policyURI selects which uapolicy.Policy governs the
// encryption; servers that advertise no user-token security policy fall
// back to the channel's own policy.
func (s *SecureChannel) EncryptUserPassword(policyURI string, password string, serverCertificate, serverNonce []byte) ([]byte, string, error) {
	policy := s.policy
	if policyURI != "" {
		p, err := uapolicy.ByURI(policyURI)
		if err == nil {
			policy = p
		}
	}
	if policy.IsNone() {
		return []byte(password), "", nil
	}

	cert, err := x509.ParseCertificate(serverCertificate)
	if err != nil {
		return nil, "", errors.Wrap(err, "uasc: parse server certificate failed")
	}
	pub, err := uapolicy.RSAPublicKey(cert)
	if err != nil {
		return nil, "", err
	}

	plain := append([]byte(password), serverNonce...)
	length := uint32(len(plain))
	lenPrefixed := append([]byte{byte(length), byte(length >> 8), byte(length >> 16), byte(length >> 24)}, plain...)

	enc, err := policy.AsymEncrypt(pub, lenPrefixed)
	if err != nil {
		return nil, "", errors.Wrap(err, "uasc: encrypt user password failed")
	}
	return enc, policy.AsymEncryptionAlgorithm, nil
}
