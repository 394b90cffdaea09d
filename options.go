// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"crypto/rsa"
	"crypto/x509"
	"time"

	"github.com/convertersystems/opcua-client/ua"
	"github.com/convertersystems/opcua-client/uasc"
)

// Option configures the secure channel and/or session a Client will use,
// applied in order by ApplyConfig (spec.md §6 External Interfaces).
type Option func(*uasc.Config, *uasc.SessionConfig)

// ApplyConfig starts from DefaultClientConfig/DefaultSessionConfig and
// applies opts in order, matching the teacher's functional-options shape.
func ApplyConfig(opts ...Option) (*uasc.Config, *uasc.SessionConfig) {
	cfg := DefaultClientConfig()
	sessionCfg := uasc.DefaultSessionConfig()
	for _, opt := range opts {
		opt(cfg, sessionCfg)
	}
	if sessionCfg.UserIdentityToken == nil {
		AuthAnonymous()(cfg, sessionCfg)
	}
	return cfg, sessionCfg
}

// DefaultClientConfig returns a Config requesting no security, suitable for
// servers that only expose a None/None endpoint or for discovery.
func DefaultClientConfig() *uasc.Config {
	return &uasc.Config{
		SecurityPolicyURI: ua.SecurityPolicyURINone,
		SecurityMode:      ua.MessageSecurityModeNone,
		Lifetime:          uasc.DefaultLifetime,
		RequestTimeout:    uasc.DefaultRequestTimeout,
		AutoReconnect:     true,
		ReconnectInterval: 2 * time.Second,
	}
}

// SecurityPolicy sets the security policy by name or full URI (e.g.
// "Basic256Sha256" or the full "http://opcfoundation.org/..." form).
func SecurityPolicy(policy string) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.SecurityPolicyURI = ua.FormatSecurityPolicyURI(policy)
	}
}

// SecurityMode sets the message security mode (None, Sign, SignAndEncrypt).
func SecurityMode(mode ua.MessageSecurityMode) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.SecurityMode = mode
	}
}

// SecurityFromEndpoint copies the policy, mode and server certificate from
// an EndpointDescription returned by GetEndpoints, the usual way a client
// picks its channel security (spec.md §4.4 step 1).
func SecurityFromEndpoint(ep *ua.EndpointDescription, auth ua.UserTokenType) Option {
	return func(cfg *uasc.Config, sessionCfg *uasc.SessionConfig) {
		cfg.SecurityPolicyURI = ep.SecurityPolicyURI
		cfg.SecurityMode = ep.SecurityMode
		cfg.RemoteCertificate = ep.ServerCertificate
		for _, t := range ep.UserIdentityTokens {
			if t.TokenType == auth {
				sessionCfg.AuthPolicyURI = t.SecurityPolicyURI
				break
			}
		}
	}
}

// Certificate sets the client's own DER-encoded certificate and matching
// RSA private key, required by every policy other than None.
func Certificate(cert []byte, key *rsa.PrivateKey) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.LocalCertificate = cert
		cfg.LocalKey = key
	}
}

// CertificateFile is the same as Certificate: it takes DER certificate
// bytes and a parsed key that the caller has already loaded (for example
// through pki.Store) and reads no file itself.
func CertificateFile(certDER []byte, key *rsa.PrivateKey) Option {
	return Certificate(certDER, key)
}

// RemoteCertificate sets the server certificate to open the channel
// against, when it was obtained out of band instead of via
// SecurityFromEndpoint.
func RemoteCertificate(cert *x509.Certificate) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.RemoteCertificate = cert.Raw
	}
}

// Lifetime requests a non-default secure-channel lifetime.
func Lifetime(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.Lifetime = uint32(d / time.Millisecond)
	}
}

// RequestTimeout bounds how long Client.Send waits for a response.
func RequestTimeout(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.RequestTimeout = d
	}
}

// AutoReconnect toggles the Client's reconnect loop (spec.md §4.1); on by
// default.
func AutoReconnect(b bool) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.AutoReconnect = b
	}
}

// ReconnectInterval sets the delay after the first failed reconnect
// attempt; the delay doubles after each further failure up to 20s, and a
// non-positive d means 2s.
func ReconnectInterval(d time.Duration) Option {
	return func(cfg *uasc.Config, _ *uasc.SessionConfig) {
		cfg.ReconnectInterval = d
	}
}

// SessionName sets the human-readable session name sent in CreateSession.
func SessionName(name string) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.SessionName = name
	}
}

// SessionTimeout requests a non-default session timeout.
func SessionTimeout(d time.Duration) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.SessionTimeout = d
	}
}

// ClientDescription sets the ApplicationDescription sent in CreateSession.
func ClientDescription(desc *ua.ApplicationDescription) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.ClientDescription = desc
	}
}

// Locales sets the preferred locale identifiers for localized text
// responses.
func Locales(ids ...string) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.LocaleIDs = ids
	}
}
