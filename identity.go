// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"github.com/convertersystems/opcua-client/ua"
	"github.com/convertersystems/opcua-client/uasc"
)

// AuthAnonymous configures the session to authenticate with an
// AnonymousIdentityToken (spec.md §4.4, the default when no other Auth*
// option is given).
func AuthAnonymous() Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.UserIdentityToken = &ua.AnonymousIdentityToken{}
	}
}

// AuthUsername configures the session to authenticate with a username and
// password, encrypted under the server's certificate by
// SecureChannel.EncryptUserPassword at ActivateSession time.
func AuthUsername(user, pass string) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.UserIdentityToken = &ua.UserNameIdentityToken{UserName: user}
		sessionCfg.AuthPassword = pass
	}
}

// AuthCertificate configures the session to authenticate by proving
// possession of certDER's private key via an X509IdentityToken; the
// corresponding signature is computed with the channel's own LocalKey
// (Certificate must also be set).
func AuthCertificate(certDER []byte) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.UserIdentityToken = &ua.X509IdentityToken{CertificateData: certDER}
	}
}

// AuthIssuedToken configures the session to authenticate with an opaque
// token obtained out of band (e.g. a SAML or JWT assertion).
func AuthIssuedToken(token []byte) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		sessionCfg.UserIdentityToken = &ua.IssuedIdentityToken{TokenData: token}
	}
}

// AuthPolicyID overrides the PolicyID field of whichever identity token is
// already configured, used once CreateSession has returned the server's
// advertised policy ids.
func AuthPolicyID(policyID string) Option {
	return func(_ *uasc.Config, sessionCfg *uasc.SessionConfig) {
		switch tok := sessionCfg.UserIdentityToken.(type) {
		case *ua.AnonymousIdentityToken:
			tok.PolicyID = policyID
		case *ua.UserNameIdentityToken:
			tok.PolicyID = policyID
		case *ua.X509IdentityToken:
			tok.PolicyID = policyID
		case *ua.IssuedIdentityToken:
			tok.PolicyID = policyID
		}
	}
}
