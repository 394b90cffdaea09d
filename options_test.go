package opcua

import (
	"testing"
	"time"

	"github.com/convertersystems/opcua-client/ua"
)

func TestApplyConfigDefaultsToAnonymous(t *testing.T) {
	cfg, sessionCfg := ApplyConfig()
	if cfg.SecurityPolicyURI != ua.SecurityPolicyURINone {
		t.Errorf("SecurityPolicyURI = %s, want None", cfg.SecurityPolicyURI)
	}
	if _, ok := sessionCfg.UserIdentityToken.(*ua.AnonymousIdentityToken); !ok {
		t.Errorf("UserIdentityToken = %T, want *ua.AnonymousIdentityToken", sessionCfg.UserIdentityToken)
	}
}

func TestApplyConfigAuthUsernameSkipsAnonymousFallback(t *testing.T) {
	_, sessionCfg := ApplyConfig(AuthUsername("alice", "secret"))
	tok, ok := sessionCfg.UserIdentityToken.(*ua.UserNameIdentityToken)
	if !ok {
		t.Fatalf("UserIdentityToken = %T, want *ua.UserNameIdentityToken", sessionCfg.UserIdentityToken)
	}
	if tok.UserName != "alice" {
		t.Errorf("UserName = %q, want alice", tok.UserName)
	}
	if sessionCfg.AuthPassword != "secret" {
		t.Errorf("AuthPassword = %q, want secret", sessionCfg.AuthPassword)
	}
}

func TestAuthPolicyIDAppliesToConfiguredToken(t *testing.T) {
	_, sessionCfg := ApplyConfig(AuthUsername("bob", "pw"), AuthPolicyID("policy1"))
	tok := sessionCfg.UserIdentityToken.(*ua.UserNameIdentityToken)
	if tok.PolicyID != "policy1" {
		t.Errorf("PolicyID = %q, want policy1", tok.PolicyID)
	}
}

func TestSecurityFromEndpointCopiesChannelSecurity(t *testing.T) {
	ep := &ua.EndpointDescription{
		SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256,
		SecurityMode:      ua.MessageSecurityModeSignAndEncrypt,
		ServerCertificate: []byte{1, 2, 3},
		UserIdentityTokens: []*ua.UserTokenPolicy{
			{TokenType: ua.UserTokenTypeUserName, SecurityPolicyURI: ua.SecurityPolicyURIBasic256Sha256},
		},
	}
	cfg, sessionCfg := ApplyConfig(SecurityFromEndpoint(ep, ua.UserTokenTypeUserName))
	if cfg.SecurityPolicyURI != ua.SecurityPolicyURIBasic256Sha256 {
		t.Errorf("SecurityPolicyURI = %s, want Basic256Sha256", cfg.SecurityPolicyURI)
	}
	if cfg.SecurityMode != ua.MessageSecurityModeSignAndEncrypt {
		t.Errorf("SecurityMode = %v, want SignAndEncrypt", cfg.SecurityMode)
	}
	if string(cfg.RemoteCertificate) != "\x01\x02\x03" {
		t.Errorf("RemoteCertificate = %v, want [1 2 3]", cfg.RemoteCertificate)
	}
	if sessionCfg.AuthPolicyURI != ua.SecurityPolicyURIBasic256Sha256 {
		t.Errorf("AuthPolicyURI = %s, want Basic256Sha256", sessionCfg.AuthPolicyURI)
	}
}

func TestLifetimeConvertsToMilliseconds(t *testing.T) {
	cfg, _ := ApplyConfig(Lifetime(30 * time.Second))
	if cfg.Lifetime != 30000 {
		t.Errorf("Lifetime = %d, want 30000", cfg.Lifetime)
	}
}
