// Package uasc implements the OPC UA Secure Conversation layer: opening and
// renewing a secure channel, framing every service call as one or more
// signed/encrypted chunks, and reassembling responses (spec.md §4.3, C3).
package uasc

import (
	"crypto/rsa"
	"time"

	"github.com/convertersystems/opcua-client/ua"
)

// Config carries everything a SecureChannel needs to open and maintain
// itself: the negotiated security policy/mode, the local certificate and
// key (nil for the None policy), the peer's certificate once known, and
// the running channel/token/sequence state.
type Config struct {
	SecurityPolicyURI string
	SecurityMode      ua.MessageSecurityMode

	LocalCertificate  []byte
	LocalKey          *rsa.PrivateKey
	RemoteCertificate []byte

	// Lifetime is the requested channel lifetime in milliseconds.
	Lifetime       uint32
	RequestTimeout time.Duration

	// AutoReconnect and ReconnectInterval govern the Client's reconnect
	// loop (spec.md §4.1 connection-state machine); the SecureChannel
	// itself neither reads nor writes them.
	AutoReconnect     bool
	ReconnectInterval time.Duration

	SecureChannelID uint32
	SecurityTokenID uint32
	SequenceNumber  uint32
	RequestID       uint32
}

// SessionConfig carries the parameters of a single Session (Part 4 §5.6):
// how the client identifies itself, the requested timeout, locale
// preferences, and the user identity to activate with.
type SessionConfig struct {
	SessionName    string
	SessionTimeout time.Duration
	LocaleIDs      []string

	ClientDescription *ua.ApplicationDescription

	UserIdentityToken  interface{}
	UserTokenSignature *ua.SignatureData

	// AuthPolicyURI/AuthPassword are consulted only when UserIdentityToken
	// is a *ua.UserNameIdentityToken; ActivateSession encrypts AuthPassword
	// under it before sending.
	AuthPolicyURI string
	AuthPassword  string
}

// DefaultSessionTimeout is the session timeout requested when the caller
// does not specify one.
const DefaultSessionTimeout = 20 * time.Minute

// DefaultSessionConfig returns a SessionConfig with an anonymous identity
// token and the library's default timeout; ApplyOption overrides build on
// top of this.
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		SessionTimeout: DefaultSessionTimeout,
	}
}

// DefaultLifetime is the channel lifetime requested when the caller does
// not specify one, matching the value most servers advertise for their own
// default.
const DefaultLifetime = 60 * 60 * 1000 // 1 hour, in milliseconds

// DefaultRequestTimeout bounds how long SendRequest waits for a response
// before failing with ua.StatusBadTimeout.
const DefaultRequestTimeout = 15 * time.Second

// NewClientConfig builds the Config a client uses to open a channel with
// policy/mode against the peer certificate returned by GetEndpoints.
func NewClientConfig(policyURI string, mode ua.MessageSecurityMode, localCert []byte, localKey *rsa.PrivateKey, remoteCert []byte) *Config {
	if mode == ua.MessageSecurityModeInvalid {
		mode = ua.MessageSecurityModeNone
	}
	return &Config{
		SecurityPolicyURI: policyURI,
		SecurityMode:      mode,
		LocalCertificate:  localCert,
		LocalKey:          localKey,
		RemoteCertificate: remoteCert,
		Lifetime:          DefaultLifetime,
		RequestTimeout:    DefaultRequestTimeout,
	}
}
