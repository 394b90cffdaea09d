// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "github.com/convertersystems/opcua-client/id"

func init() {
	Register(id.GetEndpointsRequest_Encoding_DefaultBinary, (*GetEndpointsRequest)(nil))
	Register(id.GetEndpointsResponse_Encoding_DefaultBinary, (*GetEndpointsResponse)(nil))
	Register(id.CreateSessionRequest_Encoding_DefaultBinary, (*CreateSessionRequest)(nil))
	Register(id.CreateSessionResponse_Encoding_DefaultBinary, (*CreateSessionResponse)(nil))
	Register(id.ActivateSessionRequest_Encoding_DefaultBinary, (*ActivateSessionRequest)(nil))
	Register(id.ActivateSessionResponse_Encoding_DefaultBinary, (*ActivateSessionResponse)(nil))
	Register(id.CloseSessionRequest_Encoding_DefaultBinary, (*CloseSessionRequest)(nil))
	Register(id.CloseSessionResponse_Encoding_DefaultBinary, (*CloseSessionResponse)(nil))
	Register(id.AnonymousIdentityToken_Encoding_DefaultBinary, (*AnonymousIdentityToken)(nil))
	Register(id.UserNameIdentityToken_Encoding_DefaultBinary, (*UserNameIdentityToken)(nil))
	Register(id.X509IdentityToken_Encoding_DefaultBinary, (*X509IdentityToken)(nil))
	Register(id.IssuedIdentityToken_Encoding_DefaultBinary, (*IssuedIdentityToken)(nil))
}

// ApplicationDescription identifies a client or server application.
type ApplicationDescription struct {
	ApplicationURI      string
	ProductURI          string
	ApplicationName     *LocalizedText
	ApplicationType     int32
	GatewayServerURI    string
	DiscoveryProfileURI string
	DiscoveryURLs       []string
}

// UserTokenPolicy describes one identity an endpoint will accept.
type UserTokenPolicy struct {
	PolicyID          string
	TokenType         UserTokenType
	IssuedTokenType   string
	IssuerEndpointURL string
	SecurityPolicyURI string
}

// EndpointDescription is one (URL, security, identity-policy) combination a
// server advertises via GetEndpoints.
type EndpointDescription struct {
	EndpointURL         string
	Server              *ApplicationDescription
	ServerCertificate   []byte
	SecurityMode        MessageSecurityMode
	SecurityPolicyURI   string
	UserIdentityTokens  []*UserTokenPolicy
	TransportProfileURI string
	SecurityLevel       byte
}

// SignatureData is an algorithm name plus the signature bytes it produced.
type SignatureData struct {
	Algorithm string
	Signature []byte
}

// SignedSoftwareCertificate is unused by this client beyond passing an
// empty slice in ActivateSessionRequest, as spec.md §4.4 describes.
type SignedSoftwareCertificate struct {
	CertificateData []byte
	Signature       []byte
}

// GetEndpointsRequest is issued on a temporary None/None channel during
// discovery pre-flight (spec.md §4.4 step 1).
type GetEndpointsRequest struct {
	RequestHeader *RequestHeader
	EndpointURL   string
	LocaleIDs     []string
	ProfileURIs   []string
}

func (r *GetEndpointsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *GetEndpointsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type GetEndpointsResponse struct {
	ResponseHeader *ResponseHeader
	Endpoints      []*EndpointDescription
}

func (r *GetEndpointsResponse) Header() *ResponseHeader { return r.ResponseHeader }

// CreateSessionRequest opens a new session on an already-open secure
// channel.
type CreateSessionRequest struct {
	RequestHeader           *RequestHeader
	ClientDescription       *ApplicationDescription
	ServerURI               string
	EndpointURL             string
	SessionName             string
	ClientNonce             []byte
	ClientCertificate       []byte
	RequestedSessionTimeout float64
	MaxResponseMessageSize  uint32
}

func (r *CreateSessionRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CreateSessionRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type CreateSessionResponse struct {
	ResponseHeader             *ResponseHeader
	SessionID                  *NodeId
	AuthenticationToken        *NodeId
	RevisedSessionTimeout      float64
	ServerNonce                []byte
	ServerCertificate          []byte
	ServerEndpoints            []*EndpointDescription
	ServerSoftwareCertificates []*SignedSoftwareCertificate
	ServerSignature            *SignatureData
	MaxRequestMessageSize      uint32
}

func (r *CreateSessionResponse) Header() *ResponseHeader { return r.ResponseHeader }

// ActivateSessionRequest binds a UserIdentityToken to an open session,
// either right after CreateSession or again on reconnect/reactivation.
type ActivateSessionRequest struct {
	RequestHeader              *RequestHeader
	ClientSignature            *SignatureData
	ClientSoftwareCertificates []*SignedSoftwareCertificate
	LocaleIDs                  []string
	UserIdentityToken          *ExtensionObject
	UserTokenSignature         *SignatureData
}

func (r *ActivateSessionRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *ActivateSessionRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type ActivateSessionResponse struct {
	ResponseHeader  *ResponseHeader
	ServerNonce     []byte
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

func (r *ActivateSessionResponse) Header() *ResponseHeader { return r.ResponseHeader }

// CloseSessionRequest ends a session; DeleteSubscriptions controls whether
// the server also tears down subscriptions the session owns.
type CloseSessionRequest struct {
	RequestHeader       *RequestHeader
	DeleteSubscriptions bool
}

func (r *CloseSessionRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CloseSessionRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type CloseSessionResponse struct {
	ResponseHeader *ResponseHeader
}

func (r *CloseSessionResponse) Header() *ResponseHeader { return r.ResponseHeader }

// AnonymousIdentityToken carries no secret, just the chosen policy id.
type AnonymousIdentityToken struct {
	PolicyID string
}

// UserNameIdentityToken carries a username and an (optionally encrypted)
// password, per spec.md §4.4.
type UserNameIdentityToken struct {
	PolicyID            string
	UserName            string
	Password            []byte
	EncryptionAlgorithm string
}

// X509IdentityToken authenticates by certificate; the accompanying
// UserTokenSignature on ActivateSessionRequest proves possession of the
// matching private key.
type X509IdentityToken struct {
	PolicyID        string
	CertificateData []byte
}

// IssuedIdentityToken carries an opaque token obtained out of band (e.g. a
// SAML or JWT assertion).
type IssuedIdentityToken struct {
	PolicyID            string
	TokenData           []byte
	EncryptionAlgorithm string
}
