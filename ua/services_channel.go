// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"time"

	"github.com/convertersystems/opcua-client/id"
)

func init() {
	Register(id.OpenSecureChannelRequest_Encoding_DefaultBinary, (*OpenSecureChannelRequest)(nil))
	Register(id.OpenSecureChannelResponse_Encoding_DefaultBinary, (*OpenSecureChannelResponse)(nil))
	Register(id.CloseSecureChannelRequest_Encoding_DefaultBinary, (*CloseSecureChannelRequest)(nil))
	Register(id.CloseSecureChannelResponse_Encoding_DefaultBinary, (*CloseSecureChannelResponse)(nil))
	Register(id.ServiceFault_Encoding_DefaultBinary, (*ServiceFault)(nil))
}

// ChannelSecurityToken identifies and bounds the lifetime of the symmetric
// keys derived for one OpenSecureChannel negotiation (spec.md §3).
type ChannelSecurityToken struct {
	ChannelID       uint32
	TokenID         uint32
	CreatedAt       time.Time
	RevisedLifetime uint32
}

// OpenSecureChannelRequest issues or renews a secure channel.
type OpenSecureChannelRequest struct {
	RequestHeader         *RequestHeader
	ClientProtocolVersion uint32
	RequestType           SecurityTokenRequestType
	SecurityMode          MessageSecurityMode
	ClientNonce           []byte
	RequestedLifetime     uint32
}

func (r *OpenSecureChannelRequest) Header() *RequestHeader       { return r.RequestHeader }
func (r *OpenSecureChannelRequest) SetHeader(h *RequestHeader)    { r.RequestHeader = h }

// OpenSecureChannelResponse carries the negotiated token and server nonce.
type OpenSecureChannelResponse struct {
	ResponseHeader        *ResponseHeader
	ServerProtocolVersion uint32
	SecurityToken         *ChannelSecurityToken
	ServerNonce           []byte
}

func (r *OpenSecureChannelResponse) Header() *ResponseHeader { return r.ResponseHeader }

// CloseSecureChannelRequest requests an orderly channel teardown.
type CloseSecureChannelRequest struct {
	RequestHeader *RequestHeader
}

func (r *CloseSecureChannelRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CloseSecureChannelRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

// CloseSecureChannelResponse is empty; most servers never send one.
type CloseSecureChannelResponse struct {
	ResponseHeader *ResponseHeader
}

func (r *CloseSecureChannelResponse) Header() *ResponseHeader { return r.ResponseHeader }

// ServiceFault is returned in place of any response when a service call
// fails outright; ResponseHeader.ServiceResult carries the StatusCode.
type ServiceFault struct {
	ResponseHeader *ResponseHeader
}

func (r *ServiceFault) Header() *ResponseHeader { return r.ResponseHeader }
