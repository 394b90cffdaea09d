// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "strings"

// MessageSecurityMode selects signing/encryption for a secure channel.
type MessageSecurityMode int32

const (
	MessageSecurityModeInvalid MessageSecurityMode = 0
	MessageSecurityModeNone    MessageSecurityMode = 1
	MessageSecurityModeSign    MessageSecurityMode = 2
	MessageSecurityModeSignAndEncrypt MessageSecurityMode = 3
)

func (m MessageSecurityMode) String() string {
	switch m {
	case MessageSecurityModeNone:
		return "None"
	case MessageSecurityModeSign:
		return "Sign"
	case MessageSecurityModeSignAndEncrypt:
		return "SignAndEncrypt"
	default:
		return "Invalid"
	}
}

// SecurityTokenRequestType distinguishes a fresh channel from a renewal.
type SecurityTokenRequestType int32

const (
	SecurityTokenRequestTypeIssue SecurityTokenRequestType = 0
	SecurityTokenRequestTypeRenew SecurityTokenRequestType = 1
)

// TimestampsToReturn selects which DataValue timestamps a server populates.
type TimestampsToReturn int32

const (
	TimestampsToReturnSource TimestampsToReturn = iota
	TimestampsToReturnServer
	TimestampsToReturnBoth
	TimestampsToReturnNeither
)

// MonitoringMode is the reporting state of a MonitoredItem.
type MonitoringMode int32

const (
	MonitoringModeDisabled MonitoringMode = iota
	MonitoringModeSampling
	MonitoringModeReporting
)

// Security policy URIs (Part 7 §6.4).
const (
	SecurityPolicyURINone              = "http://opcfoundation.org/UA/SecurityPolicy#None"
	SecurityPolicyURIBasic128Rsa15     = "http://opcfoundation.org/UA/SecurityPolicy#Basic128Rsa15"
	SecurityPolicyURIBasic256          = "http://opcfoundation.org/UA/SecurityPolicy#Basic256"
	SecurityPolicyURIBasic256Sha256    = "http://opcfoundation.org/UA/SecurityPolicy#Basic256Sha256"
	SecurityPolicyURIAes128Sha256RsaOaep = "http://opcfoundation.org/UA/SecurityPolicy#Aes128_Sha256_RsaOaep"
	SecurityPolicyURIAes256Sha256RsaPss  = "http://opcfoundation.org/UA/SecurityPolicy#Aes256_Sha256_RsaPss"
)

// FormatSecurityPolicyURI normalizes a bare policy name ("None",
// "Basic256Sha256", ...) or an already-full URI to the full URI form; an
// empty string is left as-is to mean "no preference".
func FormatSecurityPolicyURI(policy string) string {
	if policy == "" || strings.HasPrefix(policy, "http://") {
		return policy
	}
	return "http://opcfoundation.org/UA/SecurityPolicy#" + policy
}

// NodeClass (Part 3 §5.2.8).
type NodeClass int32

const (
	NodeClassUnspecified NodeClass = 0
	NodeClassObject      NodeClass = 1
	NodeClassVariable    NodeClass = 2
	NodeClassMethod      NodeClass = 4
	NodeClassObjectType  NodeClass = 8
	NodeClassVariableType NodeClass = 16
	NodeClassReferenceType NodeClass = 32
	NodeClassDataType    NodeClass = 64
	NodeClassView        NodeClass = 128
)

// BrowseDirection (Part 4 §5.8.2).
type BrowseDirection int32

const (
	BrowseDirectionForward BrowseDirection = iota
	BrowseDirectionInverse
	BrowseDirectionBoth
)

// UserTokenType identifies the kind of identity an endpoint accepts.
type UserTokenType int32

const (
	UserTokenTypeAnonymous UserTokenType = iota
	UserTokenTypeUserName
	UserTokenTypeCertificate
	UserTokenTypeIssuedToken
)
