// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import "fmt"

// StatusCode is the 32-bit packed result code defined in Part 6 Annex A:
// severity in bits 30-31, sub-code in bits 16-27, structure-changed in bit
// 15, semantics-changed in bit 14, info-type in bits 10-11 and info bits in
// bits 0-9. It is immutable; all arithmetic is on the raw uint32 and it
// satisfies the error interface so service faults can be returned directly.
type StatusCode uint32

const (
	severityMask      = 0xC0000000
	subCodeMask       = 0x0FFF0000
	structureChanged  = 0x00008000
	semanticsChanged  = 0x00004000
	infoTypeMask      = 0x00000C00
	infoBitsMask      = 0x000003FF
	infoTypeDataValue = 0x00000400
)

// Severity levels, bits 30-31.
const (
	SeverityGood      = 0x00000000
	SeverityUncertain = 0x40000000
	SeverityBad       = 0x80000000
)

// Common status codes used throughout C2-C5. The sub-code values match the
// well-known OPC UA StatusCodes enumeration (Part 6 Annex A).
const (
	StatusOK                           StatusCode = 0x00000000
	StatusUncertain                    StatusCode = SeverityUncertain
	StatusBad                          StatusCode = SeverityBad
	StatusBadUnexpectedError           StatusCode = 0x80010000
	StatusBadDecodingError             StatusCode = 0x80070000
	StatusBadEncodingError             StatusCode = 0x80060000
	StatusBadEncodingLimitsExceeded    StatusCode = 0x80080000
	StatusBadUnknownResponse           StatusCode = 0x80090000
	StatusBadTimeout                   StatusCode = 0x800A0000
	StatusBadServiceUnsupported        StatusCode = 0x800B0000
	StatusBadShutdown                  StatusCode = 0x800C0000
	StatusBadNoCommunication           StatusCode = 0x80310000
	StatusBadConnectionClosed          StatusCode = 0x80AE0000
	StatusBadInvalidState              StatusCode = 0x80AF0000
	StatusBadOperationCancelled        StatusCode = 0x80420000
	StatusBadRequestInterrupted        StatusCode = 0x80840000
	StatusBadRequestTimeout            StatusCode = 0x80850000
	StatusBadSecureChannelClosed       StatusCode = 0x80860000
	StatusBadSecureChannelTokenUnknown StatusCode = 0x80870000
	StatusBadSequenceNumberInvalid     StatusCode = 0x80880000
	StatusBadSequenceNumberUnknown     StatusCode = 0x807A0000
	StatusBadTcpMessageTypeInvalid     StatusCode = 0x807E0000
	StatusBadTcpMessageTooLarge        StatusCode = 0x80800000
	StatusBadTcpNotEnoughResources     StatusCode = 0x80810000
	StatusBadTcpInternalError          StatusCode = 0x80820000
	StatusBadTcpEndpointURLInvalid     StatusCode = 0x80830000
	StatusBadSecurityChecksFailed      StatusCode = 0x80130000
	StatusBadCertificateInvalid        StatusCode = 0x80120000
	StatusBadCertificateHostNameInvalid StatusCode = 0x80160000
	StatusBadCertificateUntrusted      StatusCode = 0x801A0000
	StatusBadIdentityTokenInvalid      StatusCode = 0x80200000
	StatusBadIdentityTokenRejected     StatusCode = 0x80210000
	StatusBadUserAccessDenied          StatusCode = 0x801F0000
	StatusBadSessionIDInvalid          StatusCode = 0x80250000
	StatusBadSessionClosed             StatusCode = 0x80260000
	StatusBadSessionNotActivated       StatusCode = 0x80270000
	StatusBadTooManySessions           StatusCode = 0x80560000
	StatusBadSecureChannelIDInvalid    StatusCode = 0x80220000
	StatusBadSubscriptionIDInvalid     StatusCode = 0x80280000
	StatusBadNoSubscription            StatusCode = 0x80790000
	StatusBadTooManyPublishRequests    StatusCode = 0x80780000
	StatusBadMessageNotAvailable       StatusCode = 0x807B0000
	StatusBadTimestampsToReturnInvalid StatusCode = 0x802B0000
	StatusBadNodeIDInvalid             StatusCode = 0x80330000
	StatusBadNodeIDUnknown             StatusCode = 0x80340000
	StatusBadAttributeIDInvalid        StatusCode = 0x80350000
	StatusBadDataTypeIDUnknown         StatusCode = 0x80110000
	StatusGoodSubscriptionTransferred  StatusCode = 0x002D0000
)

// Error implements the error interface so service faults can be returned
// verbatim from any client method.
func (s StatusCode) Error() string {
	return fmt.Sprintf("%s (0x%08X)", s.Name(), uint32(s))
}

// Severity returns the 2-bit severity field.
func (s StatusCode) Severity() uint32 {
	return uint32(s) & severityMask
}

// IsGood reports whether the severity is Good.
func (s StatusCode) IsGood() bool { return s.Severity() == SeverityGood }

// IsUncertain reports whether the severity is Uncertain.
func (s StatusCode) IsUncertain() bool { return s.Severity() == SeverityUncertain }

// IsBad reports whether the severity is Bad.
func (s StatusCode) IsBad() bool { return s.Severity() == SeverityBad }

// StructureChanged reports bit 15.
func (s StatusCode) StructureChanged() bool { return uint32(s)&structureChanged != 0 }

// SemanticsChanged reports bit 14.
func (s StatusCode) SemanticsChanged() bool { return uint32(s)&semanticsChanged != 0 }

// Overflow reports the info-bits overflow flag, valid only when the
// info-type field equals DataValue (bits 10-11 == 1).
func (s StatusCode) Overflow() bool {
	if uint32(s)&infoTypeMask != infoTypeDataValue {
		return false
	}
	return uint32(s)&0x00000080 != 0
}

// Name returns the symbolic name of the status code if known, otherwise a
// generic label carrying the severity.
func (s StatusCode) Name() string {
	if name, ok := statusCodeNames[s]; ok {
		return name
	}
	switch s.Severity() {
	case SeverityGood:
		return "Good"
	case SeverityUncertain:
		return "Uncertain"
	default:
		return "Bad"
	}
}

var statusCodeNames = map[StatusCode]string{
	StatusOK:                            "Good",
	StatusBadUnexpectedError:            "BadUnexpectedError",
	StatusBadDecodingError:              "BadDecodingError",
	StatusBadEncodingError:              "BadEncodingError",
	StatusBadEncodingLimitsExceeded:      "BadEncodingLimitsExceeded",
	StatusBadUnknownResponse:            "BadUnknownResponse",
	StatusBadTimeout:                    "BadTimeout",
	StatusBadServiceUnsupported:         "BadServiceUnsupported",
	StatusBadShutdown:                   "BadShutdown",
	StatusBadNoCommunication:            "BadNoCommunication",
	StatusBadConnectionClosed:           "BadConnectionClosed",
	StatusBadInvalidState:               "BadInvalidState",
	StatusBadOperationCancelled:         "BadOperationCancelled",
	StatusBadRequestInterrupted:         "BadRequestInterrupted",
	StatusBadRequestTimeout:             "BadRequestTimeout",
	StatusBadSecureChannelClosed:        "BadSecureChannelClosed",
	StatusBadSecureChannelTokenUnknown:  "BadSecureChannelTokenUnknown",
	StatusBadSequenceNumberInvalid:      "BadSequenceNumberInvalid",
	StatusBadSequenceNumberUnknown:      "BadSequenceNumberUnknown",
	StatusBadTcpMessageTypeInvalid:      "BadTcpMessageTypeInvalid",
	StatusBadTcpMessageTooLarge:         "BadTcpMessageTooLarge",
	StatusBadTcpNotEnoughResources:      "BadTcpNotEnoughResources",
	StatusBadTcpInternalError:           "BadTcpInternalError",
	StatusBadTcpEndpointURLInvalid:      "BadTcpEndpointURLInvalid",
	StatusBadSecurityChecksFailed:       "BadSecurityChecksFailed",
	StatusBadCertificateInvalid:         "BadCertificateInvalid",
	StatusBadCertificateHostNameInvalid: "BadCertificateHostNameInvalid",
	StatusBadCertificateUntrusted:       "BadCertificateUntrusted",
	StatusBadIdentityTokenInvalid:       "BadIdentityTokenInvalid",
	StatusBadIdentityTokenRejected:      "BadIdentityTokenRejected",
	StatusBadUserAccessDenied:           "BadUserAccessDenied",
	StatusBadSessionIDInvalid:           "BadSessionIdInvalid",
	StatusBadSessionClosed:              "BadSessionClosed",
	StatusBadSessionNotActivated:        "BadSessionNotActivated",
	StatusBadTooManySessions:            "BadTooManySessions",
	StatusBadSecureChannelIDInvalid:     "BadSecureChannelIdInvalid",
	StatusBadSubscriptionIDInvalid:      "BadSubscriptionIdInvalid",
	StatusBadNoSubscription:             "BadNoSubscription",
	StatusBadTooManyPublishRequests:     "BadTooManyPublishRequests",
	StatusBadMessageNotAvailable:        "BadMessageNotAvailable",
	StatusBadTimestampsToReturnInvalid:  "BadTimestampsToReturnInvalid",
	StatusBadNodeIDInvalid:              "BadNodeIdInvalid",
	StatusBadNodeIDUnknown:              "BadNodeIdUnknown",
	StatusBadAttributeIDInvalid:         "BadAttributeIdInvalid",
	StatusBadDataTypeIDUnknown:          "BadDataTypeIdUnknown",
	StatusGoodSubscriptionTransferred:   "GoodSubscriptionTransferred",
}
