// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package id holds the stable numeric identifiers from the OPC UA namespace-0
// address space that the core needs: well-known object/variable ids and the
// per-service DefaultBinary encoding ids used to tag request/response bodies
// on the wire. It is the "declarative registry" DESIGN.md talks about in
// place of runtime reflection over source attributes: a flat, generated-table
// style list, hand-maintained here for the subset this client touches.
package id

// Attribute ids (Part 4, Attribute Service Set).
const (
	AttributeIDNodeID uint32 = iota + 1
	AttributeIDNodeClass
	AttributeIDBrowseName
	AttributeIDDisplayName
	AttributeIDDescription
	AttributeIDWriteMask
	AttributeIDUserWriteMask
	AttributeIDIsAbstract
	AttributeIDSymmetric
	AttributeIDInverseName
	AttributeIDContainsNoLoops
	AttributeIDEventNotifier
	AttributeIDValue
	AttributeIDDataType
	AttributeIDValueRank
	AttributeIDArrayDimensions
	AttributeIDAccessLevel
	AttributeIDUserAccessLevel
	AttributeIDMinimumSamplingInterval
	AttributeIDHistorizing
	AttributeIDExecutable
	AttributeIDUserExecutable
)

// Well-known Server object nodes (namespace 0) used for keep-alive polling
// and the S1 end-to-end scenario in spec.md §8.
const (
	Server_ServerStatus_State       uint32 = 2259
	Server_ServerStatus_CurrentTime uint32 = 2258
	Server                          uint32 = 2253
	Server_ServerStatus             uint32 = 2256
	RootFolder                      uint32 = 84
	ObjectsFolder                   uint32 = 85
)

// DefaultBinary encoding ids for the request/response pairs this client
// issues. These tag the NodeId at the front of every MSG/OPN body so the
// receiver knows which Go type to decode into (see ua/registry.go).
const (
	ServiceFault_Encoding_DefaultBinary uint32 = 397

	OpenSecureChannelRequest_Encoding_DefaultBinary  uint32 = 446
	OpenSecureChannelResponse_Encoding_DefaultBinary uint32 = 449
	CloseSecureChannelRequest_Encoding_DefaultBinary uint32 = 452
	CloseSecureChannelResponse_Encoding_DefaultBinary uint32 = 455

	GetEndpointsRequest_Encoding_DefaultBinary  uint32 = 428
	GetEndpointsResponse_Encoding_DefaultBinary uint32 = 431

	CreateSessionRequest_Encoding_DefaultBinary  uint32 = 461
	CreateSessionResponse_Encoding_DefaultBinary uint32 = 464

	ActivateSessionRequest_Encoding_DefaultBinary  uint32 = 467
	ActivateSessionResponse_Encoding_DefaultBinary uint32 = 470

	CloseSessionRequest_Encoding_DefaultBinary  uint32 = 473
	CloseSessionResponse_Encoding_DefaultBinary uint32 = 476

	ReadRequest_Encoding_DefaultBinary  uint32 = 631
	ReadResponse_Encoding_DefaultBinary uint32 = 634

	WriteRequest_Encoding_DefaultBinary  uint32 = 673
	WriteResponse_Encoding_DefaultBinary uint32 = 676

	CallRequest_Encoding_DefaultBinary  uint32 = 712
	CallResponse_Encoding_DefaultBinary uint32 = 715

	BrowseRequest_Encoding_DefaultBinary  uint32 = 527
	BrowseResponse_Encoding_DefaultBinary uint32 = 530

	TranslateBrowsePathsToNodeIdsRequest_Encoding_DefaultBinary  uint32 = 554
	TranslateBrowsePathsToNodeIdsResponse_Encoding_DefaultBinary uint32 = 557

	CreateSubscriptionRequest_Encoding_DefaultBinary  uint32 = 787
	CreateSubscriptionResponse_Encoding_DefaultBinary uint32 = 790

	ModifySubscriptionRequest_Encoding_DefaultBinary  uint32 = 793
	ModifySubscriptionResponse_Encoding_DefaultBinary uint32 = 796

	SetPublishingModeRequest_Encoding_DefaultBinary  uint32 = 799
	SetPublishingModeResponse_Encoding_DefaultBinary uint32 = 802

	DeleteSubscriptionsRequest_Encoding_DefaultBinary  uint32 = 847
	DeleteSubscriptionsResponse_Encoding_DefaultBinary uint32 = 850

	CreateMonitoredItemsRequest_Encoding_DefaultBinary  uint32 = 751
	CreateMonitoredItemsResponse_Encoding_DefaultBinary uint32 = 754

	ModifyMonitoredItemsRequest_Encoding_DefaultBinary  uint32 = 763
	ModifyMonitoredItemsResponse_Encoding_DefaultBinary uint32 = 766

	DeleteMonitoredItemsRequest_Encoding_DefaultBinary  uint32 = 781
	DeleteMonitoredItemsResponse_Encoding_DefaultBinary uint32 = 784

	PublishRequest_Encoding_DefaultBinary  uint32 = 826
	PublishResponse_Encoding_DefaultBinary uint32 = 829

	RepublishRequest_Encoding_DefaultBinary  uint32 = 832
	RepublishResponse_Encoding_DefaultBinary uint32 = 835

	TransferSubscriptionsRequest_Encoding_DefaultBinary  uint32 = 841
	TransferSubscriptionsResponse_Encoding_DefaultBinary uint32 = 844

	DataChangeNotification_Encoding_DefaultBinary   uint32 = 811
	EventNotificationList_Encoding_DefaultBinary    uint32 = 916
	StatusChangeNotification_Encoding_DefaultBinary uint32 = 820
	NotificationMessage_Encoding_DefaultBinary      uint32 = 805

	AnonymousIdentityToken_Encoding_DefaultBinary uint32 = 321
	UserNameIdentityToken_Encoding_DefaultBinary  uint32 = 324
	X509IdentityToken_Encoding_DefaultBinary      uint32 = 327
	IssuedIdentityToken_Encoding_DefaultBinary    uint32 = 940
)
