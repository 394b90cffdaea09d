// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"time"

	"github.com/convertersystems/opcua-client/id"
)

func init() {
	Register(id.CreateSubscriptionRequest_Encoding_DefaultBinary, (*CreateSubscriptionRequest)(nil))
	Register(id.CreateSubscriptionResponse_Encoding_DefaultBinary, (*CreateSubscriptionResponse)(nil))
	Register(id.ModifySubscriptionRequest_Encoding_DefaultBinary, (*ModifySubscriptionRequest)(nil))
	Register(id.ModifySubscriptionResponse_Encoding_DefaultBinary, (*ModifySubscriptionResponse)(nil))
	Register(id.SetPublishingModeRequest_Encoding_DefaultBinary, (*SetPublishingModeRequest)(nil))
	Register(id.SetPublishingModeResponse_Encoding_DefaultBinary, (*SetPublishingModeResponse)(nil))
	Register(id.DeleteSubscriptionsRequest_Encoding_DefaultBinary, (*DeleteSubscriptionsRequest)(nil))
	Register(id.DeleteSubscriptionsResponse_Encoding_DefaultBinary, (*DeleteSubscriptionsResponse)(nil))
	Register(id.CreateMonitoredItemsRequest_Encoding_DefaultBinary, (*CreateMonitoredItemsRequest)(nil))
	Register(id.CreateMonitoredItemsResponse_Encoding_DefaultBinary, (*CreateMonitoredItemsResponse)(nil))
	Register(id.ModifyMonitoredItemsRequest_Encoding_DefaultBinary, (*ModifyMonitoredItemsRequest)(nil))
	Register(id.ModifyMonitoredItemsResponse_Encoding_DefaultBinary, (*ModifyMonitoredItemsResponse)(nil))
	Register(id.DeleteMonitoredItemsRequest_Encoding_DefaultBinary, (*DeleteMonitoredItemsRequest)(nil))
	Register(id.DeleteMonitoredItemsResponse_Encoding_DefaultBinary, (*DeleteMonitoredItemsResponse)(nil))
	Register(id.PublishRequest_Encoding_DefaultBinary, (*PublishRequest)(nil))
	Register(id.PublishResponse_Encoding_DefaultBinary, (*PublishResponse)(nil))
	Register(id.RepublishRequest_Encoding_DefaultBinary, (*RepublishRequest)(nil))
	Register(id.RepublishResponse_Encoding_DefaultBinary, (*RepublishResponse)(nil))
	Register(id.TransferSubscriptionsRequest_Encoding_DefaultBinary, (*TransferSubscriptionsRequest)(nil))
	Register(id.TransferSubscriptionsResponse_Encoding_DefaultBinary, (*TransferSubscriptionsResponse)(nil))
	Register(id.DataChangeNotification_Encoding_DefaultBinary, (*DataChangeNotification)(nil))
	Register(id.EventNotificationList_Encoding_DefaultBinary, (*EventNotificationList)(nil))
	Register(id.StatusChangeNotification_Encoding_DefaultBinary, (*StatusChangeNotification)(nil))
}

// CreateSubscriptionRequest establishes a new subscription on the session's
// channel (spec.md §4.5, C4).
type CreateSubscriptionRequest struct {
	RequestHeader                *RequestHeader
	RequestedPublishingInterval  float64
	RequestedLifetimeCount       uint32
	RequestedMaxKeepAliveCount   uint32
	MaxNotificationsPerPublish   uint32
	PublishingEnabled            bool
	Priority                     byte
}

func (r *CreateSubscriptionRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CreateSubscriptionRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type CreateSubscriptionResponse struct {
	ResponseHeader            *ResponseHeader
	SubscriptionID             uint32
	RevisedPublishingInterval float64
	RevisedLifetimeCount       uint32
	RevisedMaxKeepAliveCount   uint32
}

func (r *CreateSubscriptionResponse) Header() *ResponseHeader { return r.ResponseHeader }

type ModifySubscriptionRequest struct {
	RequestHeader               *RequestHeader
	SubscriptionID              uint32
	RequestedPublishingInterval float64
	RequestedLifetimeCount      uint32
	RequestedMaxKeepAliveCount  uint32
	MaxNotificationsPerPublish  uint32
	Priority                    byte
}

func (r *ModifySubscriptionRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *ModifySubscriptionRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type ModifySubscriptionResponse struct {
	ResponseHeader            *ResponseHeader
	RevisedPublishingInterval float64
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
}

func (r *ModifySubscriptionResponse) Header() *ResponseHeader { return r.ResponseHeader }

type SetPublishingModeRequest struct {
	RequestHeader      *RequestHeader
	PublishingEnabled  bool
	SubscriptionIDs    []uint32
}

func (r *SetPublishingModeRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *SetPublishingModeRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type SetPublishingModeResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

func (r *SetPublishingModeResponse) Header() *ResponseHeader { return r.ResponseHeader }

type DeleteSubscriptionsRequest struct {
	RequestHeader   *RequestHeader
	SubscriptionIDs []uint32
}

func (r *DeleteSubscriptionsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *DeleteSubscriptionsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type DeleteSubscriptionsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

func (r *DeleteSubscriptionsResponse) Header() *ResponseHeader { return r.ResponseHeader }

// MonitoringParameters carries the sampling settings of one monitored item.
// Filter is an opaque ExtensionObject; no filter struct (DataChangeFilter
// included) is registered with the encoding table, and the client itself
// never sets a filter (spec.md §3, ExtensionObject opaque-by-default
// behavior).
type MonitoringParameters struct {
	ClientHandle     uint32
	SamplingInterval float64
	Filter           *ExtensionObject
	QueueSize        uint32
	DiscardOldest    bool
}

// DataChangeFilter selects which data changes are reported and how
// aggressively duplicates are suppressed (Part 4 §7.17.2).
type DataChangeFilter struct {
	Trigger       uint32
	DeadbandType  uint32
	DeadbandValue float64
}

type MonitoredItemCreateRequest struct {
	ItemToMonitor      *ReadValueID
	MonitoringMode     MonitoringMode
	RequestedParameters *MonitoringParameters
}

type MonitoredItemCreateResult struct {
	StatusCode              StatusCode
	MonitoredItemID         uint32
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            *ExtensionObject
}

type CreateMonitoredItemsRequest struct {
	RequestHeader      *RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToCreate      []*MonitoredItemCreateRequest
}

func (r *CreateMonitoredItemsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CreateMonitoredItemsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type CreateMonitoredItemsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*MonitoredItemCreateResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *CreateMonitoredItemsResponse) Header() *ResponseHeader { return r.ResponseHeader }

type MonitoredItemModifyRequest struct {
	MonitoredItemID     uint32
	RequestedParameters *MonitoringParameters
}

type MonitoredItemModifyResult struct {
	StatusCode              StatusCode
	RevisedSamplingInterval float64
	RevisedQueueSize        uint32
	FilterResult            *ExtensionObject
}

type ModifyMonitoredItemsRequest struct {
	RequestHeader      *RequestHeader
	SubscriptionID     uint32
	TimestampsToReturn TimestampsToReturn
	ItemsToModify      []*MonitoredItemModifyRequest
}

func (r *ModifyMonitoredItemsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *ModifyMonitoredItemsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type ModifyMonitoredItemsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*MonitoredItemModifyResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *ModifyMonitoredItemsResponse) Header() *ResponseHeader { return r.ResponseHeader }

type DeleteMonitoredItemsRequest struct {
	RequestHeader    *RequestHeader
	SubscriptionID   uint32
	MonitoredItemIDs []uint32
}

func (r *DeleteMonitoredItemsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *DeleteMonitoredItemsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type DeleteMonitoredItemsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

func (r *DeleteMonitoredItemsResponse) Header() *ResponseHeader { return r.ResponseHeader }

// SubscriptionAcknowledgement tells the server a NotificationMessage has
// been delivered and its sequence number may be released.
type SubscriptionAcknowledgement struct {
	SubscriptionID uint32
	SequenceNumber uint32
}

// PublishRequest is the long-poll request driving the publish pipeline
// (spec.md §4.5, C4); one is kept outstanding per subscription slot at all
// times per the Open Question decision recorded in SPEC_FULL.md.
type PublishRequest struct {
	RequestHeader                *RequestHeader
	SubscriptionAcknowledgements []*SubscriptionAcknowledgement
}

func (r *PublishRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *PublishRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

// NotificationMessage carries zero or more NotificationData payloads
// (DataChangeNotification, EventNotificationList, StatusChangeNotification)
// as opaque ExtensionObjects; the publish dispatcher type-switches on the
// decoded Value after ExtensionObject.Decode resolves it via the registry.
type NotificationMessage struct {
	SequenceNumber uint32
	PublishTime    time.Time
	NotificationData []*ExtensionObject
}

type PublishResponse struct {
	ResponseHeader           *ResponseHeader
	SubscriptionID           uint32
	AvailableSequenceNumbers []uint32
	MoreNotifications        bool
	NotificationMessage      *NotificationMessage
	Results                  []StatusCode
	DiagnosticInfos          []*DiagnosticInfo
}

func (r *PublishResponse) Header() *ResponseHeader { return r.ResponseHeader }

type RepublishRequest struct {
	RequestHeader  *RequestHeader
	SubscriptionID uint32
	RetransmitSequenceNumber uint32
}

func (r *RepublishRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *RepublishRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type RepublishResponse struct {
	ResponseHeader       *ResponseHeader
	NotificationMessage *NotificationMessage
}

func (r *RepublishResponse) Header() *ResponseHeader { return r.ResponseHeader }

// TransferSubscriptionsRequest moves subscriptions owned by one session to
// the session issuing the request, used after the reconnect state machine
// re-establishes a channel without losing server-side subscription state.
type TransferSubscriptionsRequest struct {
	RequestHeader   *RequestHeader
	SubscriptionIDs []uint32
	SendInitialValues bool
}

func (r *TransferSubscriptionsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *TransferSubscriptionsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type TransferResult struct {
	StatusCode               StatusCode
	AvailableSequenceNumbers []uint32
}

type TransferSubscriptionsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*TransferResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *TransferSubscriptionsResponse) Header() *ResponseHeader { return r.ResponseHeader }

// MonitoredItemNotification is one changed value within a
// DataChangeNotification.
type MonitoredItemNotification struct {
	ClientHandle uint32
	Value        *DataValue
}

// DataChangeNotification is the NotificationData variant carrying changed
// attribute values.
type DataChangeNotification struct {
	MonitoredItems  []*MonitoredItemNotification
	DiagnosticInfos []*DiagnosticInfo
}

// EventFieldList is one event's selected field values.
type EventFieldList struct {
	ClientHandle uint32
	EventFields  []*Variant
}

// EventNotificationList is the NotificationData variant carrying events.
type EventNotificationList struct {
	Events []*EventFieldList
}

// StatusChangeNotification tells the client a subscription's health
// changed, e.g. BadTimeout when the server gives up on it.
type StatusChangeNotification struct {
	Status          StatusCode
	DiagnosticInfo *DiagnosticInfo
}
