// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convertersystems/opcua-client/debug"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
)

// Default subscription parameters, used by SubscriptionParameters.setDefaults
// for any zero field (spec.md §4.5).
const (
	DefaultSubscriptionInterval          = 100 * time.Millisecond
	DefaultSubscriptionLifetimeCount     = 600
	DefaultSubscriptionMaxKeepAliveCount = 20
)

// SubscriptionParameters is the caller-supplied half of CreateSubscription;
// zero fields are filled in by setDefaults before the request is sent.
type SubscriptionParameters struct {
	Interval                   time.Duration
	LifetimeCount              uint32
	MaxKeepAliveCount          uint32
	MaxNotificationsPerPublish uint32
	Priority                   byte
}

func (p *SubscriptionParameters) setDefaults() {
	if p.Interval <= 0 {
		p.Interval = DefaultSubscriptionInterval
	}
	if p.LifetimeCount == 0 {
		p.LifetimeCount = DefaultSubscriptionLifetimeCount
	}
	if p.MaxKeepAliveCount == 0 {
		p.MaxKeepAliveCount = DefaultSubscriptionMaxKeepAliveCount
	}
}

// PublishNotificationData is what a Subscription hands to its Notifs
// channel: either a decoded notification Value (a *ua.DataChangeNotification,
// *ua.EventNotificationList or *ua.StatusChangeNotification) or an Error.
type PublishNotificationData struct {
	SubscriptionID uint32
	Value          interface{}
	Error          error
}

// MonitoredItem is the client-side record of one item added via
// Subscription.Monitor, keyed by its ClientHandle. Monitor fills in a zero
// handle from a counter local to the Subscription, so generated handles are
// unique within one Subscription, not across the session. The publish
// dispatcher does not consult these records: notifications are delivered
// on Notifs with the ClientHandle the server sent back.
type MonitoredItem struct {
	ClientHandle uint32
	ServerID     uint32
	NodeID       *ua.NodeId
	AttributeID  uint32
}

// Subscription is a client-side handle on a server-side subscription: its
// revised parameters, its monitored items, and the channel notifications
// are delivered on.
type Subscription struct {
	SubscriptionID            uint32
	RevisedPublishingInterval time.Duration
	RevisedLifetimeCount      uint32
	RevisedMaxKeepAliveCount  uint32
	Notifs                    chan *PublishNotificationData

	params *SubscriptionParameters
	c      *Client

	mu         sync.Mutex
	items      map[uint32]*MonitoredItem
	nextHandle uint32

	lastSequenceNumber uint32 // atomic
}

// Monitor adds items to the subscription, assigning each a fresh
// ClientHandle if its RequestedParameters.ClientHandle is zero (Part 4
// §5.12.2).
func (s *Subscription) Monitor(ctx context.Context, ts ua.TimestampsToReturn, items ...*ua.MonitoredItemCreateRequest) (*ua.CreateMonitoredItemsResponse, error) {
	s.mu.Lock()
	for _, it := range items {
		if it.RequestedParameters == nil {
			it.RequestedParameters = &ua.MonitoringParameters{}
		}
		if it.RequestedParameters.ClientHandle == 0 {
			s.nextHandle++
			it.RequestedParameters.ClientHandle = s.nextHandle
		}
	}
	s.mu.Unlock()

	req := &ua.CreateMonitoredItemsRequest{
		SubscriptionID:     s.SubscriptionID,
		TimestampsToReturn: ts,
		ItemsToCreate:      items,
	}
	res, err := s.c.CreateMonitoredItems(ctx, req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for i, result := range res.Results {
		if result.StatusCode != ua.StatusOK || i >= len(items) {
			continue
		}
		handle := items[i].RequestedParameters.ClientHandle
		s.items[handle] = &MonitoredItem{
			ClientHandle: handle,
			ServerID:     result.MonitoredItemID,
			NodeID:       items[i].ItemToMonitor.NodeID,
			AttributeID:  items[i].ItemToMonitor.AttributeID,
		}
	}
	s.mu.Unlock()
	return res, nil
}

// Unmonitor removes the given server-assigned MonitoredItemIDs.
func (s *Subscription) Unmonitor(ctx context.Context, serverIDs ...uint32) (*ua.DeleteMonitoredItemsResponse, error) {
	req := &ua.DeleteMonitoredItemsRequest{
		SubscriptionID:   s.SubscriptionID,
		MonitoredItemIDs: serverIDs,
	}
	var res *ua.DeleteMonitoredItemsResponse
	v, err := s.c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}

	s.mu.Lock()
	for handle, it := range s.items {
		for _, id := range serverIDs {
			if it.ServerID == id {
				delete(s.items, handle)
			}
		}
	}
	s.mu.Unlock()
	return res, nil
}

// Cancel issues DeleteSubscriptions and forgets the subscription on the
// owning Client; it does not close Notifs, which the caller owns.
func (s *Subscription) Cancel(ctx context.Context) error {
	s.c.forgetSubscription(s.SubscriptionID)
	req := &ua.DeleteSubscriptionsRequest{SubscriptionIDs: []uint32{s.SubscriptionID}}
	_, err := s.c.Send(ctx, req)
	return err
}

func (s *Subscription) republish(ctx context.Context, seq uint32) (*ua.RepublishResponse, error) {
	req := &ua.RepublishRequest{SubscriptionID: s.SubscriptionID, RetransmitSequenceNumber: seq}
	var res *ua.RepublishResponse
	v, err := s.c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// notify is a best-effort send: it gives up once ctx is done rather than
// blocking a slow consumer forever.
func (s *Subscription) notify(ctx context.Context, data *PublishNotificationData) {
	if s.Notifs == nil {
		return
	}
	select {
	case s.Notifs <- data:
	case <-ctx.Done():
	}
}

// Subscribe creates a Subscription, applying SubscriptionParameters.setDefaults
// to any zero field, and ensures the publish worker pool has at least
// max(2, number of subscriptions) workers running (spec.md §4.5, Open
// Question #1).
func (c *Client) Subscribe(ctx context.Context, params *SubscriptionParameters, notifyCh chan *PublishNotificationData) (*Subscription, error) {
	if params == nil {
		params = &SubscriptionParameters{}
	}
	params.setDefaults()

	req := &ua.CreateSubscriptionRequest{
		RequestedPublishingInterval: float64(params.Interval / time.Millisecond),
		RequestedLifetimeCount:      params.LifetimeCount,
		RequestedMaxKeepAliveCount:  params.MaxKeepAliveCount,
		MaxNotificationsPerPublish:  params.MaxNotificationsPerPublish,
		PublishingEnabled:           true,
		Priority:                    params.Priority,
	}

	var res *ua.CreateSubscriptionResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	if res.SubscriptionID == 0 {
		// Part 4 §5.13.2.2: a server must never hand out id 0.
		return nil, ua.StatusBadSubscriptionIDInvalid
	}

	sub := &Subscription{
		SubscriptionID:            res.SubscriptionID,
		RevisedPublishingInterval: time.Duration(res.RevisedPublishingInterval) * time.Millisecond,
		RevisedLifetimeCount:      res.RevisedLifetimeCount,
		RevisedMaxKeepAliveCount:  res.RevisedMaxKeepAliveCount,
		Notifs:                    notifyCh,
		params:                    params,
		items:                     make(map[uint32]*MonitoredItem),
		c:                         c,
	}

	c.subMux.Lock()
	c.subs[sub.SubscriptionID] = sub
	n := len(c.subs)
	c.subMux.Unlock()

	c.ensurePublishWorkers(ctx, n)
	return sub, nil
}

func (c *Client) forgetSubscription(id uint32) {
	c.subMux.Lock()
	delete(c.subs, id)
	c.subMux.Unlock()
}

// ensurePublishWorkers grows the running publish-worker count up to
// max(2, want) if it is currently lower; it never shrinks workers back
// down; an idle worker just keeps one long-poll PublishRequest outstanding,
// the same as gopcua's own publish loop.
func (c *Client) ensurePublishWorkers(ctx context.Context, want int) {
	if want < 2 {
		want = 2
	}
	c.publishMu.Lock()
	defer c.publishMu.Unlock()
	for c.publishWorkers < want {
		c.publishWorkers++
		go c.publishWorker(c.publishCtx)
	}
}

func (c *Client) publishWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req := &ua.PublishRequest{SubscriptionAcknowledgements: c.drainAcks()}
		v, err := c.Send(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.notifySubscriptionsOfError(ctx, nil, err)
			select {
			case <-time.After(c.cfg.ReconnectInterval):
			case <-ctx.Done():
				return
			}
			continue
		}

		res, ok := v.(*ua.PublishResponse)
		if !ok {
			continue
		}
		c.notifySubscription(ctx, res)
	}
}

func (c *Client) drainAcks() []*ua.SubscriptionAcknowledgement {
	c.acksMu.Lock()
	defer c.acksMu.Unlock()
	acks := c.pendingAcks
	c.pendingAcks = nil
	return acks
}

func (c *Client) queueAck(subID, seq uint32) {
	c.acksMu.Lock()
	c.pendingAcks = append(c.pendingAcks, &ua.SubscriptionAcknowledgement{SubscriptionID: subID, SequenceNumber: seq})
	c.acksMu.Unlock()
}

func (c *Client) notifySubscriptionsOfError(ctx context.Context, res *ua.PublishResponse, err error) {
	c.subMux.RLock()
	subs := make([]*Subscription, 0, len(c.subs))
	if res != nil && res.SubscriptionID != 0 {
		if s, ok := c.subs[res.SubscriptionID]; ok {
			subs = append(subs, s)
		}
	} else {
		for _, s := range c.subs {
			subs = append(subs, s)
		}
	}
	c.subMux.RUnlock()

	for _, s := range subs {
		s.notify(ctx, &PublishNotificationData{SubscriptionID: s.SubscriptionID, Error: err})
	}
}

// notifySubscription dispatches one PublishResponse: it fills any sequence
// gap with Republish before delivering the response's own notification
// (spec.md §4.5 step 1, Testable Property 6), then queues the ack for the
// next PublishRequest.
func (c *Client) notifySubscription(ctx context.Context, res *ua.PublishResponse) {
	c.subMux.RLock()
	sub, ok := c.subs[res.SubscriptionID]
	c.subMux.RUnlock()
	if !ok {
		debug.Printf("opcua: publish response for unknown subscription %d", res.SubscriptionID)
		return
	}
	if res.NotificationMessage == nil {
		sub.notify(ctx, &PublishNotificationData{SubscriptionID: sub.SubscriptionID, Error: errors.Errorf("empty NotificationMessage")})
		return
	}

	seq := res.NotificationMessage.SequenceNumber
	last := atomic.LoadUint32(&sub.lastSequenceNumber)
	if last != 0 && seq > last+1 {
		for missing := last + 1; missing < seq; missing++ {
			rres, err := sub.republish(ctx, missing)
			if err != nil {
				if err == ua.StatusBadMessageNotAvailable {
					debug.Printf("opcua: subscription %d: sequence number %d permanently lost, advancing past gap", sub.SubscriptionID, missing)
					continue
				}
				debug.Printf("opcua: subscription %d: republish %d failed: %s", sub.SubscriptionID, missing, err)
				continue
			}
			c.dispatchNotification(ctx, sub, rres.NotificationMessage)
		}
	}
	atomic.StoreUint32(&sub.lastSequenceNumber, seq)
	c.dispatchNotification(ctx, sub, res.NotificationMessage)
	c.queueAck(sub.SubscriptionID, seq)
}

// dispatchNotification decodes one NotificationMessage's NotificationData
// extension objects and delivers each to sub.Notifs (spec.md §4.5 step 2).
func (c *Client) dispatchNotification(ctx context.Context, sub *Subscription, msg *ua.NotificationMessage) {
	if msg == nil {
		return
	}
	for _, data := range msg.NotificationData {
		if data == nil || data.Value == nil {
			sub.notify(ctx, &PublishNotificationData{SubscriptionID: sub.SubscriptionID, Error: errors.Errorf("missing NotificationData parameter")})
			continue
		}
		switch data.Value.(type) {
		case *ua.DataChangeNotification, *ua.EventNotificationList, *ua.StatusChangeNotification:
			sub.notify(ctx, &PublishNotificationData{SubscriptionID: sub.SubscriptionID, Value: data.Value})
		default:
			sub.notify(ctx, &PublishNotificationData{SubscriptionID: sub.SubscriptionID, Error: errors.Errorf("unknown NotificationData parameter: %T", data.Value)})
		}
	}
}
