// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

// Package monitor is a callback/channel convenience layer over
// opcua.Client.Subscribe, tracking the ClientHandle <-> NodeId mapping a
// raw DataChangeNotification only gives you as an opaque handle
// (SPEC_FULL.md §4, "monitor package").
package monitor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/convertersystems/opcua-client"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/id"
	"github.com/convertersystems/opcua-client/ua"
)

// DefaultMaxChanLen is the buffer size used by Subscribe's internal
// channel.
var DefaultMaxChanLen = 8192

// ErrSlowConsumer is reported to the error handler when a subscriber falls
// behind and a DataChangeMessage is dropped rather than blocking delivery.
var ErrSlowConsumer = errors.New("monitor: slow consumer, message dropped")

// ErrHandler is called for delivery problems that aren't associated with
// any particular message (a slow consumer, a malformed notification).
type ErrHandler func(*opcua.Client, *Subscription, error)

// MsgHandler receives one DataValue update for one node.
type MsgHandler func(*ua.NodeId, *ua.DataValue)

// DataChangeMessage pairs a DataValue with the node it came from.
type DataChangeMessage struct {
	*ua.DataValue
	Error  error
	NodeID *ua.NodeId
}

// NodeMonitor hands out Subscriptions against a single connected Client.
type NodeMonitor struct {
	client           *opcua.Client
	nextClientHandle uint32
	errHandlerCB     ErrHandler
}

// Subscription tracks the monitored items of one underlying
// opcua.Subscription, resolving each DataChangeNotification's ClientHandle
// back to the NodeId it was created for.
type Subscription struct {
	monitor          *NodeMonitor
	sub              *opcua.Subscription
	notifyCh         chan *DataChangeMessage
	internalNotifyCh chan *opcua.PublishNotificationData
	delivered        uint64
	dropped          uint64
	closed           chan struct{}
	closeOnce        sync.Once

	mu         sync.RWMutex
	handles    map[uint32]*ua.NodeId
	nodeLookup map[string]uint32
}

// New returns a NodeMonitor for an already-connected Client.
func New(client *opcua.Client) *NodeMonitor {
	return &NodeMonitor{client: client, nextClientHandle: 100}
}

// SetErrorHandler installs cb to be called for async delivery problems.
func (m *NodeMonitor) SetErrorHandler(cb ErrHandler) {
	m.errHandlerCB = cb
}

// Subscribe starts a callback-based subscription over an initial set of
// nodes (parsed with ua.ParseNodeID). Unsubscribe stops it; canceling ctx
// also stops delivery but does not release server-side resources.
func (m *NodeMonitor) Subscribe(ctx context.Context, cb MsgHandler, nodes ...string) (*Subscription, error) {
	ch := make(chan *DataChangeMessage, DefaultMaxChanLen)
	sub, err := m.ChanSubscribe(ctx, ch, nodes...)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.closed:
				return
			case msg := <-ch:
				if msg.Error != nil {
					sub.sendError(msg.Error)
				} else {
					cb(msg.NodeID, msg.DataValue)
				}
			}
		}
	}()
	return sub, nil
}

// ChanSubscribe starts a channel-based subscription over an initial set of
// nodes, delivering DataChangeMessages on ch. ch should be buffered;
// otherwise a slow consumer causes dropped messages reported via
// ErrSlowConsumer.
func (m *NodeMonitor) ChanSubscribe(ctx context.Context, ch chan *DataChangeMessage, nodes ...string) (*Subscription, error) {
	s := &Subscription{
		monitor:          m,
		closed:           make(chan struct{}),
		internalNotifyCh: make(chan *opcua.PublishNotificationData, DefaultMaxChanLen),
		handles:          make(map[uint32]*ua.NodeId),
		nodeLookup:       make(map[string]uint32),
		notifyCh:         ch,
	}

	sub, err := m.client.Subscribe(ctx, &opcua.SubscriptionParameters{}, s.internalNotifyCh)
	if err != nil {
		return nil, err
	}
	s.sub = sub

	if err := s.AddNodes(ctx, nodes...); err != nil {
		s.sub.Cancel(ctx)
		return nil, err
	}

	go s.pump(ctx)
	return s, nil
}

func (s *Subscription) sendError(err error) {
	if err != nil && s.monitor.errHandlerCB != nil {
		s.monitor.errHandlerCB(s.monitor.client, s, err)
	}
}

func (s *Subscription) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case msg := <-s.internalNotifyCh:
			if msg.Error != nil {
				s.sendError(msg.Error)
				continue
			}
			if msg.SubscriptionID != s.sub.SubscriptionID {
				continue
			}

			switch v := msg.Value.(type) {
			case *ua.DataChangeNotification:
				for _, item := range v.MonitoredItems {
					s.mu.RLock()
					nid, ok := s.handles[item.ClientHandle]
					s.mu.RUnlock()

					out := &DataChangeMessage{}
					if !ok {
						out.Error = fmt.Errorf("monitor: handle %d not found", item.ClientHandle)
					} else {
						out.NodeID = nid
						out.DataValue = item.Value
					}

					select {
					case s.notifyCh <- out:
						atomic.AddUint64(&s.delivered, 1)
					default:
						atomic.AddUint64(&s.dropped, 1)
						s.sendError(ErrSlowConsumer)
					}
				}
			default:
				s.sendError(fmt.Errorf("monitor: unknown message type: %T", msg.Value))
			}
		}
	}
}

// Unsubscribe stops delivery and cancels the underlying subscription. Safe
// to call more than once.
func (s *Subscription) Unsubscribe(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.sub.Cancel(ctx)
	})
	return err
}

// Delivered returns the number of DataChangeMessages delivered so far.
func (s *Subscription) Delivered() uint64 {
	return atomic.LoadUint64(&s.delivered)
}

// Dropped returns the number of DataChangeMessages dropped due to a slow
// consumer.
func (s *Subscription) Dropped() uint64 {
	return atomic.LoadUint64(&s.dropped)
}

// AddNodes adds nodes (parsed with ua.ParseNodeID) to the subscription.
func (s *Subscription) AddNodes(ctx context.Context, nodes ...string) error {
	nodeIDs, err := parseNodeSlice(nodes...)
	if err != nil {
		return err
	}
	return s.AddNodeIDs(ctx, nodeIDs...)
}

// AddNodeIDs adds nodes to the subscription, monitoring their Value
// attribute.
func (s *Subscription) AddNodeIDs(ctx context.Context, nodes ...*ua.NodeId) error {
	s.mu.Lock()
	toAdd := make([]*ua.MonitoredItemCreateRequest, 0, len(nodes))
	handles := make([]uint32, 0, len(nodes))
	for _, node := range nodes {
		handle := atomic.AddUint32(&s.monitor.nextClientHandle, 1)
		s.handles[handle] = node
		s.nodeLookup[node.String()] = handle
		handles = append(handles, handle)

		toAdd = append(toAdd, &ua.MonitoredItemCreateRequest{
			ItemToMonitor:       ua.NewReadValueID(node, id.AttributeIDValue),
			MonitoringMode:      ua.MonitoringModeReporting,
			RequestedParameters: &ua.MonitoringParameters{ClientHandle: handle},
		})
	}
	s.mu.Unlock()

	resp, err := s.sub.Monitor(ctx, ua.TimestampsToReturnBoth, toAdd...)
	if err != nil {
		return err
	}
	for i, result := range resp.Results {
		if result.StatusCode != ua.StatusOK && i < len(handles) {
			s.mu.Lock()
			node := s.handles[handles[i]]
			delete(s.handles, handles[i])
			if node != nil {
				delete(s.nodeLookup, node.String())
			}
			s.mu.Unlock()
		}
	}
	return nil
}

// RemoveNodes removes nodes (parsed with ua.ParseNodeID) from the
// subscription.
func (s *Subscription) RemoveNodes(ctx context.Context, nodes ...string) error {
	nodeIDs, err := parseNodeSlice(nodes...)
	if err != nil {
		return err
	}
	return s.RemoveNodeIDs(ctx, nodeIDs...)
}

// RemoveNodeIDs removes nodes from the subscription.
func (s *Subscription) RemoveNodeIDs(ctx context.Context, nodes ...*ua.NodeId) error {
	s.mu.Lock()
	toRemove := make([]uint32, 0, len(nodes))
	for _, node := range nodes {
		sid := node.String()
		handle, ok := s.nodeLookup[sid]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("monitor: node not found: %s", sid)
		}
		delete(s.nodeLookup, sid)
		delete(s.handles, handle)
		toRemove = append(toRemove, handle)
	}
	s.mu.Unlock()

	_, err := s.sub.Unmonitor(ctx, toRemove...)
	return err
}

func parseNodeSlice(nodes ...string) ([]*ua.NodeId, error) {
	nodeIDs := make([]*ua.NodeId, len(nodes))
	for i, node := range nodes {
		nid, err := ua.ParseNodeID(node)
		if err != nil {
			return nil, err
		}
		nodeIDs[i] = nid
	}
	return nodeIDs, nil
}
