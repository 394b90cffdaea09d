// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"crypto/rand"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/convertersystems/opcua-client/debug"
	"github.com/convertersystems/opcua-client/errors"
	"github.com/convertersystems/opcua-client/ua"
	"github.com/convertersystems/opcua-client/uacp"
	"github.com/convertersystems/opcua-client/uasc"
)

// ConnState is the state of a Client's connection to its server
// (spec.md §4.1).
type ConnState uint8

const (
	// Closed means Close has been called; the Client will not reconnect.
	Closed ConnState = iota
	// Connecting is the state between NewClient and the first successful
	// Connect.
	Connecting
	// Connected means the secure channel and session are both usable.
	Connected
	// Disconnected means the secure channel's read loop has exited and a
	// reconnect is about to be attempted (or AutoReconnect is off).
	Disconnected
	// Reconnecting means a reconnect attempt is in progress.
	Reconnecting
)

func (s ConnState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	case Reconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Session is the client-side record of an activated session: the ids the
// server assigned it and the nonce exchange ActivateSession needs if the
// session is ever reactivated on a new secure channel (Part 4 §5.6).
type Session struct {
	SessionID           *ua.NodeId
	AuthenticationToken *ua.NodeId
	ServerNonce         []byte
	ServerCertificate   []byte
	ServerEndpoints     []*ua.EndpointDescription
	serverNonceMu       sync.Mutex
}

// Client is a high-level client for an OPC UA server: it owns one secure
// channel and one session, and multiplexes every request through them
// (spec.md §2 "Session Channel", §6 External Interfaces).
//
// Every exported method that talks to the server takes a context.Context
// as its first parameter (State and Node do no I/O and take none); there
// is deliberately no parallel *WithContext surface, since
// a context-only API covers both the blocking and the cancellable case
// (see DESIGN.md).
type Client struct {
	endpointURL string

	cfg        *uasc.Config
	sessionCfg *uasc.SessionConfig

	mu     sync.Mutex
	conn   *uacp.Conn
	sechan *uasc.SecureChannel

	session atomic.Value // *Session

	subs   map[uint32]*Subscription
	subMux sync.RWMutex

	state atomic.Value // ConnState

	connectOnce sync.Once

	publishMu      sync.Mutex
	publishWorkers int
	publishCtx     context.Context
	publishCancel  context.CancelFunc

	acksMu      sync.Mutex
	pendingAcks []*ua.SubscriptionAcknowledgement
}

// NewClient creates a Client bound to endpoint. When no Option sets an
// authentication method, Connect authenticates anonymously (ApplyConfig
// fills this in). Connect must be called before any other method.
func NewClient(endpoint string, opts ...Option) *Client {
	cfg, sessionCfg := ApplyConfig(opts...)
	c := &Client{
		endpointURL: endpoint,
		cfg:         cfg,
		sessionCfg:  sessionCfg,
		subs:        make(map[uint32]*Subscription),
	}
	c.state.Store(Connecting)
	return c
}

// State reports the Client's current connection state.
func (c *Client) State() ConnState {
	if s, ok := c.state.Load().(ConnState); ok {
		return s
	}
	return Closed
}

// Connect dials the endpoint, opens a secure channel, creates and
// activates a session, and starts the background reconnect monitor
// (spec.md §4.1, §4.4).
func (c *Client) Connect(ctx context.Context) error {
	var err error
	c.connectOnce.Do(func() {
		err = c.connect(ctx)
	})
	if err != nil {
		return err
	}
	if c.sechan == nil {
		return errors.New("opcua: client already closed")
	}
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	c.state.Store(Connecting)
	if err := c.dial(ctx); err != nil {
		c.state.Store(Closed)
		return err
	}

	s, err := c.createSession(ctx)
	if err != nil {
		c.sechan.Close(ctx)
		c.state.Store(Closed)
		return err
	}
	if err := c.activateSession(ctx, s); err != nil {
		c.sechan.Close(ctx)
		c.state.Store(Closed)
		return err
	}
	c.session.Store(s)

	c.publishCtx, c.publishCancel = context.WithCancel(context.Background())
	c.state.Store(Connected)

	go c.monitor()
	return nil
}

// dial opens the TCP transport and the secure channel, replacing whatever
// was there before (used both by connect and by the reconnect loop). Any
// previous conn/sechan is closed first, so a reconnect cycle never leaks
// the dead transport it is replacing.
func (c *Client) dial(ctx context.Context) error {
	c.mu.Lock()
	oldConn, oldSechan := c.conn, c.sechan
	c.mu.Unlock()
	if oldSechan != nil {
		if err := oldSechan.Close(ctx); err != nil {
			debug.Printf("opcua: dial: close previous secure channel failed: %s", err)
		}
	} else if oldConn != nil {
		oldConn.Close()
	}

	conn, err := uacp.Dial(ctx, c.endpointURL, uacp.DefaultConfig())
	if err != nil {
		return err
	}

	sechan, err := uasc.NewSecureChannel(c.endpointURL, conn, c.cfg)
	if err != nil {
		conn.Close()
		return err
	}
	if err := sechan.Open(ctx); err != nil {
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn, c.sechan = conn, sechan
	c.mu.Unlock()
	return nil
}

// monitor watches the secure channel for an unsolicited death and, when
// AutoReconnect is set, rebuilds the channel and session with a 2s-20s
// exponential backoff (spec.md §4.1). This is a deliberately smaller state
// machine than gopcua's own monitor/reconnectAction pair: instead of
// separately tracking which layer failed, it just redials and recreates
// whatever is missing, which this client's service surface is small
// enough to afford (see DESIGN.md).
func (c *Client) monitor() {
	for {
		c.mu.Lock()
		sechan := c.sechan
		c.mu.Unlock()
		if sechan == nil {
			return
		}

		<-sechan.Done()
		if c.State() == Closed {
			return
		}

		c.state.Store(Disconnected)
		if !c.cfg.AutoReconnect {
			debug.Printf("opcua: secure channel closed (%s), autoreconnect is off", sechan.Err())
			c.state.Store(Closed)
			return
		}

		debug.Printf("opcua: secure channel closed (%s), reconnecting", sechan.Err())
		if !c.reconnect() {
			return
		}
	}
}

// reconnect retries dial+createSession+activateSession+transferSubscriptions
// with an exponential backoff starting at cfg.ReconnectInterval and ceiling
// at 20s (spec.md §4.4, SPEC_FULL.md Open Question #2), until it succeeds
// or the Client is closed.
func (c *Client) reconnect() bool {
	c.state.Store(Reconnecting)
	backoff := c.cfg.ReconnectInterval
	if backoff <= 0 {
		backoff = 2 * time.Second
	}
	const maxBackoff = 20 * time.Second

	ctx := context.Background()
	for {
		if c.State() == Closed {
			return false
		}

		if err := c.dial(ctx); err != nil {
			debug.Printf("opcua: reconnect: dial failed: %s", err)
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}

		s, err := c.createSession(ctx)
		if err != nil {
			debug.Printf("opcua: reconnect: create session failed: %s", err)
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		if err := c.activateSession(ctx, s); err != nil {
			debug.Printf("opcua: reconnect: activate session failed: %s", err)
			time.Sleep(backoff)
			if backoff *= 2; backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		c.session.Store(s)
		c.transferSubscriptions(ctx)

		c.state.Store(Connected)
		return true
	}
}

// transferSubscriptions re-attaches every still-open Subscription to the
// new session via TransferSubscriptions, logging (not failing) individual
// subscriptions the server refuses to transfer.
func (c *Client) transferSubscriptions(ctx context.Context) {
	c.subMux.RLock()
	ids := make([]uint32, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	c.subMux.RUnlock()
	if len(ids) == 0 {
		return
	}

	req := &ua.TransferSubscriptionsRequest{SubscriptionIDs: ids, SendInitialValues: true}
	var res *ua.TransferSubscriptionsResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		debug.Printf("opcua: transfer subscriptions failed: %s", err)
		return
	}
	if err := safeAssign(v, &res); err != nil {
		debug.Printf("opcua: transfer subscriptions: %s", err)
		return
	}
	for i, result := range res.Results {
		if i >= len(ids) {
			break
		}
		if result.StatusCode != ua.StatusOK {
			debug.Printf("opcua: subscription %d could not be transferred: %s", ids[i], result.StatusCode)
		}
	}
	c.ensurePublishWorkers(ctx, len(ids))
}

// createSession issues CreateSession over the (just-opened) secure channel.
func (c *Client) createSession(ctx context.Context) (*Session, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.Wrap(err, "opcua: generate session nonce failed")
	}

	desc := c.sessionCfg.ClientDescription
	if desc == nil {
		desc = &ua.ApplicationDescription{
			ApplicationURI:  "urn:opcua-client",
			ApplicationName: ua.NewLocalizedText("", "opcua-client"),
			ApplicationType: 1, // Client
		}
	}

	req := &ua.CreateSessionRequest{
		ClientDescription:       desc,
		EndpointURL:             c.endpointURL,
		SessionName:             c.sessionCfg.SessionName,
		ClientNonce:             nonce,
		ClientCertificate:       c.cfg.LocalCertificate,
		RequestedSessionTimeout: float64(c.sessionCfg.SessionTimeout / time.Millisecond),
	}

	var res *ua.CreateSessionResponse
	v, err := c.sechan.SendRequest(ctx, req, nil)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}

	if res.ServerSignature != nil {
		if err := c.sechan.VerifySessionSignature(res.ServerCertificate, nonce, res.ServerSignature.Signature); err != nil {
			debug.Printf("opcua: server signature not verified: %s", err)
		}
	}

	return &Session{
		SessionID:           res.SessionID,
		AuthenticationToken: res.AuthenticationToken,
		ServerNonce:         res.ServerNonce,
		ServerCertificate:   res.ServerCertificate,
		ServerEndpoints:     res.ServerEndpoints,
	}, nil
}

// activateSession issues ActivateSession, encrypting the configured user
// identity token under the server's certificate when required
// (Part 4 §5.6.3).
func (c *Client) activateSession(ctx context.Context, s *Session) error {
	sig, alg, err := c.sechan.NewSessionSignature(s.ServerCertificate, s.ServerNonce)
	if err != nil {
		return err
	}

	tok := c.sessionCfg.UserIdentityToken
	if tok == nil {
		tok = &ua.AnonymousIdentityToken{}
	}
	if unt, ok := tok.(*ua.UserNameIdentityToken); ok {
		enc, encAlg, err := c.sechan.EncryptUserPassword(c.sessionCfg.AuthPolicyURI, c.sessionCfg.AuthPassword, s.ServerCertificate, s.ServerNonce)
		if err != nil {
			return err
		}
		unt.Password = enc
		unt.EncryptionAlgorithm = encAlg
	}

	req := &ua.ActivateSessionRequest{
		ClientSignature:    &ua.SignatureData{Algorithm: alg, Signature: sig},
		LocaleIDs:          c.sessionCfg.LocaleIDs,
		UserIdentityToken:  ua.NewExtensionObject(tok),
		UserTokenSignature: c.sessionCfg.UserTokenSignature,
	}
	if _, ok := tok.(*ua.X509IdentityToken); ok && req.UserTokenSignature == nil {
		usig, ualg, err := c.sechan.NewUserTokenSignature("", s.ServerCertificate, s.ServerNonce)
		if err != nil {
			return err
		}
		req.UserTokenSignature = &ua.SignatureData{Algorithm: ualg, Signature: usig}
	}
	if req.UserTokenSignature == nil {
		req.UserTokenSignature = &ua.SignatureData{}
	}

	var res *ua.ActivateSessionResponse
	v, err := c.sechan.SendRequest(ctx, req, s.AuthenticationToken)
	if err != nil {
		return err
	}
	if err := safeAssign(v, &res); err != nil {
		return err
	}

	s.serverNonceMu.Lock()
	s.ServerNonce = res.ServerNonce
	s.serverNonceMu.Unlock()
	return nil
}

// Close closes the session, the secure channel and the underlying
// connection. It is safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	if c.State() == Closed {
		return nil
	}
	c.state.Store(Closed)

	if c.publishCancel != nil {
		c.publishCancel()
	}

	if s, ok := c.session.Load().(*Session); ok && s != nil {
		req := &ua.CloseSessionRequest{DeleteSubscriptions: true}
		if _, err := c.sechan.SendRequest(ctx, req, s.AuthenticationToken); err != nil {
			debug.Printf("opcua: close session failed: %s", err)
		}
	}

	c.mu.Lock()
	sechan := c.sechan
	c.mu.Unlock()
	if sechan == nil {
		return nil
	}
	return sechan.Close(ctx)
}

// Send issues req over the current secure channel, authenticated with the
// active session's token, and returns the decoded response (or an error,
// notably ua.StatusBadSessionIDInvalid / ua.StatusBadSecureChannelIDInvalid
// if the channel is mid-reconnect).
func (c *Client) Send(ctx context.Context, req ua.Request) (interface{}, error) {
	c.mu.Lock()
	sechan := c.sechan
	c.mu.Unlock()
	if sechan == nil {
		return nil, errors.New("opcua: not connected")
	}

	var authToken *ua.NodeId
	if s, ok := c.session.Load().(*Session); ok && s != nil {
		authToken = s.AuthenticationToken
	}
	return sechan.SendRequest(ctx, req, authToken)
}

// GetEndpoints returns the endpoints advertised by the server this Client
// is dialed to.
func (c *Client) GetEndpoints(ctx context.Context) (*ua.GetEndpointsResponse, error) {
	req := &ua.GetEndpointsRequest{EndpointURL: c.endpointURL}
	var res *ua.GetEndpointsResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Read issues a ReadRequest.
func (c *Client) Read(ctx context.Context, req *ua.ReadRequest) (*ua.ReadResponse, error) {
	var res *ua.ReadResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Write issues a WriteRequest.
func (c *Client) Write(ctx context.Context, req *ua.WriteRequest) (*ua.WriteResponse, error) {
	var res *ua.WriteResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Call issues a CallRequest, invoking one or more server-side methods.
func (c *Client) Call(ctx context.Context, req *ua.CallRequest) (*ua.CallResponse, error) {
	var res *ua.CallResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Browse issues a BrowseRequest.
func (c *Client) Browse(ctx context.Context, req *ua.BrowseRequest) (*ua.BrowseResponse, error) {
	var res *ua.BrowseResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// TranslateBrowsePath issues a TranslateBrowsePathsToNodeIdsRequest.
func (c *Client) TranslateBrowsePath(ctx context.Context, req *ua.TranslateBrowsePathsToNodeIdsRequest) (*ua.TranslateBrowsePathsToNodeIdsResponse, error) {
	var res *ua.TranslateBrowsePathsToNodeIdsResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// CreateMonitoredItems issues a CreateMonitoredItemsRequest; Subscription.Monitor
// is the usual caller.
func (c *Client) CreateMonitoredItems(ctx context.Context, req *ua.CreateMonitoredItemsRequest) (*ua.CreateMonitoredItemsResponse, error) {
	var res *ua.CreateMonitoredItemsResponse
	v, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := safeAssign(v, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// Node returns a convenience handle on id (SPEC_FULL.md §4, "Node-attribute
// convenience reads").
func (c *Client) Node(id *ua.NodeId) *Node {
	return &Node{ID: id, c: c}
}

// safeAssign implements a type-safe assign from T to *T, turning a
// mismatched response type into an error instead of a panic.
func safeAssign(t, ptrT interface{}) error {
	if reflect.TypeOf(t) != reflect.TypeOf(ptrT).Elem() {
		return InvalidResponseTypeError{t, ptrT}
	}
	reflect.ValueOf(ptrT).Elem().Set(reflect.ValueOf(t))
	return nil
}

// InvalidResponseTypeError is returned by safeAssign when a service
// returns a response of an unexpected concrete type.
type InvalidResponseTypeError struct {
	got, want interface{}
}

func (e InvalidResponseTypeError) Error() string {
	return fmt.Sprintf("invalid response: got %T want %T", e.got, e.want)
}
