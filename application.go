// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"sync"

	"github.com/convertersystems/opcua-client/ua"
)

// Application is the fluent entry point spec.md §2 calls the "Application
// object": a named identity plus a set of default Options, lazily handing
// out Clients ("Session Channels" in spec.md terms) for endpoints it is
// asked to dial. It does no connection work itself.
type Application struct {
	name string
	opts []Option

	mu      sync.Mutex
	clients map[string]*Client
}

// NewApplication names the client application (used in ApplicationDescription
// unless overridden by ClientDescription) and records default options every
// Dial call inherits.
func NewApplication(name string, opts ...Option) *Application {
	return &Application{name: name, opts: opts, clients: make(map[string]*Client)}
}

// Dial returns the (possibly cached) Client for endpoint, connecting it if
// this is the first call. Per-call opts are appended after the
// Application's own defaults, so they can override them.
func (a *Application) Dial(ctx context.Context, endpoint string, opts ...Option) (*Client, error) {
	a.mu.Lock()
	c, ok := a.clients[endpoint]
	a.mu.Unlock()
	if ok {
		return c, nil
	}

	named := ClientDescription(&ua.ApplicationDescription{
		ApplicationURI:  "urn:opcua-client",
		ApplicationName: ua.NewLocalizedText("", a.name),
		ApplicationType: 1, // Client
	})
	all := append(append([]Option{named}, a.opts...), opts...)
	c = NewClient(endpoint, all...)
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.clients[endpoint] = c
	a.mu.Unlock()
	return c, nil
}

// Close closes every Client this Application has opened.
func (a *Application) Close(ctx context.Context) error {
	a.mu.Lock()
	clients := a.clients
	a.clients = make(map[string]*Client)
	a.mu.Unlock()

	var firstErr error
	for _, c := range clients {
		if err := c.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
