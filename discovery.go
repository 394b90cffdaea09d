// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"
	"sort"

	"github.com/convertersystems/opcua-client/ua"
)

// GetEndpoints opens a temporary None/None secure channel against endpoint,
// issues GetEndpoints and closes the channel again, the discovery pre-flight
// spec.md §4.4 step 1 describes. It dials only — no session is created, so
// this also works against a server that only exposes a discovery endpoint.
func GetEndpoints(ctx context.Context, endpoint string) ([]*ua.EndpointDescription, error) {
	c := NewClient(endpoint, AutoReconnect(false))
	if err := c.dial(ctx); err != nil {
		return nil, err
	}
	defer func() {
		c.mu.Lock()
		sechan := c.sechan
		c.mu.Unlock()
		if sechan != nil {
			sechan.Close(ctx)
		}
	}()

	res, err := c.GetEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	return res.Endpoints, nil
}

// SelectEndpoint returns the endpoint with the highest security level among
// those matching policy and mode; either may be left blank/Invalid to mean
// "don't care". Returns nil if nothing matches.
func SelectEndpoint(endpoints []*ua.EndpointDescription, policy string, mode ua.MessageSecurityMode) *ua.EndpointDescription {
	if len(endpoints) == 0 {
		return nil
	}

	sorted := append([]*ua.EndpointDescription{}, endpoints...)
	sort.Sort(sort.Reverse(bySecurityLevel(sorted)))
	policy = ua.FormatSecurityPolicyURI(policy)

	if policy == "" && mode == ua.MessageSecurityModeInvalid {
		return sorted[0]
	}
	for _, e := range sorted {
		switch {
		case policy == "" && e.SecurityMode == mode:
			return e
		case e.SecurityPolicyURI == policy && mode == ua.MessageSecurityModeInvalid:
			return e
		case e.SecurityPolicyURI == policy && e.SecurityMode == mode:
			return e
		}
	}
	return nil
}

type bySecurityLevel []*ua.EndpointDescription

func (a bySecurityLevel) Len() int           { return len(a) }
func (a bySecurityLevel) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a bySecurityLevel) Less(i, j int) bool { return a[i].SecurityLevel < a[j].SecurityLevel }
