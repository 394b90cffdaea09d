// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package opcua

import (
	"context"

	"github.com/convertersystems/opcua-client/id"
	"github.com/convertersystems/opcua-client/ua"
)

// Node is a thin veneer over Client.Read for a single NodeId, the
// high-level convenience surface examples/accesslevel and
// examples/translate reach for instead of building ReadRequests by hand
// (SPEC_FULL.md §4, "Node-attribute convenience reads").
type Node struct {
	ID *ua.NodeId
	c  *Client
}

func (n *Node) attr(ctx context.Context, attributeID uint32) (*ua.DataValue, error) {
	req := &ua.ReadRequest{
		TimestampsToReturn: ua.TimestampsToReturnBoth,
		NodesToRead: []*ua.ReadValueID{
			ua.NewReadValueID(n.ID, attributeID),
		},
	}
	res, err := n.c.Read(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Results) != 1 {
		return nil, ua.StatusBadUnknownResponse
	}
	dv := res.Results[0]
	if dv.Status != ua.StatusOK {
		return dv, dv.Status
	}
	return dv, nil
}

// Value reads the node's Value attribute.
func (n *Node) Value(ctx context.Context) (*ua.Variant, error) {
	dv, err := n.attr(ctx, id.AttributeIDValue)
	if err != nil {
		return nil, err
	}
	return dv.Value, nil
}

// Attribute reads an arbitrary attribute by numeric id (one of the
// id.AttributeID* constants).
func (n *Node) Attribute(ctx context.Context, attributeID uint32) (*ua.DataValue, error) {
	return n.attr(ctx, attributeID)
}

// AccessLevel reads the node's AccessLevel attribute as a byte bitmask.
func (n *Node) AccessLevel(ctx context.Context) (byte, error) {
	dv, err := n.attr(ctx, id.AttributeIDAccessLevel)
	if err != nil {
		return 0, err
	}
	b, _ := dv.Value.Value.(byte)
	return b, nil
}

// UserAccessLevel reads the node's UserAccessLevel attribute.
func (n *Node) UserAccessLevel(ctx context.Context) (byte, error) {
	dv, err := n.attr(ctx, id.AttributeIDUserAccessLevel)
	if err != nil {
		return 0, err
	}
	b, _ := dv.Value.Value.(byte)
	return b, nil
}

// DataType reads the node's DataType attribute as a NodeId.
func (n *Node) DataType(ctx context.Context) (*ua.NodeId, error) {
	dv, err := n.attr(ctx, id.AttributeIDDataType)
	if err != nil {
		return nil, err
	}
	nid, _ := dv.Value.Value.(*ua.NodeId)
	return nid, nil
}

// TranslateBrowsePathInNamespaceToNodeID resolves path (a "/"-free browse
// name, or a RelativePath-style string already tokenized by the caller)
// rooted at this node, within namespace ns, to a target NodeId
// (examples/translate.go's usage pattern).
func (n *Node) TranslateBrowsePathInNamespaceToNodeID(ctx context.Context, ns uint16, path string) (*ua.NodeId, error) {
	// HierarchicalReferences (i=33) is the reference type every OPC UA
	// server accepts for a plain name-based browse path.
	req := &ua.TranslateBrowsePathsToNodeIdsRequest{
		BrowsePaths: []*ua.BrowsePath{
			{
				StartingNode: n.ID,
				RelativePath: &ua.RelativePath{
					Elements: []*ua.RelativePathElement{
						{
							ReferenceTypeID: ua.NewNumericNodeID(0, 33),
							IncludeSubtypes: true,
							TargetName:      &ua.QualifiedName{NamespaceIndex: ns, Name: path},
						},
					},
				},
			},
		},
	}

	res, err := n.c.TranslateBrowsePath(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Results) != 1 {
		return nil, ua.StatusBadUnknownResponse
	}
	result := res.Results[0]
	if result.StatusCode != ua.StatusOK {
		return nil, result.StatusCode
	}
	if len(result.Targets) == 0 {
		return nil, ua.StatusBadUnknownResponse
	}
	return result.Targets[0].TargetID.NodeID, nil
}
