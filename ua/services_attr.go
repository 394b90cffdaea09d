// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

import (
	"time"

	"github.com/convertersystems/opcua-client/id"
)

func init() {
	Register(id.ReadRequest_Encoding_DefaultBinary, (*ReadRequest)(nil))
	Register(id.ReadResponse_Encoding_DefaultBinary, (*ReadResponse)(nil))
	Register(id.WriteRequest_Encoding_DefaultBinary, (*WriteRequest)(nil))
	Register(id.WriteResponse_Encoding_DefaultBinary, (*WriteResponse)(nil))
	Register(id.CallRequest_Encoding_DefaultBinary, (*CallRequest)(nil))
	Register(id.CallResponse_Encoding_DefaultBinary, (*CallResponse)(nil))
	Register(id.BrowseRequest_Encoding_DefaultBinary, (*BrowseRequest)(nil))
	Register(id.BrowseResponse_Encoding_DefaultBinary, (*BrowseResponse)(nil))
	Register(id.TranslateBrowsePathsToNodeIdsRequest_Encoding_DefaultBinary, (*TranslateBrowsePathsToNodeIdsRequest)(nil))
	Register(id.TranslateBrowsePathsToNodeIdsResponse_Encoding_DefaultBinary, (*TranslateBrowsePathsToNodeIdsResponse)(nil))
}

// ReadValueID names one attribute of one node to read.
type ReadValueID struct {
	NodeID       *NodeId
	AttributeID  uint32
	IndexRange   string
	DataEncoding *QualifiedName
}

// NewReadValueID is a convenience constructor for the common case of
// reading a single attribute with no index range or alternate encoding.
func NewReadValueID(n *NodeId, attr uint32) *ReadValueID {
	return &ReadValueID{NodeID: n, AttributeID: attr, DataEncoding: &QualifiedName{}}
}

type ReadRequest struct {
	RequestHeader      *RequestHeader
	MaxAge             float64
	TimestampsToReturn TimestampsToReturn
	NodesToRead        []*ReadValueID
}

func (r *ReadRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *ReadRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type ReadResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*DataValue
	DiagnosticInfos []*DiagnosticInfo
}

func (r *ReadResponse) Header() *ResponseHeader { return r.ResponseHeader }

// WriteValue names one attribute of one node plus the value to write.
type WriteValue struct {
	NodeID      *NodeId
	AttributeID uint32
	IndexRange  string
	Value       *DataValue
}

type WriteRequest struct {
	RequestHeader *RequestHeader
	NodesToWrite  []*WriteValue
}

func (r *WriteRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *WriteRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type WriteResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []StatusCode
	DiagnosticInfos []*DiagnosticInfo
}

func (r *WriteResponse) Header() *ResponseHeader { return r.ResponseHeader }

// CallMethodRequest invokes one method on one object node.
type CallMethodRequest struct {
	ObjectID        *NodeId
	MethodID        *NodeId
	InputArguments  []*Variant
}

type CallMethodResult struct {
	StatusCode                   StatusCode
	InputArgumentResults         []StatusCode
	InputArgumentDiagnosticInfos []*DiagnosticInfo
	OutputArguments              []*Variant
}

type CallRequest struct {
	RequestHeader *RequestHeader
	MethodsToCall []*CallMethodRequest
}

func (r *CallRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *CallRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type CallResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*CallMethodResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *CallResponse) Header() *ResponseHeader { return r.ResponseHeader }

// BrowseDescription, ViewDescription, ReferenceDescription and BrowseResult
// back Client.Browse, a supplemented feature (SPEC_FULL.md §4) grounded in
// the pack's examples/translate.go and examples/accesslevel.go.
type BrowseDescription struct {
	NodeID          *NodeId
	Direction       BrowseDirection
	ReferenceTypeID *NodeId
	IncludeSubtypes bool
	NodeClassMask   uint32
	ResultMask      uint32
}

type ViewDescription struct {
	ViewID      *NodeId
	Timestamp   time.Time
	ViewVersion uint32
}

type BrowseRequest struct {
	RequestHeader                 *RequestHeader
	View                           *ViewDescription
	RequestedMaxReferencesPerNode uint32
	NodesToBrowse                  []*BrowseDescription
}

func (r *BrowseRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *BrowseRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type ReferenceDescription struct {
	ReferenceTypeID *NodeId
	IsForward       bool
	NodeID          *ExpandedNodeId
	BrowseName      *QualifiedName
	DisplayName     *LocalizedText
	NodeClass       NodeClass
	TypeDefinition  *ExpandedNodeId
}

type BrowseResult struct {
	StatusCode        StatusCode
	ContinuationPoint []byte
	References        []*ReferenceDescription
}

type BrowseResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*BrowseResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *BrowseResponse) Header() *ResponseHeader { return r.ResponseHeader }

// RelativePath / BrowsePath back TranslateBrowsePathsToNodeIds.
type RelativePathElement struct {
	ReferenceTypeID *NodeId
	IsInverse       bool
	IncludeSubtypes bool
	TargetName      *QualifiedName
}

type RelativePath struct {
	Elements []*RelativePathElement
}

type BrowsePath struct {
	StartingNode *NodeId
	RelativePath *RelativePath
}

type BrowsePathTarget struct {
	TargetID           *ExpandedNodeId
	RemainingPathIndex uint32
}

type BrowsePathResult struct {
	StatusCode StatusCode
	Targets    []*BrowsePathTarget
}

type TranslateBrowsePathsToNodeIdsRequest struct {
	RequestHeader *RequestHeader
	BrowsePaths   []*BrowsePath
}

func (r *TranslateBrowsePathsToNodeIdsRequest) Header() *RequestHeader    { return r.RequestHeader }
func (r *TranslateBrowsePathsToNodeIdsRequest) SetHeader(h *RequestHeader) { r.RequestHeader = h }

type TranslateBrowsePathsToNodeIdsResponse struct {
	ResponseHeader  *ResponseHeader
	Results         []*BrowsePathResult
	DiagnosticInfos []*DiagnosticInfo
}

func (r *TranslateBrowsePathsToNodeIdsResponse) Header() *ResponseHeader { return r.ResponseHeader }
