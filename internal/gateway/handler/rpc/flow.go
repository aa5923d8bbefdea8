package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/flow"
	flowsvc "flowcanvas/internal/gateway/service/flows"
)

const FlowServiceName = "flowcanvas.v1.FlowService"

const (
	SaveFlowProcedure        = "/" + FlowServiceName + "/SaveFlow"
	ListFlowsProcedure       = "/" + FlowServiceName + "/ListFlows"
	MaterializeFlowProcedure = "/" + FlowServiceName + "/MaterializeFlow"
	FoldFlowProcedure        = "/" + FlowServiceName + "/FoldFlow"
)

// FlowHandler exposes flow persistence and conversion over Connect. Flow
// documents travel as google.protobuf.Struct so no generated code is
// needed.
type FlowHandler struct {
	svc *flowsvc.Service
}

func NewFlowHandler(svc *flowsvc.Service) *FlowHandler {
	return &FlowHandler{svc: svc}
}

// NewFlowServiceHandler builds the HTTP handler for FlowService and
// returns the path prefix to mount it on.
func NewFlowServiceHandler(h *FlowHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(SaveFlowProcedure, connect.NewUnaryHandler(SaveFlowProcedure, h.SaveFlow, opts...))
	mux.Handle(ListFlowsProcedure, connect.NewUnaryHandler(ListFlowsProcedure, h.ListFlows, opts...))
	mux.Handle(MaterializeFlowProcedure, connect.NewUnaryHandler(MaterializeFlowProcedure, h.MaterializeFlow, opts...))
	mux.Handle(FoldFlowProcedure, connect.NewUnaryHandler(FoldFlowProcedure, h.FoldFlow, opts...))
	return "/" + FlowServiceName + "/", mux
}

func (h *FlowHandler) SaveFlow(ctx context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	doc, err := documentFromStruct(req.Msg)
	if err != nil {
		return nil, toFlowError(err)
	}
	id, err := h.svc.Save(ctx, doc)
	if err != nil {
		return nil, toFlowError(err)
	}
	return structResponse(map[string]any{
		"success": true,
		"message": "Flow saved successfully",
		"id":      id,
	})
}

func (h *FlowHandler) ListFlows(ctx context.Context, _ *connect.Request[emptypb.Empty]) (*connect.Response[structpb.Struct], error) {
	docs, err := h.svc.List(ctx)
	if err != nil {
		return nil, toFlowError(err)
	}
	return structResponse(map[string]any{
		"success": true,
		"flows":   docs,
	})
}

// MaterializeFlow renders a document as nodes and edges.
func (h *FlowHandler) MaterializeFlow(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	doc, err := documentFromStruct(req.Msg)
	if err != nil {
		return nil, toFlowError(err)
	}
	return structResponse(canvas.Materialize(doc))
}

// FoldFlow takes {nodes, edges, previous} and returns the folded document.
func (h *FlowHandler) FoldFlow(_ context.Context, req *connect.Request[structpb.Struct]) (*connect.Response[structpb.Struct], error) {
	raw, err := structJSON(req.Msg)
	if err != nil {
		return nil, toFlowError(err)
	}
	var in struct {
		Nodes    []flow.Node    `json:"nodes"`
		Edges    []flow.Edge    `json:"edges"`
		Previous *flow.Document `json:"previous"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, toFlowError(&flow.ParseError{Format: flow.FormatJSON, Err: err})
	}
	if in.Nodes == nil {
		in.Nodes = []flow.Node{}
	}
	if in.Edges == nil {
		in.Edges = []flow.Edge{}
	}
	return structResponse(canvas.Fold(in.Nodes, in.Edges, in.Previous))
}

func toFlowError(err error) error {
	switch {
	case errors.Is(err, flow.ErrMalformedDocument):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, flowsvc.ErrSaveFailed):
		return connect.NewError(connect.CodeInternal, errors.New("Failed to save flow"))
	case errors.Is(err, flowsvc.ErrListFailed):
		return connect.NewError(connect.CodeInternal, errors.New("Failed to fetch flows"))
	}
	return connect.NewError(connect.CodeInternal, fmt.Errorf("flow service failed: %w", err))
}
