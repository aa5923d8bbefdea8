package server

import (
	"log/slog"
	"net/http"

	"flowcanvas/internal/gateway/handler"
	"flowcanvas/internal/gateway/handler/rpc"
	"flowcanvas/internal/gateway/middleware"
)

func NewMux(
	logger *slog.Logger,
	allowedOrigins []string,
	flowsHandler *handler.FlowsHandler,
	editorHandler *handler.EditorHandler,
	flowRPC *rpc.FlowHandler,
) http.Handler {
	mux := http.NewServeMux()

	// RPC Handlers
	mux.Handle(rpc.NewFlowServiceHandler(flowRPC))

	// REST Handlers
	mux.HandleFunc("/api/flows", flowsHandler.HandleFlows)
	mux.HandleFunc("/api/flows/export", flowsHandler.HandleExport)
	mux.HandleFunc("/api/legend", handler.HandleLegend)

	// Websocket
	mux.HandleFunc("/ws/editor", editorHandler.HandleEditorWS)

	// Middleware
	return middleware.RequestLogger(logger, middleware.CORS(allowedOrigins, mux))
}
