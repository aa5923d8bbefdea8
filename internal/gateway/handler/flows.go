package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/ctxlog"
	"flowcanvas/internal/flow"
	flowsvc "flowcanvas/internal/gateway/service/flows"
)

const maxFlowBodyBytes = 8 << 20

const (
	msgSaved       = "Flow saved successfully"
	msgSaveFailed  = "Failed to save flow"
	msgFetchFailed = "Failed to fetch flows"
	msgInvalidFlow = "Invalid flow document"
)

type FlowsHandler struct {
	svc *flowsvc.Service
}

func NewFlowsHandler(svc *flowsvc.Service) *FlowsHandler {
	return &FlowsHandler{svc: svc}
}

// HandleFlows serves POST (save) and GET (list) on /api/flows.
func (h *FlowsHandler) HandleFlows(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.save(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *FlowsHandler) save(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxFlowBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msgInvalidFlow})
		return
	}
	doc, err := flow.Parse(body)
	if err != nil {
		ctxlog.FromContext(r.Context()).Warn("rejected flow body", slog.Any("error", err))
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": msgInvalidFlow})
		return
	}
	id, err := h.svc.Save(r.Context(), doc)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": msgSaveFailed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msgSaved,
		"id":      id,
	})
}

func (h *FlowsHandler) list(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "message": msgFetchFailed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"flows":   docs,
	})
}

// HandleExport renders the saved flow at ?index=N as a YAML download.
func (h *FlowsHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	index, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get("index")))
	if err != nil {
		http.Error(w, "index must be an integer", http.StatusBadRequest)
		return
	}
	out, err := h.svc.ExportYAML(r.Context(), index)
	switch {
	case errors.Is(err, flowsvc.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, msgFetchFailed, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="flow-%d.yaml"`, index))
	_, _ = w.Write(out)
}

// HandleLegend lists the edge colors shown next to the canvas.
func HandleLegend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"legend": canvas.Legend()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
