package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/internal/flow"
	"flowcanvas/internal/gateway/repository/flowstore"
	flowsvc "flowcanvas/internal/gateway/service/flows"
)

const savedFlow = `{"_id":{"$oid":"oid-1"},"composition":{"name":"Saved","stages":[{"id":"s1","name":"One","tasks":[]}]}}`

type brokenStore struct{}

func (brokenStore) Append(context.Context, flowstore.Record) error {
	return errors.New("connection refused")
}

func (brokenStore) List(context.Context) ([]flowstore.Record, error) {
	return nil, errors.New("connection refused")
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestFlowsHandler_SaveAndList(t *testing.T) {
	h := NewFlowsHandler(flowsvc.New(flowstore.NewMemoryStore()))

	rec := do(t, h.HandleFlows, http.MethodPost, "/api/flows", savedFlow)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Flow saved successfully", body["message"])
	assert.Equal(t, "oid-1", body["id"])

	rec = do(t, h.HandleFlows, http.MethodGet, "/api/flows", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Success bool             `json:"success"`
		Flows   []*flow.Document `json:"flows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.True(t, list.Success)
	require.Len(t, list.Flows, 1)
	assert.Equal(t, "Saved", list.Flows[0].Composition.Name)
	id, _ := list.Flows[0].StringField("id")
	assert.Equal(t, "oid-1", id)
	_, ok := list.Flows[0].StringField("updatedAt")
	assert.True(t, ok)
}

func TestFlowsHandler_RejectsMalformedBody(t *testing.T) {
	h := NewFlowsHandler(flowsvc.New(flowstore.NewMemoryStore()))
	for _, body := range []string{`{"composition":`, `[1,2]`, ``} {
		rec := do(t, h.HandleFlows, http.MethodPost, "/api/flows", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, false, decodeBody(t, rec)["success"])
	}
}

func TestFlowsHandler_StoreFailures(t *testing.T) {
	h := NewFlowsHandler(flowsvc.New(brokenStore{}))

	rec := do(t, h.HandleFlows, http.MethodPost, "/api/flows", savedFlow)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Failed to save flow"}, decodeBody(t, rec))

	rec = do(t, h.HandleFlows, http.MethodGet, "/api/flows", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]any{"success": false, "message": "Failed to fetch flows"}, decodeBody(t, rec))
}

func TestFlowsHandler_MethodNotAllowed(t *testing.T) {
	h := NewFlowsHandler(flowsvc.New(flowstore.NewMemoryStore()))
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h.HandleFlows, http.MethodDelete, "/api/flows", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, h.HandleExport, http.MethodPost, "/api/flows/export", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(t, HandleLegend, http.MethodPost, "/api/legend", "").Code)
}

func TestFlowsHandler_Export(t *testing.T) {
	h := NewFlowsHandler(flowsvc.New(flowstore.NewMemoryStore()))
	require.Equal(t, http.StatusOK, do(t, h.HandleFlows, http.MethodPost, "/api/flows", savedFlow).Code)

	rec := do(t, h.HandleExport, http.MethodGet, "/api/flows/export?index=0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "flow-0.yaml")
	doc, err := flow.ParseYAML(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Saved", doc.Composition.Name)

	assert.Equal(t, http.StatusBadRequest, do(t, h.HandleExport, http.MethodGet, "/api/flows/export?index=first", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h.HandleExport, http.MethodGet, "/api/flows/export?index=3", "").Code)
}

func TestHandleLegend(t *testing.T) {
	rec := do(t, HandleLegend, http.MethodGet, "/api/legend", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Legend []struct {
			Color string `json:"color"`
			Label string `json:"label"`
		} `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out.Legend, 8)
	assert.Equal(t, "#3B82F6", out.Legend[0].Color)
	assert.Equal(t, "Stage Connections", out.Legend[0].Label)
}
