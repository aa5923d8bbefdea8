package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/ctxlog"
	"flowcanvas/internal/flow"
	"flowcanvas/internal/gateway/service/editor"
	flowsvc "flowcanvas/internal/gateway/service/flows"
)

// EditorHandler serves the canvas websocket. Each connection drives one
// editor session; a client may resume a session with ?session_id=.
type EditorHandler struct {
	sessions *editor.Manager
	flows    *flowsvc.Service
}

func NewEditorHandler(sessions *editor.Manager, flows *flowsvc.Service) *EditorHandler {
	return &EditorHandler{sessions: sessions, flows: flows}
}

const (
	editorWSWriteWait = 10 * time.Second
	editorWSPongWait  = 60 * time.Second
	editorWSPingEvery = (editorWSPongWait * 9) / 10
)

var editorWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type editorWSOutbound struct {
	Type      string         `json:"type"`
	SessionID string         `json:"sessionId,omitempty"`
	Graph     *canvas.Graph  `json:"graph,omitempty"`
	Document  *flow.Document `json:"document,omitempty"`
	Node      *flow.Node     `json:"node,omitempty"`
	ID        string         `json:"id,omitempty"`
	Code      string         `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
}

func (h *EditorHandler) HandleEditorWS(w http.ResponseWriter, r *http.Request) {
	log := ctxlog.FromContext(r.Context())
	session, status, err := h.session(r)
	if err != nil {
		http.Error(w, err.Error(), status)
		return
	}

	conn, err := editorWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFlowBodyBytes)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(editorWSPongWait)); err != nil {
		log.Warn("editor ws set read deadline failed", slog.Any("error", err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(editorWSPongWait))
	})

	writeCh := make(chan editorWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(editorWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(editorWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(editorWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
	stop := func() {
		cancel()
		<-writerDone
	}

	doc, graph := session.Snapshot()
	pushEditorWS(writeCh, editorWSOutbound{
		Type:      "session",
		SessionID: session.ID(),
		Graph:     &graph,
		Document:  doc,
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			stop()
			return
		}
		var ev editor.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			pushEditorWS(writeCh, editorWSOutbound{Type: "error", Code: "invalid_argument", Message: "invalid json message"})
			continue
		}
		switch strings.ToLower(strings.TrimSpace(string(ev.Kind))) {
		case "":
			pushEditorWS(writeCh, editorWSOutbound{Type: "error", Code: "invalid_argument", Message: "type is required"})
			continue
		case "ping":
			pushEditorWS(writeCh, editorWSOutbound{Type: "pong"})
			continue
		case "close":
			h.sessions.Close(session.ID())
			stop()
			return
		}

		update, err := session.Apply(ctx, ev)
		if err != nil {
			log.Debug("editor event rejected", slog.String("event", string(ev.Kind)), slog.Any("error", err))
			pushEditorWS(writeCh, editorWSError(ev, err))
			continue
		}
		for _, out := range editorWSUpdates(update) {
			pushEditorWS(writeCh, out)
		}
	}
}

// session resolves the session for a new connection: an existing one by
// ?session_id, or a new one seeded from the saved flow at ?flow_index.
func (h *EditorHandler) session(r *http.Request) (*editor.Session, int, error) {
	q := r.URL.Query()
	if id := strings.TrimSpace(q.Get("session_id")); id != "" {
		s, err := h.sessions.Get(id)
		if err != nil {
			return nil, http.StatusNotFound, err
		}
		return s, http.StatusOK, nil
	}
	var doc *flow.Document
	if raw := strings.TrimSpace(q.Get("flow_index")); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			return nil, http.StatusBadRequest, errors.New("flow_index must be an integer")
		}
		docs, err := h.flows.List(r.Context())
		if err != nil {
			return nil, http.StatusInternalServerError, errors.New(msgFetchFailed)
		}
		if index < 0 || index >= len(docs) {
			return nil, http.StatusNotFound, flowsvc.ErrNotFound
		}
		doc = docs[index]
	}
	return h.sessions.Open(doc), http.StatusOK, nil
}

func editorWSUpdates(u editor.Update) []editorWSOutbound {
	var out []editorWSOutbound
	if u.Graph != nil {
		out = append(out, editorWSOutbound{Type: "graph", Graph: u.Graph})
	}
	if u.Document != nil {
		out = append(out, editorWSOutbound{Type: "document", Document: u.Document})
	}
	if u.Selected != nil {
		out = append(out, editorWSOutbound{Type: "selected", Node: u.Selected})
	}
	if u.SavedID != "" {
		out = append(out, editorWSOutbound{Type: "saved", ID: u.SavedID, Message: msgSaved})
	}
	return out
}

func editorWSError(ev editor.Event, err error) editorWSOutbound {
	switch {
	case errors.Is(err, editor.ErrUnknownEvent),
		errors.Is(err, editor.ErrInvalidEvent),
		errors.Is(err, flow.ErrMalformedDocument):
		return editorWSOutbound{Type: "error", Code: "invalid_argument", Message: err.Error()}
	case ev.Kind == editor.EventSave:
		return editorWSOutbound{Type: "error", Code: "internal", Message: msgSaveFailed}
	default:
		return editorWSOutbound{Type: "error", Code: "internal", Message: err.Error()}
	}
}

func pushEditorWS(writeCh chan editorWSOutbound, out editorWSOutbound) {
	if writeCh == nil {
		return
	}
	select {
	case writeCh <- out:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- out:
	default:
	}
}
