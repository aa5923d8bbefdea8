package editor

import (
	"context"
	"errors"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/flow"
)

var (
	ErrUnknownEvent    = errors.New("unknown editor event")
	ErrInvalidEvent    = errors.New("invalid editor event")
	ErrSessionNotFound = errors.New("editor session not found")
)

// Saver persists a document and returns the id it was stored under.
type Saver interface {
	Save(ctx context.Context, doc *flow.Document) (string, error)
}

type EventKind string

const (
	EventNodeDragStart    EventKind = "node_drag_start"
	EventNodeDrag         EventKind = "node_drag"
	EventNodeDragStop     EventKind = "node_drag_stop"
	EventNodeMoved        EventKind = "node_moved"
	EventNodeClicked      EventKind = "node_clicked"
	EventEdgeDrawn        EventKind = "edge_drawn"
	EventNodeDropped      EventKind = "node_dropped"
	EventNodeAdded        EventKind = "node_added"
	EventNodeRemoved      EventKind = "node_removed"
	EventEdgeRemoved      EventKind = "edge_removed"
	EventNodeUpdated      EventKind = "node_updated"
	EventNodeDuplicated   EventKind = "node_duplicated"
	EventDocumentReplaced EventKind = "document_replaced"
	EventLayoutOptimized  EventKind = "layout_optimized"
	EventLayoutRandomized EventKind = "layout_randomized"
	EventSave             EventKind = "save"
)

// Event is one raw gesture reported by the canvas. Which fields are read
// depends on Kind.
type Event struct {
	Kind     EventKind       `json:"type"`
	NodeID   string          `json:"node_id,omitempty"`
	EdgeID   string          `json:"edge_id,omitempty"`
	Source   string          `json:"source,omitempty"`
	Target   string          `json:"target,omitempty"`
	Position *flow.Position  `json:"position,omitempty"`
	NodeType flow.EntityType `json:"node_type,omitempty"`
	Data     *flow.NodeData  `json:"data,omitempty"`
	Format   string          `json:"format,omitempty"`
	Text     string          `json:"text,omitempty"`
}

// Update reports what an applied event changed. Nil fields are unchanged.
type Update struct {
	Graph    *canvas.Graph
	Document *flow.Document
	Selected *flow.Node
	SavedID  string
}

// Empty reports whether the event changed nothing the client renders.
func (u Update) Empty() bool {
	return u.Graph == nil && u.Document == nil && u.Selected == nil && u.SavedID == ""
}
