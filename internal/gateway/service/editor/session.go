package editor

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"flowcanvas/internal/canvas"
	"flowcanvas/internal/flow"
)

// Session holds the editing state of one canvas: the document, the live
// graph rendered from it and the current selection. Events are applied one
// at a time.
type Session struct {
	id     string
	saver  Saver
	logger *slog.Logger
	now    func() time.Time
	rng    *rand.Rand

	mu       sync.Mutex
	doc      *flow.Document
	graph    canvas.Graph
	// pending is set while drag positions in graph have not been folded.
	pending  bool
	selected string
}

func newSession(id string, doc *flow.Document, saver Saver, logger *slog.Logger, now func() time.Time, rng *rand.Rand) *Session {
	doc = doc.Clone()
	if doc == nil {
		doc = &flow.Document{}
	}
	return &Session{
		id:     id,
		saver:  saver,
		logger: logger.With(slog.String("session_id", id)),
		now:    now,
		rng:    rng,
		doc:    doc,
		graph:  canvas.Materialize(doc),
	}
}

func (s *Session) ID() string { return s.id }

// Snapshot returns copies of the current document and graph.
func (s *Session) Snapshot() (*flow.Document, canvas.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone(), copyGraph(s.graph)
}

// Apply handles one canvas event. A rejected event leaves the session
// unchanged.
func (s *Session) Apply(ctx context.Context, ev Event) (Update, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("apply editor event", slog.String("event", string(ev.Kind)), slog.String("node_id", ev.NodeID))
	switch ev.Kind {
	case EventNodeDragStart:
		if _, err := s.nodeIndex(ev.NodeID); err != nil {
			return Update{}, err
		}
		return Update{}, nil
	case EventNodeDrag:
		i, err := s.movable(ev)
		if err != nil {
			return Update{}, err
		}
		s.graph.Nodes[i].Position = *ev.Position
		s.pending = true
		return s.graphUpdate(), nil
	case EventNodeDragStop:
		i, err := s.nodeIndex(ev.NodeID)
		if err != nil {
			return Update{}, err
		}
		if ev.Position != nil {
			s.graph.Nodes[i].Position = *ev.Position
		}
		return s.fold(), nil
	case EventNodeMoved:
		i, err := s.movable(ev)
		if err != nil {
			return Update{}, err
		}
		s.graph.Nodes[i].Position = *ev.Position
		return s.fold(), nil
	case EventNodeClicked:
		i, err := s.nodeIndex(ev.NodeID)
		if err != nil {
			return Update{}, err
		}
		s.selected = ev.NodeID
		n := s.graph.Nodes[i].Clone()
		return Update{Selected: &n}, nil
	case EventEdgeDrawn:
		return s.drawEdge(ev)
	case EventNodeDropped:
		if ev.Position == nil {
			return Update{}, fmt.Errorf("%w: position is required", ErrInvalidEvent)
		}
		return s.addNode(ev.NodeType, *ev.Position)
	case EventNodeAdded:
		return s.addNode(ev.NodeType, canvas.FreeSlot(s.graph.Nodes))
	case EventNodeRemoved:
		return s.removeNode(ev.NodeID)
	case EventEdgeRemoved:
		i := slices.IndexFunc(s.graph.Edges, func(e flow.Edge) bool { return e.ID == ev.EdgeID })
		if i < 0 {
			return Update{}, fmt.Errorf("%w: edge %q not found", ErrInvalidEvent, ev.EdgeID)
		}
		s.graph.Edges = slices.Delete(s.graph.Edges, i, i+1)
		return s.fold(), nil
	case EventNodeUpdated:
		i, err := s.nodeIndex(ev.NodeID)
		if err != nil {
			return Update{}, err
		}
		if ev.Data == nil {
			return Update{}, fmt.Errorf("%w: data is required", ErrInvalidEvent)
		}
		s.graph.Nodes[i].Data = ev.Data.Clone()
		return s.fold(), nil
	case EventNodeDuplicated:
		i, err := s.nodeIndex(ev.NodeID)
		if err != nil {
			return Update{}, err
		}
		src := s.graph.Nodes[i]
		kind := src.Data.Type
		if kind == "" {
			kind = flow.EntityType(strings.ToUpper(string(src.Type)))
		}
		s.graph.Nodes = append(s.graph.Nodes, canvas.DuplicateNode(src, s.nextNodeID(kind)))
		return s.fold(), nil
	case EventDocumentReplaced:
		return s.replaceDocument(ev)
	case EventLayoutOptimized:
		s.graph.Nodes = canvas.OptimizeLayout(s.graph.Nodes)
		return s.fold(), nil
	case EventLayoutRandomized:
		s.graph.Nodes = canvas.RandomizeLayout(s.graph.Nodes, s.rng)
		return s.fold(), nil
	case EventSave:
		return s.save(ctx)
	default:
		return Update{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
}

func (s *Session) nodeIndex(id string) (int, error) {
	if strings.TrimSpace(id) == "" {
		return -1, fmt.Errorf("%w: node_id is required", ErrInvalidEvent)
	}
	i := slices.IndexFunc(s.graph.Nodes, func(n flow.Node) bool { return n.ID == id })
	if i < 0 {
		return -1, fmt.Errorf("%w: node %q not found", ErrInvalidEvent, id)
	}
	return i, nil
}

func (s *Session) movable(ev Event) (int, error) {
	i, err := s.nodeIndex(ev.NodeID)
	if err != nil {
		return -1, err
	}
	if ev.Position == nil {
		return -1, fmt.Errorf("%w: position is required", ErrInvalidEvent)
	}
	return i, nil
}

func (s *Session) drawEdge(ev Event) (Update, error) {
	if ev.Source == "" || ev.Target == "" {
		return Update{}, fmt.Errorf("%w: source and target are required", ErrInvalidEvent)
	}
	e, ok := canvas.ConnectEdge(s.graph.Nodes, s.graph.Edges, ev.Source, ev.Target)
	if !ok {
		return Update{}, fmt.Errorf("%w: edge %s -> %s has a missing endpoint", ErrInvalidEvent, ev.Source, ev.Target)
	}
	s.graph.Edges = append(s.graph.Edges, e)
	return s.fold(), nil
}

func (s *Session) addNode(kind flow.EntityType, pos flow.Position) (Update, error) {
	if strings.TrimSpace(string(kind)) == "" {
		return Update{}, fmt.Errorf("%w: node_type is required", ErrInvalidEvent)
	}
	s.graph.Nodes = append(s.graph.Nodes, canvas.NewNode(kind, s.nextNodeID(kind), pos))
	return s.fold(), nil
}

func (s *Session) removeNode(id string) (Update, error) {
	i, err := s.nodeIndex(id)
	if err != nil {
		return Update{}, err
	}
	s.graph.Nodes = slices.Delete(s.graph.Nodes, i, i+1)
	s.graph.Edges = slices.DeleteFunc(s.graph.Edges, func(e flow.Edge) bool {
		return e.Source == id || e.Target == id
	})
	if s.selected == id {
		s.selected = ""
	}
	return s.fold(), nil
}

// replaceDocument swaps in a document typed by the user. Its cached graph
// is discarded so the canvas is rebuilt from the composition.
func (s *Session) replaceDocument(ev Event) (Update, error) {
	doc, err := flow.ParseFormat(ev.Format, []byte(ev.Text))
	if err != nil {
		s.logger.Warn("document replace rejected", slog.Any("error", err))
		return Update{}, err
	}
	doc.Nodes = nil
	doc.Edges = nil
	s.doc = doc
	s.graph = canvas.Materialize(doc)
	s.pending = false
	s.selected = ""
	g := copyGraph(s.graph)
	return Update{Graph: &g, Document: s.doc.Clone()}, nil
}

func (s *Session) save(ctx context.Context) (Update, error) {
	if s.saver == nil {
		return Update{}, fmt.Errorf("save is not available")
	}
	doc := s.doc
	if s.pending {
		doc = canvas.Fold(s.graph.Nodes, s.graph.Edges, s.doc)
	}
	id, err := s.saver.Save(ctx, doc)
	if err != nil {
		s.logger.Error("save flow failed", slog.Any("error", err))
		return Update{}, err
	}
	s.doc = doc
	s.pending = false
	s.logger.Info("flow saved", slog.String("flow_id", id))
	return Update{SavedID: id}, nil
}

// fold writes the live graph back into the document and reports both.
func (s *Session) fold() Update {
	s.doc = canvas.Fold(s.graph.Nodes, s.graph.Edges, s.doc)
	s.pending = false
	s.logger.Debug("graph folded", slog.Int("nodes", len(s.graph.Nodes)), slog.Int("edges", len(s.graph.Edges)))
	u := s.graphUpdate()
	u.Document = s.doc.Clone()
	return u
}

func (s *Session) graphUpdate() Update {
	g := copyGraph(s.graph)
	return Update{Graph: &g}
}

// nextNodeID derives an id from the clock, stepping forward past ids that
// are already taken.
func (s *Session) nextNodeID(kind flow.EntityType) string {
	millis := s.now().UnixMilli()
	for {
		id := canvas.NewNodeID(kind, millis)
		if slices.IndexFunc(s.graph.Nodes, func(n flow.Node) bool { return n.ID == id }) < 0 {
			return id
		}
		millis++
	}
}

func copyGraph(g canvas.Graph) canvas.Graph {
	out := canvas.Graph{
		Nodes: make([]flow.Node, len(g.Nodes)),
		Edges: make([]flow.Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = n.Clone()
	}
	for i, e := range g.Edges {
		out.Edges[i] = e.Clone()
	}
	return out
}
