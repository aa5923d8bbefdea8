package canvas

import (
	"strconv"
	"strings"

	"flowcanvas/internal/flow"
)

const duplicateOffset = 50

// VisualKind maps a toolbar entity type to the node kind that renders it.
func VisualKind(kind flow.EntityType) flow.NodeKind {
	lower := strings.ToLower(string(kind))
	switch lower {
	case strings.ToLower(string(flow.TypeAPICall)), strings.ToLower(string(flow.TypeTransformation)):
		return flow.NodeTask
	}
	return flow.NodeKind(lower)
}

// NewNodeID builds the id of a node created on the canvas.
func NewNodeID(kind flow.EntityType, millis int64) string {
	return strings.ToLower(string(kind)) + "_" + strconv.FormatInt(millis, 10)
}

// NewNode builds a node of the given entity type with its default payload.
func NewNode(kind flow.EntityType, id string, pos flow.Position) flow.Node {
	label := "New " + strings.Replace(string(kind), "_", " ", 1)
	data := flow.NodeData{Label: label, Type: kind}
	switch kind {
	case flow.TypeStage:
		data.Stage = &flow.Stage{ID: id, Name: "New " + string(kind), Tasks: []flow.Task{}}
	case flow.TypeCondition:
		data.Condition = &flow.Transition{Type: flow.TransitionChoice, Conditions: []flow.Branch{}}
	default:
		data.Task = &flow.Task{ID: id, Name: label, Type: kind, ResponseKey: id + "_response"}
	}
	return flow.Node{
		ID:        id,
		Type:      VisualKind(kind),
		Position:  pos,
		Data:      data,
		Draggable: true,
	}
}

// DuplicateNode copies n under a new id, shifted down and to the right.
// The embedded stage or task payload takes the new id.
func DuplicateNode(n flow.Node, id string) flow.Node {
	out := n.Clone()
	out.ID = id
	out.Position.X += duplicateOffset
	out.Position.Y += duplicateOffset
	out.Draggable = true
	if out.Data.Stage != nil {
		out.Data.Stage.ID = id
	}
	if out.Data.Task != nil {
		out.Data.Task.ID = id
	}
	return out
}

// ConnectEdge builds the edge for a connection drawn between two existing
// nodes. It reports false when either endpoint is missing.
func ConnectEdge(nodes []flow.Node, edges []flow.Edge, source, target string) (flow.Edge, bool) {
	src, ok := findNode(nodes, source)
	if !ok {
		return flow.Edge{}, false
	}
	dst, ok := findNode(nodes, target)
	if !ok {
		return flow.Edge{}, false
	}
	color := ClassifyConnection(src.Data.Type, dst.Data.Type)
	return newEdge(NewEdgeID(edges, source, target), source, target, src.Data.Type, dst.Data.Type, "", color), true
}
