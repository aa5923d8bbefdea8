package canvas

import "flowcanvas/internal/flow"

// EdgeTypeCustom is the renderer edge type used for every edge.
const EdgeTypeCustom = "custom"

const decisionLabel = "Decision Point"

// Graph is the renderable form of a document.
type Graph struct {
	Nodes []flow.Node `json:"nodes"`
	Edges []flow.Edge `json:"edges"`
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (flow.Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return flow.Node{}, false
}

// Materialize produces the graph for doc. When doc already carries a
// non-empty graph it is returned restamped with renderer defaults;
// otherwise the graph is derived from the composition. doc is not
// modified.
func Materialize(doc *flow.Document) Graph {
	if doc.HasGraph() {
		return restamp(doc.Nodes, doc.Edges)
	}
	if doc == nil || doc.Composition == nil {
		return Graph{Nodes: []flow.Node{}, Edges: []flow.Edge{}}
	}
	return build(doc.Composition)
}

func restamp(nodes []flow.Node, edges []flow.Edge) Graph {
	g := Graph{
		Nodes: make([]flow.Node, len(nodes)),
		Edges: make([]flow.Edge, len(edges)),
	}
	for i, n := range nodes {
		n = n.Clone()
		n.Draggable = true
		g.Nodes[i] = n
	}
	for i, e := range edges {
		e = e.Clone()
		e.Type = EdgeTypeCustom
		color := e.Stroke()
		if color == "" {
			color = string(ColorNeutral)
		}
		e.MarkerEnd = &flow.Marker{Type: flow.MarkerArrowClosed, Color: color}
		g.Edges[i] = e
	}
	return g
}

// endpoint is the tail of the chain being built inside a stage.
type endpoint struct {
	ref NodeRef
	typ flow.EntityType
}

type builder struct {
	graph    Graph
	declared map[NodeRef]bool
	ids      edgeIDs
}

func build(c *flow.Composition) Graph {
	b := &builder{
		graph:    Graph{Nodes: []flow.Node{}, Edges: []flow.Edge{}},
		declared: make(map[NodeRef]bool, len(c.Stages)),
		ids:      edgeIDs{},
	}
	for _, s := range c.Stages {
		b.declared[StageRef(s.ID)] = true
	}
	for i, s := range c.Stages {
		b.stage(i, s)
	}
	return b.graph
}

func (b *builder) stage(stageIndex int, s flow.Stage) {
	payload := flow.Stage{
		ID:                   s.ID,
		Name:                 s.Name,
		PostTransformationID: s.PostTransformationID,
		Tasks:                cloneTasks(s.Tasks),
		Extra:                s.Extra.Clone(),
	}
	if payload.Tasks == nil {
		payload.Tasks = []flow.Task{}
	}
	ref := StageRef(s.ID)
	b.addNode(ref, flow.Node{
		Type:     flow.NodeStage,
		Position: Allocate(Slot{Stage: stageIndex}),
		Data: flow.NodeData{
			Label: s.Name,
			Type:  flow.TypeStage,
			Stage: &payload,
		},
	})

	prev := endpoint{ref: ref, typ: flow.TypeStage}
	for i, t := range s.Tasks {
		prev = b.task(Slot{Stage: stageIndex, Task: i + 1}, t, prev)
	}

	if s.NextStage.IsChoice() {
		b.decision(stageIndex, s, prev)
	}
}

func (b *builder) task(slot Slot, t flow.Task, prev endpoint) endpoint {
	ref := TaskRef(t.ID)
	switch t.Kind() {
	case flow.KindSequential:
		b.addGroup(ref, flow.NodeSequential, flow.TypeSequential, slot, t)
		b.connect(prev, endpoint{ref, flow.TypeSequential}, "")
		tail := endpoint{ref: ref, typ: flow.TypeSequential}
		for i, member := range t.Tasks {
			next := b.member(slot, i, member)
			b.connect(tail, next, "")
			tail = next
		}
		if n := len(t.Tasks); n > 0 {
			last := t.Tasks[n-1]
			return endpoint{ref: TaskRef(firstNonEmpty(last.ID, t.ID)), typ: flow.EntityType(firstNonEmpty(string(last.Type), string(t.Type)))}
		}
		return endpoint{ref: ref, typ: t.Type}
	case flow.KindParallel:
		b.addGroup(ref, flow.NodeParallel, flow.TypeParallel, slot, t)
		b.connect(prev, endpoint{ref, flow.TypeParallel}, "")
		group := endpoint{ref: ref, typ: flow.TypeParallel}
		for i, member := range t.Tasks {
			b.connect(group, b.member(slot, i, member), "")
		}
		return endpoint{ref: ref, typ: t.Type}
	default:
		leaf := t.Flat()
		b.addNode(ref, flow.Node{
			Type:     flow.NodeTask,
			Position: Allocate(slot),
			Data:     flow.NodeData{Label: t.Name, Type: t.Type, Task: &leaf},
		})
		next := endpoint{ref: ref, typ: t.Type}
		b.connect(prev, next, "")
		return next
	}
}

func (b *builder) addGroup(ref NodeRef, kind flow.NodeKind, typ flow.EntityType, slot Slot, t flow.Task) {
	payload := t.Clone()
	payload.EndpointID = ""
	payload.TransformationID = ""
	b.addNode(ref, flow.Node{
		Type:     kind,
		Position: Allocate(slot),
		Data:     flow.NodeData{Label: t.Name, Type: typ, Task: &payload},
	})
}

// member emits a group member. Members render as plain task nodes even
// when they are groups themselves.
func (b *builder) member(groupSlot Slot, nestedIndex int, t flow.Task) endpoint {
	ref := TaskRef(t.ID)
	leaf := t.Flat()
	b.addNode(ref, flow.Node{
		Type:     flow.NodeTask,
		Position: Allocate(Slot{Stage: groupSlot.Stage, Task: groupSlot.Task, Nested: nestedIndex, IsNested: true}),
		Data:     flow.NodeData{Label: t.Name, Type: t.Type, Task: &leaf},
	})
	return endpoint{ref: ref, typ: t.Type}
}

func (b *builder) decision(stageIndex int, s flow.Stage, prev endpoint) {
	ref := DecisionRef(s.ID)
	rule := s.NextStage.Clone()
	b.addNode(ref, flow.Node{
		Type:     flow.NodeCondition,
		Position: ConditionPosition(stageIndex, len(s.Tasks)),
		Data:     flow.NodeData{Label: decisionLabel, Type: flow.TypeCondition, Condition: &rule},
	})
	from := endpoint{ref: ref, typ: flow.TypeCondition}
	b.connect(prev, from, "")
	for _, br := range s.NextStage.Conditions {
		if target := StageRef(br.Stage); b.declared[target] {
			b.connect(from, endpoint{target, flow.TypeStage}, LabelTrue)
		}
	}
	if target := StageRef(s.NextStage.DefaultStage); target.ID != "" && b.declared[target] {
		b.connect(from, endpoint{target, flow.TypeStage}, LabelDefault)
	}
}

func (b *builder) addNode(ref NodeRef, n flow.Node) {
	n.ID = ref.NodeID()
	n.Draggable = true
	b.graph.Nodes = append(b.graph.Nodes, n)
}

func (b *builder) connect(from, to endpoint, label string) {
	source, target := from.ref.NodeID(), to.ref.NodeID()
	color := Classify(from.typ, to.typ, label)
	b.graph.Edges = append(b.graph.Edges, newEdge(b.ids.next(source, target), source, target, from.typ, to.typ, label, color))
}

func newEdge(id, source, target string, sourceType, targetType flow.EntityType, label string, color Color) flow.Edge {
	return flow.Edge{
		ID:        id,
		Source:    source,
		Target:    target,
		Type:      EdgeTypeCustom,
		Label:     label,
		Style:     &flow.EdgeStyle{Stroke: string(color)},
		MarkerEnd: &flow.Marker{Type: flow.MarkerArrowClosed, Color: string(color)},
		Data:      &flow.EdgeData{SourceType: sourceType, TargetType: targetType},
	}
}

func cloneTasks(in []flow.Task) []flow.Task {
	if in == nil {
		return nil
	}
	out := make([]flow.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
