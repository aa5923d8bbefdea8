package flow

// NodeKind selects how the canvas renders a node.
type NodeKind string

const (
	NodeStage      NodeKind = "stage"
	NodeTask       NodeKind = "task"
	NodeSequential NodeKind = "sequential"
	NodeParallel   NodeKind = "parallel"
	NodeCondition  NodeKind = "condition"
)

// Position is a canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a renderable graph node. Data.Type tells the domain entity the
// node stands for; exactly one of Data.Stage, Data.Task and Data.Condition
// is set for nodes produced by materialization.
type Node struct {
	ID        string   `json:"id"`
	Type      NodeKind `json:"type,omitempty"`
	Position  Position `json:"position"`
	Data      NodeData `json:"data"`
	Draggable bool     `json:"draggable,omitempty"`
	Extra     Extra    `json:"-"`
}

func (n Node) Clone() Node {
	n.Data = n.Data.Clone()
	n.Extra = n.Extra.Clone()
	return n
}

func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*n = Node(p)
	n.Extra = extra
	return nil
}

func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	return encodeOpen(plain(n), n.Extra)
}

type NodeData struct {
	Label     string      `json:"label,omitempty"`
	Type      EntityType  `json:"type,omitempty"`
	Stage     *Stage      `json:"stage,omitempty"`
	Task      *Task       `json:"task,omitempty"`
	Condition *Transition `json:"condition,omitempty"`
	Extra     Extra       `json:"-"`
}

func (d NodeData) Clone() NodeData {
	d.Stage = clonePtr(d.Stage, Stage.Clone)
	d.Task = clonePtr(d.Task, Task.Clone)
	d.Condition = clonePtr(d.Condition, Transition.Clone)
	d.Extra = d.Extra.Clone()
	return d
}

func (d *NodeData) UnmarshalJSON(data []byte) error {
	type plain NodeData
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*d = NodeData(p)
	d.Extra = extra
	return nil
}

func (d NodeData) MarshalJSON() ([]byte, error) {
	type plain NodeData
	return encodeOpen(plain(d), d.Extra)
}

// Edge is a renderable directed connection.
type Edge struct {
	ID        string     `json:"id"`
	Source    string     `json:"source"`
	Target    string     `json:"target"`
	Type      string     `json:"type,omitempty"`
	Label     string     `json:"label,omitempty"`
	Style     *EdgeStyle `json:"style,omitempty"`
	MarkerEnd *Marker    `json:"markerEnd,omitempty"`
	Data      *EdgeData  `json:"data,omitempty"`
	Extra     Extra      `json:"-"`
}

// Stroke returns the edge color or "" when no style is set.
func (e Edge) Stroke() string {
	if e.Style == nil {
		return ""
	}
	return e.Style.Stroke
}

func (e Edge) Clone() Edge {
	e.Style = clonePtr(e.Style, EdgeStyle.Clone)
	e.MarkerEnd = clonePtr(e.MarkerEnd, Marker.Clone)
	e.Data = clonePtr(e.Data, EdgeData.Clone)
	e.Extra = e.Extra.Clone()
	return e
}

func (e *Edge) UnmarshalJSON(data []byte) error {
	type plain Edge
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*e = Edge(p)
	e.Extra = extra
	return nil
}

func (e Edge) MarshalJSON() ([]byte, error) {
	type plain Edge
	return encodeOpen(plain(e), e.Extra)
}

type EdgeStyle struct {
	Stroke string `json:"stroke,omitempty"`
	Extra  Extra  `json:"-"`
}

func (s EdgeStyle) Clone() EdgeStyle {
	s.Extra = s.Extra.Clone()
	return s
}

func (s *EdgeStyle) UnmarshalJSON(data []byte) error {
	type plain EdgeStyle
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*s = EdgeStyle(p)
	s.Extra = extra
	return nil
}

func (s EdgeStyle) MarshalJSON() ([]byte, error) {
	type plain EdgeStyle
	return encodeOpen(plain(s), s.Extra)
}

// MarkerArrowClosed is the arrowhead drawn at the end of every edge.
const MarkerArrowClosed = "arrowclosed"

type Marker struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
	Extra Extra  `json:"-"`
}

func (m Marker) Clone() Marker {
	m.Extra = m.Extra.Clone()
	return m
}

func (m *Marker) UnmarshalJSON(data []byte) error {
	type plain Marker
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*m = Marker(p)
	m.Extra = extra
	return nil
}

func (m Marker) MarshalJSON() ([]byte, error) {
	type plain Marker
	return encodeOpen(plain(m), m.Extra)
}

// EdgeData records the domain types of both endpoints.
type EdgeData struct {
	SourceType EntityType `json:"sourceType,omitempty"`
	TargetType EntityType `json:"targetType,omitempty"`
	Extra      Extra      `json:"-"`
}

func (d EdgeData) Clone() EdgeData {
	d.Extra = d.Extra.Clone()
	return d
}

func (d *EdgeData) UnmarshalJSON(data []byte) error {
	type plain EdgeData
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*d = EdgeData(p)
	d.Extra = extra
	return nil
}

func (d EdgeData) MarshalJSON() ([]byte, error) {
	type plain EdgeData
	return encodeOpen(plain(d), d.Extra)
}
