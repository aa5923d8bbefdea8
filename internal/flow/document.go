package flow

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is the flow record exchanged with the editor. Nodes and Edges
// are nil when the keys are absent and non-nil (possibly empty) when they
// are present; materialization depends on that distinction.
type Document struct {
	Composition *Composition `json:"composition,omitempty"`
	Nodes       []Node       `json:"nodes,omitempty"`
	Edges       []Edge       `json:"edges,omitempty"`
	Extra       Extra        `json:"-"`
}

// HasGraph reports whether the document carries a cached graph that can be
// rendered as is.
func (d *Document) HasGraph() bool {
	return d != nil && d.Nodes != nil && d.Edges != nil && len(d.Nodes) > 0
}

// Clone returns a deep copy of d. A nil document clones to nil.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := *d
	out.Composition = clonePtr(d.Composition, Composition.Clone)
	out.Nodes = cloneSlice(d.Nodes, Node.Clone)
	out.Edges = cloneSlice(d.Edges, Edge.Clone)
	out.Extra = d.Extra.Clone()
	return &out
}

// Field returns the raw value of a top-level key the document does not model.
func (d *Document) Field(key string) (json.RawMessage, bool) {
	if d == nil || d.Extra == nil {
		return nil, false
	}
	v, ok := d.Extra[key]
	return v, ok
}

// SetField stores v under a top-level key. Modeled keys cannot be set here.
func (d *Document) SetField(key string, v any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("field key is required")
	}
	switch key {
	case "composition", "nodes", "edges":
		return fmt.Errorf("field %q is modeled and cannot be set as raw value", key)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode field %q: %w", key, err)
	}
	if d.Extra == nil {
		d.Extra = Extra{}
	}
	d.Extra[key] = raw
	return nil
}

// StringField returns a top-level key decoded as a string.
func (d *Document) StringField(key string) (string, bool) {
	raw, ok := d.Field(key)
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (d *Document) UnmarshalJSON(data []byte) error {
	type plain Document
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.Extra = extra
	return nil
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	return encodeOpen(plain(d), d.Extra)
}

// Composition is the executable definition of a flow. Keys such as
// version stay in Extra.
type Composition struct {
	Type       string  `json:"type,omitempty"`
	Name       string  `json:"name,omitempty"`
	StartStage string  `json:"startStage,omitempty"`
	Stages     []Stage `json:"stages,omitempty"`
	Extra      Extra   `json:"-"`
}

// Stage returns the stage with the given id.
func (c *Composition) Stage(id string) (*Stage, bool) {
	if c == nil {
		return nil, false
	}
	for i := range c.Stages {
		if c.Stages[i].ID == id {
			return &c.Stages[i], true
		}
	}
	return nil, false
}

func (c Composition) Clone() Composition {
	c.Stages = cloneSlice(c.Stages, Stage.Clone)
	c.Extra = c.Extra.Clone()
	return c
}

func (c *Composition) UnmarshalJSON(data []byte) error {
	type plain Composition
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*c = Composition(p)
	c.Extra = extra
	return nil
}

func (c Composition) MarshalJSON() ([]byte, error) {
	type plain Composition
	return encodeOpen(plain(c), c.Extra)
}
