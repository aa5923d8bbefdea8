package flow

import "encoding/json"

// TransitionChoice is the only transition type the editor renders.
const TransitionChoice = "CHOICE"

// Stage is a top-level step of a composition.
type Stage struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name,omitempty"`
	PostTransformationID string      `json:"postTransformationId,omitempty"`
	Tasks                []Task      `json:"tasks,omitempty"`
	NextStage            *Transition `json:"nextStage,omitempty"`
	Extra                Extra       `json:"-"`
}

func (s Stage) Clone() Stage {
	s.Tasks = cloneSlice(s.Tasks, Task.Clone)
	s.NextStage = clonePtr(s.NextStage, Transition.Clone)
	s.Extra = s.Extra.Clone()
	return s
}

func (s *Stage) UnmarshalJSON(data []byte) error {
	type plain Stage
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*s = Stage(p)
	s.Extra = extra
	return nil
}

func (s Stage) MarshalJSON() ([]byte, error) {
	type plain Stage
	return encodeOpen(plain(s), s.Extra)
}

// Transition describes where control goes after a stage.
type Transition struct {
	Type         string   `json:"type,omitempty"`
	DefaultStage string   `json:"defaultStage,omitempty"`
	Conditions   []Branch `json:"conditions,omitempty"`
	Extra        Extra    `json:"-"`
}

// IsChoice reports whether t is a CHOICE transition with a condition list.
func (t *Transition) IsChoice() bool {
	return t != nil && t.Type == TransitionChoice && t.Conditions != nil
}

func (t Transition) Clone() Transition {
	t.Conditions = cloneSlice(t.Conditions, Branch.Clone)
	t.Extra = t.Extra.Clone()
	return t
}

func (t *Transition) UnmarshalJSON(data []byte) error {
	type plain Transition
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*t = Transition(p)
	t.Extra = extra
	return nil
}

func (t Transition) MarshalJSON() ([]byte, error) {
	type plain Transition
	return encodeOpen(plain(t), t.Extra)
}

// Branch routes to Stage when Condition holds.
type Branch struct {
	Condition *Condition `json:"condition,omitempty"`
	Stage     string     `json:"stage"`
	Extra     Extra      `json:"-"`
}

func (b Branch) Clone() Branch {
	b.Condition = clonePtr(b.Condition, Condition.Clone)
	b.Extra = b.Extra.Clone()
	return b
}

func (b *Branch) UnmarshalJSON(data []byte) error {
	type plain Branch
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*b = Branch(p)
	b.Extra = extra
	return nil
}

func (b Branch) MarshalJSON() ([]byte, error) {
	type plain Branch
	return encodeOpen(plain(b), b.Extra)
}

// Condition is an opaque predicate; only Expression is edited in place.
type Condition struct {
	Type       string          `json:"type,omitempty"`
	Expression string          `json:"expression,omitempty"`
	Operator   string          `json:"operator,omitempty"`
	DataType   string          `json:"dataType,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
	Extra      Extra           `json:"-"`
}

func (c Condition) Clone() Condition {
	if c.Value != nil {
		c.Value = append(json.RawMessage(nil), c.Value...)
	}
	c.Extra = c.Extra.Clone()
	return c
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	type plain Condition
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*c = Condition(p)
	c.Extra = extra
	return nil
}

func (c Condition) MarshalJSON() ([]byte, error) {
	type plain Condition
	return encodeOpen(plain(c), c.Extra)
}
