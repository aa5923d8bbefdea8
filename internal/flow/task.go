package flow

import "encoding/json"

// EntityType is the domain tag carried by tasks and by the data payload of
// graph nodes and edges.
type EntityType string

const (
	TypeStage          EntityType = "STAGE"
	TypeCondition      EntityType = "CONDITION"
	TypeAPICall        EntityType = "API_CALL"
	TypeTransformation EntityType = "TRANSFORMATION"
	TypeSequential     EntityType = "SEQUENTIAL"
	TypeParallel       EntityType = "PARALLEL"
)

// IsChainable reports whether t is one of the leaf work types that chain
// into each other (API calls and transformations).
func (t EntityType) IsChainable() bool {
	return t == TypeAPICall || t == TypeTransformation
}

// TaskKind is the structural variant of a task.
type TaskKind int

const (
	// KindLeaf is a task rendered as a single node.
	KindLeaf TaskKind = iota
	// KindSequential is a group whose children run one after another.
	KindSequential
	// KindParallel is a group whose children fan out from the group.
	KindParallel
)

func (k TaskKind) String() string {
	switch k {
	case KindSequential:
		return "sequential"
	case KindParallel:
		return "parallel"
	default:
		return "leaf"
	}
}

// Task is a unit of work inside a stage. A task whose type is SEQUENTIAL or
// PARALLEL and whose Tasks list is present (even empty) is a group.
type Task struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Type             EntityType `json:"type,omitempty"`
	ResponseKey      string     `json:"responseKey,omitempty"`
	EndpointID       string     `json:"endpointId,omitempty"`
	TransformationID string     `json:"transformationId,omitempty"`
	Tasks            []Task     `json:"tasks,omitempty"`
	Extra            Extra      `json:"-"`
}

// Kind returns the structural variant of t. Group types without a child
// list are leaves.
func (t Task) Kind() TaskKind {
	if t.Tasks == nil {
		return KindLeaf
	}
	switch t.Type {
	case TypeSequential:
		return KindSequential
	case TypeParallel:
		return KindParallel
	default:
		return KindLeaf
	}
}

// IsGroup reports whether t renders as a group node with nested members.
func (t Task) IsGroup() bool { return t.Kind() != KindLeaf }

// Clone returns a deep copy of t.
func (t Task) Clone() Task {
	t.Tasks = cloneSlice(t.Tasks, Task.Clone)
	t.Extra = t.Extra.Clone()
	return t
}

// Flat returns a copy of t without its child list.
func (t Task) Flat() Task {
	out := t.Clone()
	out.Tasks = nil
	return out
}

func (t *Task) UnmarshalJSON(data []byte) error {
	type plain Task
	var p plain
	extra, err := decodeOpen(data, &p)
	if err != nil {
		return err
	}
	*t = Task(p)
	t.Extra = extra
	return nil
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return encodeOpen(plain(t), t.Extra)
}

var _ json.Marshaler = Task{}
