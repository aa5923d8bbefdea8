package canvas

import (
	"strings"

	"flowcanvas/internal/flow"
)

// RefKind tells which domain entity a graph node stands for.
type RefKind int

const (
	RefStage RefKind = iota + 1
	RefTask
	RefDecision
)

func (k RefKind) String() string {
	switch k {
	case RefStage:
		return "stage"
	case RefTask:
		return "task"
	case RefDecision:
		return "decision"
	default:
		return "unknown"
	}
}

const decisionSuffix = "_condition"

// NodeRef identifies the entity behind a node. Decision refs carry the id
// of the stage that owns the decision.
type NodeRef struct {
	Kind RefKind
	ID   string
}

func StageRef(id string) NodeRef { return NodeRef{Kind: RefStage, ID: id} }
func TaskRef(id string) NodeRef { return NodeRef{Kind: RefTask, ID: id} }
func DecisionRef(stageID string) NodeRef { return NodeRef{Kind: RefDecision, ID: stageID} }

// NodeID is the wire id of the node.
func (r NodeRef) NodeID() string {
	if r.Kind == RefDecision {
		return r.ID + decisionSuffix
	}
	return r.ID
}

func (r NodeRef) String() string { return r.Kind.String() + ":" + r.ID }

// RefOf recovers the ref of a node from its data type.
func RefOf(n flow.Node) NodeRef {
	switch n.Data.Type {
	case flow.TypeStage:
		return StageRef(n.ID)
	case flow.TypeCondition:
		if stageID, ok := strings.CutSuffix(n.ID, decisionSuffix); ok {
			return DecisionRef(stageID)
		}
		// Decision nodes created on the canvas have no owning stage.
		return NodeRef{Kind: RefDecision, ID: n.ID}
	default:
		return TaskRef(n.ID)
	}
}
