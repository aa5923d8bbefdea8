package canvas

import "flowcanvas/internal/flow"

const (
	originX         = 100
	originY         = 100
	stageRowHeight  = 400
	stageWidth      = 300
	taskColumnWidth = 320
	nestedOffset    = 350
	nestedSpacing   = 180
	nestedLift      = 50
	conditionDrop   = 100
)

// Slot addresses a cell of the materialization grid. Task is 0 for the
// stage node itself and 1-based for its tasks.
type Slot struct {
	Stage  int
	Task   int
	Nested int
	// IsNested places the node in the column of group members.
	IsNested bool
}

// Allocate returns the canvas position of a slot. Members of every group
// share one column, so overlap between groups of the same stage is
// possible.
func Allocate(s Slot) flow.Position {
	x := float64(originX)
	y := float64(originY + s.Stage*stageRowHeight)
	switch {
	case s.IsNested:
		x = originX + stageWidth + taskColumnWidth + nestedOffset
		y += float64(s.Nested*nestedSpacing - nestedLift)
	case s.Task > 0:
		x = float64(originX + stageWidth + s.Task*taskColumnWidth)
	}
	return flow.Position{X: x, Y: y}
}

// ConditionPosition places the decision node of a stage one column past its
// last task.
func ConditionPosition(stageIndex, taskCount int) flow.Position {
	stage := Allocate(Slot{Stage: stageIndex})
	return flow.Position{
		X: float64(originX + stageWidth + (taskCount+1)*taskColumnWidth),
		Y: stage.Y + conditionDrop,
	}
}
