package canvas

import (
	"math"
	"math/rand/v2"

	"flowcanvas/internal/flow"
)

const (
	slotStartX = 200
	slotStartY = 200
	slotClearX = 250
	slotClearY = 150
	slotStepX  = 300
	slotWrapX  = 1200
	slotStepY  = 200

	gridColumns = 4
	gridStepX   = 350
	gridStepY   = 200

	scatterWidth  = 1000
	scatterHeight = 600
)

// FreeSlot probes left to right, top to bottom from (200, 200) for a
// position that no existing node crowds.
func FreeSlot(nodes []flow.Node) flow.Position {
	x, y := float64(slotStartX), float64(slotStartY)
	for crowded(nodes, x, y) {
		x += slotStepX
		if x > slotWrapX {
			x = slotStartX
			y += slotStepY
		}
	}
	return flow.Position{X: x, Y: y}
}

func crowded(nodes []flow.Node, x, y float64) bool {
	for _, n := range nodes {
		if math.Abs(n.Position.X-x) < slotClearX && math.Abs(n.Position.Y-y) < slotClearY {
			return true
		}
	}
	return false
}

// OptimizeLayout returns copies of nodes arranged on a four column grid in
// their current order.
func OptimizeLayout(nodes []flow.Node) []flow.Node {
	out := cloneNodes(nodes)
	for i := range out {
		row, col := i/gridColumns, i%gridColumns
		out[i].Position = flow.Position{
			X: float64(originX + col*gridStepX),
			Y: float64(originY + row*gridStepY),
		}
	}
	return out
}

// RandomizeLayout returns copies of nodes scattered over the canvas.
func RandomizeLayout(nodes []flow.Node, rng *rand.Rand) []flow.Node {
	out := cloneNodes(nodes)
	for i := range out {
		out[i].Position = flow.Position{
			X: rng.Float64()*scatterWidth + originX,
			Y: rng.Float64()*scatterHeight + originY,
		}
	}
	return out
}
