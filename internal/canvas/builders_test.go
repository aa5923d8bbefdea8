package canvas

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcanvas/internal/flow"
)

func TestNewNode(t *testing.T) {
	pos := flow.Position{X: 10, Y: 20}

	t.Run("stage", func(t *testing.T) {
		n := NewNode(flow.TypeStage, "stage_1", pos)
		assert.Equal(t, flow.NodeStage, n.Type)
		assert.Equal(t, "New STAGE", n.Data.Label)
		require.NotNil(t, n.Data.Stage)
		assert.Equal(t, "stage_1", n.Data.Stage.ID)
		assert.Equal(t, "New STAGE", n.Data.Stage.Name)
		assert.NotNil(t, n.Data.Stage.Tasks)
		assert.Nil(t, n.Data.Task)
	})
	t.Run("condition", func(t *testing.T) {
		n := NewNode(flow.TypeCondition, "condition_1", pos)
		assert.Equal(t, flow.NodeCondition, n.Type)
		require.NotNil(t, n.Data.Condition)
		assert.Equal(t, flow.TransitionChoice, n.Data.Condition.Type)
		assert.NotNil(t, n.Data.Condition.Conditions)
		assert.Empty(t, n.Data.Condition.DefaultStage)
	})
	t.Run("api call", func(t *testing.T) {
		n := NewNode(flow.TypeAPICall, "api_call_1", pos)
		assert.Equal(t, flow.NodeTask, n.Type)
		assert.Equal(t, "New API CALL", n.Data.Label)
		assert.Equal(t, flow.TypeAPICall, n.Data.Type)
		require.NotNil(t, n.Data.Task)
		assert.Equal(t, "api_call_1_response", n.Data.Task.ResponseKey)
		assert.Equal(t, pos, n.Position)
		assert.True(t, n.Draggable)
	})
	t.Run("group", func(t *testing.T) {
		n := NewNode(flow.TypeParallel, "parallel_1", pos)
		assert.Equal(t, flow.NodeParallel, n.Type)
		require.NotNil(t, n.Data.Task)
		assert.Nil(t, n.Data.Task.Tasks)
	})
}

func TestVisualKindAndID(t *testing.T) {
	assert.Equal(t, flow.NodeTask, VisualKind("TRANSFORMATION"))
	assert.Equal(t, flow.NodeTask, VisualKind("api_call"))
	assert.Equal(t, flow.NodeSequential, VisualKind(flow.TypeSequential))
	assert.Equal(t, flow.NodeKind("webhook"), VisualKind("WEBHOOK"))
	assert.Equal(t, "api_call_1700000000000", NewNodeID(flow.TypeAPICall, 1700000000000))
}

func TestDuplicateNode(t *testing.T) {
	src := NewNode(flow.TypeTransformation, "transformation_1", flow.Position{X: 100, Y: 200})
	dup := DuplicateNode(src, "transformation_2")

	assert.Equal(t, "transformation_2", dup.ID)
	assert.Equal(t, flow.Position{X: 150, Y: 250}, dup.Position)
	assert.Equal(t, "transformation_2", dup.Data.Task.ID)
	assert.Equal(t, "transformation_1", src.Data.Task.ID)
	assert.Equal(t, src.Data.Label, dup.Data.Label)
}

func TestConnectEdge(t *testing.T) {
	nodes := []flow.Node{
		NewNode(flow.TypeStage, "s", flow.Position{}),
		NewNode(flow.TypeAPICall, "a", flow.Position{}),
		NewNode(flow.TypeTransformation, "b", flow.Position{}),
	}

	_, ok := ConnectEdge(nodes, nil, "s", "missing")
	assert.False(t, ok)
	_, ok = ConnectEdge(nodes, nil, "missing", "s")
	assert.False(t, ok)

	e, ok := ConnectEdge(nodes, nil, "a", "b")
	require.True(t, ok)
	assert.Equal(t, "a-b", e.ID)
	assert.Equal(t, string(ColorTaskChain), e.Stroke())
	assert.Equal(t, &flow.EdgeData{SourceType: flow.TypeAPICall, TargetType: flow.TypeTransformation}, e.Data)
	assert.Equal(t, EdgeTypeCustom, e.Type)
	assert.Empty(t, e.Label)

	again, ok := ConnectEdge(nodes, []flow.Edge{e}, "a", "b")
	require.True(t, ok)
	assert.Equal(t, "a-b#1", again.ID)

	back, ok := ConnectEdge(nodes, nil, "a", "s")
	require.True(t, ok)
	assert.Equal(t, string(ColorNeutral), back.Stroke())
	assert.Equal(t, string(ColorNeutral), back.MarkerEnd.Color)
}

func TestFreeSlot(t *testing.T) {
	at := func(x, y float64) flow.Node { return flow.Node{Position: flow.Position{X: x, Y: y}} }

	assert.Equal(t, flow.Position{X: 200, Y: 200}, FreeSlot(nil))
	assert.Equal(t, flow.Position{X: 500, Y: 200}, FreeSlot([]flow.Node{at(210, 250)}))
	assert.Equal(t, flow.Position{X: 200, Y: 200}, FreeSlot([]flow.Node{at(450, 200), at(200, 350)}))

	row := []flow.Node{at(200, 200), at(500, 200), at(800, 200), at(1100, 200)}
	assert.Equal(t, flow.Position{X: 200, Y: 400}, FreeSlot(row))
}

func TestOptimizeLayout(t *testing.T) {
	nodes := make([]flow.Node, 6)
	for i := range nodes {
		nodes[i] = flow.Node{ID: string(rune('a' + i)), Position: flow.Position{X: -1, Y: -1}}
	}
	out := OptimizeLayout(nodes)

	want := []flow.Position{
		{X: 100, Y: 100}, {X: 450, Y: 100}, {X: 800, Y: 100}, {X: 1150, Y: 100},
		{X: 100, Y: 300}, {X: 450, Y: 300},
	}
	for i, n := range out {
		assert.Equal(t, want[i], n.Position, n.ID)
		assert.Equal(t, nodes[i].ID, n.ID)
	}
	assert.Equal(t, flow.Position{X: -1, Y: -1}, nodes[0].Position)
}

func TestRandomizeLayout(t *testing.T) {
	nodes := make([]flow.Node, 50)
	out := RandomizeLayout(nodes, rand.New(rand.NewPCG(1, 2)))
	require.Len(t, out, 50)
	for _, n := range out {
		assert.GreaterOrEqual(t, n.Position.X, 100.0)
		assert.Less(t, n.Position.X, 1100.0)
		assert.GreaterOrEqual(t, n.Position.Y, 100.0)
		assert.Less(t, n.Position.Y, 700.0)
	}

	again := RandomizeLayout(nodes, rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, out, again)
}
