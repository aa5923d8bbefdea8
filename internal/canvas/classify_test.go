package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"flowcanvas/internal/flow"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		source flow.EntityType
		target flow.EntityType
		label  string
		want   Color
	}{
		{name: "true label wins over source", source: flow.TypeStage, target: flow.TypeStage, label: "true", want: ColorTrue},
		{name: "default label", source: flow.TypeCondition, target: flow.TypeStage, label: "default", want: ColorDefault},
		{name: "stage", source: flow.TypeStage, target: flow.TypeSequential, want: ColorStage},
		{name: "api call to anything", source: flow.TypeAPICall, target: flow.TypeStage, want: ColorTaskChain},
		{name: "transformation to group", source: flow.TypeTransformation, target: flow.TypeSequential, want: ColorTaskChain},
		{name: "sequential", source: flow.TypeSequential, target: flow.TypeAPICall, want: ColorSequential},
		{name: "parallel", source: flow.TypeParallel, target: flow.TypeAPICall, want: ColorParallel},
		{name: "condition", source: flow.TypeCondition, target: flow.TypeStage, want: ColorCondition},
		{name: "unknown", source: "WEBHOOK", target: flow.TypeStage, want: ColorNeutral},
		{name: "other label", source: flow.TypeCondition, target: flow.TypeStage, label: "false", want: ColorCondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.source, tt.target, tt.label))
		})
	}
}

func TestClassifyConnection(t *testing.T) {
	tests := []struct {
		name   string
		source flow.EntityType
		target flow.EntityType
		want   Color
	}{
		{name: "stage", source: flow.TypeStage, target: flow.TypeAPICall, want: ColorStage},
		{name: "chain", source: flow.TypeAPICall, target: flow.TypeTransformation, want: ColorTaskChain},
		{name: "chain into stage is neutral", source: flow.TypeAPICall, target: flow.TypeStage, want: ColorNeutral},
		{name: "chain into condition is neutral", source: flow.TypeTransformation, target: flow.TypeCondition, want: ColorNeutral},
		{name: "sequential", source: flow.TypeSequential, target: flow.TypeStage, want: ColorSequential},
		{name: "parallel", source: flow.TypeParallel, target: flow.TypeAPICall, want: ColorParallel},
		{name: "condition", source: flow.TypeCondition, target: flow.TypeStage, want: ColorCondition},
		{name: "empty", want: ColorNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyConnection(tt.source, tt.target))
		})
	}
}

func TestLegendCoversEveryColor(t *testing.T) {
	entries := Legend()
	assert.Len(t, entries, 8)
	seen := map[Color]bool{}
	for _, e := range entries {
		assert.False(t, seen[e.Color], "duplicate color %s", e.Color)
		seen[e.Color] = true
		assert.NotEmpty(t, e.Label)
	}
	for _, c := range []Color{ColorTrue, ColorDefault, ColorStage, ColorTaskChain, ColorSequential, ColorParallel, ColorCondition, ColorNeutral} {
		assert.True(t, seen[c], "missing %s", c)
	}
}
