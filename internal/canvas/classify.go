package canvas

import "flowcanvas/internal/flow"

// Color is an edge stroke color.
type Color string

const (
	ColorTrue       Color = "#10B981"
	ColorDefault    Color = "#F59E0B"
	ColorStage      Color = "#3B82F6"
	ColorTaskChain  Color = "#8B5CF6"
	ColorSequential Color = "#06B6D4"
	ColorParallel   Color = "#F97316"
	ColorCondition  Color = "#EF4444"
	ColorNeutral    Color = "#6B7280"
)

const (
	LabelTrue    = "true"
	LabelDefault = "default"
)

// Classify picks the color of an edge produced by materialization. Rules
// are checked in order and the first match wins.
func Classify(source, target flow.EntityType, label string) Color {
	return classify(source, target, label, false)
}

// ClassifyConnection picks the color of an edge drawn by the user. It only
// colors task chains when both ends are API calls or transformations.
func ClassifyConnection(source, target flow.EntityType) Color {
	return classify(source, target, "", true)
}

func classify(source, target flow.EntityType, label string, strictChain bool) Color {
	switch label {
	case LabelTrue:
		return ColorTrue
	case LabelDefault:
		return ColorDefault
	}
	switch {
	case source == flow.TypeStage:
		return ColorStage
	case source.IsChainable() && (!strictChain || target.IsChainable()):
		return ColorTaskChain
	case source == flow.TypeSequential:
		return ColorSequential
	case source == flow.TypeParallel:
		return ColorParallel
	case source == flow.TypeCondition:
		return ColorCondition
	default:
		return ColorNeutral
	}
}
