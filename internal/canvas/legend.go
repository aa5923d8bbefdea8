package canvas

// LegendEntry explains one edge color.
type LegendEntry struct {
	Color       Color  `json:"color"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Legend lists the edge colors in the order the editor shows them.
func Legend() []LegendEntry {
	return []LegendEntry{
		{Color: ColorStage, Label: "Stage Connections", Description: "From stages to tasks"},
		{Color: ColorTaskChain, Label: "Task Chains", Description: "Between API calls and transformations"},
		{Color: ColorSequential, Label: "Sequential Flow", Description: "From sequential groups"},
		{Color: ColorParallel, Label: "Parallel Flow", Description: "From parallel groups"},
		{Color: ColorCondition, Label: "Condition Flow", Description: "From decision points"},
		{Color: ColorTrue, Label: "True Condition", Description: "When condition is met"},
		{Color: ColorDefault, Label: "Default Path", Description: "Fallback route"},
		{Color: ColorNeutral, Label: "Other Connections", Description: "General connections"},
	}
}
