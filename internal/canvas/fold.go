package canvas

import "flowcanvas/internal/flow"

const defaultStageName = "New Stage"

// Fold writes an edited graph back into a copy of previous. The graph is
// stored as the document's cached graph; stage nodes rename existing
// stages and append stages the composition does not know yet. Stages are
// never removed and task edits are not propagated. previous is not
// modified.
func Fold(nodes []flow.Node, edges []flow.Edge, previous *flow.Document) *flow.Document {
	out := previous.Clone()
	if out == nil {
		out = &flow.Document{}
	}
	out.Nodes = cloneNodes(nodes)
	out.Edges = cloneEdges(edges)

	var stageNodes []flow.Node
	for _, n := range out.Nodes {
		if n.Data.Type == flow.TypeStage {
			stageNodes = append(stageNodes, n)
		}
	}
	if len(stageNodes) == 0 || out.Composition == nil {
		return out
	}

	stages := out.Composition.Stages
	if stages == nil {
		stages = []flow.Stage{}
	}
	for i := range stages {
		n, ok := findNode(stageNodes, stages[i].ID)
		if !ok {
			continue
		}
		stages[i].Name = firstNonEmpty(stageName(n), n.Data.Label, stages[i].Name)
	}
	for _, n := range stageNodes {
		if hasStage(stages, n.ID) {
			continue
		}
		s := flow.Stage{
			ID:    n.ID,
			Name:  firstNonEmpty(stageName(n), n.Data.Label, defaultStageName),
			Tasks: []flow.Task{},
		}
		if p := n.Data.Stage; p != nil {
			if p.Tasks != nil {
				s.Tasks = cloneTasks(p.Tasks)
			}
			s.PostTransformationID = p.PostTransformationID
		}
		stages = append(stages, s)
	}
	out.Composition.Stages = stages
	return out
}

func stageName(n flow.Node) string {
	if n.Data.Stage == nil {
		return ""
	}
	return n.Data.Stage.Name
}

func findNode(nodes []flow.Node, id string) (flow.Node, bool) {
	for _, n := range nodes {
		if n.ID == id {
			return n, true
		}
	}
	return flow.Node{}, false
}

func hasStage(stages []flow.Stage, id string) bool {
	for _, s := range stages {
		if s.ID == id {
			return true
		}
	}
	return false
}

func cloneNodes(in []flow.Node) []flow.Node {
	out := make([]flow.Node, len(in))
	for i, n := range in {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(in []flow.Edge) []flow.Edge {
	out := make([]flow.Edge, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
