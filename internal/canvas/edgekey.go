package canvas

import (
	"fmt"

	"flowcanvas/internal/flow"
)

// EdgeKey is the identity of an edge. Seq tells apart edges that share both
// endpoints; the first one keeps the plain "{source}-{target}" form.
type EdgeKey struct {
	Source string
	Target string
	Seq    int
}

func (k EdgeKey) String() string {
	if k.Seq == 0 {
		return k.Source + "-" + k.Target
	}
	return fmt.Sprintf("%s-%s#%d", k.Source, k.Target, k.Seq)
}

// edgeIDs hands out edge ids that are unique within one graph.
type edgeIDs map[string]struct{}

func newEdgeIDs(existing []flow.Edge) edgeIDs {
	ids := make(edgeIDs, len(existing))
	for _, e := range existing {
		ids[e.ID] = struct{}{}
	}
	return ids
}

func (ids edgeIDs) next(source, target string) string {
	for seq := 0; ; seq++ {
		id := EdgeKey{Source: source, Target: target, Seq: seq}.String()
		if _, taken := ids[id]; !taken {
			ids[id] = struct{}{}
			return id
		}
	}
}

// NewEdgeID returns the first edge id for source and target that is not
// used by existing.
func NewEdgeID(existing []flow.Edge, source, target string) string {
	return newEdgeIDs(existing).next(source, target)
}
