package view

import "github.com/gxianyd/mlir-modifier/pkg/ir"

// Build runs the full pipeline - resolve open regions, walk them, filter
// for an active drill scope, synthesize edges - and returns the
// renderable graph.
//
// Build reads the index and state without mutating either; invoking it
// twice on the same pair yields identical node and edge lists, including
// port-index assignment. Callers re-run it in full after any navigation
// change or snapshot replacement; there is no incremental mode.
//
// Build expects reconciled state: dangling view-path entries and stale
// group members must have been dropped via [State.Reconcile] against the
// current index before calling.
func Build(idx *ir.Index, st *State) Graph {
	drill := st.ActiveDrillGroup()

	collapsed := make(map[string]*Group)
	expanded := make(map[string]*Group)
	if drill == nil {
		for _, g := range st.Groups {
			target := collapsed
			if g.Mode == GroupExpanded {
				target = expanded
			}
			for _, m := range g.Members {
				target[m] = g
			}
		}
	}

	res := Walk(WalkParams{
		Index:       idx,
		Regions:     OpenRegions(idx, st.Path),
		Depth:       0,
		ExpandDepth: st.ExpandDepth,
		Hidden:      st.Hidden,
		Collapsed:   collapsed,
		Expanded:    expanded,
	})

	if drill != nil {
		res = FilterDrill(idx, res, drill)
	}

	return Graph{
		Nodes: res.Nodes,
		Edges: SynthesizeEdges(idx, res),
	}
}
