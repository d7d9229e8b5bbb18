package view

import (
	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

// WalkParams carries the inputs of one region walk. Collapsed and
// Expanded map operation ids to their owning group; the caller derives
// them from the navigation state (both empty while a drill scope is
// active, which bypasses group logic entirely).
type WalkParams struct {
	Index   *ir.Index
	Regions []string
	Depth   int
	// ExpandDepth is the inline-expansion threshold: region-owning
	// operations walked at Depth <= ExpandDepth are expanded inline,
	// deeper ones are shown collapsed-by-depth.
	ExpandDepth int
	Hidden      map[string]bool
	Collapsed   map[string]*Group
	Expanded    map[string]*Group
}

// WalkResult is the immutable outcome of a walk: the visible nodes in
// traversal order and the set of groups whose merged node was emitted.
// Results from nested walks are combined with [WalkResult.merge] so a
// group node is emitted exactly once per walk, at first encounter.
type WalkResult struct {
	Nodes    []Node
	Rendered map[int]*Group
}

func newWalkResult() WalkResult {
	return WalkResult{Rendered: make(map[int]*Group)}
}

// merge appends the child walk's nodes, dropping group nodes whose group
// was already rendered earlier in the parent walk.
func (r WalkResult) merge(child WalkResult) WalkResult {
	for _, n := range child.Nodes {
		if n.Kind == KindGroup {
			if _, done := r.Rendered[n.Group]; done {
				continue
			}
			r.Rendered[n.Group] = child.Rendered[n.Group]
		}
		r.Nodes = append(r.Nodes, n)
	}
	return r
}

// addGroup emits a group's merged node unless it was already rendered.
func (r WalkResult) addGroup(g *Group) WalkResult {
	if _, done := r.Rendered[g.ID]; done {
		return r
	}
	r.Rendered[g.ID] = g
	r.Nodes = append(r.Nodes, groupNode(g))
	return r
}

// Walk traverses the open regions and produces the visible-node set.
//
// Per block, in block order: every block argument gets a pseudo-input
// node, then each operation in position order is either skipped (hidden
// name), folded into its collapsed group's single merged node, emitted as
// a leaf, expanded inline (children become flat siblings), or emitted
// collapsed-by-depth when the walk is past the expansion threshold.
//
// Walk is pure: it allocates a fresh result and never touches shared
// state, so each recursion level can be tested in isolation.
func Walk(p WalkParams) WalkResult {
	return walkRegions(p, newWalkResult())
}

func walkRegions(p WalkParams, res WalkResult) WalkResult {
	for _, regionID := range p.Regions {
		region, ok := p.Index.Region(regionID)
		if !ok {
			continue
		}
		for _, blockID := range region.Blocks {
			block, ok := p.Index.Block(blockID)
			if !ok {
				continue
			}
			res = walkBlock(p, block, res)
		}
	}
	return res
}

func walkBlock(p WalkParams, block *ir.Block, res WalkResult) WalkResult {
	for _, arg := range block.Arguments {
		res.Nodes = append(res.Nodes, inputNode(arg))
	}

	for _, opID := range block.Operations {
		op, ok := p.Index.Op(opID)
		if !ok {
			continue
		}
		if p.Hidden[op.Name] {
			continue // no node, and transitively no edges
		}
		if g, ok := p.Collapsed[op.ID]; ok {
			res = res.addGroup(g)
			continue
		}

		node := operationNode(op)
		if eg, ok := p.Expanded[op.ID]; ok {
			node.ExpandedGroup = eg.ID // decoration only, never visibility
		}

		switch {
		case !op.HasRegions():
			res.Nodes = append(res.Nodes, node)
		case p.Depth <= p.ExpandDepth:
			res.Nodes = append(res.Nodes, node)
			child := Walk(WalkParams{
				Index:       p.Index,
				Regions:     op.Regions,
				Depth:       p.Depth + 1,
				ExpandDepth: p.ExpandDepth,
				Hidden:      p.Hidden,
				Collapsed:   p.Collapsed,
				Expanded:    p.Expanded,
			})
			res = res.merge(child)
		default:
			node.CollapsedByDepth = true
			node.RegionCount = len(op.Regions)
			res.Nodes = append(res.Nodes, node)
		}
	}
	return res
}

// FilterDrill applies the drilldown post-filter for an active drill
// group: only member operation nodes survive, plus pseudo-input nodes for
// the group's boundary inputs. Boundary inputs whose producer was a
// visible operation outside the member set never acquired a pseudo-input
// node during the walk, so synthetic ones are appended in boundary-input
// order - the interior always has a rendering source for every external
// value it consumes.
func FilterDrill(idx *ir.Index, res WalkResult, g *Group) WalkResult {
	wanted := make(map[string]bool, len(g.Inputs))
	for _, bi := range g.Inputs {
		wanted[bi.Value] = true
	}

	out := newWalkResult()
	present := make(map[string]bool)
	for _, n := range res.Nodes {
		switch n.Kind {
		case KindOperation:
			if g.Contains(n.Op) {
				out.Nodes = append(out.Nodes, n)
			}
		case KindInput:
			if wanted[n.Value] {
				out.Nodes = append(out.Nodes, n)
				present[n.Value] = true
			}
		}
	}

	for _, bi := range g.Inputs {
		if present[bi.Value] {
			continue
		}
		out.Nodes = append(out.Nodes, inputNode(ir.Value{ID: bi.Value, Type: bi.Type}))
	}
	return out
}

func operationNode(op *ir.Operation) Node {
	n := Node{
		ID:      op.ID,
		Kind:    KindOperation,
		KindTag: KindOperation.String(),
		Label:   op.Name,
		Dialect: op.Dialect,
		Op:      op.ID,
		Inputs:  make([]Port, len(op.Operands)),
		Outputs: make([]Port, len(op.Results)),
	}
	for i, v := range op.Operands {
		n.Inputs[i] = Port{Value: v.ID, Type: v.Type}
	}
	for i, v := range op.Results {
		n.Outputs[i] = Port{Value: v.ID, Type: v.Type}
	}
	return n
}

func inputNode(v ir.Value) Node {
	return Node{
		ID:      ir.InputNodeID(v.ID),
		Kind:    KindInput,
		KindTag: KindInput.String(),
		Label:   v.ID,
		Value:   v.ID,
		Outputs: []Port{{Value: v.ID, Type: v.Type}},
	}
}

func groupNode(g *Group) Node {
	n := Node{
		ID:      g.NodeID(),
		Kind:    KindGroup,
		KindTag: KindGroup.String(),
		Label:   g.Name,
		Group:   g.ID,
		Inputs:  make([]Port, len(g.Inputs)),
		Outputs: make([]Port, len(g.Outputs)),
	}
	for i, bi := range g.Inputs {
		n.Inputs[i] = Port{Value: bi.Value, Type: bi.Type}
	}
	for i, bo := range g.Outputs {
		n.Outputs[i] = Port{Value: bo.Value, Type: bo.Type}
	}
	return n
}
