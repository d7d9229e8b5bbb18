package view

import (
	"reflect"
	"testing"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

func walkAll(idx *ir.Index, regions []string, opts ...func(*WalkParams)) WalkResult {
	p := WalkParams{
		Index:       idx,
		Regions:     regions,
		ExpandDepth: DefaultExpandDepth,
		Hidden:      map[string]bool{},
		Collapsed:   map[string]*Group{},
		Expanded:    map[string]*Group{},
	}
	for _, o := range opts {
		o(&p)
	}
	return Walk(p)
}

func TestWalkFlat(t *testing.T) {
	_, idx, a, b, c := chainABC()

	res := walkAll(idx, idx.ModuleRegions())

	want := []string{"input_val_0", "input_val_1", a, b, c, "op_4"}
	if !reflect.DeepEqual(nodeIDs(res.Nodes), want) {
		t.Errorf("nodes = %v, want %v", nodeIDs(res.Nodes), want)
	}
}

func TestWalkHiddenName(t *testing.T) {
	_, idx, a, _, c := chainABC()

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Hidden = map[string]bool{"test.b": true}
	})

	for _, id := range nodeIDs(res.Nodes) {
		if id == "op_2" {
			t.Fatal("hidden op test.b still emitted")
		}
	}
	// Unrelated nodes stay.
	ids := nodeIDs(res.Nodes)
	for _, keep := range []string{a, c} {
		found := false
		for _, id := range ids {
			if id == keep {
				found = true
			}
		}
		if !found {
			t.Errorf("node %s missing after hiding unrelated name", keep)
		}
	}
}

func TestWalkCollapsedGroupEmittedOnce(t *testing.T) {
	_, idx, a, b, _ := chainABC()
	g := &Group{ID: 1, Name: "g", Members: []string{a, b}}
	g.Inputs, g.Outputs, _ = BoundaryIO(idx, g.Members)

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Collapsed = map[string]*Group{a: g, b: g}
	})

	groups := 0
	for _, n := range res.Nodes {
		if n.Kind == KindGroup {
			groups++
			if len(n.Inputs) != 2 || len(n.Outputs) != 1 {
				t.Errorf("group ports = %d in / %d out, want 2/1", len(n.Inputs), len(n.Outputs))
			}
		}
		if n.Kind == KindOperation && (n.Op == a || n.Op == b) {
			t.Errorf("member %s emitted despite collapsed group", n.Op)
		}
	}
	if groups != 1 {
		t.Errorf("group node emitted %d times, want exactly 1", groups)
	}
	if res.Rendered[1] != g {
		t.Error("rendered set does not record the group")
	}
}

func TestWalkDepthThreshold(t *testing.T) {
	// outer owns a region containing mid; mid owns a region containing
	// leaf. With threshold 0 the walk expands outer's body (depth 0 <= 0)
	// but shows mid collapsed-by-depth (depth 1 > 0).
	sb := newSnap()
	top := sb.region(sb.snap.ModuleID)
	blk, _ := sb.block(top)
	outer, _ := sb.op(blk, "test.outer", nil)
	outerBody := sb.region(outer)
	oblk, _ := sb.block(outerBody)
	mid, _ := sb.op(oblk, "test.mid", nil)
	midBody := sb.region(mid)
	mblk, _ := sb.block(midBody)
	leaf, _ := sb.op(mblk, "test.leaf", nil)
	idx := sb.index()

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) { p.ExpandDepth = 0 })

	var midNode *Node
	for i := range res.Nodes {
		if res.Nodes[i].ID == mid {
			midNode = &res.Nodes[i]
		}
		if res.Nodes[i].ID == leaf {
			t.Error("descendant of collapsed-by-depth op is visible")
		}
	}
	if midNode == nil {
		t.Fatal("mid op not emitted")
	}
	if !midNode.CollapsedByDepth || midNode.RegionCount != 1 {
		t.Errorf("mid = %+v, want collapsed-by-depth with region count 1", midNode)
	}

	// At threshold 1 the same op is expanded inline and the leaf appears
	// as a flat sibling.
	res = walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) { p.ExpandDepth = 1 })
	ids := nodeIDs(res.Nodes)
	if !reflect.DeepEqual(ids, []string{outer, mid, leaf}) {
		t.Errorf("expanded walk = %v, want [%s %s %s]", ids, outer, mid, leaf)
	}
	for _, n := range res.Nodes {
		if n.CollapsedByDepth {
			t.Errorf("node %s collapsed at depth within threshold", n.ID)
		}
	}
}

func TestWalkExpandedGroupDecoration(t *testing.T) {
	_, idx, a, b, _ := chainABC()
	g := &Group{ID: 3, Name: "g", Members: []string{a, b}, Mode: GroupExpanded}

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Expanded = map[string]*Group{a: g, b: g}
	})

	for _, n := range res.Nodes {
		switch n.ID {
		case a, b:
			if n.ExpandedGroup != 3 {
				t.Errorf("member %s not decorated with group id", n.ID)
			}
		default:
			if n.ExpandedGroup != 0 {
				t.Errorf("non-member %s carries group decoration", n.ID)
			}
		}
	}
	if countKind(res.Nodes, KindGroup) != 0 {
		t.Error("expanded group emitted a merged node")
	}
}

func TestFilterDrill(t *testing.T) {
	_, idx, a, b, _ := chainABC()
	g := &Group{ID: 1, Name: "g", Members: []string{a, b}}
	g.Inputs, g.Outputs, _ = BoundaryIO(idx, g.Members)

	res := walkAll(idx, idx.ModuleRegions())
	got := FilterDrill(idx, res, g)

	want := []string{"input_val_0", "input_val_1", a, b}
	if !reflect.DeepEqual(nodeIDs(got.Nodes), want) {
		t.Errorf("drill nodes = %v, want %v", nodeIDs(got.Nodes), want)
	}
	if countKind(got.Nodes, KindGroup) != 0 {
		t.Error("group node visible inside drill scope")
	}
}

func TestFilterDrillSyntheticInputs(t *testing.T) {
	// B's external source is A's result, not a block argument, so the
	// drill view of {B, C} needs a synthetic pseudo-input for it.
	_, idx, a, b, c := chainABC()
	g := &Group{ID: 1, Name: "g", Members: []string{b, c}}
	g.Inputs, g.Outputs, _ = BoundaryIO(idx, g.Members)

	res := walkAll(idx, idx.ModuleRegions())
	got := FilterDrill(idx, res, g)

	ids := nodeIDs(got.Nodes)
	want := []string{b, c, ir.InputNodeID("val_2")}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("drill nodes = %v, want %v", ids, want)
	}
	for _, n := range got.Nodes {
		if n.Op == a {
			t.Error("non-member operation visible inside drill scope")
		}
	}
}
