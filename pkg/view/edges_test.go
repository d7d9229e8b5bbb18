package view

import (
	"slices"
	"testing"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

func TestSynthesizeEdgesDirect(t *testing.T) {
	_, idx, a, b, c := chainABC()

	res := walkAll(idx, idx.ModuleRegions())
	edges := SynthesizeEdges(idx, res)

	want := []Edge{
		{From: "input_val_0", FromPort: 0, To: a, ToPort: 0},
		{From: "input_val_1", FromPort: 0, To: a, ToPort: 1},
		{From: a, FromPort: 0, To: b, ToPort: 0},
		{From: b, FromPort: 0, To: c, ToPort: 0},
		{From: c, FromPort: 0, To: "op_4", ToPort: 0},
	}
	for _, w := range want {
		if !slices.Contains(edges, w) {
			t.Errorf("missing edge %+v", w)
		}
	}
	if len(edges) != len(want) {
		t.Errorf("edges = %d, want %d: %+v", len(edges), len(want), edges)
	}
}

func TestSynthesizeEdgesGroupPorts(t *testing.T) {
	_, idx, a, b, c := chainABC()
	g := &Group{ID: 1, Name: "g", Members: []string{a, b}}
	g.Inputs, g.Outputs, _ = BoundaryIO(idx, g.Members)

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Collapsed = map[string]*Group{a: g, b: g}
	})
	edges := SynthesizeEdges(idx, res)

	gid := g.NodeID()
	want := []Edge{
		{From: "input_val_0", FromPort: 0, To: gid, ToPort: 0},
		{From: "input_val_1", FromPort: 0, To: gid, ToPort: 1},
		{From: gid, FromPort: 0, To: c, ToPort: 0},
		{From: c, FromPort: 0, To: "op_4", ToPort: 0},
	}
	for _, w := range want {
		if !slices.Contains(edges, w) {
			t.Errorf("missing edge %+v", w)
		}
	}
	if len(edges) != len(want) {
		t.Errorf("edges = %d, want %d: %+v", len(edges), len(want), edges)
	}

	// Intra-group edge A->B must never surface.
	for _, e := range edges {
		if e.From == a || e.To == a || e.To == b || e.From == b {
			t.Errorf("edge %+v references a collapsed member", e)
		}
	}
}

func TestSynthesizeEdgesGroupToGroup(t *testing.T) {
	// {A} and {B} collapsed separately: A-group output port feeds
	// B-group input port.
	_, idx, a, b, _ := chainABC()
	ga := &Group{ID: 1, Name: "ga", Members: []string{a}}
	ga.Inputs, ga.Outputs, _ = BoundaryIO(idx, ga.Members)
	gb := &Group{ID: 2, Name: "gb", Members: []string{b}}
	gb.Inputs, gb.Outputs, _ = BoundaryIO(idx, gb.Members)

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Collapsed = map[string]*Group{a: ga, b: gb}
	})
	edges := SynthesizeEdges(idx, res)

	want := Edge{From: ga.NodeID(), FromPort: 0, To: gb.NodeID(), ToPort: 0}
	if !slices.Contains(edges, want) {
		t.Errorf("missing group-to-group edge %+v in %+v", want, edges)
	}
}

func TestSynthesizeEdgesInvisibleSource(t *testing.T) {
	// Hiding A removes its node; B's operand then has no visible source
	// and no edge is synthesized for it - silently, not as an error.
	_, idx, a, b, _ := chainABC()

	res := walkAll(idx, idx.ModuleRegions(), func(p *WalkParams) {
		p.Hidden = map[string]bool{"test.a": true}
	})
	edges := SynthesizeEdges(idx, res)

	for _, e := range edges {
		if e.From == a || e.To == a {
			t.Errorf("edge %+v touches hidden op", e)
		}
		if e.To == b {
			t.Errorf("edge %+v targets operand with invisible source", e)
		}
	}
	// The untouched part of the chain keeps its edges.
	if !slices.Contains(edges, Edge{From: b, FromPort: 0, To: "op_3", ToPort: 0}) {
		t.Error("unrelated edge B->C lost")
	}
}

func TestSynthesizeEdgesDrillScope(t *testing.T) {
	_, idx, _, b, c := chainABC()
	g := &Group{ID: 1, Name: "g", Members: []string{b, c}}
	g.Inputs, g.Outputs, _ = BoundaryIO(idx, g.Members)

	res := FilterDrill(idx, walkAll(idx, idx.ModuleRegions()), g)
	edges := SynthesizeEdges(idx, res)

	want := []Edge{
		{From: ir.InputNodeID("val_2"), FromPort: 0, To: b, ToPort: 0},
		{From: b, FromPort: 0, To: c, ToPort: 0},
	}
	for _, w := range want {
		if !slices.Contains(edges, w) {
			t.Errorf("missing edge %+v", w)
		}
	}
	if len(edges) != len(want) {
		t.Errorf("edges = %d, want %d: %+v", len(edges), len(want), edges)
	}
}
