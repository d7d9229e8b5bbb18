package ir

import (
	"reflect"
	"testing"
)

// twoOpSnapshot is a module with one function body: two block arguments
// feeding an add whose result is returned.
func twoOpSnapshot() *Snapshot {
	return &Snapshot{
		ModuleID: "op_0",
		Operations: []Operation{
			{
				ID: "op_1", Name: "arith.addf", Dialect: "arith",
				Operands:    []Value{{ID: "val_0", Type: "f32"}, {ID: "val_1", Type: "f32"}},
				Results:     []Value{{ID: "val_2", Type: "f32"}},
				ParentBlock: "block_0",
			},
			{
				ID: "op_2", Name: "func.return", Dialect: "func",
				Operands:    []Value{{ID: "val_2", Type: "f32"}},
				ParentBlock: "block_0", Position: 1,
			},
		},
		Blocks: []Block{{
			ID:           "block_0",
			Arguments:    []Value{{ID: "val_0", Type: "f32"}, {ID: "val_1", Type: "f32"}},
			ParentRegion: "region_0",
			Operations:   []string{"op_1", "op_2"},
		}},
		Regions: []Region{{ID: "region_0", ParentOp: "op_0", Blocks: []string{"block_0"}}},
		Edges: []DefUse{
			{FromValue: "val_0", ToOp: "op_1", ToOperandIndex: 0},
			{FromValue: "val_1", ToOp: "op_1", ToOperandIndex: 1},
			{FromValue: "val_2", ToOp: "op_2", ToOperandIndex: 0},
		},
	}
}

func TestBuildIndexOrigins(t *testing.T) {
	idx := BuildIndex(twoOpSnapshot())

	tests := []struct {
		value string
		want  Origin
	}{
		{"val_0", Origin{Kind: OriginArgument, Block: "block_0", ArgIndex: 0}},
		{"val_1", Origin{Kind: OriginArgument, Block: "block_0", ArgIndex: 1}},
		{"val_2", Origin{Kind: OriginResult, Op: "op_1", ResultIndex: 0}},
	}
	for _, tt := range tests {
		got, ok := idx.Origin(tt.value)
		if !ok {
			t.Fatalf("Origin(%s) missing", tt.value)
		}
		if got != tt.want {
			t.Errorf("Origin(%s) = %+v, want %+v", tt.value, got, tt.want)
		}
	}

	if _, ok := idx.Origin("val_99"); ok {
		t.Error("Origin() reported an unknown value as present")
	}
}

func TestBuildIndexLookups(t *testing.T) {
	snap := twoOpSnapshot()
	idx := BuildIndex(snap)

	if op, ok := idx.Op("op_1"); !ok || op.Name != "arith.addf" {
		t.Errorf("Op(op_1) = %+v, %v", op, ok)
	}
	if _, ok := idx.Op("op_0"); ok {
		t.Error("module root resolved as a plain operation")
	}
	if _, ok := idx.Block("block_0"); !ok {
		t.Error("Block(block_0) missing")
	}
	if _, ok := idx.Region("region_0"); !ok {
		t.Error("Region(region_0) missing")
	}
	if got := idx.ModuleRegions(); !reflect.DeepEqual(got, []string{"region_0"}) {
		t.Errorf("ModuleRegions() = %v, want [region_0]", got)
	}
	if idx.ValueType("val_2") != "f32" {
		t.Errorf("ValueType(val_2) = %q, want f32", idx.ValueType("val_2"))
	}
}

func TestBuildIndexConsumers(t *testing.T) {
	idx := BuildIndex(twoOpSnapshot())

	uses := idx.Consumers("val_2")
	if len(uses) != 1 || uses[0].ToOp != "op_2" || uses[0].ToOperandIndex != 0 {
		t.Errorf("Consumers(val_2) = %+v", uses)
	}
	if uses := idx.Consumers("val_99"); len(uses) != 0 {
		t.Errorf("Consumers(val_99) = %+v, want none", uses)
	}
}

func TestBuildIndexArgNodeIDs(t *testing.T) {
	idx := BuildIndex(twoOpSnapshot())

	id, ok := idx.ArgInputNodeID("val_0")
	if !ok || id != InputNodeID("val_0") {
		t.Errorf("ArgInputNodeID(val_0) = %q, %v", id, ok)
	}
	if _, ok := idx.ArgInputNodeID("val_2"); ok {
		t.Error("operation result reported as block argument")
	}

	// Rebuilding over the same snapshot assigns identical node ids.
	again := BuildIndex(twoOpSnapshot())
	id2, _ := again.ArgInputNodeID("val_0")
	if id != id2 {
		t.Errorf("pseudo-input id unstable across rebuilds: %q vs %q", id, id2)
	}
}

func TestBuildIndexEmptySnapshot(t *testing.T) {
	idx := BuildIndex(&Snapshot{ModuleID: "op_0"})

	if len(idx.ModuleRegions()) != 0 {
		t.Error("empty snapshot has module regions")
	}
	if _, ok := idx.Op("op_1"); ok {
		t.Error("lookup hit in empty index")
	}
}
