package view

import (
	"errors"
	"reflect"
	"testing"
)

func TestBoundaryIOChain(t *testing.T) {
	// A(a0, a1) -> B -> C: grouping {A, B} must expose A's two operands
	// as inputs and exactly one output (B's result, consumed by C).
	_, idx, a, b, _ := chainABC()

	inputs, outputs, err := BoundaryIO(idx, []string{a, b})
	if err != nil {
		t.Fatalf("BoundaryIO() error = %v", err)
	}

	if len(inputs) != 2 {
		t.Fatalf("inputs = %d, want 2", len(inputs))
	}
	if inputs[0].Value != "val_0" || inputs[1].Value != "val_1" {
		t.Errorf("input values = %s, %s, want val_0, val_1", inputs[0].Value, inputs[1].Value)
	}
	if len(outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(outputs))
	}
	if outputs[0].Producer != b || outputs[0].ResultIndex != 0 {
		t.Errorf("output = %+v, want producer %s result 0", outputs[0], b)
	}
}

func TestBoundaryIODedup(t *testing.T) {
	// X and Y both consume the same external value and both feed a shared
	// consumer: one input entry with both consumers, two output entries.
	sb := newSnap()
	r := sb.region(sb.snap.ModuleID)
	blk, args := sb.block(r, "i32")
	x, xres := sb.op(blk, "test.x", args, "i32")
	y, yres := sb.op(blk, "test.y", args, "i32")
	sb.op(blk, "test.sum", []string{xres[0], yres[0]}, "i32")
	idx := sb.index()

	inputs, outputs, err := BoundaryIO(idx, []string{x, y})
	if err != nil {
		t.Fatalf("BoundaryIO() error = %v", err)
	}

	if len(inputs) != 1 {
		t.Fatalf("inputs = %d, want 1 (shared value deduplicated)", len(inputs))
	}
	if !reflect.DeepEqual(inputs[0].Consumers, []string{x, y}) {
		t.Errorf("consumers = %v, want [%s %s]", inputs[0].Consumers, x, y)
	}
	if len(outputs) != 2 {
		t.Errorf("outputs = %d, want 2", len(outputs))
	}
}

func TestBoundaryIOInternalEdgesExcluded(t *testing.T) {
	// A value produced and consumed entirely inside the member set never
	// surfaces on either boundary list.
	_, idx, a, b, c := chainABC()

	inputs, outputs, err := BoundaryIO(idx, []string{a, b, c})
	if err != nil {
		t.Fatalf("BoundaryIO() error = %v", err)
	}
	for _, in := range inputs {
		if in.Value == "val_2" || in.Value == "val_3" {
			t.Errorf("internal value %s surfaced as boundary input", in.Value)
		}
	}
	// C's result feeds func.return, which is external to the group.
	if len(outputs) != 1 {
		t.Errorf("outputs = %d, want 1 (C's result, returned)", len(outputs))
	}
}

func TestBoundaryIODeterministic(t *testing.T) {
	_, idx, a, b, _ := chainABC()
	members := []string{a, b}

	in1, out1, _ := BoundaryIO(idx, members)
	in2, out2, _ := BoundaryIO(idx, members)

	if !reflect.DeepEqual(in1, in2) || !reflect.DeepEqual(out1, out2) {
		t.Error("repeated BoundaryIO over unchanged inputs differed")
	}
}

func TestBoundaryIOEmptyMembers(t *testing.T) {
	_, idx, _, _, _ := chainABC()
	if _, _, err := BoundaryIO(idx, nil); !errors.Is(err, ErrEmptyMembers) {
		t.Errorf("err = %v, want ErrEmptyMembers", err)
	}
}

func TestBoundaryIOSkipsDanglingMembers(t *testing.T) {
	_, idx, a, b, _ := chainABC()

	inputs, outputs, err := BoundaryIO(idx, []string{a, b, "op_99"})
	if err != nil {
		t.Fatalf("BoundaryIO() error = %v", err)
	}
	if len(inputs) != 2 || len(outputs) != 1 {
		t.Errorf("inputs/outputs = %d/%d, want 2/1 (dangling member ignored)", len(inputs), len(outputs))
	}
}
