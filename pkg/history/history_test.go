package history

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

func TestUndoRedo(t *testing.T) {
	l := New(0)

	if l.CanUndo() || l.CanRedo() {
		t.Error("fresh log reports available history")
	}

	if err := l.Record([]byte("v1")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := l.Record([]byte("v2")); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Current state is v3; undo twice walks back through v2 and v1.
	got, err := l.Undo([]byte("v3"))
	if err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Undo() = %q, want v2", got)
	}

	got, err = l.Undo(got)
	if err != nil {
		t.Fatalf("second Undo() error = %v", err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("Undo() = %q, want v1", got)
	}
	if l.CanUndo() {
		t.Error("CanUndo() after draining the stack")
	}

	// Redo walks forward again.
	got, err = l.Redo(got)
	if err != nil {
		t.Fatalf("Redo() error = %v", err)
	}
	if !bytes.Equal(got, []byte("v2")) {
		t.Errorf("Redo() = %q, want v2", got)
	}
	got, err = l.Redo(got)
	if err != nil {
		t.Fatalf("second Redo() error = %v", err)
	}
	if !bytes.Equal(got, []byte("v3")) {
		t.Errorf("Redo() = %q, want v3", got)
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	l := New(0)

	if _, err := l.Undo([]byte("x")); !errors.Is(err, ErrNothingToUndo) {
		t.Errorf("Undo() error = %v, want ErrNothingToUndo", err)
	}
	if _, err := l.Redo([]byte("x")); !errors.Is(err, ErrNothingToRedo) {
		t.Errorf("Redo() error = %v, want ErrNothingToRedo", err)
	}
}

func TestRecordClearsRedo(t *testing.T) {
	l := New(0)

	_ = l.Record([]byte("v1"))
	if _, err := l.Undo([]byte("v2")); err != nil {
		t.Fatal(err)
	}
	if !l.CanRedo() {
		t.Fatal("expected redo entry after undo")
	}

	// A new edit branch invalidates the redo stack.
	_ = l.Record([]byte("v1b"))
	if l.CanRedo() {
		t.Error("Record() kept a stale redo stack")
	}
}

func TestDepthLimit(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		_ = l.Record([]byte(fmt.Sprintf("v%d", i)))
	}
	if l.Depth() != 3 {
		t.Fatalf("Depth() = %d, want 3", l.Depth())
	}

	// Oldest entries were dropped: after draining, the floor is v2.
	var last []byte = []byte("current")
	for l.CanUndo() {
		var err error
		last, err = l.Undo(last)
		if err != nil {
			t.Fatal(err)
		}
	}
	if !bytes.Equal(last, []byte("v2")) {
		t.Errorf("deepest entry = %q, want v2", last)
	}
}

func TestClear(t *testing.T) {
	l := New(0)
	_ = l.Record([]byte("v1"))
	_, _ = l.Undo([]byte("v2"))

	l.Clear()
	if l.CanUndo() || l.CanRedo() {
		t.Error("Clear() left history behind")
	}
}

func TestDumpLoad(t *testing.T) {
	l := New(0)
	_ = l.Record([]byte("v1"))
	_ = l.Record([]byte("v2"))
	if _, err := l.Undo([]byte("v3")); err != nil {
		t.Fatal(err)
	}

	undo, redo := l.Dump()
	restored := New(0)
	restored.Load(undo, redo)

	if restored.Depth() != 1 || !restored.CanRedo() {
		t.Fatalf("restored log: depth=%d canRedo=%v", restored.Depth(), restored.CanRedo())
	}
	got, err := restored.Undo([]byte("v2"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v1")) {
		t.Errorf("restored Undo() = %q, want v1", got)
	}
}

func TestLoadTruncatesToLimit(t *testing.T) {
	l := New(0)
	for i := 0; i < 5; i++ {
		_ = l.Record([]byte(fmt.Sprintf("v%d", i)))
	}
	undo, redo := l.Dump()

	small := New(2)
	small.Load(undo, redo)
	if small.Depth() != 2 {
		t.Errorf("Depth() = %d after Load into limit 2", small.Depth())
	}
	// The newest entries are the ones kept.
	got, err := small.Undo([]byte("current"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("v4")) {
		t.Errorf("Undo() = %q, want v4", got)
	}
}

func TestLargeStateRoundTrip(t *testing.T) {
	l := New(0)

	big := bytes.Repeat([]byte(`{"id":"op_1","name":"arith.addf"},`), 4096)
	if err := l.Record(big); err != nil {
		t.Fatal(err)
	}
	got, err := l.Undo([]byte("current"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, big) {
		t.Error("large state corrupted by compression round trip")
	}
}
