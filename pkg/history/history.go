// Package history provides bounded snapshot-based undo/redo.
//
// A [Log] keeps two stacks of serialized states. Callers push the state
// as it was before each mutation; [Log.Undo] and [Log.Redo] exchange the
// caller's current state for the adjacent one. Entries are
// zlib-compressed, which typically shrinks snapshot JSON around 10:1, so
// even deep histories over large modules stay small in memory.
package history

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNothingToUndo is returned by [Log.Undo] on an empty undo stack.
	ErrNothingToUndo = errors.New("nothing to undo")

	// ErrNothingToRedo is returned by [Log.Redo] on an empty redo stack.
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxDepth bounds the undo stack when no explicit limit is given.
const DefaultMaxDepth = 50

// Log is a bounded undo/redo history over opaque serialized states.
// It is not safe for concurrent use; callers holding one per session
// must serialize access themselves.
type Log struct {
	undo     [][]byte
	redo     [][]byte
	maxDepth int
}

// New creates a history log keeping at most maxDepth undo entries.
// A maxDepth of zero or less uses [DefaultMaxDepth].
func New(maxDepth int) *Log {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Log{maxDepth: maxDepth}
}

// Record pushes the state as it was before a mutation onto the undo
// stack and clears the redo stack, starting a new edit branch. The
// oldest entry is dropped once the stack exceeds the depth limit.
func (l *Log) Record(state []byte) error {
	entry, err := compress(state)
	if err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	l.undo = append(l.undo, entry)
	if len(l.undo) > l.maxDepth {
		l.undo = l.undo[1:]
	}
	l.redo = nil
	return nil
}

// Undo returns the most recently recorded state and pushes current onto
// the redo stack.
func (l *Log) Undo(current []byte) ([]byte, error) {
	if len(l.undo) == 0 {
		return nil, ErrNothingToUndo
	}
	entry, err := compress(current)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}

	previous := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	l.redo = append(l.redo, entry)

	state, err := decompress(previous)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	return state, nil
}

// Redo returns the most recently undone state and pushes current onto
// the undo stack.
func (l *Log) Redo(current []byte) ([]byte, error) {
	if len(l.redo) == 0 {
		return nil, ErrNothingToRedo
	}
	entry, err := compress(current)
	if err != nil {
		return nil, fmt.Errorf("redo: %w", err)
	}

	next := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]
	l.undo = append(l.undo, entry)

	state, err := decompress(next)
	if err != nil {
		return nil, fmt.Errorf("redo: %w", err)
	}
	return state, nil
}

// Clear resets both stacks, e.g. when a new snapshot is loaded.
func (l *Log) Clear() {
	l.undo = nil
	l.redo = nil
}

// CanUndo reports whether an undo entry is available.
func (l *Log) CanUndo() bool { return len(l.undo) > 0 }

// CanRedo reports whether a redo entry is available.
func (l *Log) CanRedo() bool { return len(l.redo) > 0 }

// Depth returns the current undo stack size.
func (l *Log) Depth() int { return len(l.undo) }

// Dump returns copies of the compressed undo and redo stacks so callers
// can persist a log alongside the state it tracks.
func (l *Log) Dump() (undo, redo [][]byte) {
	undo = make([][]byte, len(l.undo))
	copy(undo, l.undo)
	redo = make([][]byte, len(l.redo))
	copy(redo, l.redo)
	return undo, redo
}

// Load replaces both stacks with previously dumped entries, truncating
// the undo stack to the depth limit.
func (l *Log) Load(undo, redo [][]byte) {
	l.undo = make([][]byte, len(undo))
	copy(l.undo, undo)
	if len(l.undo) > l.maxDepth {
		l.undo = l.undo[len(l.undo)-l.maxDepth:]
	}
	l.redo = make([][]byte, len(redo))
	copy(l.redo, redo)
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
