// Package server exposes the view engine over HTTP.
//
// Each session pairs one loaded snapshot with one navigation state and a
// bounded undo/redo history over that state. Every state transition
// rebuilds and returns the fresh view graph, so clients never read a
// stale view after navigating.
//
// Session storage is pluggable: [MemStore] for single-process
// deployments and tests, [MongoStore] for shared deployments.
package server

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gxianyd/mlir-modifier/pkg/history"
	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// Sentinel errors for session operations.
var (
	// ErrSessionNotFound is returned when a session id resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session exists but has
	// exceeded its TTL.
	ErrSessionExpired = errors.New("session expired")
)

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session pairs a loaded snapshot with navigation state and the
// serialized undo/redo stacks over that state.
type Session struct {
	ID       string       `json:"id" bson:"_id"`
	Snapshot *ir.Snapshot `json:"snapshot" bson:"snapshot"`
	State    *view.State  `json:"state" bson:"state"`

	// UndoStack and RedoStack hold the compressed history entries, kept
	// serializable so any store backend can persist them.
	UndoStack [][]byte `json:"undo_stack,omitempty" bson:"undo_stack,omitempty"`
	RedoStack [][]byte `json:"redo_stack,omitempty" bson:"redo_stack,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// NewSession creates a session over a snapshot with fresh navigation
// state rooted at the module.
func NewSession(snap *ir.Snapshot, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Snapshot:  snap,
		State:     view.NewState(snap.ModuleID),
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Clone returns an independent copy of the session. Navigation state and
// the history stacks are copied so concurrent handlers never mutate a
// shared session; the snapshot is never mutated in place, only replaced,
// so the pointer is shared.
func (s *Session) Clone() *Session {
	c := *s
	c.State = s.State.Clone()
	c.UndoStack = slices.Clone(s.UndoStack)
	c.RedoStack = slices.Clone(s.RedoStack)
	return &c
}

// IsExpired reports whether the session has exceeded its TTL.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// History reconstructs the undo/redo log from the persisted stacks.
// Mutations to the log must be written back with [Session.SaveHistory].
func (s *Session) History() *history.Log {
	l := history.New(0)
	l.Load(s.UndoStack, s.RedoStack)
	return l
}

// SaveHistory persists the log's stacks back onto the session.
func (s *Session) SaveHistory(l *history.Log) {
	s.UndoStack, s.RedoStack = l.Dump()
}

// Touch bumps the update timestamp.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by id. It returns [ErrSessionNotFound] for
	// an unknown id and [ErrSessionExpired] for an expired one.
	Get(ctx context.Context, id string) (*Session, error)

	// Put stores or replaces a session.
	Put(ctx context.Context, sess *Session) error

	// Delete removes a session. Deleting an absent session succeeds.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}
