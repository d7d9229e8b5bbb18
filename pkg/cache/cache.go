// Package cache provides pluggable byte caches and the key scheme used
// to memoize view builds and rendered artifacts.
//
// Three backends implement [Cache]: [FileCache] for CLI usage,
// [RedisCache] for the shared server deployment and [NullCache] to
// disable caching. Keys are produced by a [Keyer] so every caller
// derives them the same way; [ScopedKeyer] prefixes keys for
// per-session isolation.
package cache

import (
	"context"
	"time"
)

// Default TTLs per pipeline stage. Snapshots change only on reload, so
// they live longest; built views and artifacts are cheap to rebuild.
const (
	TTLSnapshot = 24 * time.Hour
	TTLView     = 6 * time.Hour
	TTLArtifact = 6 * time.Hour
)

// Cache stores opaque byte values under string keys with optional
// expiration. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached bytes for key. The second result reports
	// whether the key was present; a miss is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ViewKeyOpts captures the navigation inputs that change a built view.
type ViewKeyOpts struct {
	StateHash   string `json:"state_hash"`
	ExpandDepth int    `json:"expand_depth"`
}

// ArtifactKeyOpts captures the rendering inputs that change an artifact.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"` // "svg", "pdf", "png"
	Scale      float64 `json:"scale,omitempty"`
	ShowTypes  bool    `json:"show_types,omitempty"`
	Horizontal bool    `json:"horizontal,omitempty"`
}

// Keyer derives cache keys for the pipeline stages. Distinct inputs must
// map to distinct keys; equal inputs must map to equal keys.
type Keyer interface {
	// SnapshotKey identifies a loaded snapshot by the hash of its
	// serialized form.
	SnapshotKey(snapshotHash string) string

	// ViewKey identifies a built view graph: the snapshot it came from
	// plus the navigation inputs.
	ViewKey(snapshotHash string, opts ViewKeyOpts) string

	// ArtifactKey identifies a rendered artifact derived from a view
	// graph hash.
	ArtifactKey(viewHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key scheme: a stage prefix plus a SHA-256
// over the inputs.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

func (k *DefaultKeyer) SnapshotKey(snapshotHash string) string {
	return "snapshot:" + snapshotHash
}

func (k *DefaultKeyer) ViewKey(snapshotHash string, opts ViewKeyOpts) string {
	return hashKey("view", snapshotHash, opts)
}

func (k *DefaultKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", viewHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for per-session isolation.
// Sessions in the shared server get separate cache namespaces:
//
//	keyer := cache.NewScopedKeyer(nil, "session:"+id+":")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to every key the
// inner keyer generates. A nil inner uses [NewDefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SnapshotKey(snapshotHash string) string {
	return k.prefix + k.inner.SnapshotKey(snapshotHash)
}

func (k *ScopedKeyer) ViewKey(snapshotHash string, opts ViewKeyOpts) string {
	return k.prefix + k.inner.ViewKey(snapshotHash, opts)
}

func (k *ScopedKeyer) ArtifactKey(viewHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(viewHash, opts)
}
