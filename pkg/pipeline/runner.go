package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gxianyd/mlir-modifier/pkg/cache"
	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/render"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// Indexed bundles a loaded snapshot with its index and content hash.
type Indexed struct {
	Snapshot *ir.Snapshot
	Index    *ir.Index

	// Hash is the content hash of the serialized snapshot, used as
	// cache-key material for everything derived from it.
	Hash string
}

// NewIndexed indexes a snapshot and computes its content hash.
func NewIndexed(snap *ir.Snapshot) (*Indexed, error) {
	data, err := ir.MarshalSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("hash snapshot: %w", err)
	}
	return &Indexed{
		Snapshot: snap,
		Index:    ir.BuildIndex(snap),
		Hash:     cache.Hash(data),
	}, nil
}

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Execute runs the complete load → build → render pipeline with caching.
// A nil state builds the default root view of the loaded snapshot.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	return r.ExecuteWithState(ctx, nil, opts)
}

// ExecuteWithState runs the pipeline against caller-owned navigation
// state, as the TUI and server do across repeated builds.
func (r *Runner) ExecuteWithState(ctx context.Context, st *view.State, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{Artifacts: make(map[string][]byte)}

	loadStart := time.Now()
	idx, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Index = idx
	result.Stats.LoadTime = time.Since(loadStart)

	r.Logger.Info("loaded snapshot",
		"ops", len(idx.Snapshot.Operations),
		"values", len(idx.Snapshot.Edges),
		"duration", result.Stats.LoadTime)

	if st == nil {
		st = view.NewState(idx.Snapshot.ModuleID)
		st.ExpandDepth = opts.ExpandDepth
		for _, name := range opts.Hide {
			st.HideName(name)
		}
	}
	result.State = st

	buildStart := time.Now()
	g, buildHit, err := r.BuildViewWithCacheInfo(ctx, idx, st, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.NodeCount = len(g.Nodes)
	result.Stats.EdgeCount = len(g.Edges)
	result.CacheInfo.BuildHit = buildHit

	if data, err := json.Marshal(g); err == nil {
		result.GraphHash = cache.Hash(data)
	}

	r.Logger.Info("built view",
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Load reads, validates and indexes the snapshot named by the options.
func (r *Runner) Load(ctx context.Context, opts Options) (*Indexed, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	snap, err := ir.ImportSnapshot(opts.SnapshotPath)
	if err != nil {
		return nil, err
	}
	return NewIndexed(snap)
}

// BuildViewWithCacheInfo runs the view engine with caching and returns
// cache hit info. The cache key covers the snapshot hash, the full
// navigation state and the expand depth, so any navigation change misses.
func (r *Runner) BuildViewWithCacheInfo(ctx context.Context, idx *Indexed, st *view.State, opts Options) (view.Graph, bool, error) {
	opts.SetViewDefaults()
	r.applyLogger(&opts)

	stateData, err := json.Marshal(st)
	if err != nil {
		return view.Graph{}, false, fmt.Errorf("serialize state for cache key: %w", err)
	}
	cacheKey := r.Keyer.ViewKey(idx.Hash, opts.ViewKeyOpts(cache.Hash(stateData)))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached view.Graph
			if err := json.Unmarshal(data, &cached); err == nil {
				restoreKinds(&cached)
				return cached, true, nil
			}
			// Undecodable entry, fall through to rebuild.
		}
	}

	g := view.Build(idx.Index, st)

	if data, err := json.Marshal(g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLView)
	}

	return g, false, nil
}

// BuildView is a convenience wrapper that discards the cache hit info.
func (r *Runner) BuildView(ctx context.Context, idx *Indexed, st *view.State, opts Options) (view.Graph, error) {
	g, _, err := r.BuildViewWithCacheInfo(ctx, idx, st, opts)
	return g, err
}

// restoreKinds rebuilds the non-serialized Kind field from KindTag after
// a graph round-trips through JSON.
func restoreKinds(g *view.Graph) {
	for i := range g.Nodes {
		switch g.Nodes[i].KindTag {
		case "input":
			g.Nodes[i].Kind = view.KindInput
		case "group":
			g.Nodes[i].Kind = view.KindGroup
		default:
			g.Nodes[i].Kind = view.KindOperation
		}
	}
}

// RenderWithCacheInfo generates artifacts with caching and returns cache
// hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g view.Graph, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	graphData, err := json.Marshal(g)
	if err != nil {
		return nil, false, fmt.Errorf("serialize graph for cache key: %w", err)
	}
	graphHash := cache.Hash(graphData)

	// Try to get all formats from cache.
	allCached := true
	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			return artifacts, true, nil
		}
	}

	rendered, err := r.renderFormats(g, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g view.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// renderFormats produces every requested format from one DOT conversion.
func (r *Runner) renderFormats(g view.Graph, opts Options) (map[string][]byte, error) {
	reg, err := opts.registry()
	if err != nil {
		return nil, err
	}
	dot := render.ToDOT(g, render.Options{
		Registry:   reg,
		ShowTypes:  opts.ShowTypes,
		Horizontal: opts.Horizontal,
	})

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		var err error
		switch format {
		case FormatDOT:
			data = []byte(dot)
		case FormatJSON:
			data, err = json.MarshalIndent(g, "", "  ")
		case FormatSVG:
			data, err = render.SVG(dot)
		case FormatPDF:
			data, err = render.PDF(dot)
		case FormatPNG:
			data, err = render.PNG(dot, opts.Scale)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
