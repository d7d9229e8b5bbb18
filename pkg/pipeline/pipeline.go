// Package pipeline provides the load → build → render pipeline shared by
// the CLI, the TUI browser and the HTTP server.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and validate an IR snapshot, then index it
//  2. Build: Run the view engine over the index and navigation state
//  3. Render: Generate output in various formats (SVG, PNG, PDF, DOT, JSON)
//
// Each stage can be run independently or as part of the complete pipeline,
// and the build and render stages are cached keyed on their exact inputs.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SnapshotPath: "model.json",
//	    Formats:      []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	idx, err := runner.Load(ctx, opts)
//	graph, err := runner.BuildView(ctx, idx, state, opts)
//	artifacts, err := runner.Render(ctx, graph, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gxianyd/mlir-modifier/pkg/cache"
	"github.com/gxianyd/mlir-modifier/pkg/dialect"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// DefaultPNGScale is the default PNG resolution multiplier.
const DefaultPNGScale = 2.0

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	SnapshotPath string `json:"snapshot_path,omitempty"`
	DialectFile  string `json:"dialect_file,omitempty"` // extra dialect TOML merged over the built-ins
	Refresh      bool   `json:"refresh,omitempty"`      // bypass caches and recompute

	// View options
	ExpandDepth int      `json:"expand_depth,omitempty"`
	Hide        []string `json:"hide,omitempty"` // qualified op names hidden up front

	// Render options
	Formats    []string `json:"formats,omitempty"`
	Scale      float64  `json:"scale,omitempty"` // PNG only
	ShowTypes  bool     `json:"show_types,omitempty"`
	Horizontal bool     `json:"horizontal,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Index is the loaded, indexed snapshot.
	Index *Indexed

	// State is the navigation state the view was built with.
	State *view.State

	// Graph is the built view graph.
	Graph view.Graph

	// GraphHash is the content hash of the built graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	BuildHit  bool // Whether the view graph came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for
// the full pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetViewDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for the load stage.
func (o *Options) ValidateForLoad() error {
	if o.SnapshotPath == "" {
		return fmt.Errorf("snapshot_path is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetViewDefaults sets default values for the build stage.
func (o *Options) SetViewDefaults() {
	if o.ExpandDepth == 0 {
		o.ExpandDepth = view.DefaultExpandDepth
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ViewKeyOpts returns cache key options for the build stage.
func (o *Options) ViewKeyOpts(stateHash string) cache.ViewKeyOpts {
	return cache.ViewKeyOpts{
		StateHash:   stateHash,
		ExpandDepth: o.ExpandDepth,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:     format,
		ShowTypes:  o.ShowTypes,
		Horizontal: o.Horizontal,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}

// registry resolves the dialect registry for these options.
func (o *Options) registry() (*dialect.Registry, error) {
	if o.DialectFile == "" {
		return dialect.Builtin(), nil
	}
	return dialect.LoadFile(o.DialectFile)
}
