// Package render turns view graphs into visual outputs.
//
// # Overview
//
// The package converts a [view.Graph] into Graphviz DOT and renders it
// to SVG, PDF or PNG:
//
//	dot := render.ToDOT(graph, render.Options{Registry: dialect.Builtin()})
//	svg, err := render.SVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// Nodes are drawn as HTML-like tables whose cells carry Graphviz ports,
// one per input and output slot, so edges attach to the exact operand
// and result positions the graph specifies. Port cells keep their slice
// order left to right.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the
// external rsvg-convert tool (from librsvg). SVG rendering itself needs
// no external binary.
//
// [view.Graph]: github.com/gxianyd/mlir-modifier/pkg/view
package render
