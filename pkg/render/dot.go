package render

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/gxianyd/mlir-modifier/pkg/dialect"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// Options configures DOT generation.
type Options struct {
	// Registry supplies per-dialect fill colors. Nil renders every
	// operation with the default fill.
	Registry *dialect.Registry

	// ShowTypes includes value types in port cells.
	ShowTypes bool

	// Horizontal lays the graph out left to right instead of top down.
	Horizontal bool
}

const defaultFill = "#ffffff"

// ToDOT converts a view graph to Graphviz DOT. Every node becomes an
// HTML-like table with one port cell per input and output slot, so the
// graph's port indices survive into the rendered output. The DOT text is
// deterministic: nodes and edges appear in the graph's own order.
//
// The result renders with [SVG], [PDF] or [PNG].
func ToDOT(g view.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Horizontal {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=plain, fontsize=14];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for i := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [label=<%s>];\n", g.Nodes[i].ID, nodeTable(&g.Nodes[i], opts))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q:o%d -> %q:i%d;\n", e.From, e.FromPort, e.To, e.ToPort)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeTable builds the HTML-like label for one node. Layout per kind:
// pseudo-inputs are a single output cell, operations and groups stack an
// input row, a title row and an output row.
func nodeTable(n *view.Node, opts Options) string {
	border := "1"
	if n.Kind == view.KindGroup || n.CollapsedByDepth {
		// Doubled frame marks nodes that hide structure behind them.
		border = "2"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<table border="%s" cellborder="1" cellspacing="0" cellpadding="4">`, border)

	cols := max(len(n.Inputs), len(n.Outputs), 1)
	if len(n.Inputs) > 0 {
		b.WriteString("<tr>")
		writePorts(&b, n.Inputs, "i", cols, opts.ShowTypes)
		b.WriteString("</tr>")
	}

	fmt.Fprintf(&b, `<tr><td colspan="%d" bgcolor="%s">%s</td></tr>`,
		cols, fillColor(n, opts.Registry), html.EscapeString(titleText(n)))

	if len(n.Outputs) > 0 {
		b.WriteString("<tr>")
		writePorts(&b, n.Outputs, "o", cols, opts.ShowTypes)
		b.WriteString("</tr>")
	}

	b.WriteString("</table>")
	return b.String()
}

// writePorts emits one row of port cells. The last cell absorbs any
// leftover columns so input and output rows line up under the title.
func writePorts(b *strings.Builder, ports []view.Port, prefix string, cols int, showTypes bool) {
	for i, p := range ports {
		span := ""
		if i == len(ports)-1 && cols > len(ports) {
			span = fmt.Sprintf(` colspan="%d"`, cols-len(ports)+1)
		}
		text := p.Value
		if showTypes && p.Type != "" {
			text += ": " + p.Type
		}
		fmt.Fprintf(b, `<td port="%s%d"%s>%s</td>`, prefix, i, span, html.EscapeString(text))
	}
}

func titleText(n *view.Node) string {
	switch {
	case n.Kind == view.KindInput:
		return n.Label
	case n.CollapsedByDepth:
		noun := "region"
		if n.RegionCount != 1 {
			noun = "regions"
		}
		return fmt.Sprintf("%s [%d %s]", n.Label, n.RegionCount, noun)
	case n.ExpandedGroup != 0:
		return n.Label + " (" + view.GroupNodeID(n.ExpandedGroup) + ")"
	default:
		return n.Label
	}
}

func fillColor(n *view.Node, reg *dialect.Registry) string {
	switch n.Kind {
	case view.KindInput:
		return "#f1f3f5"
	case view.KindGroup:
		return "#e9ecef"
	}
	if reg != nil {
		if c := reg.Color(n.Label); c != "" {
			return c
		}
	}
	return defaultFill
}

// SVG renders a DOT graph to SVG using Graphviz. The returned bytes are
// ready for display or conversion with [ToPDF] or [ToPNG].
func SVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag to a zero-origin viewBox
// with explicit pixel dimensions, which embeds cleanly in browsers.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// PDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func PDF(dot string) ([]byte, error) {
	svg, err := SVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// PNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func PNG(dot string, scale float64) ([]byte, error) {
	svg, err := SVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
