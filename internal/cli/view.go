package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gxianyd/mlir-modifier/pkg/pipeline"
)

// viewCommand creates the view command for computing a view graph.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		output  string
		format  string
		hideStr string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "view [snapshot.json]",
		Short: "Compute the flat view graph for an IR snapshot",
		Long: `Compute the flat view graph for an IR snapshot.

The view command loads a snapshot (the nested region/block/operation tree
plus its def-use edges), flattens the root scope into visible nodes and
synthesized edges, and writes the result as JSON (default) or Graphviz DOT.

Operations below the expansion depth collapse into single nodes; use
--expand-depth to inline more nesting levels and --hide to drop noisy
operation names (e.g. func.return) up front.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != pipeline.FormatJSON && format != pipeline.FormatDOT {
				return fmt.Errorf("invalid format: %s (must be 'json' or 'dot')", format)
			}
			opts.Formats = []string{format}
			opts.Hide = parseNames(hideStr)
			return c.runView(cmd.Context(), args[0], opts, output, format, noCache)
		},
	}

	// Common flags
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass caches and recompute")

	// View flags
	cmd.Flags().StringVarP(&format, "format", "f", pipeline.FormatJSON, "output format: json (default), dot")
	cmd.Flags().IntVar(&opts.ExpandDepth, "expand-depth", 0, "inline expansion depth (default 1)")
	cmd.Flags().StringVar(&hideStr, "hide", "", "operation names to hide (comma-separated)")
	cmd.Flags().StringVar(&opts.DialectFile, "dialects", "", "extra dialect TOML merged over the built-ins")

	return cmd
}

// runView executes the pipeline and writes the requested artifact.
func (c *CLI) runView(ctx context.Context, input string, opts pipeline.Options, output, format string, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.SnapshotPath = input
	opts.Logger = c.Logger

	prog := newProgress(c.Logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return fmt.Errorf("view: %w", err)
	}
	prog.done(fmt.Sprintf("Built view graph: %d nodes, %d edges", result.Stats.NodeCount, result.Stats.EdgeCount))

	out, err := openOutput(output)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(result.Artifacts[format]); err != nil {
		return err
	}

	if output != "" {
		printSuccess("View complete")
		printFile(output)
		printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.BuildHit)
		printNewline()
		printNextStep("Render", appName+" render "+input)
	}
	return nil
}
