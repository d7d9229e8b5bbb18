package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// browseCommand creates the browse command for interactive navigation.
func (c *CLI) browseCommand() *cobra.Command {
	var (
		expandDepth int
		hideStr     string
	)

	cmd := &cobra.Command{
		Use:   "browse [snapshot.json]",
		Short: "Browse an IR snapshot interactively",
		Long: `Browse an IR snapshot interactively.

The browse command opens a terminal UI over the view graph. Drill into
region-owning operations with enter, climb back out with esc, hide noisy
operation names with x, and mark operations with space to gather them
into groups.

The view rebuilds after every transition, exactly as a rendering client
would see it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], expandDepth, parseNames(hideStr))
		},
	}

	cmd.Flags().IntVar(&expandDepth, "expand-depth", view.DefaultExpandDepth, "inline expansion depth")
	cmd.Flags().StringVar(&hideStr, "hide", "", "operation names to hide (comma-separated)")

	return cmd
}

// runBrowse loads the snapshot and runs the TUI until the user quits.
func (c *CLI) runBrowse(ctx context.Context, input string, expandDepth int, hide []string) error {
	snap, err := ir.ImportSnapshot(input)
	if err != nil {
		return fmt.Errorf("load snapshot %s: %w", input, err)
	}
	idx := ir.BuildIndex(snap)

	st := view.NewState(snap.ModuleID)
	if expandDepth > 0 {
		st.ExpandDepth = expandDepth
	}
	for _, name := range hide {
		st.HideName(name)
	}

	model := NewBrowseModel(idx, st)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
