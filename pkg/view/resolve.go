package view

import "github.com/gxianyd/mlir-modifier/pkg/ir"

// OpenRegions resolves a view path to the ordered region ids that should
// be walked: the child regions of the path's last entry, or the module's
// top-level regions when the path names only the module root.
//
// An empty path, or a view root that no longer resolves to an operation,
// yields nil - callers render an empty canvas, not a failure state.
func OpenRegions(idx *ir.Index, path []string) []string {
	if len(path) == 0 {
		return nil
	}
	root := path[len(path)-1]
	if root == idx.ModuleID() {
		return idx.ModuleRegions()
	}
	op, ok := idx.Op(root)
	if !ok {
		return nil
	}
	return op.Regions
}
