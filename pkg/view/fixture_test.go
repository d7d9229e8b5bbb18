package view

import (
	"fmt"
	"strings"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

// snapBuilder assembles snapshots for tests using the authority's
// sequential id scheme (op_0 is the module root).
type snapBuilder struct {
	snap                    *ir.Snapshot
	nOp, nBlock, nRegion, nVal int
}

func newSnap() *snapBuilder {
	b := &snapBuilder{snap: &ir.Snapshot{}}
	b.snap.ModuleID = b.nextOp() // op_0, the module root, not in Operations
	return b
}

func (b *snapBuilder) nextOp() string {
	id := fmt.Sprintf("op_%d", b.nOp)
	b.nOp++
	return id
}

func (b *snapBuilder) nextVal() string {
	id := fmt.Sprintf("val_%d", b.nVal)
	b.nVal++
	return id
}

// region adds a region owned by parentOp and returns its id.
func (b *snapBuilder) region(parentOp string) string {
	id := fmt.Sprintf("region_%d", b.nRegion)
	b.nRegion++
	b.snap.Regions = append(b.snap.Regions, ir.Region{ID: id, ParentOp: parentOp})
	if parentOp != b.snap.ModuleID {
		for i := range b.snap.Operations {
			if b.snap.Operations[i].ID == parentOp {
				b.snap.Operations[i].Regions = append(b.snap.Operations[i].Regions, id)
			}
		}
	}
	return id
}

// block adds a block with one argument per type and returns the block id
// plus the argument value ids.
func (b *snapBuilder) block(region string, argTypes ...string) (string, []string) {
	id := fmt.Sprintf("block_%d", b.nBlock)
	b.nBlock++
	blk := ir.Block{ID: id, ParentRegion: region}
	var args []string
	for _, t := range argTypes {
		v := b.nextVal()
		blk.Arguments = append(blk.Arguments, ir.Value{ID: v, Type: t})
		args = append(args, v)
	}
	b.snap.Blocks = append(b.snap.Blocks, blk)
	for i := range b.snap.Regions {
		if b.snap.Regions[i].ID == region {
			b.snap.Regions[i].Blocks = append(b.snap.Regions[i].Blocks, id)
		}
	}
	return id, args
}

// op appends an operation to a block, wiring operands as def-use edges,
// and returns the op id plus its result value ids.
func (b *snapBuilder) op(block, name string, operands []string, resultTypes ...string) (string, []string) {
	id := b.nextOp()
	dialect := ""
	if i := strings.Index(name, "."); i >= 0 {
		dialect = name[:i]
	}
	op := ir.Operation{ID: id, Name: name, Dialect: dialect, ParentBlock: block}

	for oi, v := range operands {
		op.Operands = append(op.Operands, ir.Value{ID: v, Type: b.typeOf(v)})
		b.snap.Edges = append(b.snap.Edges, ir.DefUse{FromValue: v, ToOp: id, ToOperandIndex: oi})
	}
	var results []string
	for _, t := range resultTypes {
		v := b.nextVal()
		op.Results = append(op.Results, ir.Value{ID: v, Type: t})
		results = append(results, v)
	}

	for i := range b.snap.Blocks {
		if b.snap.Blocks[i].ID == block {
			op.Position = len(b.snap.Blocks[i].Operations)
			b.snap.Blocks[i].Operations = append(b.snap.Blocks[i].Operations, id)
		}
	}
	b.snap.Operations = append(b.snap.Operations, op)
	return id, results
}

func (b *snapBuilder) typeOf(valueID string) string {
	for _, blk := range b.snap.Blocks {
		for _, a := range blk.Arguments {
			if a.ID == valueID {
				return a.Type
			}
		}
	}
	for _, op := range b.snap.Operations {
		for _, r := range op.Results {
			if r.ID == valueID {
				return r.Type
			}
		}
	}
	return ""
}

func (b *snapBuilder) index() *ir.Index { return ir.BuildIndex(b.snap) }

// chainABC builds the canonical three-op chain inside one function body:
// block args a0, a1 -> A(a0, a1) -> B -> C, with C's result returned.
// Returns the builder, the index and the op ids.
func chainABC() (*snapBuilder, *ir.Index, string, string, string) {
	b := newSnap()
	r := b.region(b.snap.ModuleID)
	blk, args := b.block(r, "f32", "f32")
	a, ares := b.op(blk, "test.a", args, "f32")
	bb, bres := b.op(blk, "test.b", ares, "f32")
	c, cres := b.op(blk, "test.c", bres, "f32")
	b.op(blk, "func.return", cres)
	return b, b.index(), a, bb, c
}

// nodeIDs extracts node ids in order.
func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

// countKind tallies nodes of one kind.
func countKind(nodes []Node, k NodeKind) int {
	c := 0
	for _, n := range nodes {
		if n.Kind == k {
			c++
		}
	}
	return c
}
