package view

import (
	"errors"
	"slices"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

// ErrEmptyMembers is returned by [BoundaryIO] and [State.CreateGroup] when
// the member set is empty. An empty group is a caller bug, not a state the
// engine can render.
var ErrEmptyMembers = errors.New("group member set must not be empty")

// BoundaryInput is a value consumed inside a group but produced outside it
// (or introduced as a block argument). Consumers lists the member
// operations that read the value, deduplicated, in first-encounter order.
type BoundaryInput struct {
	Value     string   `json:"value_id" bson:"value_id"`
	Type      string   `json:"type" bson:"type"`
	Consumers []string `json:"consumers" bson:"consumers"`
}

// BoundaryOutput is a value produced inside a group and consumed by at
// least one operation outside it. Exactly one entry is emitted per value,
// regardless of how many external consumers it has.
type BoundaryOutput struct {
	Value       string `json:"value_id" bson:"value_id"`
	Type        string `json:"type" bson:"type"`
	Producer    string `json:"producer" bson:"producer"`
	ResultIndex int    `json:"result_index" bson:"result_index"`
}

// BoundaryIO computes a group's externally visible inputs and outputs.
//
// The member slice's order drives iteration, and each operation's own
// operand and result order drives the inner loops, so an unchanged
// (members, snapshot) pair always produces identically ordered lists.
// Downstream port indices are list positions, which is why this matters.
//
// Member ids that do not resolve to operations are skipped: a group
// referencing a deleted operation degrades to a smaller boundary rather
// than an error.
func BoundaryIO(idx *ir.Index, members []string) ([]BoundaryInput, []BoundaryOutput, error) {
	if len(members) == 0 {
		return nil, nil, ErrEmptyMembers
	}

	member := make(map[string]bool, len(members))
	for _, id := range members {
		member[id] = true
	}

	var inputs []BoundaryInput
	inputPos := make(map[string]int) // value id -> index in inputs

	for _, id := range members {
		op, ok := idx.Op(id)
		if !ok {
			continue
		}
		for _, operand := range op.Operands {
			origin, ok := idx.Origin(operand.ID)
			if ok && origin.IsResult() && member[origin.Op] {
				continue // produced by another member, not a boundary crossing
			}
			pos, seen := inputPos[operand.ID]
			if !seen {
				inputPos[operand.ID] = len(inputs)
				inputs = append(inputs, BoundaryInput{
					Value:     operand.ID,
					Type:      operand.Type,
					Consumers: []string{op.ID},
				})
				continue
			}
			if !slices.Contains(inputs[pos].Consumers, op.ID) {
				inputs[pos].Consumers = append(inputs[pos].Consumers, op.ID)
			}
		}
	}

	var outputs []BoundaryOutput
	for _, id := range members {
		op, ok := idx.Op(id)
		if !ok {
			continue
		}
		for ri, res := range op.Results {
			for _, use := range idx.Consumers(res.ID) {
				if member[use.ToOp] {
					continue
				}
				outputs = append(outputs, BoundaryOutput{
					Value:       res.ID,
					Type:        res.Type,
					Producer:    op.ID,
					ResultIndex: ri,
				})
				break // one entry per value, never one per external consumer
			}
		}
	}

	return inputs, outputs, nil
}
