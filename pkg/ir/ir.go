// Package ir defines the flat program-representation snapshot consumed by
// the view engine.
//
// A snapshot is the wire format supplied by the IR authority: a nested,
// region-based program (operations, blocks, regions, SSA values) flattened
// into id-keyed records plus an explicit def-use edge list. Snapshots are
// read-only here - every program edit replaces the snapshot wholesale, and
// no code in this module mutates one in place.
//
// Identifiers follow the authority's sequential scheme: "op_0", "block_0",
// "region_0", "val_0" and so on, assigned in traversal order. The module
// root is registered under ModuleID but does not appear in the Operations
// list; its top-level regions reference it as their parent.
package ir

// Value identifies a single SSA value together with its type string.
// A value is produced exactly once, either as an operation result or as a
// block argument - see [Origin] for the provenance distinction.
type Value struct {
	ID   string `json:"value_id" bson:"value_id"`
	Type string `json:"type" bson:"type"`
}

// Attribute is a typed literal attached to an operation's attribute map.
// Type names the attribute kind as reported by the authority (for example
// "IntegerAttr"); Value is its textual form.
type Attribute struct {
	Type  string `json:"type" bson:"type"`
	Value string `json:"value" bson:"value"`
}

// Operation is a single instruction-like unit. Operands and Results are
// ordered; their slice positions define the operation's input and output
// port order for rendering. Regions lists the ids of child regions owned
// by the operation, in declaration order.
type Operation struct {
	ID          string               `json:"op_id" bson:"op_id"`
	Name        string               `json:"name" bson:"name"` // qualified "dialect.op"
	Dialect     string               `json:"dialect" bson:"dialect"`
	Attributes  map[string]Attribute `json:"attributes" bson:"attributes"`
	Operands    []Value              `json:"operands" bson:"operands"`
	Results     []Value              `json:"results" bson:"results"`
	Regions     []string             `json:"regions" bson:"regions"`
	ParentBlock string               `json:"parent_block" bson:"parent_block"`
	Position    int                  `json:"position" bson:"position"`
}

// HasRegions reports whether the operation owns at least one child region.
func (o *Operation) HasRegions() bool { return len(o.Regions) > 0 }

// Block is a straight-line list of operations plus its own argument values.
type Block struct {
	ID           string   `json:"block_id" bson:"block_id"`
	Arguments    []Value  `json:"arguments" bson:"arguments"`
	ParentRegion string   `json:"parent_region" bson:"parent_region"`
	Operations   []string `json:"operations" bson:"operations"` // op ids in order
}

// Region is an ordered list of blocks owned by an operation (or by the
// module root, in which case ParentOp equals the snapshot's ModuleID).
type Region struct {
	ID       string   `json:"region_id" bson:"region_id"`
	ParentOp string   `json:"parent_op" bson:"parent_op"`
	Blocks   []string `json:"blocks" bson:"blocks"`
}

// DefUse is a single def-use edge: the producing value feeds one operand
// slot of one consuming operation. Fan-out appears as multiple edges
// sharing FromValue.
type DefUse struct {
	FromValue      string `json:"from_value" bson:"from_value"`
	ToOp           string `json:"to_op" bson:"to_op"`
	ToOperandIndex int    `json:"to_operand_index" bson:"to_operand_index"`
}

// Snapshot is the complete flat representation of one program state.
// The slices preserve the authority's traversal order, which downstream
// consumers rely on for deterministic output.
type Snapshot struct {
	ModuleID   string      `json:"module_id" bson:"module_id"`
	Operations []Operation `json:"operations" bson:"operations"`
	Blocks     []Block     `json:"blocks" bson:"blocks"`
	Regions    []Region    `json:"regions" bson:"regions"`
	Edges      []DefUse    `json:"edges" bson:"edges"`
}
