// Package view converts a flat IR snapshot plus navigation state into a
// renderable graph.
//
// The engine is a pure, deterministic function of (snapshot, navigation
// state): it resolves which regions are open, walks them applying
// name-based filtering and group collapse rules, and synthesizes edges
// between the surviving nodes. It never mutates the snapshot or the
// navigation state, performs no I/O, and re-running it on unchanged
// inputs yields byte-identical node and edge lists.
//
// The entry point is [Build]. The intermediate stages ([OpenRegions],
// [BoundaryIO], [Walk], [SynthesizeEdges]) are exported so callers can
// test or reuse them in isolation.
package view

import "strconv"

// NodeKind tags the three kinds of visible nodes.
type NodeKind int

const (
	// KindOperation is a plain operation node.
	KindOperation NodeKind = iota
	// KindInput is a pseudo-input node standing in for a block argument
	// (or, under a drill scope, for any external boundary value).
	KindInput
	// KindGroup is the merged node of a collapsed group.
	KindGroup
)

// String returns the serialization name of the kind.
func (k NodeKind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindGroup:
		return "group"
	default:
		return "operation"
	}
}

// Port is one input or output connector on a node. A port's index is its
// position in the node's Inputs or Outputs slice; that position fixes the
// left-to-right order the layout collaborator must honor.
type Port struct {
	Value string `json:"value_id" bson:"value_id"`
	Type  string `json:"type,omitempty" bson:"type,omitempty"`
}

// Node is a single visible node in the view graph.
//
// For operation nodes, Inputs mirror the operation's operand order and
// Outputs its result order. For group nodes they mirror the group's cached
// boundary lists. Pseudo-input nodes have no inputs and a single output
// port carrying the underlying value.
type Node struct {
	ID      string   `json:"id" bson:"id"`
	Kind    NodeKind `json:"-" bson:"-"`
	KindTag string   `json:"kind" bson:"kind"` // Kind.String(), kept for serialization
	Label   string   `json:"label" bson:"label"`
	Dialect string   `json:"dialect,omitempty" bson:"dialect,omitempty"`

	Inputs  []Port `json:"inputs,omitempty" bson:"inputs,omitempty"`
	Outputs []Port `json:"outputs,omitempty" bson:"outputs,omitempty"`

	// Operation-node fields.
	Op               string `json:"op_id,omitempty" bson:"op_id,omitempty"`
	CollapsedByDepth bool   `json:"collapsed_by_depth,omitempty" bson:"collapsed_by_depth,omitempty"`
	RegionCount      int    `json:"region_count,omitempty" bson:"region_count,omitempty"` // drill-in affordance
	ExpandedGroup    int    `json:"expanded_group,omitempty" bson:"expanded_group,omitempty"`

	// Group-node field.
	Group int `json:"group_id,omitempty" bson:"group_id,omitempty"`

	// Input-node field: the underlying value id.
	Value string `json:"value_id,omitempty" bson:"value_id,omitempty"`
}

// Edge connects a source node output port to a target node input port.
type Edge struct {
	From     string `json:"from" bson:"from"`
	FromPort int    `json:"from_port" bson:"from_port"`
	To       string `json:"to" bson:"to"`
	ToPort   int    `json:"to_port" bson:"to_port"`
}

// Graph is the engine's output: the visible-node set and visible-edge set,
// in deterministic order, ready for the layout collaborator.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node returns the node with the given id, or nil if it is not visible.
func (g *Graph) Node(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// GroupNodeID returns the deterministic node id for a group's merged node.
func GroupNodeID(groupID int) string {
	return "group_" + strconv.Itoa(groupID)
}
