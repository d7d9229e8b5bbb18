package view

import (
	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

// edgeSynth resolves operand values to visible source ports. It is built
// once per synthesis pass from the visible-node set and the rendered
// groups, then consulted per operand.
type edgeSynth struct {
	idx *ir.Index

	visibleOp    map[string]bool   // op id -> plain operation node visible
	inputByValue map[string]string // value id -> pseudo-input node id
	groupOf      map[string]*Group // member op id -> rendered collapsed group
	outPort      map[int]map[string]int
	edges        []Edge
	seen         map[Edge]bool
}

// SynthesizeEdges produces the visible-edge set for a walk result.
//
// Every visible operation's operands resolve, in operand order, to one of
// three sources: a visible plain producer (direct edge), a different
// rendered collapsed group's output port, or a visible pseudo-input node.
// Values whose source is outside the current visibility scope yield no
// edge - that is scope, not an error. Rendered groups additionally get
// inbound edges on their boundary-input ports and fan-out edges from
// their boundary-output ports; the two passes over the same def-use
// relationship are deduplicated so the output carries each edge once.
//
// No edge ever connects two members of the same collapsed group:
// intra-group def-use relationships are invisible by construction.
func SynthesizeEdges(idx *ir.Index, res WalkResult) []Edge {
	s := &edgeSynth{
		idx:          idx,
		visibleOp:    make(map[string]bool),
		inputByValue: make(map[string]string),
		groupOf:      make(map[string]*Group),
		outPort:      make(map[int]map[string]int),
		seen:         make(map[Edge]bool),
	}

	for _, n := range res.Nodes {
		switch n.Kind {
		case KindOperation:
			s.visibleOp[n.Op] = true
		case KindInput:
			s.inputByValue[n.Value] = n.ID
		}
	}
	for _, g := range res.Rendered {
		ports := make(map[string]int, len(g.Outputs))
		for i, bo := range g.Outputs {
			ports[bo.Value] = i
		}
		s.outPort[g.ID] = ports
		for _, m := range g.Members {
			s.groupOf[m] = g
		}
	}

	for _, n := range res.Nodes {
		switch n.Kind {
		case KindOperation:
			op, ok := idx.Op(n.Op)
			if !ok {
				continue
			}
			for oi, operand := range op.Operands {
				s.connect(operand.ID, nil, n.ID, oi)
			}
		case KindGroup:
			g := res.Rendered[n.Group]
			if g == nil {
				continue
			}
			s.groupEdges(g)
		}
	}

	return s.edges
}

// connect resolves a value to a visible source port and emits one edge
// targeting (to, toPort). inside is the target's own collapsed group, nil
// for plain targets; a producer inside the same group is never connected.
func (s *edgeSynth) connect(valueID string, inside *Group, to string, toPort int) {
	origin, ok := s.idx.Origin(valueID)
	if !ok {
		return // dangling value: outside the visibility scope
	}

	if origin.IsResult() {
		if inside != nil && inside.Contains(origin.Op) {
			return
		}
		if s.visibleOp[origin.Op] {
			s.emit(Edge{From: origin.Op, FromPort: origin.ResultIndex, To: to, ToPort: toPort})
			return
		}
		if g, ok := s.groupOf[origin.Op]; ok && g != inside {
			if port, ok := s.outPort[g.ID][valueID]; ok {
				s.emit(Edge{From: g.NodeID(), FromPort: port, To: to, ToPort: toPort})
			}
			return
		}
		// Fall through: under a drill scope a synthetic pseudo-input may
		// stand in for an out-of-scope producer.
	}

	if nodeID, ok := s.inputByValue[valueID]; ok {
		s.emit(Edge{From: nodeID, FromPort: 0, To: to, ToPort: toPort})
	}
}

// groupEdges wires a rendered group's boundary ports: inbound edges onto
// its input ports by list position, and fan-out from each output port to
// every visible external consumer slot.
func (s *edgeSynth) groupEdges(g *Group) {
	for i, bi := range g.Inputs {
		s.connect(bi.Value, g, g.NodeID(), i)
	}

	for port, bo := range g.Outputs {
		for _, use := range s.idx.Consumers(bo.Value) {
			if g.Contains(use.ToOp) || !s.visibleOp[use.ToOp] {
				continue
			}
			s.emit(Edge{From: g.NodeID(), FromPort: port, To: use.ToOp, ToPort: use.ToOperandIndex})
		}
	}
}

func (s *edgeSynth) emit(e Edge) {
	if s.seen[e] {
		return
	}
	s.seen[e] = true
	s.edges = append(s.edges, e)
}
