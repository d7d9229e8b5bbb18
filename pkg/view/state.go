package view

import (
	"errors"
	"maps"
	"slices"

	"github.com/gxianyd/mlir-modifier/pkg/ir"
)

var (
	// ErrUnknownOp is returned by [State.DrillIn] when the target operation
	// does not exist in the index.
	ErrUnknownOp = errors.New("unknown operation id")

	// ErrNoChildRegions is returned by [State.DrillIn] when the target
	// operation owns no regions. Drilling into a leaf is a caller bug.
	ErrNoChildRegions = errors.New("operation has no child regions")

	// ErrUnknownGroup is returned by group operations referencing an id
	// that was never created or has been removed.
	ErrUnknownGroup = errors.New("unknown group id")

	// ErrGroupOverlap is returned by [State.CreateGroup] when a requested
	// member already belongs to another group. Member sets are kept
	// disjoint at creation time so collapse resolution never depends on
	// registration order.
	ErrGroupOverlap = errors.New("member already belongs to another group")
)

// GroupMode selects how a group is rendered.
type GroupMode int

const (
	// GroupCollapsed renders the group as one merged node.
	GroupCollapsed GroupMode = iota
	// GroupExpanded renders members as normal nodes with shared decoration.
	GroupExpanded
)

// String returns the serialization name of the mode.
func (m GroupMode) String() string {
	if m == GroupExpanded {
		return "expanded"
	}
	return "collapsed"
}

// Group is a user-defined set of operations rendered as one merged node
// (collapsed) or as decorated individual nodes (expanded).
//
// Members holds the member ids in canonical sorted order; the boundary
// lists are derived from that order and stay stable until membership or
// the snapshot changes, at which point [State.RecomputeBoundaries] must
// run before the cached lists are read again.
type Group struct {
	ID      int       `json:"id" bson:"id"`
	Name    string    `json:"name" bson:"name"`
	Members []string  `json:"members" bson:"members"`
	Mode    GroupMode `json:"mode" bson:"mode"`

	Inputs  []BoundaryInput  `json:"inputs" bson:"inputs"`
	Outputs []BoundaryOutput `json:"outputs" bson:"outputs"`
}

// Contains reports whether the operation id is a member of the group.
func (g *Group) Contains(opID string) bool {
	_, found := slices.BinarySearch(g.Members, opID)
	return found
}

// NodeID returns the group's merged-node id.
func (g *Group) NodeID() string { return GroupNodeID(g.ID) }

// Clone returns an independent copy of the group. Boundary entries are
// value types, so cloning the lists is enough.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	c.Inputs = slices.Clone(g.Inputs)
	c.Outputs = slices.Clone(g.Outputs)
	return &c
}

// DefaultExpandDepth is the default inline-expansion threshold: operations
// with child regions walked at a depth beyond it are shown collapsed, with
// their interior reachable only by drilling in.
const DefaultExpandDepth = 1

// State is the caller-owned navigation state: view path, hidden names,
// groups, and the optional drill-group scope. The engine reads it and
// never mutates it; all mutation goes through the transition methods
// below, driven by user action.
//
// The zero value is not usable - use [NewState].
type State struct {
	// Path is the view path from the module root to the current view
	// root. The first entry is always the module id.
	Path []string `json:"path" bson:"path"`

	// Hidden is the set of qualified operation names excluded from
	// rendering entirely.
	Hidden map[string]bool `json:"hidden" bson:"hidden"`

	// Groups holds all groups in creation order.
	Groups []*Group `json:"groups" bson:"groups"`

	// DrillGroup is the id of the active drill group, or 0 when no drill
	// scope is active. Group ids start at 1.
	DrillGroup int `json:"drill_group,omitempty" bson:"drill_group,omitempty"`

	// ExpandDepth is the inline-expansion-depth threshold for the walker.
	ExpandDepth int `json:"expand_depth" bson:"expand_depth"`

	// NextGroupID is the counter for group id assignment. It is part of
	// the state rather than a package global so that id allocation is
	// explicit and survives serialization.
	NextGroupID int `json:"next_group_id" bson:"next_group_id"`
}

// NewState creates navigation state rooted at the module.
func NewState(moduleID string) *State {
	return &State{
		Path:        []string{moduleID},
		Hidden:      make(map[string]bool),
		ExpandDepth: DefaultExpandDepth,
		NextGroupID: 1,
	}
}

// Clone returns an independent copy of the state. Transition methods on
// the copy leave the original untouched, so callers holding states for
// several owners (one per session, say) can hand out copies safely.
func (s *State) Clone() *State {
	c := *s
	c.Path = slices.Clone(s.Path)
	c.Hidden = maps.Clone(s.Hidden)
	c.Groups = make([]*Group, len(s.Groups))
	for i, g := range s.Groups {
		c.Groups[i] = g.Clone()
	}
	return &c
}

// DrillIn appends an operation to the view path, making its child regions
// the rendered scope. The operation must exist and own at least one
// region.
func (s *State) DrillIn(idx *ir.Index, opID string) error {
	op, ok := idx.Op(opID)
	if !ok {
		return ErrUnknownOp
	}
	if !op.HasRegions() {
		return ErrNoChildRegions
	}
	s.Path = append(s.Path, opID)
	return nil
}

// DrillOut truncates the view path by one entry. The module root entry is
// never removed.
func (s *State) DrillOut() {
	if len(s.Path) > 1 {
		s.Path = s.Path[:len(s.Path)-1]
	}
}

// DrillOutTo truncates the view path to the given length, keeping at
// least the module root.
func (s *State) DrillOutTo(depth int) {
	if depth < 1 {
		depth = 1
	}
	if depth < len(s.Path) {
		s.Path = s.Path[:depth]
	}
}

// ViewRoot returns the last entry of the view path, or "" for an empty
// path.
func (s *State) ViewRoot() string {
	if len(s.Path) == 0 {
		return ""
	}
	return s.Path[len(s.Path)-1]
}

// HideName adds a qualified operation name to the hidden set.
func (s *State) HideName(name string) { s.Hidden[name] = true }

// ShowName removes a qualified operation name from the hidden set.
func (s *State) ShowName(name string) { delete(s.Hidden, name) }

// ToggleName flips a name's hidden status and reports the new status.
func (s *State) ToggleName(name string) bool {
	if s.Hidden[name] {
		delete(s.Hidden, name)
		return false
	}
	s.Hidden[name] = true
	return true
}

// CreateGroup creates a new group over the given member operations,
// initialized to collapsed mode with freshly computed boundary IO.
//
// Members are canonicalized: sorted and deduplicated. Creation is rejected
// with [ErrEmptyMembers] for an empty set and [ErrGroupOverlap] when any
// member already belongs to an existing group, so membership stays
// disjoint and collapse resolution is unambiguous.
func (s *State) CreateGroup(idx *ir.Index, name string, members []string) (*Group, error) {
	if len(members) == 0 {
		return nil, ErrEmptyMembers
	}

	canonical := slices.Clone(members)
	slices.Sort(canonical)
	canonical = slices.Compact(canonical)

	for _, g := range s.Groups {
		for _, m := range canonical {
			if g.Contains(m) {
				return nil, ErrGroupOverlap
			}
		}
	}

	inputs, outputs, err := BoundaryIO(idx, canonical)
	if err != nil {
		return nil, err
	}

	g := &Group{
		ID:      s.NextGroupID,
		Name:    name,
		Members: canonical,
		Mode:    GroupCollapsed,
		Inputs:  inputs,
		Outputs: outputs,
	}
	if g.Name == "" {
		g.Name = g.NodeID()
	}
	s.NextGroupID++
	s.Groups = append(s.Groups, g)
	return g, nil
}

// Group returns the group with the given id.
func (s *State) Group(id int) (*Group, bool) {
	for _, g := range s.Groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// GroupOf returns the group containing the operation, if any.
func (s *State) GroupOf(opID string) (*Group, bool) {
	for _, g := range s.Groups {
		if g.Contains(opID) {
			return g, true
		}
	}
	return nil, false
}

// SetGroupMode switches a group between collapsed and expanded rendering.
func (s *State) SetGroupMode(id int, mode GroupMode) error {
	g, ok := s.Group(id)
	if !ok {
		return ErrUnknownGroup
	}
	g.Mode = mode
	return nil
}

// Ungroup removes a group. If it was the active drill group, the drill
// scope is cleared as well.
func (s *State) Ungroup(id int) error {
	i := slices.IndexFunc(s.Groups, func(g *Group) bool { return g.ID == id })
	if i < 0 {
		return ErrUnknownGroup
	}
	s.Groups = slices.Delete(s.Groups, i, i+1)
	if s.DrillGroup == id {
		s.DrillGroup = 0
	}
	return nil
}

// EnterDrillGroup activates the drill scope for a group: the next build
// renders that group's interior in isolation, regardless of its mode.
func (s *State) EnterDrillGroup(id int) error {
	if _, ok := s.Group(id); !ok {
		return ErrUnknownGroup
	}
	s.DrillGroup = id
	return nil
}

// ExitDrillGroup clears the drill scope.
func (s *State) ExitDrillGroup() { s.DrillGroup = 0 }

// ActiveDrillGroup returns the drill group, or nil when no drill scope is
// active.
func (s *State) ActiveDrillGroup() *Group {
	if s.DrillGroup == 0 {
		return nil
	}
	g, _ := s.Group(s.DrillGroup)
	return g
}

// RecomputeBoundaries refreshes every group's cached boundary IO against
// the given index. Call it whenever the snapshot is replaced so cached
// port lists are never read stale.
func (s *State) RecomputeBoundaries(idx *ir.Index) {
	for _, g := range s.Groups {
		inputs, outputs, err := BoundaryIO(idx, g.Members)
		if err != nil {
			continue
		}
		g.Inputs = inputs
		g.Outputs = outputs
	}
}

// Reconcile drops state entries that reference ids absent from the index:
// the view path is truncated at the first dangling entry, group members
// that no longer exist are removed, and groups left empty are deleted.
// Boundary IO is recomputed afterwards. Call it after every snapshot
// replacement, before the next build.
func (s *State) Reconcile(idx *ir.Index) {
	for i, id := range s.Path {
		if i == 0 {
			continue // module root entry, validated by the resolver
		}
		if _, ok := idx.Op(id); !ok {
			s.Path = s.Path[:i]
			break
		}
	}

	kept := s.Groups[:0]
	for _, g := range s.Groups {
		g.Members = slices.DeleteFunc(g.Members, func(id string) bool {
			_, ok := idx.Op(id)
			return !ok
		})
		if len(g.Members) == 0 {
			if s.DrillGroup == g.ID {
				s.DrillGroup = 0
			}
			continue
		}
		kept = append(kept, g)
	}
	s.Groups = kept

	s.RecomputeBoundaries(idx)
}
