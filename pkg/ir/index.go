package ir

// OriginKind distinguishes the two provenance kinds of an SSA value.
type OriginKind int

const (
	// OriginResult marks a value produced by an operation result.
	OriginResult OriginKind = iota
	// OriginArgument marks a value introduced as a block argument.
	OriginArgument
)

// Origin records where a value comes from. It is a tagged union: Kind
// selects which fields are meaningful. For OriginResult, Op and
// ResultIndex identify the producing result slot; for OriginArgument,
// Block and ArgIndex identify the introducing block argument.
type Origin struct {
	Kind        OriginKind
	Op          string // producing operation id (OriginResult)
	ResultIndex int    // result slot on the producer (OriginResult)
	Block       string // owning block id (OriginArgument)
	ArgIndex    int    // argument slot on the block (OriginArgument)
}

// IsResult reports whether the value is an operation result.
func (o Origin) IsResult() bool { return o.Kind == OriginResult }

// IsArgument reports whether the value is a block argument.
func (o Origin) IsArgument() bool { return o.Kind == OriginArgument }

// InputNodeID returns the deterministic pseudo-input node id for a block
// argument value. The id depends only on the value id, so repeated index
// builds over the same snapshot assign identical node ids.
func InputNodeID(valueID string) string { return "input_" + valueID }

// Index provides O(1) lookups over a snapshot. Building one is pure and
// total: absent keys are legal, callers test membership before use.
//
// The index holds pointers into the snapshot's slices; it stays valid as
// long as the snapshot is not replaced. It performs no mutation itself.
type Index struct {
	snapshot *Snapshot

	ops     map[string]*Operation
	blocks  map[string]*Block
	regions map[string]*Region

	origins   map[string]Origin   // value id -> provenance
	consumers map[string][]DefUse // value id -> consuming slots, snapshot order
	types     map[string]string   // value id -> type string
	argNodes  map[string]string   // block-argument value id -> pseudo-input node id

	moduleRegions []string // top-level region ids, snapshot order
}

// BuildIndex constructs lookup tables over snap. It never fails: a
// snapshot with dangling references simply yields an index where those
// lookups miss.
func BuildIndex(snap *Snapshot) *Index {
	idx := &Index{
		snapshot:  snap,
		ops:       make(map[string]*Operation, len(snap.Operations)),
		blocks:    make(map[string]*Block, len(snap.Blocks)),
		regions:   make(map[string]*Region, len(snap.Regions)),
		origins:   make(map[string]Origin),
		consumers: make(map[string][]DefUse, len(snap.Edges)),
		types:     make(map[string]string),
		argNodes:  make(map[string]string),
	}

	for i := range snap.Operations {
		op := &snap.Operations[i]
		idx.ops[op.ID] = op
		for ri, res := range op.Results {
			idx.origins[res.ID] = Origin{Kind: OriginResult, Op: op.ID, ResultIndex: ri}
			idx.types[res.ID] = res.Type
		}
	}

	for i := range snap.Blocks {
		b := &snap.Blocks[i]
		idx.blocks[b.ID] = b
		for ai, arg := range b.Arguments {
			idx.origins[arg.ID] = Origin{Kind: OriginArgument, Block: b.ID, ArgIndex: ai}
			idx.types[arg.ID] = arg.Type
			idx.argNodes[arg.ID] = InputNodeID(arg.ID)
		}
	}

	for i := range snap.Regions {
		r := &snap.Regions[i]
		idx.regions[r.ID] = r
		if r.ParentOp == snap.ModuleID {
			idx.moduleRegions = append(idx.moduleRegions, r.ID)
		}
	}

	for _, e := range snap.Edges {
		idx.consumers[e.FromValue] = append(idx.consumers[e.FromValue], e)
	}

	return idx
}

// Snapshot returns the snapshot this index was built over.
func (idx *Index) Snapshot() *Snapshot { return idx.snapshot }

// ModuleID returns the id of the module root.
func (idx *Index) ModuleID() string { return idx.snapshot.ModuleID }

// Op returns the operation with the given id.
func (idx *Index) Op(id string) (*Operation, bool) {
	op, ok := idx.ops[id]
	return op, ok
}

// Block returns the block with the given id.
func (idx *Index) Block(id string) (*Block, bool) {
	b, ok := idx.blocks[id]
	return b, ok
}

// Region returns the region with the given id.
func (idx *Index) Region(id string) (*Region, bool) {
	r, ok := idx.regions[id]
	return r, ok
}

// Origin returns the provenance of a value id.
func (idx *Index) Origin(valueID string) (Origin, bool) {
	o, ok := idx.origins[valueID]
	return o, ok
}

// ValueType returns the type string recorded for a value id, or "" if the
// value is unknown.
func (idx *Index) ValueType(valueID string) string { return idx.types[valueID] }

// Consumers returns the def-use slots fed by a value, in snapshot order.
// The returned slice is shared; callers must not modify it.
func (idx *Index) Consumers(valueID string) []DefUse { return idx.consumers[valueID] }

// ArgInputNodeID returns the pseudo-input node id assigned to a
// block-argument value, and whether the value is a block argument at all.
func (idx *Index) ArgInputNodeID(valueID string) (string, bool) {
	id, ok := idx.argNodes[valueID]
	return id, ok
}

// ModuleRegions returns the ids of the module root's top-level regions in
// snapshot order. The returned slice is shared; callers must not modify it.
func (idx *Index) ModuleRegions() []string { return idx.moduleRegions }
