package dialect

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// VariadicResults marks an operation whose result count depends on its
// result type list rather than being fixed by the op definition.
const VariadicResults = -1

// ParamKind classifies a constructor parameter of an operation.
type ParamKind string

const (
	ParamOperand   ParamKind = "operand"
	ParamAttribute ParamKind = "attribute"
)

// Param describes a single parameter needed to construct an operation.
type Param struct {
	Name     string    `toml:"name" json:"name"`
	Kind     ParamKind `toml:"kind" json:"kind"`
	Required bool      `toml:"required" json:"required"`
}

// Signature is the structured description of an operation: what it takes,
// how many results it produces and how many regions it carries.
type Signature struct {
	OpName     string  `toml:"name" json:"op_name"`
	Summary    string  `toml:"summary" json:"summary,omitempty"`
	Params     []Param `toml:"param" json:"params"`
	NumResults int     `toml:"results" json:"num_results"`
	NumRegions int     `toml:"regions" json:"num_regions"`
}

// Definition is the listing form of an operation: name, owning dialect
// and a one-line summary.
type Definition struct {
	Name    string `json:"name"`
	Dialect string `json:"dialect"`
	Summary string `json:"description"`
}

// Info describes one registered dialect.
type Info struct {
	Name    string      `toml:"name" json:"name"`
	Summary string      `toml:"summary" json:"summary,omitempty"`
	Color   string      `toml:"color" json:"color,omitempty"`
	Ops     []Signature `toml:"op" json:"-"`
}

// Registry holds the known dialects and their operation signatures.
// A Registry is immutable after construction and safe for concurrent reads.
type Registry struct {
	dialects map[string]Info
	sigs     map[string]Signature
	order    []string
}

//go:embed dialects.toml
var builtinTOML []byte

type registryFile struct {
	Dialects []Info `toml:"dialect"`
}

// Builtin returns the registry of built-in dialects compiled into the
// binary. The data covers the upstream dialects commonly seen in
// snapshots; unknown operations degrade to name-only display.
func Builtin() *Registry {
	r, err := parse(builtinTOML, nil)
	if err != nil {
		// The embedded data is validated by tests; a parse failure here
		// is a build defect, not a runtime condition.
		panic(fmt.Sprintf("dialect: embedded registry: %v", err))
	}
	return r
}

// LoadFile reads additional dialect definitions from a TOML file at path
// and merges them over the built-in registry. Dialects sharing a name
// with a built-in one extend it; ops sharing a name replace the
// built-in signature.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dialects %s: %w", path, err)
	}
	r, err := parse(data, Builtin())
	if err != nil {
		return nil, fmt.Errorf("parse dialects %s: %w", path, err)
	}
	return r, nil
}

func parse(data []byte, base *Registry) (*Registry, error) {
	var file registryFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, err
	}

	r := &Registry{
		dialects: make(map[string]Info),
		sigs:     make(map[string]Signature),
	}
	if base != nil {
		for _, name := range base.order {
			r.add(base.dialects[name])
		}
	}
	for _, d := range file.Dialects {
		r.add(d)
	}
	return r, nil
}

func (r *Registry) add(d Info) {
	if existing, ok := r.dialects[d.Name]; ok {
		merged := existing
		if d.Summary != "" {
			merged.Summary = d.Summary
		}
		if d.Color != "" {
			merged.Color = d.Color
		}
		merged.Ops = mergeOps(existing.Ops, d.Ops)
		r.dialects[d.Name] = merged
		d = merged
	} else {
		r.dialects[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	for _, sig := range d.Ops {
		r.sigs[sig.OpName] = sig
	}
}

func mergeOps(base, extra []Signature) []Signature {
	byName := make(map[string]int, len(base))
	merged := make([]Signature, len(base))
	copy(merged, base)
	for i, sig := range merged {
		byName[sig.OpName] = i
	}
	for _, sig := range extra {
		if i, ok := byName[sig.OpName]; ok {
			merged[i] = sig
		} else {
			byName[sig.OpName] = len(merged)
			merged = append(merged, sig)
		}
	}
	return merged
}

// Dialects returns the known dialect names in registration order.
func (r *Registry) Dialects() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Dialect returns the info for a dialect by name.
func (r *Registry) Dialect(name string) (Info, bool) {
	d, ok := r.dialects[name]
	return d, ok
}

// Ops lists the operations of a dialect, sorted by name. An unknown
// dialect yields an empty list.
func (r *Registry) Ops(dialect string) []Definition {
	d, ok := r.dialects[dialect]
	if !ok {
		return nil
	}
	defs := make([]Definition, 0, len(d.Ops))
	for _, sig := range d.Ops {
		defs = append(defs, Definition{Name: sig.OpName, Dialect: dialect, Summary: sig.Summary})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Signature returns the registered signature for a fully qualified
// operation name such as "arith.addf".
func (r *Registry) Signature(opName string) (Signature, bool) {
	sig, ok := r.sigs[opName]
	return sig, ok
}

// Color returns the display color registered for the dialect owning
// opName, or the empty string when neither the op's dialect nor a color
// is known.
func (r *Registry) Color(opName string) string {
	dialect, _, found := strings.Cut(opName, ".")
	if !found {
		return ""
	}
	return r.dialects[dialect].Color
}
