package ir

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrDuplicateID is returned by [ReadSnapshot] when two records of the
	// same kind share an id. Snapshot ids must be unique per kind.
	ErrDuplicateID = errors.New("duplicate snapshot id")

	// ErrMissingModule is returned by [ReadSnapshot] when the snapshot has
	// no module_id. Every snapshot names its module root, even an empty one.
	ErrMissingModule = errors.New("snapshot missing module id")
)

// ReadSnapshot decodes a JSON snapshot from r.
//
// The input is the IR authority's wire format: a JSON object with
// "module_id", "operations", "blocks", "regions" and "edges". Structural
// checks are limited to id uniqueness and the presence of a module id -
// dangling references are legal and simply render as invisible, so they
// are not rejected here.
//
// The returned snapshot is independent of r. ReadSnapshot does not close r.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if snap.ModuleID == "" {
		return nil, ErrMissingModule
	}

	seen := make(map[string]bool, len(snap.Operations)+len(snap.Blocks)+len(snap.Regions))
	for _, op := range snap.Operations {
		if seen["op:"+op.ID] {
			return nil, fmt.Errorf("operation %s: %w", op.ID, ErrDuplicateID)
		}
		seen["op:"+op.ID] = true
	}
	for _, b := range snap.Blocks {
		if seen["block:"+b.ID] {
			return nil, fmt.Errorf("block %s: %w", b.ID, ErrDuplicateID)
		}
		seen["block:"+b.ID] = true
	}
	for _, rg := range snap.Regions {
		if seen["region:"+rg.ID] {
			return nil, fmt.Errorf("region %s: %w", rg.ID, ErrDuplicateID)
		}
		seen["region:"+rg.ID] = true
	}

	return &snap, nil
}

// ImportSnapshot reads a JSON snapshot file at path.
// This is a convenience wrapper around [ReadSnapshot] for file-based input.
func ImportSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	snap, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return snap, nil
}

// WriteSnapshot encodes a snapshot as indented JSON and writes it to w.
// The output can be re-read with [ReadSnapshot] for round-trip processing.
func WriteSnapshot(snap *Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportSnapshot writes a snapshot to a JSON file at path.
func ExportSnapshot(snap *Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteSnapshot(snap, f)
}

// MarshalSnapshot serializes a snapshot to compact JSON bytes. The output
// is deterministic for an unchanged snapshot, which makes it suitable as
// cache-key material.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}

// UnmarshalSnapshot deserializes JSON bytes produced by [MarshalSnapshot].
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
