// Package dialect catalogs the operations a snapshot may contain.
//
// A [Registry] maps fully qualified operation names (like "arith.addf")
// to their [Signature]: constructor parameters, result count and region
// count. The renderer and server use it to offer op palettes, validate
// creation requests and pick display colors per dialect.
//
// [Builtin] returns the registry compiled into the binary from embedded
// TOML data. Deployments with custom dialects extend it with
// [LoadFile], which merges a user TOML file over the built-ins:
//
//	reg, err := dialect.LoadFile("my-dialects.toml")
//	sig, ok := reg.Signature("mydialect.custom_op")
//
// Registry lookups never fail hard: unknown dialects list no ops and
// unknown operations simply have no signature, so snapshots containing
// unregistered ops still render with name-only labels.
package dialect
