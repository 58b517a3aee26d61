// Package ir holds the canonical description of a scriptable API surface.
//
// The package defines the canonical Type sum type, the descriptor types the
// registry builder produces (entities, properties, methods, events, enums,
// value and reference objects, remote calls, settings, migration rules) and
// the canonical JSON encoding the compatibility fingerprint is computed from.
//
// ir imports nothing internal. Every other internal package imports ir.
//
// Key constraints:
//   - Type values are immutable; constructors never mutate their inputs
//   - A Registry is read-only once the builder hands it over
//   - The fingerprint covers semantics only: doc comments and template
//     layout never change it
package ir
