// Package role provides the total order over role identifiers used by
// authcore permission checks.
//
// # Semantics
//
// Every registered role maps to a positive integer level. Unknown roles map
// to level 0 and therefore never satisfy a check (fail closed). [Hierarchy.AtLeast]
// implements "role-or-above", [Hierarchy.Exact] implements exact-set matching.
//
// # Architecture boundaries
//
// This package is a pure in-memory table with no I/O. It never decides what
// a user may see, only how two role identifiers compare.
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import authcore or any sibling package.
//   - Mutate the table after Freeze.
package role
