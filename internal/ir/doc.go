// Package ir defines the typed scalar expression model for scalarjit.
//
// This package contains the data model only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Expressions are immutable once built and may share subtrees
//   - TypeNull doubles as the "unknown" sentinel and is never a value type
//   - Expr is sealed: *Literal, *BinaryOp and *FunctionCall are the only variants
//   - Every Opcode maps to exactly one operator name (see Opcode.Name)
package ir
