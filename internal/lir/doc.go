// Package lir is the low-level IR scalarjit lowers expressions to.
//
// A Module is an ordered set of Functions. A Function is either a
// declaration (no body, resolved at load time) or a definition whose body
// is a single straight-line block of typed instructions in SSA form: every
// instruction except ret defines the value numbered by its position, and
// operands may only reference earlier values.
//
// Bodies are produced independently (one module per operator or function
// body) and combined with Link. Verify checks structural well-formedness.
package lir
