// Package registry holds the typed overloads of operators and functions.
//
// Overloads are kept per name in registration order. Lookup is an exact,
// element-wise match with no coercion, and the first matching overload
// wins, so a later registration with the same argument types is shadowed.
//
// A registry is populated at startup and then frozen; after Freeze it is
// safe for concurrent readers.
package registry
