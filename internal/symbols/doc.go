// Package symbols resolves external function bodies for the engine.
//
// Compiled modules declare user-defined functions without defining them.
// When the engine first executes a call to such a symbol it asks a
// Resolver, which:
//
//  1. returns an in-process native registered with WithNative, if any
//  2. strips one leading underscore from the symbol (the mangling
//     convention of catalog link names)
//  3. looks in each search directory for <name>.so, loaded with the Go
//     plugin package, then <name>.lir, a serialized LIR module hosted in
//     its own engine
//  4. falls back to the artifact table of the SQLite store
//
// Loaded artifacts are cached for the lifetime of the Resolver, and
// concurrent first loads of one artifact share a single load. Misses are
// not cached: an artifact may be installed after the first failed call.
package symbols
