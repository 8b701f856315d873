// Package engine executes LIR modules.
//
// It is the reference backend for compiled expressions: an interpreter over
// the single-block SSA form produced by the code generator. Functions
// defined in the module run in place. Functions the module only declares
// are external; the engine asks its Resolver for them on first use and
// remembers the answer for its lifetime.
//
// A missing external symbol is therefore not an error until a call to it
// actually executes.
//
// Each Call runs with its own instruction quota (WithMaxSteps) and call
// depth limit (WithMaxDepth). An Engine is safe for concurrent use.
package engine
