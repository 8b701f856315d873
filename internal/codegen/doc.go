// Package codegen lowers typed expression trees to LIR modules.
//
// Compilation is two passes over one tree. The first pass emits the entry
// function, a call per operator or function node, and collects the callee
// signatures on a worklist. The second pass drains the worklist, asks each
// signature's emitter for its body and links the bodies into the module.
//
// A Generator keeps no state between Compile calls and may be shared by
// goroutines as long as its registry is frozen.
package codegen
