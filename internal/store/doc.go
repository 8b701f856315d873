// Package store provides SQLite-backed storage for compiled code.
//
// Two tables:
//   - artifacts: precompiled LIR modules keyed by symbol name, one of the
//     places the symbol resolver looks for external function bodies
//   - compilations: the module cache of the code generator, keyed by the
//     content hash of the compiled expression
//
// Payloads are LIR modules encoded by lir.EncodeArtifact (zstd-compressed
// JSON). Rows are ordered by a logical seq counter, never by timestamps.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
