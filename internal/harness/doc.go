// Package harness runs expression scenarios end to end.
//
// A scenario is a YAML file naming an expression, an optional CUE catalog
// of user-defined functions, LIR artifacts that supply their bodies, and
// the expected outcome:
//
//	name: udf_call
//	description: A catalog function resolved from a LIR artifact
//	catalog: catalog.cue
//	artifacts:
//	  - name: twice
//	    params: [int64]
//	    body: {op: "*", lhs: {call: "$0", type: int64}, rhs: {literal: 2}}
//	expr:
//	  op: "+"
//	  lhs: {call: twice, type: int64, args: [{literal: 20}]}
//	  rhs: {literal: 2}
//	expect:
//	  type: int64
//	  value: 42
//
// Each run compiles against the builtins plus the catalog, writes the
// artifacts to a fresh search directory (or an in-memory artifact store),
// and executes the module with a deterministic clock and module ID, so
// that RunWithGolden can compare the LIR listing and call trace against a
// golden file.
package harness
