package ir

// Version constants for the IR and the compiler.
const (
	// IRVersion is the expression/LIR schema version.
	IRVersion = "1"

	// CompilerVersion is the scalarjit compiler version.
	CompilerVersion = "0.1.0"
)
