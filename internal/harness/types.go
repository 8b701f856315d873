package harness

import (
	"github.com/roach88/scalarjit/internal/engine"
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// TraceEvent is one completed call, innermost first.
type TraceEvent struct {
	Seq      int64      `json:"seq"`
	Depth    int        `json:"depth"`
	Symbol   string     `json:"symbol"`
	Args     []ir.Value `json:"args,omitempty"`
	Result   ir.Value   `json:"result"`
	External bool       `json:"external,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the expectation and every assertion
	// held.
	Pass bool `json:"pass"`

	// Type is the result type of the compiled expression, Null if it did
	// not compile.
	Type ir.ValueType `json:"type"`

	// Value is the computed value, valid when Err is nil.
	Value ir.Value `json:"value"`

	// ErrorKind classifies Err (ErrorType, ErrorLink, ...).
	ErrorKind string `json:"error_kind,omitempty"`
	Err       error  `json:"-"`

	// Module is the compiled module, nil if compilation failed.
	Module *lir.Module `json:"-"`

	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// record is an engine.Tracer.
func (r *Result) record(ev engine.Event) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:      ev.Seq,
		Depth:    ev.Depth,
		Symbol:   ev.Symbol,
		Args:     ev.Args,
		Result:   ev.Result,
		External: ev.External,
	})
}
