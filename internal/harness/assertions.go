package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/scalarjit/internal/ir"
)

// Assertion checks the call trace or the compiled module.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": a call to Symbol appears, with Args if given
	// - "trace_order": the first calls of Symbols complete in this order
	// - "trace_count": Symbol is called exactly Count times
	// - "declares": the compiled module leaves Symbol to the resolver
	Type string `yaml:"type"`

	Symbol string `yaml:"symbol,omitempty"`

	// Args are the expected argument values (used by trace_contains),
	// converted to the traced argument types before comparison.
	Args []any `yaml:"args,omitempty"`

	Symbols []string `yaml:"symbols,omitempty"`

	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertDeclares      = "declares"
)

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains, AssertDeclares:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Symbols) == 0 {
			return fmt.Errorf("assertions[%d]: symbols list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s\n", ev.Seq, formatCall(ev))
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against the result and returns
// the failure messages.
func EvaluateAssertions(r *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(r.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(r.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(r.Trace, a)
		case AssertDeclares:
			err = assertDeclares(r, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Symbol == a.Symbol && matchArgs(ev.Args, a.Args) {
			return nil
		}
	}
	expected := "call @" + a.Symbol
	if a.Args != nil {
		expected += fmt.Sprintf(" with args %v", a.Args)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// matchArgs reports whether got equals want. A nil want matches anything.
func matchArgs(got []ir.Value, want []any) bool {
	if want == nil {
		return true
	}
	if len(got) != len(want) {
		return false
	}
	for i, raw := range want {
		v, err := ir.ValueOf(got[i].Type, raw)
		if err != nil || !v.Equal(got[i]) {
			return false
		}
	}
	return true
}

// assertTraceOrder checks that symbols first complete in the given order.
// Other calls may intervene.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, ev := range trace {
		if slices.Contains(a.Symbols, ev.Symbol) && positions[ev.Symbol] == 0 {
			positions[ev.Symbol] = i + 1 // 1-indexed for readability
		}
	}

	for _, sym := range a.Symbols {
		if positions[sym] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all symbols present: %v", a.Symbols),
				Actual:   fmt.Sprintf("missing symbol: %s", sym),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Symbols); i++ {
		prev, curr := a.Symbols[i-1], a.Symbols[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("symbols in order: %v", a.Symbols),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Symbol == a.Symbol {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d calls of @%s", a.Count, a.Symbol),
			Actual:   fmt.Sprintf("%d calls", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertDeclares(r *Result, a Assertion) error {
	if r.Module == nil {
		return &AssertionError{
			Type:     AssertDeclares,
			Expected: fmt.Sprintf("module declaring @%s", a.Symbol),
			Actual:   "no module was compiled",
		}
	}
	decls := r.Module.Declarations()
	if !slices.Contains(decls, a.Symbol) {
		return &AssertionError{
			Type:     AssertDeclares,
			Expected: fmt.Sprintf("module declaring @%s", a.Symbol),
			Actual:   fmt.Sprintf("declarations %v", decls),
		}
	}
	return nil
}

// formatCall renders an event as "@sym(a, b) = r".
func formatCall(ev TraceEvent) string {
	args := make([]string, len(ev.Args))
	for i, v := range ev.Args {
		args[i] = v.String()
	}
	return fmt.Sprintf("@%s(%s) = %s", ev.Symbol, strings.Join(args, ", "), ev.Result)
}
