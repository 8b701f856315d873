package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/scalarjit/internal/builtins"
	"github.com/roach88/scalarjit/internal/catalog"
	"github.com/roach88/scalarjit/internal/codegen"
	"github.com/roach88/scalarjit/internal/engine"
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/registry"
	"github.com/roach88/scalarjit/internal/store"
	"github.com/roach88/scalarjit/internal/symbols"
	"github.com/roach88/scalarjit/internal/testutil"
)

// Harness is the scenario execution environment. It runs scenarios with a
// deterministic clock and module ID.
type Harness struct {
	store  *store.Store
	dir    string
	gen    *codegen.Generator
	cat    *catalog.Catalog
	clock  *testutil.DeterministicClock
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh registry, artifact directory and
// in-memory database. The returned error reports a scenario that could
// not be set up (unreadable catalog, artifact that does not compile,
// malformed expression); compile and run failures of the expression itself
// are part of the Result.
//
// Execution flow:
// 1. Register builtins and the catalog, then freeze the registry
// 2. Compile and install the artifacts
// 3. Compile the expression
// 4. Run it through the symbol resolver
// 5. Check the expectation and assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	dir, err := os.MkdirTemp("", "scalarjit-artifacts-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	defer os.RemoveAll(dir)

	h := &Harness{
		store:  st,
		dir:    dir,
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	reg, err := h.registry(scenario)
	if err != nil {
		return nil, err
	}
	h.gen = codegen.New(reg, codegen.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.ModuleID)))

	ctx := context.Background()
	if err := h.installArtifacts(ctx, scenario.Artifacts); err != nil {
		return nil, fmt.Errorf("failed to install artifacts: %w", err)
	}

	expr, err := scenario.Expr.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result := NewResult()
	h.execute(ctx, scenario, expr, result)

	checkExpectation(scenario.Expect, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"error_kind", result.ErrorKind)
	return result, nil
}

// registry returns the builtins plus the scenario catalog.
func (h *Harness) registry(s *Scenario) (*registry.Registry, error) {
	reg := registry.New()
	if err := builtins.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register builtins: %w", err)
	}
	if s.Catalog != "" {
		cat, err := catalog.Load(s.Catalog)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		if err := cat.Apply(reg); err != nil {
			return nil, fmt.Errorf("invalid catalog %s: %w", s.Catalog, err)
		}
		h.cat = cat
	}
	reg.Freeze()
	return reg, nil
}

func (h *Harness) installArtifacts(ctx context.Context, specs []ArtifactSpec) error {
	for _, a := range specs {
		params := make([]ir.ValueType, len(a.Params))
		for i, p := range a.Params {
			params[i], _ = ir.ParseValueType(p) // checked by validateScenario
		}
		body, err := a.Body.Build()
		if err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		m, err := h.gen.CompileFunction(a.Name, params, body)
		if err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}

		if a.Store {
			if err := h.store.PutArtifact(ctx, a.Name, m); err != nil {
				return fmt.Errorf("artifact %s: %w", a.Name, err)
			}
			continue
		}
		data, err := lir.EncodeArtifact(m)
		if err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}
		if err := os.WriteFile(filepath.Join(h.dir, a.Name+lir.ArtifactExt), data, 0o644); err != nil {
			return fmt.Errorf("artifact %s: %w", a.Name, err)
		}
	}
	return nil
}

// execute compiles and runs expr, recording the outcome in result.
func (h *Harness) execute(ctx context.Context, s *Scenario, expr ir.Expr, result *Result) {
	m, err := h.gen.Compile(expr)
	if err != nil {
		result.fail(err)
		return
	}
	result.Module = m
	result.Type = m.Function(lir.EntryName).Return

	opts := []symbols.Option{
		symbols.WithSearchPath(h.dir),
		symbols.WithStore(h.store),
	}
	if h.cat != nil {
		catOpts, err := h.cat.ResolverOptions()
		if err != nil {
			result.fail(err)
			return
		}
		opts = append(opts, catOpts...)
	}

	engOpts := []engine.EngineOption{
		engine.WithResolver(symbols.New(opts...)),
		engine.WithClock(h.clock),
		engine.WithTracer(result.record),
	}
	if s.MaxSteps > 0 {
		engOpts = append(engOpts, engine.WithMaxSteps(s.MaxSteps))
	}
	eng, err := engine.New(m, engOpts...)
	if err != nil {
		result.fail(err)
		return
	}

	v, err := eng.Run(ctx)
	if err != nil {
		result.fail(err)
		return
	}
	result.Value = v
}

// fail records a compile or run error.
func (r *Result) fail(err error) {
	r.Err = err
	r.ErrorKind = Classify(err)
}

// Classify maps a compile or run error to an error kind.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case codegen.IsTypeError(err):
		return ErrorType
	case codegen.IsLookupError(err):
		return ErrorLookup
	case codegen.IsCodegenError(err):
		return ErrorCodegen
	case symbols.IsLinkError(err):
		return ErrorLink
	default:
		return ErrorRuntime
	}
}

func checkExpectation(want Expectation, r *Result) {
	if want.Error != "" {
		switch {
		case r.Err == nil:
			r.AddError(fmt.Sprintf("expected %s error, got %s %s", want.Error, r.Type, r.Value))
		case r.ErrorKind != want.Error:
			r.AddError(fmt.Sprintf("expected %s error, got %s error: %v", want.Error, r.ErrorKind, r.Err))
		}
		return
	}

	if r.Err != nil {
		r.AddError(fmt.Sprintf("unexpected %s error: %v", r.ErrorKind, r.Err))
		return
	}

	t, _ := ir.ParseValueType(want.Type) // checked by validateScenario
	if r.Type != t {
		r.AddError(fmt.Sprintf("expected type %s, got %s", t, r.Type))
		return
	}
	if want.Value == nil {
		return
	}
	v, err := ir.ValueOf(t, want.Value)
	if err != nil {
		r.AddError(fmt.Sprintf("expected value %v is not a %s: %v", want.Value, t, err))
		return
	}
	if !v.Equal(r.Value) {
		r.AddError(fmt.Sprintf("expected value %s, got %s", v, r.Value))
	}
}
