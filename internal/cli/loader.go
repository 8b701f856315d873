package cli

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scalarjit/internal/builtins"
	"github.com/roach88/scalarjit/internal/catalog"
	"github.com/roach88/scalarjit/internal/codegen"
	"github.com/roach88/scalarjit/internal/harness"
	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/registry"
	"github.com/roach88/scalarjit/internal/store"
	"github.com/roach88/scalarjit/internal/symbols"
)

// LoadError represents an error that occurred while reading command input.
type LoadError struct {
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadExprFile reads an expression file. JSON is accepted as the YAML
// subset it is.
func LoadExprFile(path string) (ir.Expr, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("expression file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading expression file: %v", err)}
	}
	return ParseExpr(data)
}

// ParseExpr decodes and builds an expression document.
func ParseExpr(data []byte) (ir.Expr, error) {
	var spec ir.ExprSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&spec); err != nil {
		return nil, &LoadError{Code: ErrCodeBadInput, Message: fmt.Sprintf("parsing expression: %v", err)}
	}
	e, err := spec.Build()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeBadInput, Message: err.Error()}
	}
	return e, nil
}

// session is the registry and catalog shared by the commands.
type session struct {
	reg *registry.Registry
	cat *catalog.Catalog
}

// newSession registers the builtins and, when catalogPath is set, the
// catalog functions, then freezes the registry.
func newSession(catalogPath string) (*session, error) {
	reg := registry.New()
	if err := builtins.Register(reg); err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("registering builtins: %v", err)}
	}

	s := &session{reg: reg}
	if catalogPath != "" {
		cat, err := catalog.Load(catalogPath)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: err.Error()}
		}
		if err := cat.Apply(reg); err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: err.Error()}
		}
		s.cat = cat
		slog.Debug("catalog loaded", "path", catalogPath, "functions", len(cat.Functions))
	}
	reg.Freeze()
	return s, nil
}

// databasePath returns flagPath, falling back to the catalog database.
func (s *session) databasePath(flagPath string) string {
	if flagPath != "" || s.cat == nil {
		return flagPath
	}
	return s.cat.DatabasePath()
}

// resolver builds the symbol resolver from the catalog settings, extra
// search directories and an optional artifact store.
func (s *session) resolver(searchPath []string, st *store.Store) (*symbols.Resolver, error) {
	var opts []symbols.Option
	if s.cat != nil {
		catOpts, err := s.cat.ResolverOptions()
		if err != nil {
			return nil, &LoadError{Code: ErrCodeCatalog, Message: err.Error()}
		}
		opts = append(opts, catOpts...)
	}
	if len(searchPath) > 0 {
		opts = append(opts, symbols.WithSearchPath(searchPath...))
	}
	if st != nil {
		opts = append(opts, symbols.WithStore(st))
	}
	return symbols.New(opts...), nil
}

// generator returns a code generator over the session registry, caching
// modules in st when it is non-nil.
func (s *session) generator(st *store.Store) *codegen.Generator {
	if st == nil {
		return codegen.New(s.reg)
	}
	return codegen.New(s.reg, codegen.WithCache(st))
}

// openStore opens the artifact database at path, or returns nil for "".
func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, nil
	}
	slog.Debug("opening database", "path", path)
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if st == nil {
		return
	}
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// errorCode maps a compile or run error to its envelope code.
func errorCode(err error) string {
	switch harness.Classify(err) {
	case harness.ErrorType:
		return ErrCodeType
	case harness.ErrorLookup:
		return ErrCodeLookup
	case harness.ErrorCodegen:
		return ErrCodeCodegen
	case harness.ErrorLink:
		return ErrCodeLink
	default:
		return ErrCodeRuntime
	}
}

// loadFailure reports a LoadError, or a generic error, as a command
// error.
func loadFailure(f *OutputFormatter, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return f.fail(ExitCommandError, le.Code, le.Message, nil)
	}
	return f.fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
}
