package catalog

import (
	"fmt"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/scalarjit/internal/symbols"
)

// Catalog is a compiled catalog file.
type Catalog struct {
	// Dir is the directory relative paths are resolved against. Set by
	// Load; empty means the working directory.
	Dir string

	Resolver  ResolverConfig
	Functions []Function
}

// ResolverConfig configures the symbol resolver.
type ResolverConfig struct {
	SearchPath  []string
	LoadTimeout string
	Database    string
}

// Function declares one overload of a user-defined function. Types are
// kept as written so Validate can report them.
type Function struct {
	Name    string
	Args    []string
	Returns string
	Link    string
	Pos     token.Pos
}

// Symbol returns the link symbol, "_" + Name unless set explicitly.
func (f Function) Symbol() string {
	if f.Link != "" {
		return f.Link
	}
	return "_" + f.Name
}

// CompileCatalog parses a CUE value into a Catalog.
//
// The value should be the file root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`function: f: {args: ["int64"], returns: "int64"}`)
//	cat, err := CompileCatalog(v)
func CompileCatalog(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{}
	var err error
	if c.Resolver, err = parseResolver(v); err != nil {
		return nil, err
	}
	if c.Functions, err = parseFunctions(v); err != nil {
		return nil, err
	}
	return c, nil
}

func parseResolver(v cue.Value) (ResolverConfig, error) {
	var cfg ResolverConfig

	rv := v.LookupPath(cue.ParsePath("resolver"))
	if !rv.Exists() {
		return cfg, nil
	}
	if rv.IncompleteKind() != cue.StructKind {
		return cfg, &CompileError{Field: "resolver", Message: "must be a struct", Pos: rv.Pos()}
	}

	if sp := rv.LookupPath(cue.ParsePath("search_path")); sp.Exists() {
		dirs, err := stringList(sp, "resolver.search_path")
		if err != nil {
			return cfg, err
		}
		cfg.SearchPath = dirs
	}

	var err error
	if cfg.LoadTimeout, err = optionalString(rv, "load_timeout", "resolver.load_timeout"); err != nil {
		return cfg, err
	}
	if cfg.Database, err = optionalString(rv, "database", "resolver.database"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseFunctions(v cue.Value) ([]Function, error) {
	fv := v.LookupPath(cue.ParsePath("function"))
	if !fv.Exists() {
		return nil, nil
	}

	iter, err := fv.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fns []Function
	for iter.Next() {
		name := iter.Label()
		val := iter.Value()

		// A list holds overloads, a struct is a single declaration.
		if val.IncompleteKind() == cue.ListKind {
			list, err := val.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for i := 0; list.Next(); i++ {
				fn, err := parseFunction(name, fmt.Sprintf("function.%s[%d]", name, i), list.Value())
				if err != nil {
					return nil, err
				}
				fns = append(fns, fn)
			}
			continue
		}

		fn, err := parseFunction(name, "function."+name, val)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

func parseFunction(name, field string, v cue.Value) (Function, error) {
	fn := Function{Name: name, Pos: v.Pos()}

	if v.IncompleteKind() != cue.StructKind {
		return fn, &CompileError{Field: field, Message: "must be a struct or a list of structs", Pos: v.Pos()}
	}

	av := v.LookupPath(cue.ParsePath("args"))
	if !av.Exists() {
		return fn, &CompileError{Field: field + ".args", Message: "args is required (use [] for no arguments)", Pos: v.Pos()}
	}
	args, err := stringList(av, field+".args")
	if err != nil {
		return fn, err
	}
	fn.Args = args

	rv := v.LookupPath(cue.ParsePath("returns"))
	if !rv.Exists() {
		return fn, &CompileError{Field: field + ".returns", Message: "returns is required", Pos: v.Pos()}
	}
	if fn.Returns, err = rv.String(); err != nil {
		return fn, &CompileError{Field: field + ".returns", Message: "must be a type name string", Pos: rv.Pos()}
	}

	if fn.Link, err = optionalString(v, "link", field+".link"); err != nil {
		return fn, err
	}
	return fn, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func optionalString(v cue.Value, path, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", &CompileError{Field: field, Message: "must be a string", Pos: sv.Pos()}
	}
	return s, nil
}

// SearchPath returns the resolver search path with relative entries
// resolved against Dir.
func (c *Catalog) SearchPath() []string {
	out := make([]string, len(c.Resolver.SearchPath))
	for i, dir := range c.Resolver.SearchPath {
		out[i] = c.resolve(dir)
	}
	return out
}

// DatabasePath returns the artifact database path, or "" when unset.
func (c *Catalog) DatabasePath() string {
	if c.Resolver.Database == "" {
		return ""
	}
	return c.resolve(c.Resolver.Database)
}

// LoadTimeout returns the configured load timeout, or
// symbols.DefaultLoadTimeout when unset.
func (c *Catalog) LoadTimeout() (time.Duration, error) {
	if c.Resolver.LoadTimeout == "" {
		return symbols.DefaultLoadTimeout, nil
	}
	d, err := time.ParseDuration(c.Resolver.LoadTimeout)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("load timeout must be positive, got %s", d)
	}
	return d, nil
}

// ResolverOptions returns the symbol resolver options for the search path
// and load timeout. Opening the database is left to the caller.
func (c *Catalog) ResolverOptions() ([]symbols.Option, error) {
	d, err := c.LoadTimeout()
	if err != nil {
		return nil, &ValidationError{Field: "resolver.load_timeout", Message: err.Error(), Code: ErrBadTimeout}
	}
	return []symbols.Option{
		symbols.WithSearchPath(c.SearchPath()...),
		symbols.WithLoadTimeout(d),
	}, nil
}

func (c *Catalog) resolve(path string) string {
	if c.Dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
