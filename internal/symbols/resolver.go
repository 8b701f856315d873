package symbols

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/scalarjit/internal/engine"
	"github.com/roach88/scalarjit/internal/lir"
	"github.com/roach88/scalarjit/internal/store"
)

// DefaultLoadTimeout bounds a single artifact load.
const DefaultLoadTimeout = 5 * time.Second

// Artifact kinds.
const (
	KindPlugin = "plugin"
	KindLIR    = "lir"
	KindStore  = "store"
)

// artifact is a loaded, cached artifact.
type artifact struct {
	name     string
	kind     string
	location string
	fn       engine.Func
	host     *engine.Engine // LIR artifacts only
}

// locator finds and loads the artifact for an unmangled name. It returns
// (nil, nil) when its location has no such artifact.
type locator func(ctx context.Context, name string) (*artifact, error)

// Stats counts resolver activity.
type Stats struct {
	Loads  int // artifacts loaded
	Hits   int // resolutions served from the cache
	Misses int // resolutions that found no artifact
}

// Resolver implements engine.Resolver.
type Resolver struct {
	searchPath []string
	store      *store.Store
	timeout    time.Duration
	natives    map[string]engine.Func
	engineOpts []engine.EngineOption
	locators   []locator

	mu    sync.Mutex
	cache map[string]*artifact
	stats Stats
	group singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSearchPath appends directories searched for artifacts, in order.
func WithSearchPath(dirs ...string) Option {
	return func(r *Resolver) {
		r.searchPath = append(r.searchPath, dirs...)
	}
}

// WithStore makes the resolver fall back to the artifact table of s.
func WithStore(s *store.Store) Option {
	return func(r *Resolver) {
		r.store = s
	}
}

// WithLoadTimeout bounds each artifact load. Default: DefaultLoadTimeout.
func WithLoadTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		r.timeout = d
	}
}

// WithNative registers an in-process body for symbol. Natives are matched
// on the symbol as requested, before unmangling.
func WithNative(symbol string, fn engine.Func) Option {
	return func(r *Resolver) {
		r.natives[symbol] = fn
	}
}

// WithEngineOptions sets options for the engines hosting LIR artifacts.
// The hosting engine always resolves through this resolver as well.
func WithEngineOptions(opts ...engine.EngineOption) Option {
	return func(r *Resolver) {
		r.engineOpts = append(r.engineOpts, opts...)
	}
}

// New returns a Resolver.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		timeout: DefaultLoadTimeout,
		natives: make(map[string]engine.Func),
		cache:   make(map[string]*artifact),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.locators = append(r.locators, r.findInSearchPath)
	if r.store != nil {
		r.locators = append(r.locators, r.findInStore)
	}
	return r
}

// Unmangle strips one leading underscore from symbol.
func Unmangle(symbol string) string {
	return strings.TrimPrefix(symbol, "_")
}

// Resolve returns the body of symbol. Failures are *LinkError.
func (r *Resolver) Resolve(ctx context.Context, symbol string) (engine.Func, error) {
	if fn, ok := r.natives[symbol]; ok {
		return fn, nil
	}

	name := Unmangle(symbol)
	if name == "" {
		return nil, &LinkError{Symbol: symbol, Artifact: symbol, Err: errors.New("empty symbol name")}
	}

	r.mu.Lock()
	if a, ok := r.cache[name]; ok {
		r.stats.Hits++
		r.mu.Unlock()
		return a.fn, nil
	}
	r.mu.Unlock()

	// The load is shared by every concurrent caller, so it must not die
	// with the first one; it is bounded by the load timeout instead.
	loadCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(name, func() (any, error) {
		return r.load(loadCtx, symbol, name)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			slog.Debug("artifact load shared", "symbol", symbol, "artifact", name)
		}
		return res.Val.(*artifact).fn, nil
	case <-ctx.Done():
		return nil, &LinkError{Symbol: symbol, Artifact: name, Err: ctx.Err()}
	}
}

// load runs the locators under the load timeout and caches the result.
func (r *Resolver) load(ctx context.Context, symbol, name string) (*artifact, error) {
	// A concurrent load may have finished between the cache check and Do.
	r.mu.Lock()
	if a, ok := r.cache[name]; ok {
		r.mu.Unlock()
		return a, nil
	}
	r.mu.Unlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	type result struct {
		a   *artifact
		err error
	}
	done := make(chan result, 1)
	go func() {
		a, err := r.locate(ctx, name)
		done <- result{a, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		// The locator goroutine finishes on its own; its result is dropped.
		res.err = fmt.Errorf("load timed out: %w", ctx.Err())
	}

	if res.err != nil {
		var le *LinkError
		if errors.As(res.err, &le) {
			le.Symbol = symbol
		} else {
			res.err = &LinkError{Symbol: symbol, Artifact: name, Err: res.err}
		}
		if errors.Is(res.err, ErrArtifactNotFound) {
			r.mu.Lock()
			r.stats.Misses++
			r.mu.Unlock()
		}
		slog.Debug("symbol resolution failed", "symbol", symbol, "error", res.err)
		return nil, res.err
	}

	r.mu.Lock()
	r.cache[name] = res.a
	r.stats.Loads++
	r.mu.Unlock()
	slog.Info("artifact loaded",
		"symbol", symbol,
		"artifact", res.a.location,
		"kind", res.a.kind)
	return res.a, nil
}

func (r *Resolver) locate(ctx context.Context, name string) (*artifact, error) {
	for _, find := range r.locators {
		a, err := find(ctx, name)
		if err != nil {
			return nil, err
		}
		if a != nil {
			return a, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, &LinkError{Symbol: name, Artifact: name, Err: ErrArtifactNotFound}
}

func (r *Resolver) findInSearchPath(_ context.Context, name string) (*artifact, error) {
	for _, dir := range r.searchPath {
		so := filepath.Join(dir, name+".so")
		if fileExists(so) {
			fn, err := openPlugin(so, name)
			if err != nil {
				return nil, &LinkError{Symbol: name, Artifact: so, Err: err}
			}
			return &artifact{name: name, kind: KindPlugin, location: so, fn: fn}, nil
		}

		path := filepath.Join(dir, name+lir.ArtifactExt)
		if fileExists(path) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, &LinkError{Symbol: name, Artifact: path, Err: err}
			}
			m, err := lir.DecodeArtifact(data)
			if err != nil {
				return nil, &LinkError{Symbol: name, Artifact: path, Err: err}
			}
			return r.host(name, KindLIR, path, m)
		}
	}
	return nil, nil
}

func (r *Resolver) findInStore(ctx context.Context, name string) (*artifact, error) {
	m, err := r.store.GetArtifact(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	location := "store:" + name
	if err != nil {
		return nil, &LinkError{Symbol: name, Artifact: location, Err: err}
	}
	return r.host(name, KindStore, location, m)
}

// host wraps an LIR module in an engine that resolves its own external
// calls through r.
func (r *Resolver) host(name, kind, location string, m *lir.Module) (*artifact, error) {
	opts := append(slices.Clone(r.engineOpts), engine.WithResolver(r))
	eng, err := engine.New(m, opts...)
	if err != nil {
		return nil, &LinkError{Symbol: name, Artifact: location, Err: err}
	}
	fn, err := eng.Func(name)
	if err != nil {
		return nil, &LinkError{Symbol: name, Artifact: location, Err: fmt.Errorf("artifact does not define @%s", name)}
	}
	if m.Function(name).IsDeclaration() {
		return nil, &LinkError{Symbol: name, Artifact: location, Err: fmt.Errorf("artifact only declares @%s", name)}
	}
	return &artifact{name: name, kind: kind, location: location, fn: fn, host: eng}, nil
}

// Loaded lists the locations of the cached artifacts, sorted. Store
// artifacts are listed as "store:<name>".
func (r *Resolver) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.cache))
	for _, a := range r.cache {
		out = append(out, a.location)
	}
	slices.Sort(out)
	return out
}

// Stats returns a snapshot of the resolver counters.
func (r *Resolver) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
