package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// Load reads a catalog from a .cue file or from all .cue files of a
// directory. Relative resolver paths are taken relative to that directory.
func Load(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	cfg := &load.Config{}
	args := []string{"."}
	dir := path
	if !info.IsDir() {
		dir = filepath.Dir(path)
		args = []string{filepath.Base(path)}
	}
	cfg.Dir = dir

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, fmt.Errorf("catalog: no CUE instances loaded from %s", path)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	ctx := cuecontext.New()
	c, err := CompileCatalog(ctx.BuildInstance(inst))
	if err != nil {
		return nil, err
	}
	c.Dir = dir
	return c, nil
}

// LoadString compiles catalog source held in memory. filename is used in
// error positions only.
func LoadString(src, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	return CompileCatalog(ctx.CompileString(src, cue.Filename(filename)))
}
