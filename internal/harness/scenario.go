package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/scalarjit/internal/ir"
)

// Scenario defines one end-to-end compile-and-run check.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional CUE catalog of user-defined functions.
	// Relative paths are resolved against the scenario file.
	Catalog string `yaml:"catalog,omitempty"`

	// Artifacts are LIR bodies made available to the symbol resolver.
	Artifacts []ArtifactSpec `yaml:"artifacts,omitempty"`

	// Expr is the expression to compile and run.
	Expr *ir.ExprSpec `yaml:"expr"`

	// Expect is the expected outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions check the call trace and the compiled module.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// MaxSteps overrides the engine instruction quota when positive.
	MaxSteps int `yaml:"max_steps,omitempty"`

	// ModuleID is the fixed ID stamped on compiled modules.
	ModuleID string `yaml:"module_id,omitempty"`
}

// ArtifactSpec describes a LIR artifact compiled from an expression.
// Inside Body a zero-argument call to "$0", "$1", ... reads a parameter.
type ArtifactSpec struct {
	// Name is the unmangled symbol, e.g. "twice" for "_twice".
	Name string `yaml:"name"`

	// Params lists the parameter types.
	Params []string `yaml:"params"`

	Body *ir.ExprSpec `yaml:"body"`

	// Store installs the artifact in the artifact database instead of the
	// search directory.
	Store bool `yaml:"store,omitempty"`
}

// Expectation is the expected outcome of a scenario. Either Error is set,
// or Type (and optionally Value) is.
type Expectation struct {
	Type  string `yaml:"type,omitempty"`
	Value any    `yaml:"value,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Error kinds reported by Result.ErrorKind.
const (
	ErrorType    = "type"
	ErrorLookup  = "lookup"
	ErrorCodegen = "codegen"
	ErrorLink    = "link"
	ErrorRuntime = "runtime"
)

var errorKinds = []string{ErrorType, ErrorLookup, ErrorCodegen, ErrorLink, ErrorRuntime}

// LoadScenario reads and parses a scenario YAML file, resolving the
// catalog path relative to the file. Returns an error if the file doesn't
// exist, is malformed, contains unknown fields (typos), or is missing
// required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. basePath resolves a relative
// catalog path; empty leaves it as written.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by file
// name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var scenarios []*Scenario
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		s, err := LoadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Expr == nil {
		return fmt.Errorf("expr is required")
	}

	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); os.IsNotExist(err) {
			return fmt.Errorf("catalog file not found: %s", s.Catalog)
		}
	}

	if err := validateExpectation(&s.Expect); err != nil {
		return err
	}

	names := make(map[string]bool)
	for i, a := range s.Artifacts {
		if a.Name == "" {
			return fmt.Errorf("artifacts[%d]: name is required", i)
		}
		if names[a.Name] {
			return fmt.Errorf("artifacts[%d]: duplicate artifact %q", i, a.Name)
		}
		names[a.Name] = true
		if a.Body == nil {
			return fmt.Errorf("artifacts[%d]: body is required", i)
		}
		for j, p := range a.Params {
			if _, err := ir.ParseValueType(p); err != nil {
				return fmt.Errorf("artifacts[%d].params[%d]: %w", i, j, err)
			}
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateExpectation(e *Expectation) error {
	if e.Error != "" {
		if !slices.Contains(errorKinds, e.Error) {
			return fmt.Errorf("expect.error: unknown error kind %q (want one of %v)", e.Error, errorKinds)
		}
		if e.Type != "" || e.Value != nil {
			return fmt.Errorf("expect: error excludes type and value")
		}
		return nil
	}

	if e.Type == "" {
		return fmt.Errorf("expect: type or error is required")
	}
	t, err := ir.ParseValueType(e.Type)
	if err != nil {
		return fmt.Errorf("expect.type: %w", err)
	}
	if e.Value != nil {
		if _, err := ir.ValueOf(t, e.Value); err != nil {
			return fmt.Errorf("expect.value: %w", err)
		}
	}
	return nil
}
