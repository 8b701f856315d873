package testutil

// FixedIDGenerator stamps every compiled module with the same ID, so
// compiled modules and their listings are byte-identical across runs.
//
// It implements codegen.IDGenerator and is safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator returning id. If id is empty,
// Generate returns "test-module-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-module-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed ID.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
