package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// Get returns the module cached under key, or (nil, nil) on a miss.
// It implements the read side of codegen.ModuleCache.
func (s *Store) Get(key string) (*lir.Module, error) {
	var payload []byte
	err := s.db.QueryRowContext(context.Background(),
		`SELECT payload FROM compilations WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get compilation: %w", err)
	}
	m, err := lir.DecodeArtifact(payload)
	if err != nil {
		return nil, fmt.Errorf("get compilation: %w", err)
	}
	return m, nil
}

// Put caches m under key. The first module stored for a key is kept;
// later puts for the same key are ignored.
func (s *Store) Put(key string, result ir.ValueType, m *lir.Module) error {
	payload, err := lir.EncodeArtifact(m)
	if err != nil {
		return fmt.Errorf("put compilation: %w", err)
	}
	_, err = s.db.ExecContext(context.Background(), `
		INSERT INTO compilations (cache_key, module_id, result_type, payload, seq)
		VALUES (?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM compilations))
		ON CONFLICT(cache_key) DO NOTHING
	`, key, m.ID, result.String(), payload)
	if err != nil {
		return fmt.Errorf("put compilation: %w", err)
	}
	return nil
}

// CompilationCount returns the number of cached modules.
func (s *Store) CompilationCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM compilations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count compilations: %w", err)
	}
	return n, nil
}
