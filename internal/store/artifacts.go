package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/scalarjit/internal/ir"
	"github.com/roach88/scalarjit/internal/lir"
)

// ArtifactInfo describes a stored artifact without its payload.
type ArtifactInfo struct {
	Name   string
	SHA256 string
	Size   int
	Seq    int64
}

// PutArtifact stores m as the artifact for the (unmangled) symbol name,
// replacing any earlier artifact of that name.
func (s *Store) PutArtifact(ctx context.Context, name string, m *lir.Module) error {
	payload, err := lir.EncodeArtifact(m)
	if err != nil {
		return fmt.Errorf("put artifact %q: %w", name, err)
	}
	return s.PutArtifactPayload(ctx, name, payload)
}

// PutArtifactPayload stores an already encoded artifact. The payload is
// decoded and verified first, so a corrupt file is rejected here rather
// than at first call.
func (s *Store) PutArtifactPayload(ctx context.Context, name string, payload []byte) error {
	if _, err := lir.DecodeArtifact(payload); err != nil {
		return fmt.Errorf("put artifact %q: %w", name, err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artifacts (name, sha256, payload, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM artifacts))
		ON CONFLICT(name) DO UPDATE SET
			sha256 = excluded.sha256,
			payload = excluded.payload,
			seq = excluded.seq
	`, name, ir.ArtifactHash(payload), payload)
	if err != nil {
		return fmt.Errorf("put artifact %q: %w", name, err)
	}
	return nil
}

// GetArtifact loads and verifies the artifact stored under name.
// Returns ErrNotFound if there is none.
func (s *Store) GetArtifact(ctx context.Context, name string) (*lir.Module, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM artifacts WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("artifact %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact %q: %w", name, err)
	}
	m, err := lir.DecodeArtifact(payload)
	if err != nil {
		return nil, fmt.Errorf("get artifact %q: %w", name, err)
	}
	return m, nil
}

// ListArtifacts returns every stored artifact in insertion order.
// Returns an empty slice (not nil) if the store holds none.
func (s *Store) ListArtifacts(ctx context.Context) ([]ArtifactInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, sha256, LENGTH(payload), seq
		FROM artifacts
		ORDER BY seq ASC, name COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	infos := []ArtifactInfo{}
	for rows.Next() {
		var info ArtifactInfo
		if err := rows.Scan(&info.Name, &info.SHA256, &info.Size, &info.Seq); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return infos, nil
}

// DeleteArtifact removes the artifact stored under name.
// Returns ErrNotFound if there is none.
func (s *Store) DeleteArtifact(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete artifact %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete artifact %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("artifact %q: %w", name, ErrNotFound)
	}
	return nil
}
