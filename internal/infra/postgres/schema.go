package postgres

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema はテーブルとインデックスを冪等に作成します
// pgvector 拡張が有効化されている必要があります
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
