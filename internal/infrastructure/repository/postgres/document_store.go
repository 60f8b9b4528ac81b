package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	qb "github.com/riskibarqy/predictions-league/internal/platform/querybuilder"
)

type documentInsertModel struct {
	Key string `db:"doc_key"`
	Doc string `db:"doc"`
}

// DocumentStore keeps read documents as JSONB rows. Rows are derived state:
// Clear empties the table ahead of a replay and nothing is lost.
type DocumentStore struct {
	db *sqlx.DB
}

func NewDocumentStore(db *sqlx.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	query, args, err := qb.Select("doc").From("documents").
		Where(qb.Eq("doc_key", key)).
		ToSQL()
	if err != nil {
		return nil, false, fmt.Errorf("build get document query: %w", err)
	}

	var doc []byte
	if err := s.db.GetContext(ctx, &doc, query, args...); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get document %s: %w", key, err)
	}
	return doc, true, nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, doc []byte) error {
	insert := documentInsertModel{Key: key, Doc: string(doc)}
	query, args, err := qb.InsertModel("documents", insert, `ON CONFLICT (doc_key)
DO UPDATE SET
    doc = EXCLUDED.doc,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build put document query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put document %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE doc_key = $1`, key); err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	return nil
}

func (s *DocumentStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `TRUNCATE documents`); err != nil {
		return fmt.Errorf("clear documents: %w", err)
	}
	return nil
}
