package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/facematch"
	"github.com/pgvector/pgvector-go"
)

// IdentityRepository keeps enrollment embeddings in the identities table.
type IdentityRepository struct {
	pool *Pool
}

// NewIdentityRepository creates a new PostgreSQL identity repository.
func NewIdentityRepository(pool *Pool) *IdentityRepository {
	return &IdentityRepository{pool: pool}
}

var _ enrollment.Store = (*IdentityRepository)(nil)

// Save upserts the embedding for identity.
func (r *IdentityRepository) Save(ctx context.Context, identity string, embedding []float32) error {
	if err := enrollment.ValidateIdentity(identity); err != nil {
		return err
	}
	if len(embedding) == 0 {
		return errors.New("embedding is empty")
	}

	query := `
		INSERT INTO identities (identity, embedding, dim)
		VALUES ($1, $2, $3)
		ON CONFLICT (identity) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			dim = EXCLUDED.dim,
			updated_at = NOW()
	`
	vec := pgvector.NewVector(embedding)
	if _, err := r.pool.Exec(ctx, query, identity, vec, len(embedding)); err != nil {
		return fmt.Errorf("upsert identity %s: %w", identity, err)
	}
	return nil
}

// Load returns all identities ordered by name.
func (r *IdentityRepository) Load(ctx context.Context) ([]facematch.Reference, error) {
	rows, err := r.pool.Query(ctx, `SELECT identity, embedding, dim FROM identities ORDER BY identity`)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	var refs []facematch.Reference
	for rows.Next() {
		var (
			identity string
			vec      pgvector.Vector
			dim      int
		)
		if err := rows.Scan(&identity, &vec, &dim); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		values := vec.Slice()
		if len(values) != dim {
			return nil, &enrollment.FormatError{
				Source: "identities/" + identity,
				Reason: fmt.Sprintf("stored dim %d does not match vector length %d", dim, len(values)),
			}
		}
		refs = append(refs, facematch.Reference{Identity: identity, Embedding: values})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return refs, nil
}

// Delete removes identity. Deleting an unknown identity is not an error.
func (r *IdentityRepository) Delete(ctx context.Context, identity string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM identities WHERE identity = $1`, identity); err != nil {
		return fmt.Errorf("delete identity %s: %w", identity, err)
	}
	return nil
}
