package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"healthrisk/internal/profile"
	"healthrisk/pkg/platform/sentinel"
	"healthrisk/pkg/platform/tx"
)

const schema = `
CREATE TABLE IF NOT EXISTS assessments (
	id              UUID PRIMARY KEY,
	source          TEXT NOT NULL,
	status          TEXT NOT NULL,
	risk_level      TEXT NOT NULL DEFAULT '',
	score           INTEGER NOT NULL DEFAULT 0,
	factors         TEXT[] NOT NULL DEFAULT '{}',
	recommendations TEXT[] NOT NULL DEFAULT '{}',
	confidence      DOUBLE PRECISION NOT NULL,
	reason          TEXT NOT NULL DEFAULT '',
	missing         TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments (created_at);
`

// PostgresStore persists assessments in PostgreSQL. Save and FindByID join a
// transaction carried by tx.WithTx.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed assessment store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// schemaLockID keys the advisory lock held while the schema is applied.
const schemaLockID = 0x61737365

// EnsureSchema creates the assessments table if it does not exist. Replicas starting
// together serialize on an advisory lock; concurrent CREATE TABLE IF NOT EXISTS can
// otherwise fail on the catalog's unique index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	err := tx.RunInTx(ctx, s.db, func(ctx context.Context) error {
		exec := tx.ExecutorFrom(ctx, s.db)
		if _, err := exec.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
			return fmt.Errorf("lock schema: %w", err)
		}
		_, err := exec.ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("ensure assessments schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, a *profile.Assessment) error {
	if a == nil {
		return fmt.Errorf("assessment is required")
	}
	query := `
		INSERT INTO assessments (id, source, status, risk_level, score, factors, recommendations,
			confidence, reason, missing, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			status = EXCLUDED.status,
			risk_level = EXCLUDED.risk_level,
			score = EXCLUDED.score,
			factors = EXCLUDED.factors,
			recommendations = EXCLUDED.recommendations,
			confidence = EXCLUDED.confidence,
			reason = EXCLUDED.reason,
			missing = EXCLUDED.missing,
			created_at = EXCLUDED.created_at
	`
	_, err := tx.ExecutorFrom(ctx, s.db).ExecContext(ctx, query,
		a.ID,
		string(a.Source),
		string(a.Status),
		string(a.RiskLevel),
		a.Score,
		pq.Array(factorStrings(a.Factors)),
		pq.Array(nonNil(a.Recommendations)),
		a.Confidence,
		a.Reason,
		pq.Array(fieldStrings(a.Missing)),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*profile.Assessment, error) {
	query := `
		SELECT id, source, status, risk_level, score, factors, recommendations,
			confidence, reason, missing, created_at
		FROM assessments
		WHERE id = $1
	`
	var (
		a                                 profile.Assessment
		source, status, riskLevel         string
		factors, recommendations, missing []string
	)
	err := tx.ExecutorFrom(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&a.ID,
		&source,
		&status,
		&riskLevel,
		&a.Score,
		pq.Array(&factors),
		pq.Array(&recommendations),
		&a.Confidence,
		&a.Reason,
		pq.Array(&missing),
		&a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find assessment: %w", err)
	}

	a.Source = profile.Source(source)
	a.Status = profile.Status(status)
	a.RiskLevel = profile.RiskLevel(riskLevel)
	a.Recommendations = nonNil(recommendations)
	a.Factors = make([]profile.Factor, len(factors))
	for i, f := range factors {
		a.Factors[i] = profile.Factor(f)
	}
	if len(missing) > 0 {
		a.Missing = make([]profile.Field, len(missing))
		for i, f := range missing {
			a.Missing[i] = profile.Field(f)
		}
	}
	return &a, nil
}

func factorStrings(factors []profile.Factor) []string {
	out := make([]string, len(factors))
	for i, f := range factors {
		out[i] = string(f)
	}
	return out
}

func fieldStrings(fields []profile.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
