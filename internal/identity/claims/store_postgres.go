package claims

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

const claimsSchema = `
CREATE TABLE IF NOT EXISTS claims (
	id TEXT PRIMARY KEY,
	topic BIGINT NOT NULL,
	scheme BIGINT NOT NULL,
	issuer TEXT NOT NULL,
	signature BYTEA NOT NULL,
	data BYTEA NOT NULL,
	uri TEXT NOT NULL DEFAULT '',
	seq BIGSERIAL
);
CREATE INDEX IF NOT EXISTS claims_topic_idx ON claims (topic, seq);
`

// PostgresStore persists claims in PostgreSQL over pgx. Batch puts run in a
// transaction so the all-or-nothing contract holds under real failures too.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an existing pool and ensures the schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, claimsSchema); err != nil {
		return nil, fmt.Errorf("ensure claims schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

const upsertClaim = `
INSERT INTO claims (id, topic, scheme, issuer, signature, data, uri)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET scheme = EXCLUDED.scheme,
	signature = EXCLUDED.signature,
	data = EXCLUDED.data,
	uri = EXCLUDED.uri
RETURNING (xmax = 0)
`

func (s *PostgresStore) Put(ctx context.Context, claim models.Claim) (bool, error) {
	var created bool
	err := s.pool.QueryRow(ctx, upsertClaim,
		string(claim.ID), int64(claim.Topic), int64(claim.Scheme), string(claim.Issuer),
		nonNil(claim.Signature), nonNil(claim.Data), claim.URI,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert claim: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) PutBatch(ctx context.Context, batch []models.Claim) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin claim batch: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, claim := range batch {
		var created bool
		err := tx.QueryRow(ctx, upsertClaim,
			string(claim.ID), int64(claim.Topic), int64(claim.Scheme), string(claim.Issuer),
			nonNil(claim.Signature), nonNil(claim.Data), claim.URI,
		).Scan(&created)
		if err != nil {
			return fmt.Errorf("upsert claim in batch: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit claim batch: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, claimID id.ClaimID) (models.Claim, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, topic, scheme, issuer, signature, data, uri FROM claims WHERE id = $1`,
		string(claimID))
	claim, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Claim{}, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Claim{}, fmt.Errorf("find claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) Remove(ctx context.Context, claimID id.ClaimID) (models.Claim, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM claims WHERE id = $1 RETURNING id, topic, scheme, issuer, signature, data, uri`,
		string(claimID))
	claim, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Claim{}, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	if err != nil {
		return models.Claim{}, fmt.Errorf("remove claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) IDsByTopic(ctx context.Context, topic id.Topic) ([]id.ClaimID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM claims WHERE topic = $1 ORDER BY seq`, int64(topic))
	if err != nil {
		return nil, fmt.Errorf("list topic claims: %w", err)
	}
	defer rows.Close()

	var ids []id.ClaimID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan claim id: %w", err)
		}
		ids = append(ids, id.ClaimID(raw))
	}
	return ids, rows.Err()
}

// nonNil keeps nil byte slices out of NOT NULL columns; the registry treats
// empty and absent buffers alike.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}

func scanClaim(row pgx.Row) (models.Claim, error) {
	var (
		claim  models.Claim
		rawID  string
		topic  int64
		scheme int64
		issuer string
	)
	if err := row.Scan(&rawID, &topic, &scheme, &issuer, &claim.Signature, &claim.Data, &claim.URI); err != nil {
		return models.Claim{}, err
	}
	claim.ID = id.ClaimID(rawID)
	claim.Topic = id.Topic(topic)
	claim.Scheme = id.Scheme(scheme)
	claim.Issuer = id.Address(issuer)
	return claim, nil
}
