package handoff

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"coffee-storefront/internal/domain"
)

// pgExecutor is the part of *pgxpool.Pool the store needs.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore shares hand-off payloads between storefront replicas. Rows
// older than ttl are treated as absent and removed by Purge.
type PostgresStore struct {
	db  pgExecutor
	ttl time.Duration
	now func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool, ttl time.Duration) *PostgresStore {
	return newPostgresStore(pool, ttl)
}

func newPostgresStore(db pgExecutor, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl, now: time.Now}
}

func (s *PostgresStore) Publish(ctx context.Context, sessionID string, p domain.CheckoutPayload) error {
	b, err := Encode(p)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
INSERT INTO checkout_handoff (session_id, key, payload, created_at)
VALUES ($1, $2, $3::jsonb, $4)
ON CONFLICT (session_id, key) DO UPDATE SET
  payload = EXCLUDED.payload,
  created_at = EXCLUDED.created_at
`, sessionID, Key, string(b), s.now().UTC())
	if err != nil {
		return errors.Wrap(ErrStoreUnavailable, err.Error())
	}
	return nil
}

func (s *PostgresStore) Consume(ctx context.Context, sessionID string) (domain.CheckoutPayload, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
SELECT payload::text FROM checkout_handoff
WHERE session_id = $1 AND key = $2 AND created_at > $3
`, sessionID, Key, s.cutoff()).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CheckoutPayload{}, ErrNoPendingOrder
	}
	if err != nil {
		return domain.CheckoutPayload{}, errors.Wrap(ErrStoreUnavailable, err.Error())
	}
	return Decode(raw)
}

func (s *PostgresStore) Clear(ctx context.Context, sessionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM checkout_handoff WHERE session_id = $1 AND key = $2`, sessionID, Key); err != nil {
		return errors.Wrap(ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Purge deletes expired payloads and reports how many were removed.
func (s *PostgresStore) Purge(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM checkout_handoff WHERE created_at <= $1`, s.cutoff())
	if err != nil {
		return 0, errors.Wrap(ErrStoreUnavailable, err.Error())
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) cutoff() time.Time {
	return s.now().UTC().Add(-s.ttl)
}
