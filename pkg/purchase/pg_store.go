package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qatarliving/subscriptions/pkg/actor"
	"github.com/qatarliving/subscriptions/pkg/entitlement"
	"github.com/qatarliving/subscriptions/pkg/lifecycle"
	"github.com/qatarliving/subscriptions/pkg/pg"
)

// PGStore persists entity state and the queryable index in postgres. The
// entity state is one jsonb document per id; the index row carries the
// queryable columns, and a partial unique index enforces the
// duplicate-purchase constraint at write time.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates the postgres-backed store. The schema is applied via
// the goose migrations shipped with this module.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("purchase: pgx pool is required")
	}
	return &PGStore{pool: pool}
}

var _ actor.StateStore[entitlement.State] = (*PGStore)(nil)
var _ IndexStore = (*PGStore)(nil)

// Load implements actor.StateStore.
func (s *PGStore) Load(ctx context.Context, id string) (*entitlement.State, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM entitlement_states WHERE id = $1`, id,
	).Scan(&raw)
	if pg.IsNotFoundError(err) {
		return nil, actor.ErrStateNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	var state entitlement.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Save implements actor.StateStore. Upsert keeps Save idempotent so an
// aborted turn can safely retry.
func (s *PGStore) Save(ctx context.Context, id string, state *entitlement.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO entitlement_states (id, state, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		id, raw,
	)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// Claim implements IndexStore. The partial unique index makes the insert
// the authoritative duplicate-purchase check.
func (s *PGStore) Claim(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO entitlement_index (id, user_id, product_code, kind, status, end_date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.UserID, rec.ProductCode, string(rec.Kind), string(rec.Status), rec.EndDate,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrDuplicateActive
		}
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

// Update implements IndexStore.
func (s *PGStore) Update(ctx context.Context, rec Record) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE entitlement_index
		 SET status = $2, end_date = $3, kind = $4
		 WHERE id = $1`,
		rec.ID, string(rec.Status), rec.EndDate, string(rec.Kind),
	)
	if err != nil {
		return errors.Join(ErrStorageUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Get implements IndexStore.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	rec, err := s.scanOne(s.pool.QueryRow(ctx,
		`SELECT id, user_id, product_code, kind, status, end_date
		 FROM entitlement_index WHERE id = $1`, id,
	))
	if pg.IsNotFoundError(err) {
		return Record{}, ErrRecordNotFound
	}
	if err != nil {
		return Record{}, errors.Join(ErrStorageUnavailable, err)
	}
	return rec, nil
}

// ActiveExists implements IndexStore.
func (s *PGStore) ActiveExists(ctx context.Context, productCode, userID string, now time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM entitlement_index
		   WHERE product_code = $1 AND user_id = $2 AND status = 'active' AND end_date > $3
		 )`,
		productCode, userID, now,
	).Scan(&exists)
	if err != nil {
		return false, errors.Join(ErrStorageUnavailable, err)
	}
	return exists, nil
}

// ListByUser implements IndexStore.
func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, product_code, kind, status, end_date
		 FROM entitlement_index WHERE user_id = $1
		 ORDER BY created_at DESC`, userID,
	)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

// ListExpired implements IndexStore.
func (s *PGStore) ListExpired(ctx context.Context, now time.Time) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, product_code, kind, status, end_date
		 FROM entitlement_index WHERE status = 'active' AND end_date < $1
		 ORDER BY end_date`, now,
	)
	if err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	defer rows.Close()
	return s.scanAll(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PGStore) scanOne(row rowScanner) (Record, error) {
	var rec Record
	var kind, status string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.ProductCode, &kind, &status, &rec.EndDate); err != nil {
		return Record{}, err
	}
	rec.Kind = entitlement.Kind(kind)
	rec.Status = lifecycle.Status(status)
	return rec, nil
}

func (s *PGStore) scanAll(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := s.scanOne(rows)
		if err != nil {
			return nil, errors.Join(ErrStorageUnavailable, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrStorageUnavailable, err)
	}
	return out, nil
}
