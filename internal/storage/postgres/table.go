package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/storage"
)

const (
	upsertPool = `
		INSERT INTO pools (id, body, chain_id, address, last_activity_block, updated_at)
		VALUES ($1, $2, $3, $4, $5::text::numeric, now())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			last_activity_block = EXCLUDED.last_activity_block,
			updated_at = now()
	`
	upsertToken = `
		INSERT INTO tokens (id, body, chain_id, address, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()
	`
	upsertSnapshot = `
		INSERT INTO pool_snapshots (id, body, pool_id, interval, period_index, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()
	`
	upsertStats = `
		INSERT INTO pool_timeframed_stats (id, body, pool_id, timeframe, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (id) DO UPDATE SET
			body = EXCLUDED.body,
			updated_at = now()
	`
)

// table stores one entity kind as a JSONB body plus indexed columns.
type table[T storage.Entity] struct {
	db     *pgxpool.Pool
	kind   string
	name   string
	upsert string
	// args returns the indexed column values following id and body.
	args func(T) []any
}

func (t *table[T]) Get(ctx context.Context, id string) (T, bool, error) {
	return queryOne[T](ctx, t.db, fmt.Sprintf(`SELECT body FROM %s WHERE id = $1`, t.name), id)
}

func (t *table[T]) GetOrCreate(ctx context.Context, def T) (T, error) {
	existing, ok, err := t.Get(ctx, def.EntityID())
	if err != nil || ok {
		return existing, err
	}
	if err := t.Set(ctx, def); err != nil {
		return def, err
	}
	return def, nil
}

func (t *table[T]) GetOrThrow(ctx context.Context, id string) (T, error) {
	v, ok, err := t.Get(ctx, id)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("%s %s: %w", t.kind, id, storage.ErrNotFound)
	}
	return v, nil
}

func (t *table[T]) Set(ctx context.Context, entity T) error {
	args, err := t.values(entity)
	if err != nil {
		return err
	}
	if _, err := t.db.Exec(ctx, t.upsert, args...); err != nil {
		return fmt.Errorf("upsert %s %s: %w", t.kind, entity.EntityID(), err)
	}
	return nil
}

func (t *table[T]) queue(batch *pgx.Batch, entity T) error {
	args, err := t.values(entity)
	if err != nil {
		return err
	}
	batch.Queue(t.upsert, args...)
	return nil
}

func (t *table[T]) values(entity T) ([]any, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", t.kind, entity.EntityID(), err)
	}
	return append([]any{entity.EntityID(), body}, t.args(entity)...), nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func queryOne[T any](ctx context.Context, q querier, sql string, args ...any) (T, bool, error) {
	var out T
	var body []byte
	if err := q.QueryRow(ctx, sql, args...).Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return out, false, nil
		}
		return out, false, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, false, fmt.Errorf("decode body: %w", err)
	}
	return out, true, nil
}
