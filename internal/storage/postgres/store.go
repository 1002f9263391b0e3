package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"poolScope/internal/model"
	"poolScope/internal/storage"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for pool entities.
type Store struct {
	pool *pgxpool.Pool

	pools     *table[model.Pool]
	tokens    *table[model.Token]
	snapshots *table[model.PoolHistoricalData]
	stats     *table[model.PoolTimeframedStats]
}

var _ storage.Store = (*Store)(nil)
var _ storage.StateStore = (*Store)(nil)

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	s := &Store{pool: pool}
	s.pools = &table[model.Pool]{
		db:     pool,
		kind:   "pool",
		name:   "pools",
		upsert: upsertPool,
		args: func(p model.Pool) []any {
			return []any{int64(p.ChainID), p.Address, strconv.FormatUint(p.LastActivityBlock, 10)}
		},
	}
	s.tokens = &table[model.Token]{
		db:     pool,
		kind:   "token",
		name:   "tokens",
		upsert: upsertToken,
		args: func(t model.Token) []any {
			return []any{int64(t.ChainID), t.Address}
		},
	}
	s.snapshots = &table[model.PoolHistoricalData]{
		db:     pool,
		kind:   "snapshot",
		name:   "pool_snapshots",
		upsert: upsertSnapshot,
		args: func(h model.PoolHistoricalData) []any {
			return []any{h.PoolID, string(h.Interval), h.PeriodIndex}
		},
	}
	s.stats = &table[model.PoolTimeframedStats]{
		db:     pool,
		kind:   "stats",
		name:   "pool_timeframed_stats",
		upsert: upsertStats,
		args: func(st model.PoolTimeframedStats) []any {
			return []any{st.PoolID, string(st.Timeframe)}
		},
	}
	return s, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables the store uses.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) Pools() storage.Table[model.Pool] { return s.pools }

func (s *Store) Tokens() storage.Table[model.Token] { return s.tokens }

func (s *Store) Snapshots() storage.Table[model.PoolHistoricalData] { return s.snapshots }

func (s *Store) Stats() storage.Table[model.PoolTimeframedStats] { return s.stats }

func (s *Store) Snapshot(ctx context.Context, poolID string, interval model.Interval, index int64) (model.PoolHistoricalData, bool, error) {
	return s.snapshots.Get(ctx, model.SnapshotID(poolID, interval, index))
}

// Scan returns the first slot between from and to in walking order.
func (s *Store) Scan(ctx context.Context, poolID string, interval model.Interval, from, to int64) (model.PoolHistoricalData, bool, error) {
	query := `
		SELECT body FROM pool_snapshots
		WHERE pool_id = $1 AND interval = $2 AND period_index BETWEEN $3 AND $4
		ORDER BY period_index ASC
		LIMIT 1
	`
	lo, hi := from, to
	if to < from {
		lo, hi = to, from
		query = `
			SELECT body FROM pool_snapshots
			WHERE pool_id = $1 AND interval = $2 AND period_index BETWEEN $3 AND $4
			ORDER BY period_index DESC
			LIMIT 1
		`
	}
	return queryOne[model.PoolHistoricalData](ctx, s.pool, query, poolID, string(interval), lo, hi)
}

func (s *Store) StalePools(ctx context.Context, chainID uint64, beforeBlock uint64) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT body FROM pools
		WHERE chain_id = $1 AND last_activity_block < $2::text::numeric AND last_activity_block < $3::text::numeric
		ORDER BY id
	`, int64(chainID), strconv.FormatUint(beforeBlock, 10), strconv.FormatUint(model.RetiredBlock, 10))
	if err != nil {
		return nil, fmt.Errorf("query stale pools: %w", err)
	}
	defer rows.Close()

	var out []model.Pool
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var pool model.Pool
		if err := json.Unmarshal(body, &pool); err != nil {
			return nil, fmt.Errorf("decode pool: %w", err)
		}
		out = append(out, pool)
	}
	return out, rows.Err()
}

// Commit writes a change set in one transaction.
func (s *Store) Commit(ctx context.Context, changes storage.ChangeSet) error {
	if changes.Empty() {
		return nil
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, p := range changes.Pools {
		if err := s.pools.queue(batch, p); err != nil {
			return err
		}
		queued++
	}
	for _, t := range changes.Tokens {
		if err := s.tokens.queue(batch, t); err != nil {
			return err
		}
		queued++
	}
	for _, h := range changes.Snapshots {
		if err := s.snapshots.queue(batch, h); err != nil {
			return err
		}
		queued++
	}
	for _, st := range changes.Stats {
		if err := s.stats.queue(batch, st); err != nil {
			return err
		}
		queued++
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("commit entity %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// LoadState returns the progress value stored under name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var v int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed FROM indexer_state WHERE name=$1`, name)
	if err := row.Scan(&v); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(v), true, nil
}

// SaveState upserts the progress value for name.
func (s *Store) SaveState(ctx context.Context, name string, value uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO indexer_state (name, last_processed, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed = EXCLUDED.last_processed, updated_at = now()
	`, name, int64(value))
	return err
}
