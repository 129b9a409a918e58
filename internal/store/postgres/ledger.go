package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/partchain/internal/store"
	"github.com/wolfeidau/partchain/internal/telemetry"
)

// Ledger implements store.Transactor using PostgreSQL as a single node
// development ledger. Every call runs in one SERIALIZABLE transaction; reads
// observe the transaction snapshot and writes are applied at commit, which
// mirrors the read/write set semantics of a Fabric peer.
type Ledger struct {
	pool *pgxpool.Pool
	cfg  *LedgerConfig
}

var _ store.Transactor = (*Ledger)(nil)

// NewLedger connects to PostgreSQL and, when enabled, migrates the schema.
func NewLedger(ctx context.Context, cfg *LedgerConfig) (*Ledger, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pool, err := NewPool(ctx, &cfg.PoolConfig)
	if err != nil {
		return nil, err
	}

	// Run migrations only if explicitly enabled
	if cfg.AutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info().Msg("Database migrations completed")
	}

	return &Ledger{pool: pool, cfg: cfg}, nil
}

// Close releases the connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}

// Transact runs fn in a serializable transaction, retrying with exponential
// backoff when PostgreSQL reports a conflict. fn must not have side effects
// outside the ledger view as it may run more than once.
func (l *Ledger) Transact(ctx context.Context, tx store.Tx, fn func(ctx context.Context, l store.Ledger) error) error {
	if l.cfg.QueryTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(l.cfg.QueryTimeoutSeconds)*time.Second)
		defer cancel()
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := l.attempt(ctx, tx, fn)
		switch {
		case err == nil:
			return struct{}{}, nil
		case isRetryable(err):
			log.Debug().Str("tx_id", tx.ID).Err(err).Msg("Retrying conflicting transaction")
			telemetry.GetMetrics().TxRetriesTotal.Add(ctx, 1)
			return struct{}{}, err
		default:
			return struct{}{}, backoff.Permanent(err)
		}
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(l.cfg.MaxTries),
	)

	return err
}

func (l *Ledger) attempt(ctx context.Context, tx store.Tx, fn func(ctx context.Context, l store.Ledger) error) error {
	pgTx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return mapPostgresError(fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer pgTx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	v := &view{pgTx: pgTx, tx: tx}

	if err := fn(ctx, v); err != nil {
		return err
	}

	if err := v.flush(ctx); err != nil {
		return mapPostgresError(err)
	}

	if err := pgTx.Commit(ctx); err != nil {
		return mapPostgresError(fmt.Errorf("failed to commit: %w", err))
	}

	log.Debug().
		Str("tx_id", tx.ID).
		Int("public_writes", len(v.public)).
		Int("private_writes", len(v.private)).
		Int("events", len(v.events)).
		Msg("Committed transaction")

	return nil
}

// TxEvents returns the events committed by one transaction.
func (l *Ledger) TxEvents(ctx context.Context, txID string) ([]store.Event, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT tx_id, name, payload
		FROM events
		WHERE tx_id = $1
		ORDER BY id
	`, txID)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Event, error) {
		var e store.Event
		err := row.Scan(&e.TxID, &e.Name, &e.Payload)
		return e, err
	})
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return events, nil
}

type publicWrite struct {
	key   string
	value []byte
}

type privateWrite struct {
	partition string
	key       string
	value     []byte
}

type view struct {
	pgTx pgx.Tx
	tx   store.Tx

	public  []publicWrite
	private []privateWrite
	events  []store.Event
}

var _ store.Ledger = (*view)(nil)

func (v *view) GetPublic(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := v.pgTx.QueryRow(ctx, `SELECT value FROM public_state WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return value, nil
}

func (v *view) PutPublic(ctx context.Context, key string, value []byte) error {
	v.public = append(v.public, publicWrite{key: key, value: value})
	return nil
}

func (v *view) History(ctx context.Context, key string) ([]store.Modification, error) {
	rows, err := v.pgTx.Query(ctx, `
		SELECT tx_id, value, is_delete, recorded_at
		FROM public_history
		WHERE key = $1
		ORDER BY id
	`, key)
	if err != nil {
		return nil, mapPostgresError(err)
	}

	mods, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Modification, error) {
		var m store.Modification
		err := row.Scan(&m.TxID, &m.Value, &m.IsDelete, &m.Timestamp)
		return m, err
	})
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return mods, nil
}

func (v *view) GetPrivate(ctx context.Context, partition, key string) ([]byte, error) {
	var value []byte
	err := v.pgTx.QueryRow(ctx,
		`SELECT value FROM private_state WHERE partition = $1 AND key = $2`,
		partition, key,
	).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapPostgresError(err)
	}
	return value, nil
}

func (v *view) PutPrivate(ctx context.Context, partition, key string, value []byte) error {
	v.private = append(v.private, privateWrite{partition: partition, key: key, value: value})
	return nil
}

func (v *view) QueryPrivate(ctx context.Context, partition, query string) ([][]byte, error) {
	selector, err := store.ParseSelector(query)
	if err != nil {
		return nil, err
	}

	sel, err := json.Marshal(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrBadQuery, err)
	}

	rows, err := v.pgTx.Query(ctx, `
		SELECT value
		FROM private_state
		WHERE partition = $1 AND doc @> $2::jsonb
		ORDER BY key
	`, partition, string(sel))
	if err != nil {
		return nil, mapPostgresError(err)
	}

	results, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, mapPostgresError(err)
	}

	return results, nil
}

func (v *view) EmitEvent(ctx context.Context, name string, payload []byte) error {
	v.events = append(v.events, store.Event{TxID: v.tx.ID, Name: name, Payload: payload})
	return nil
}

// flush applies the staged writes inside the open transaction.
func (v *view) flush(ctx context.Context) error {
	if len(v.public) == 0 && len(v.private) == 0 && len(v.events) == 0 {
		return nil
	}

	ts := v.tx.Timestamp
	batch := &pgx.Batch{}

	for _, w := range collapsePublic(v.public) {
		batch.Queue(`
			INSERT INTO public_state (key, value, tx_id, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (key) DO UPDATE
			SET value = EXCLUDED.value, tx_id = EXCLUDED.tx_id, updated_at = EXCLUDED.updated_at
		`, w.key, w.value, v.tx.ID, ts)
		batch.Queue(`
			INSERT INTO public_history (key, tx_id, value, recorded_at)
			VALUES ($1, $2, $3, $4)
		`, w.key, v.tx.ID, w.value, ts)
	}

	for _, w := range v.private {
		batch.Queue(`
			INSERT INTO private_state (partition, key, value, doc, tx_id, updated_at)
			VALUES ($1, $2, $3, $4::jsonb, $5, $6)
			ON CONFLICT (partition, key) DO UPDATE
			SET value = EXCLUDED.value, doc = EXCLUDED.doc, tx_id = EXCLUDED.tx_id, updated_at = EXCLUDED.updated_at
		`, w.partition, w.key, w.value, jsonDoc(w.value), v.tx.ID, ts)
	}

	for _, e := range v.events {
		batch.Queue(`
			INSERT INTO events (tx_id, name, payload, emitted_at)
			VALUES ($1, $2, $3, $4)
		`, e.TxID, e.Name, e.Payload, ts)
	}

	if err := v.pgTx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to apply writes: %w", err)
	}

	return nil
}

// collapsePublic keeps the last value written to each key, in the order keys
// were first written, so a key records one history entry per transaction.
func collapsePublic(writes []publicWrite) []publicWrite {
	index := make(map[string]int, len(writes))
	out := make([]publicWrite, 0, len(writes))
	for _, w := range writes {
		if i, ok := index[w.key]; ok {
			out[i].value = w.value
			continue
		}
		index[w.key] = len(out)
		out = append(out, w)
	}
	return out
}

// jsonDoc returns the value as a jsonb parameter, or nil for non JSON values
// which are stored but never matched by a query.
func jsonDoc(value []byte) any {
	if !json.Valid(value) {
		return nil
	}
	return string(value)
}
