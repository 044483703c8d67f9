package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Postgres is a Projector backed by a single *sql.DB handle, matching the
// upsert/append patterns of the system this was adapted from: ON CONFLICT
// DO UPDATE for "latest" and "pnl", ON CONFLICT DO NOTHING for "ticks".
type Postgres struct {
	mu     sync.Mutex
	db     *sql.DB
	dsn    string
	logger *zap.Logger
}

// PostgresConfig holds the Postgres projector's connection parameters.
type PostgresConfig struct {
	DatabaseURL string
	Logger      *zap.Logger
}

// NewPostgres opens a connection and verifies it with a ping. A failure here
// is a startup error (spec kind 4): fatal, propagated to the caller.
func NewPostgres(cfg PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("postgres-projector-connected")

	return &Postgres{db: db, dsn: cfg.DatabaseURL, logger: cfg.Logger}, nil
}

// reopen closes the current handle and opens a fresh one, per spec's
// persistence-error recovery: close, reconnect, rely on the next flush's
// upsert to converge.
func (p *Postgres) reopen() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.db != nil {
		_ = p.db.Close()
	}

	db, err := sql.Open("postgres", p.dsn)
	if err != nil {
		return fmt.Errorf("reopen database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("ping after reopen: %w", err)
	}

	p.db = db
	p.logger.Info("postgres-projector-reconnected")
	return nil
}

func (p *Postgres) handle() *sql.DB {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db
}

// withRecovery runs fn against the current handle; on failure it triggers a
// reconnect and logs, but does not retry fn itself — the next scheduled
// flush will naturally retry via the upsert pattern.
func (p *Postgres) withRecovery(op string, fn func(*sql.DB) error) error {
	err := fn(p.handle())
	if err == nil {
		return nil
	}

	WriteErrorsTotal.WithLabelValues(op).Inc()
	p.logger.Warn("postgres-write-failed", zap.String("op", op), zap.Error(err))
	if reopenErr := p.reopen(); reopenErr != nil {
		p.logger.Error("postgres-reconnect-failed", zap.Error(reopenErr))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func marshalRaw(v map[string]any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

func decimalStringOrNil(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// UpsertLatest upserts the latest row keyed by asset_id.
func (p *Postgres) UpsertLatest(ctx context.Context, rec types.LatestRecord) error {
	raw, err := marshalRaw(rec.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw: %w", err)
	}

	const q = `
		INSERT INTO latest (asset_id, market_id, outcome, as_of, best_bid, best_ask, mid, source, raw, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset_id) DO UPDATE SET
			market_id = EXCLUDED.market_id,
			outcome = EXCLUDED.outcome,
			as_of = EXCLUDED.as_of,
			best_bid = EXCLUDED.best_bid,
			best_ask = EXCLUDED.best_ask,
			mid = EXCLUDED.mid,
			source = EXCLUDED.source,
			raw = EXCLUDED.raw,
			updated_at = EXCLUDED.updated_at
	`

	return p.withRecovery("upsert-latest", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, q,
			rec.AssetID, rec.MarketID, rec.Outcome, rec.AsOf,
			decimalStringOrNil(rec.BestBid), decimalStringOrNil(rec.BestAsk), decimalStringOrNil(rec.Mid),
			rec.Source, raw, rec.UpdatedAt,
		)
		return err
	})
}

// InsertTick appends a tick row, doing nothing on an (asset_id, as_of) conflict.
func (p *Postgres) InsertTick(ctx context.Context, rec types.TickRecord) error {
	raw, err := marshalRaw(rec.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw: %w", err)
	}

	const q = `
		INSERT INTO ticks (asset_id, as_of, market_id, outcome, best_bid, best_ask, mid, source, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (asset_id, as_of) DO NOTHING
	`

	return p.withRecovery("insert-tick", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, q,
			rec.AssetID, rec.AsOf, rec.MarketID, rec.Outcome,
			decimalStringOrNil(rec.BestBid), decimalStringOrNil(rec.BestAsk), decimalStringOrNil(rec.Mid),
			rec.Source, raw,
		)
		return err
	})
}

// InsertSignal inserts an arbitrage signal row. Per spec, signal writes are
// best-effort: a dropped signal is logged by withRecovery, not fatal.
func (p *Postgres) InsertSignal(ctx context.Context, sig types.ArbSignal) error {
	detail, err := marshalRaw(sig.Detail)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}

	const q = `
		INSERT INTO signals (signal_id, event_id, as_of, kind, edge, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
	`

	err = p.withRecovery("insert-signal", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, q,
			uuid.NewString(), sig.EventID, sig.AsOf, string(sig.Kind), sig.Edge.String(), detail,
		)
		return err
	})
	if err == nil {
		SignalsInsertedTotal.Inc()
	}
	return err
}

// UpsertPnL upserts the running PnL row for eventID. Unrealized defaults to
// zero in storage when absent, per spec §4.6 (the in-memory distinction
// between absent and zero is an operator-facing concern, not a storage one).
func (p *Postgres) UpsertPnL(ctx context.Context, eventID int64, pnl types.RunningPnL) error {
	unrealized := "0"
	if pnl.UnrealizedPnL != nil {
		unrealized = pnl.UnrealizedPnL.String()
	}

	const q = `
		INSERT INTO pnl (event_id, realized_pnl, unrealized_pnl, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO UPDATE SET
			realized_pnl = EXCLUDED.realized_pnl,
			unrealized_pnl = EXCLUDED.unrealized_pnl,
			updated_at = EXCLUDED.updated_at
	`

	return p.withRecovery("upsert-pnl", func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, q, eventID, pnl.RealizedPnL.String(), unrealized, pnl.UpdatedAt)
		return err
	})
}

// Close releases the underlying database handle.
func (p *Postgres) Close() error {
	p.logger.Info("closing-postgres-projector")
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.db.Close()
}
