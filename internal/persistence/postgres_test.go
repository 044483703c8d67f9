package persistence

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newMockPostgres(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &Postgres{db: db, logger: zap.NewNop()}, mock
}

func TestUpsertLatest_ExecutesUpsert(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO latest").WillReturnResult(sqlmock.NewResult(0, 1))

	bid := dec("0.40")
	ask := dec("0.45")
	mid := dec("0.425")

	err := p.UpsertLatest(context.Background(), types.LatestRecord{
		TickRecord: types.TickRecord{
			AssetID:  "a1",
			AsOf:     time.Now(),
			MarketID: 1,
			Outcome:  "YES",
			BestBid:  &bid,
			BestAsk:  &ask,
			Mid:      &mid,
			Source:   "clob_ws",
		},
		UpdatedAt: time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertTick_OnConflictDoNothing(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO ticks").WillReturnResult(sqlmock.NewResult(0, 0))

	err := p.InsertTick(context.Background(), types.TickRecord{
		AssetID: "a1",
		AsOf:    time.Now(),
		Source:  "clob_ws",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertSignal_Executes(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO signals").WillReturnResult(sqlmock.NewResult(0, 1))

	err := p.InsertSignal(context.Background(), types.ArbSignal{
		EventID: 1,
		AsOf:    time.Now(),
		Kind:    types.BuyYesAll,
		Edge:    dec("0.1"),
		Detail:  map[string]any{"threshold": "1"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertPnL_UnrealizedDefaultsToZeroWhenAbsent(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO pnl").
		WithArgs(int64(1), "0.20", "0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := p.UpsertPnL(context.Background(), 1, types.RunningPnL{
		RealizedPnL:   dec("0.20"),
		UnrealizedPnL: nil,
		UpdatedAt:     time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithRecovery_WriteFailureTriggersReopenAttempt(t *testing.T) {
	p, mock := newMockPostgres(t)

	mock.ExpectExec("INSERT INTO signals").WillReturnError(context.DeadlineExceeded)

	err := p.InsertSignal(context.Background(), types.ArbSignal{
		EventID: 1,
		AsOf:    time.Now(),
		Kind:    types.BuyYesAll,
		Edge:    dec("0.1"),
		Detail:  map[string]any{},
	})
	require.Error(t, err)
	// reopen() replaces p.db by dialing p.dsn; with an empty dsn in this test
	// that's expected to fail too, and is logged rather than propagated —
	// InsertSignal's own error is what the caller observes.
}
