package basket

import (
	"testing"
	"time"

	"github.com/mselser95/polymarket-arb/internal/bookstate"
	"github.com/mselser95/polymarket-arb/pkg/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func fourMarkets() []types.MarketDescriptor {
	return []types.MarketDescriptor{
		{MarketID: 1, Question: "A", YesAssetID: "a", NoAssetID: "a-no"},
		{MarketID: 2, Question: "B", YesAssetID: "b", NoAssetID: "b-no"},
		{MarketID: 3, Question: "C", YesAssetID: "c", NoAssetID: "c-no"},
		{MarketID: 4, Question: "D", YesAssetID: "d", NoAssetID: "d-no"},
	}
}

func seedYesAsk(t *testing.T, books *bookstate.Store, assetID, ask string) {
	t.Helper()
	books.ApplySnapshot(assetID, nil,
		[]types.Level{{Price: dec(ask), Size: dec("100")}},
		time.Now(), nil)
}

func TestEvaluate_OpensBelowThreshold(t *testing.T) {
	books := bookstate.New(nil)
	seedYesAsk(t, books, "a", "0.20")
	seedYesAsk(t, books, "b", "0.30")
	seedYesAsk(t, books, "c", "0.20")
	seedYesAsk(t, books, "d", "0.20")

	e := New(fourMarkets(), dec("1"))
	view := e.Evaluate(books)

	require.True(t, view.Ready)
	require.NotNil(t, view.SumYesAsk)
	assert.True(t, view.SumYesAsk.Equal(dec("0.90")))
	assert.True(t, view.Open)

	edge := e.Edge(view)
	assert.True(t, edge.Equal(dec("0.1")))
}

func TestEvaluate_ExactThresholdDoesNotOpen(t *testing.T) {
	books := bookstate.New(nil)
	for _, a := range []string{"a", "b", "c", "d"} {
		seedYesAsk(t, books, a, "0.25")
	}

	e := New(fourMarkets(), dec("1"))
	view := e.Evaluate(books)

	require.True(t, view.Ready)
	assert.True(t, view.SumYesAsk.Equal(dec("1")))
	assert.False(t, view.Open)
}

func TestEvaluate_NotReadyWhenLegMissing(t *testing.T) {
	books := bookstate.New(nil)
	seedYesAsk(t, books, "a", "0.20")
	seedYesAsk(t, books, "b", "0.20")
	seedYesAsk(t, books, "c", "0.20")
	// "d" never seen.

	e := New(fourMarkets(), dec("1"))
	view := e.Evaluate(books)

	assert.False(t, view.Ready)
	assert.False(t, view.Open)
	assert.Nil(t, view.SumYesAsk)
}

func TestEvaluate_PerMarketViewPopulatesBothSides(t *testing.T) {
	books := bookstate.New(nil)
	books.ApplySnapshot("a",
		[]types.Level{{Price: dec("0.18"), Size: dec("10")}},
		[]types.Level{{Price: dec("0.20"), Size: dec("10")}},
		time.Now(), nil)
	books.ApplySnapshot("a-no",
		[]types.Level{{Price: dec("0.78"), Size: dec("10")}},
		[]types.Level{{Price: dec("0.80"), Size: dec("10")}},
		time.Now(), nil)

	e := New(fourMarkets(), dec("1"))
	view := e.Evaluate(books)

	mv := view.PerMarket[1]
	require.NotNil(t, mv.YesBid)
	require.NotNil(t, mv.YesAsk)
	require.NotNil(t, mv.NoBid)
	require.NotNil(t, mv.NoAsk)
	assert.True(t, mv.YesAsk.Equal(dec("0.20")))
	assert.True(t, mv.NoBid.Equal(dec("0.78")))
}
