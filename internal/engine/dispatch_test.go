package engine

import (
	"context"
	"testing"
	"time"

	"trade_engine/internal/executor"
	"trade_engine/internal/market"
	"trade_engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaperRig(t *testing.T) (*Engine, *executor.Paper, *countingProvider) {
	t.Helper()
	prov := &countingProvider{confidence: 80, direction: models.DirectionBullish}
	paper := executor.NewPaper(10_000, 5)
	paper.SetPrice("EURUSD", 1.1000)

	e := New(Settings{DefaultVolume: 1000}, paper, market.NewAnalyzer(prov, 5*time.Second))
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	e.SetClock(func() time.Time { return now })
	require.NoError(t, e.Register(defaultConfig()))
	return e, paper, prov
}

func TestDispatchOpenAppendsJournal(t *testing.T) {
	e, paper, _ := newPaperRig(t)

	got := e.Process(context.Background(), "EURUSD", 80, models.DirectionBullish)
	require.Equal(t, models.ActionOpenBuy, got)
	assert.Equal(t, 1, paper.PositionCount("EURUSD"))

	hist := e.TradeHistory(5)
	require.Len(t, hist, 1)
	assert.Equal(t, models.ActionOpenBuy, hist[0].Action)
	assert.True(t, hist[0].Executed)
	assert.Equal(t, 0, hist[0].CountBefore)
	assert.Equal(t, 1, hist[0].CountAfter)

	stats := e.DailyStats()
	assert.Equal(t, 1, stats.Trades)
	assert.Equal(t, 1, stats.BuyTrades)
}

func TestDispatchInvalidatesCaches(t *testing.T) {
	e, paper, _ := newPaperRig(t)

	_ = e.Process(context.Background(), "EURUSD", 80, models.DirectionBullish)

	// decision-кеш сброшен: следующий вызов с теми же аргументами не кеш-хит
	_ = e.Decide("EURUSD", 80, models.DirectionBullish)
	assert.Zero(t, e.Profile().DecisionCacheHits)

	// и снапшот пересобран свежим — в нём видна новая позиция
	snap := e.PositionSnapshot("EURUSD")
	assert.Equal(t, 1, snap.BuyCount)
	_ = paper
}

func TestDispatchCloseAllRealizes(t *testing.T) {
	e, paper, _ := newPaperRig(t)

	_ = e.Process(context.Background(), "EURUSD", 80, models.DirectionBullish)
	paper.SetPrice("EURUSD", 1.1050) // +5 на 1000 объёма

	got := e.Process(context.Background(), "EURUSD", 10, models.DirectionBullish)
	require.Equal(t, models.ActionCloseAll, got)
	assert.Equal(t, 0, paper.PositionCount("EURUSD"))

	hist := e.TradeHistory(1)
	require.Len(t, hist, 1)
	assert.InDelta(t, 5.0, hist[0].Profit, 1e-9)

	stats := e.DailyStats()
	assert.Equal(t, 1, stats.Wins)
	assert.InDelta(t, 5.0, stats.TotalProfit, 1e-9)
}

func TestDispatchFoldClosesHeldSideOnly(t *testing.T) {
	e, paper, _ := newPaperRig(t)

	require.NoError(t, paper.OpenPosition("EURUSD", true, 1000))
	require.NoError(t, paper.OpenPosition("EURUSD", false, 1000))

	got := e.Process(context.Background(), "EURUSD", 30, models.DirectionUnclear)
	require.Equal(t, models.ActionCloseBuy, got)

	// sell-сторона жива: полный выход — ещё одно решение или CloseAll
	left := paper.OpenPositions("EURUSD")
	require.Len(t, left, 1)
	assert.False(t, left[0].IsBuy)
}

func TestFailedExecutionStillConsumesCooldown(t *testing.T) {
	e, paper, _ := newPaperRig(t)

	// валидатор смотрит IsTradingAllowed, а исполнение завалим по-другому:
	// цена пропадает между решением и исполнением не воспроизводится на
	// paper, поэтому просто закрываем то, чего нет
	require.NoError(t, paper.OpenPosition("EURUSD", false, 1000))
	_, _ = paper.CloseAllPositions("EURUSD")

	e.Dispatch(context.Background(), "EURUSD", models.ActionCloseSell, 30)

	hist := e.TradeHistory(1)
	require.Len(t, hist, 1)
	assert.False(t, hist[0].Executed)

	cd, _ := e.Cooldown("EURUSD")
	assert.Equal(t, 1, cd.SellCount, "попытка тоже потребляет кулдаун")
	assert.False(t, cd.SellLastAt.IsZero())
}

func TestDispatchNoopForPassiveActions(t *testing.T) {
	e, _, _ := newPaperRig(t)

	for _, a := range []models.Action{models.ActionNone, models.ActionHold, models.ActionThinking} {
		e.Dispatch(context.Background(), "EURUSD", a, 50)
	}
	assert.Empty(t, e.TradeHistory(10))
	assert.Zero(t, e.Profile().Dispatches)
}
