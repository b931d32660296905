package journal

import (
	"testing"
	"time"

	"trade_engine/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRecordAndRollover(t *testing.T) {
	day1 := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	s := NewStats(func() time.Time { return day1 })

	s.Record(models.TradeLogEntry{At: day1, Action: models.ActionOpenBuy})
	s.Record(models.TradeLogEntry{At: day1, Action: models.ActionCloseBuy, Profit: 12.5})
	s.Record(models.TradeLogEntry{At: day1, Action: models.ActionCloseSell, Profit: -4})

	cur := s.Snapshot()
	assert.Equal(t, "2026-03-02", cur.Day)
	assert.Equal(t, 3, cur.Trades)
	assert.Equal(t, 1, cur.Wins)
	assert.Equal(t, 1, cur.Losses)
	assert.Equal(t, 2, cur.BuyTrades)
	assert.Equal(t, 1, cur.SellTrades)
	assert.InDelta(t, 8.5, cur.TotalProfit, 1e-9)
	assert.InDelta(t, 12.5, cur.LargestWin, 1e-9)
	assert.InDelta(t, -4, cur.LargestLoss, 1e-9)

	// день N+1 — счётчики обнуляются до записи новой сделки
	day2 := day1.Add(24 * time.Hour)
	s.Record(models.TradeLogEntry{At: day2, Action: models.ActionOpenSell})

	cur = s.Snapshot()
	assert.Equal(t, "2026-03-03", cur.Day)
	assert.Equal(t, 1, cur.Trades)
	assert.Equal(t, 0, cur.Wins)
	assert.Zero(t, cur.TotalProfit)
}

func TestWinRateAndExpectancy(t *testing.T) {
	day := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	s := NewStats(func() time.Time { return day })

	s.Record(models.TradeLogEntry{At: day, Action: models.ActionCloseBuy, Profit: 10})
	s.Record(models.TradeLogEntry{At: day, Action: models.ActionCloseBuy, Profit: 20})
	s.Record(models.TradeLogEntry{At: day, Action: models.ActionCloseSell, Profit: -6})

	cur := s.Snapshot()
	assert.InDelta(t, 100.0*2/3, cur.WinRate(), 1e-9)
	// wr=2/3, avgWin=15, avgLoss=6 => 2/3*15 - 1/3*6 = 8
	assert.InDelta(t, 8.0, cur.Expectancy(), 1e-9)

	empty := models.DailyStats{}
	assert.Zero(t, empty.WinRate())
	assert.Zero(t, empty.Expectancy())
}
