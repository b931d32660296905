package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPaper() *Paper {
	p := NewPaper(10_000, 3)
	p.Now = func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }
	p.SetPrice("EURUSD", 1.1000)
	return p
}

func TestOpenAndFloatingProfit(t *testing.T) {
	p := newTestPaper()

	require.NoError(t, p.OpenPosition("EURUSD", true, 1000))
	assert.Equal(t, 1, p.PositionCount("EURUSD"))
	assert.InDelta(t, 1.1000, p.AveragePrice("EURUSD", true), 1e-9)

	p.SetPrice("EURUSD", 1.1050)
	assert.InDelta(t, 5.0, p.TotalProfit("EURUSD"), 1e-9)

	positions := p.OpenPositions("EURUSD")
	require.Len(t, positions, 1)
	assert.InDelta(t, 5.0, positions[0].Profit, 1e-9)
}

func TestCloseRealizesProfit(t *testing.T) {
	p := newTestPaper()
	require.NoError(t, p.OpenPosition("EURUSD", true, 1000))
	p.SetPrice("EURUSD", 1.1050)

	positions := p.OpenPositions("EURUSD")
	require.Len(t, positions, 1)

	profit, err := p.ClosePosition(positions[0].Ticket)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, profit, 1e-9)
	assert.InDelta(t, 10_005, p.Balance(), 1e-9)
	assert.Equal(t, 0, p.PositionCount("EURUSD"))

	_, err = p.ClosePosition(positions[0].Ticket)
	assert.Error(t, err)
}

func TestCloseAll(t *testing.T) {
	p := newTestPaper()
	require.NoError(t, p.OpenPosition("EURUSD", true, 1000))
	require.NoError(t, p.OpenPosition("EURUSD", false, 500))
	p.SetPrice("EURUSD", 1.1100)

	pnl, ok := p.CloseAllPositions("EURUSD")
	require.True(t, ok)
	// buy: +10, sell: -5
	assert.InDelta(t, 5.0, pnl, 1e-9)

	_, ok = p.CloseAllPositions("EURUSD")
	assert.False(t, ok)
}

func TestCapacityLimit(t *testing.T) {
	p := newTestPaper()
	for i := 0; i < 3; i++ {
		require.True(t, p.CanOpenNewPosition("EURUSD", true))
		require.NoError(t, p.OpenPosition("EURUSD", true, 100))
	}
	assert.False(t, p.CanOpenNewPosition("EURUSD", true))

	// нет цены — открыться нельзя
	assert.False(t, p.CanOpenNewPosition("GBPUSD", true))
}

func TestDrawdown(t *testing.T) {
	p := newTestPaper()
	assert.Zero(t, p.CurrentDrawdown())

	require.NoError(t, p.OpenPosition("EURUSD", true, 10_000))
	p.SetPrice("EURUSD", 1.0900) // -100 плавающего
	dd := p.CurrentDrawdown()
	assert.InDelta(t, 1.0, dd, 1e-6)
}

func TestTradingAllowedGate(t *testing.T) {
	p := newTestPaper()
	p.SetTradingAllowed(false)
	assert.False(t, p.IsTradingAllowed())
	assert.False(t, p.CanOpenNewPosition("EURUSD", true))
}
