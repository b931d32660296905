package market

import (
	"testing"
	"time"

	"trade_engine/internal/engine/cache"
	"trade_engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillWindow(w *Window, instrument string, closes []float64) {
	for i, c := range closes {
		w.Push(instrument, models.Candle{
			Open:  c,
			High:  c * 1.001,
			Low:   c * 0.999,
			Close: c,
			Start: time.Date(2026, 3, 2, 0, 0, i, 0, time.UTC),
		})
	}
}

func rising(n int) []float64 {
	out := make([]float64, n)
	px := 100.0
	for i := range out {
		px *= 1.01
		out[i] = px
	}
	return out
}

func flat(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 0.05*float64(i%2)
	}
	return out
}

func TestProviderNotEnoughData(t *testing.T) {
	w := NewWindow(64)
	p := NewProvider(ProviderConfig{}, w)
	fillWindow(w, "EURUSD", rising(5))

	_, ok := p.Indicators("EURUSD")
	assert.False(t, ok)
	assert.Equal(t, models.DirectionUnclear, p.Direction("EURUSD"))
	assert.InDelta(t, 50, p.Confidence("EURUSD"), 1e-9)
	assert.False(t, p.IsRanging("EURUSD"))
}

func TestProviderBullishTrend(t *testing.T) {
	w := NewWindow(64)
	p := NewProvider(ProviderConfig{}, w)
	fillWindow(w, "EURUSD", rising(60))

	v, ok := p.Indicators("EURUSD")
	require.True(t, ok)
	assert.Greater(t, v.EMAFast, v.EMASlow)

	assert.Equal(t, models.DirectionBullish, p.Direction("EURUSD"))
	assert.Greater(t, p.Confidence("EURUSD"), 50.0)
}

func TestProviderRangingOnFlat(t *testing.T) {
	w := NewWindow(64)
	p := NewProvider(ProviderConfig{}, w)
	fillWindow(w, "EURUSD", flat(60))

	assert.True(t, p.IsRanging("EURUSD"))
	assert.Equal(t, models.DirectionRanging, p.Direction("EURUSD"))
}

func TestProviderCachesIndicators(t *testing.T) {
	w := NewWindow(64)
	p := NewProvider(ProviderConfig{}, w)
	fillWindow(w, "EURUSD", rising(60))

	v1, ok := p.Indicators("EURUSD")
	require.True(t, ok)

	// новые свечи в пределах TTL не меняют закешированные значения
	fillWindow(w, "EURUSD", flat(60))
	v2, ok := p.Indicators("EURUSD")
	require.True(t, ok)
	assert.Equal(t, v1, v2)

	p.InvalidateIndicators("EURUSD")
	v3, ok := p.Indicators("EURUSD")
	require.True(t, ok)
	assert.NotEqual(t, v1.EMAFast, v3.EMAFast)
}

func TestProviderTestingModeRecomputes(t *testing.T) {
	cache.SetTestingMode(true)
	defer cache.SetTestingMode(false)

	w := NewWindow(64)
	p := NewProvider(ProviderConfig{}, w)
	fillWindow(w, "EURUSD", rising(60))

	v1, ok := p.Indicators("EURUSD")
	require.True(t, ok)
	fillWindow(w, "EURUSD", flat(60))
	v2, ok := p.Indicators("EURUSD")
	require.True(t, ok)
	assert.NotEqual(t, v1, v2, "в testing mode кеш индикаторов выключен")
}
