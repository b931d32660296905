package market

import (
	"testing"
	"time"

	"trade_engine/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProvider — счётчик вызовов для проверки кеша анализа.
type stubProvider struct {
	confidence float64
	direction  models.Direction
	ranging    bool
	calls      int
}

func (s *stubProvider) Confidence(string) float64 {
	s.calls++
	return s.confidence
}
func (s *stubProvider) Direction(string) models.Direction { return s.direction }
func (s *stubProvider) IsRanging(string) bool             { return s.ranging }

func TestAnalysisCached(t *testing.T) {
	stub := &stubProvider{confidence: 70, direction: models.DirectionBullish}
	a := NewAnalyzer(stub, 5*time.Second)

	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	a.analyses.Now = func() time.Time { return now }

	first := a.Analysis("EURUSD")
	assert.Equal(t, models.DirectionBullish, first.Direction)
	assert.Equal(t, 70.0, first.TrendStrength)
	require.Equal(t, 1, stub.calls)

	// в пределах TTL — из кеша, провайдер не дёргается
	_ = a.Analysis("EURUSD")
	assert.Equal(t, 1, stub.calls)

	now = now.Add(6 * time.Second)
	_ = a.Analysis("EURUSD")
	assert.Equal(t, 2, stub.calls)
}

func TestSetProviderResetsCache(t *testing.T) {
	bull := &stubProvider{confidence: 70, direction: models.DirectionBullish}
	a := NewAnalyzer(bull, 5*time.Second)
	_ = a.Analysis("EURUSD")

	bear := &stubProvider{confidence: 80, direction: models.DirectionBearish}
	a.SetProvider(bear)

	got := a.Analysis("EURUSD")
	assert.Equal(t, models.DirectionBearish, got.Direction)
	assert.Equal(t, 1, bear.calls)
}

func TestAnalysisWithoutProvider(t *testing.T) {
	a := NewAnalyzer(nil, 0)
	got := a.Analysis("EURUSD")
	assert.Equal(t, models.DirectionUnclear, got.Direction)
	assert.Equal(t, "no signal provider", got.Bias)
}

func TestRangingBias(t *testing.T) {
	stub := &stubProvider{confidence: 40, direction: models.DirectionRanging, ranging: true}
	a := NewAnalyzer(stub, 0)
	got := a.Analysis("EURUSD")
	assert.True(t, got.IsRanging)
	assert.Contains(t, got.Bias, "ranging")
}
