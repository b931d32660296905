package market

import (
	"fmt"
	"sync"
	"time"

	"trade_engine/internal/engine/cache"
	"trade_engine/internal/models"
)

// Analyzer — сводка по рынку поверх сигнального провайдера.
// Результат живёт в 5s-кеше, провайдер сменяется на лету.
type Analyzer struct {
	mu       sync.RWMutex
	provider SignalProvider

	analyses *cache.TTLCache[models.MarketAnalysis]
}

const DefaultAnalysisTTL = 5 * time.Second

func NewAnalyzer(p SignalProvider, ttl time.Duration) *Analyzer {
	if ttl <= 0 {
		ttl = DefaultAnalysisTTL
	}
	return &Analyzer{
		provider: p,
		analyses: cache.NewTTL[models.MarketAnalysis](ttl),
	}
}

func (a *Analyzer) Provider() SignalProvider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.provider
}

// SetProvider подменяет сигнальщик (например на тестовый) и сбрасывает кеш.
func (a *Analyzer) SetProvider(p SignalProvider) {
	a.mu.Lock()
	a.provider = p
	a.mu.Unlock()
	a.analyses.InvalidateAll()
}

// Analysis — сводка с кешом.
func (a *Analyzer) Analysis(instrument string) models.MarketAnalysis {
	if v, hit := a.analyses.TryGet(instrument); hit {
		return v
	}

	p := a.Provider()
	out := models.MarketAnalysis{
		Instrument: instrument,
		Direction:  models.DirectionUnclear,
		At:         a.analyses.Now(),
	}
	if p == nil {
		out.Bias = "no signal provider"
		return out
	}

	out.Direction = p.Direction(instrument)
	out.TrendStrength = p.Confidence(instrument)
	out.IsRanging = p.IsRanging(instrument)

	if def, ok := p.(*Provider); ok {
		if v, ok := def.Indicators(instrument); ok && v.Price > 0 {
			out.VolatilityPct = 100 * v.ATR / v.Price
		}
	}

	switch {
	case out.IsRanging:
		out.Bias = fmt.Sprintf("ranging, vol %.2f%%", out.VolatilityPct)
	default:
		out.Bias = fmt.Sprintf("%s trend, strength %.0f", out.Direction, out.TrendStrength)
	}

	a.analyses.Put(instrument, out)
	return out
}

// Invalidate: "" — всё, иначе один инструмент.
func (a *Analyzer) Invalidate(instrument string) {
	if instrument == "" {
		a.analyses.InvalidateAll()
		return
	}
	a.analyses.Remove(instrument)
}
