package engine

import (
	"trade_engine/internal/models"
)

// positionSnapshot — срез позиций из 2s-кеша либо пересборка
// из живого списка исполнителя.
func (e *Engine) positionSnapshot(instrument string) models.PositionSnapshot {
	if snap, hit := e.snapshots.TryGet(instrument); hit {
		return snap
	}

	var positions []models.Position
	if e.exec != nil {
		positions = e.exec.OpenPositions(instrument)
	}
	snap := models.BuildSnapshot(instrument, positions, e.now())

	e.mu.Lock()
	e.prof.SnapshotRebuilds++
	e.mu.Unlock()

	e.snapshots.Put(instrument, snap)
	return snap
}

// PositionSnapshot — публичный доступ для /status и т.п.
func (e *Engine) PositionSnapshot(instrument string) models.PositionSnapshot {
	return e.positionSnapshot(instrument)
}

// marketAnalysis — сводка рынка (кеш внутри анализатора).
func (e *Engine) marketAnalysis(instrument string) models.MarketAnalysis {
	if e.analyzer == nil {
		return models.MarketAnalysis{
			Instrument: instrument,
			Direction:  models.DirectionUnclear,
			Bias:       "no analyzer",
			At:         e.now(),
		}
	}
	return e.analyzer.Analysis(instrument)
}

// MarketAnalysis — публичный доступ.
func (e *Engine) MarketAnalysis(instrument string) models.MarketAnalysis {
	return e.marketAnalysis(instrument)
}

// LastPrice — последний тик из sub-second кеша.
func (e *Engine) LastPrice(instrument string) (models.PriceTick, bool) {
	return e.prices.TryGet(instrument)
}
