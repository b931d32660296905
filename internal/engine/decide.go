package engine

import (
	"fmt"
	"math"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// Decide — один проход решателя: состояние позиций × confidence × направление
// → одно из десяти действий. Невалидный вход даёт None и не трогает ни кеши,
// ни кулдауны.
func (e *Engine) Decide(instrument string, confidence float64, direction models.Direction) models.Action {
	cfg, ok := e.Config(instrument)
	if !ok {
		e.countInputError()
		logger.Error("engine: decide for unregistered instrument %q", instrument)
		return models.ActionNone
	}
	if confidence < 0 || confidence > 100 || math.IsNaN(confidence) {
		e.countInputError()
		logger.Error("engine: [%s] confidence %.2f out of range, decision skipped", instrument, confidence)
		return models.ActionNone
	}

	// decision-кеш: то же направление и confidence в пределах шага —
	// отдаём прошлое действие, провайдеров и исполнителя не дёргаем
	if rec, hit := e.decCache.TryGet(instrument); hit {
		if rec.Direction == direction &&
			math.Abs(rec.Confidence-confidence) < e.settings.DecisionConfidenceStep {
			e.mu.Lock()
			e.prof.DecisionCacheHits++
			e.mu.Unlock()
			return rec.Action
		}
	}

	snapshot := e.positionSnapshot(instrument)
	analysis := e.marketAnalysis(instrument)

	action, reason := e.route(&cfg, confidence, direction, &snapshot, &analysis)
	conds := e.evaluateConditions(&cfg, confidence, direction, action)

	if action.IsActionable() && !e.Validate(instrument, action, confidence) {
		e.mu.Lock()
		e.prof.ValidationFails++
		e.mu.Unlock()
		logger.Info("engine: [%s] %s failed validation, downgraded to HOLD", instrument, action)
		action = models.ActionHold
		reason = reason + "; validation failed"
	}

	rec := models.DecisionRecord{
		Instrument: instrument,
		Action:     action,
		Confidence: confidence,
		Direction:  direction,
		Reason:     reason,
		Conditions: conds,
		Snapshot:   snapshot,
		Analysis:   analysis,
		At:         e.now(),
	}

	e.mu.Lock()
	e.decisions[instrument] = &rec
	e.prof.Decisions++
	sink := e.sink
	e.mu.Unlock()

	e.decCache.Put(instrument, rec)

	if sink != nil && action.IsLoggable() {
		sink.Begin(instrument)
		sink.Append("action", action)
		sink.Append("confidence", fmt.Sprintf("%.1f", confidence))
		sink.Append("direction", direction)
		sink.Append("state", snapshot.State())
		sink.Append("conditions_met", conds.AllMet())
		sink.Append("reason", reason)
		sink.Flush()
	}
	return action
}

// route — маршрутизация по состоянию позиций:
// open / add / hold / fold / close-all.
func (e *Engine) route(
	cfg *models.InstrumentConfig,
	confidence float64,
	direction models.Direction,
	snapshot *models.PositionSnapshot,
	analysis *models.MarketAnalysis,
) (models.Action, string) {
	state := snapshot.State()

	if state == models.NoPosition {
		return e.decideOpen(cfg, confidence, direction)
	}

	// кулдаун по удерживаемой стороне — короткое замыкание в Thinking
	if (state == models.HasBuy || state == models.HasBoth) && e.sideInCooldown(cfg, true) {
		return models.ActionThinking, "buy side in cooldown"
	}
	if (state == models.HasSell || state == models.HasBoth) && e.sideInCooldown(cfg, false) {
		return models.ActionThinking, "sell side in cooldown"
	}

	// флэт — только hold-ветка, confidence не смотрим
	if e.isRanging(cfg.Instrument, analysis) {
		return e.decideHold(cfg, confidence, direction, state, "market is ranging")
	}

	if confidence < cfg.CloseAllBelow {
		return models.ActionCloseAll,
			fmt.Sprintf("confidence %.1f below close-all %.1f", confidence, cfg.CloseAllBelow)
	}
	if confidence < cfg.CloseThreshold {
		return e.decideFold(cfg, confidence, state)
	}
	if confidence >= cfg.AddThreshold {
		if a, reason, ok := e.decideAdd(cfg, confidence, direction, state); ok {
			return a, reason
		}
	}
	return e.decideHold(cfg, confidence, direction, state, "confidence in hold band")
}

// decideOpen: buy оценивается первым — при двойном совпадении выигрывает buy.
func (e *Engine) decideOpen(cfg *models.InstrumentConfig, confidence float64, direction models.Direction) (models.Action, string) {
	if confidence >= cfg.BuyThreshold &&
		(direction == models.DirectionBullish || direction == models.DirectionUnclear) &&
		!e.sideInCooldown(cfg, true) &&
		e.exec != nil && e.exec.CanOpenNewPosition(cfg.Instrument, true) {
		return models.ActionOpenBuy,
			fmt.Sprintf("confidence %.1f >= buy %.1f, direction %s", confidence, cfg.BuyThreshold, direction)
	}
	if confidence >= cfg.SellThreshold &&
		(direction == models.DirectionBearish || direction == models.DirectionUnclear) &&
		!e.sideInCooldown(cfg, false) &&
		e.exec != nil && e.exec.CanOpenNewPosition(cfg.Instrument, false) {
		return models.ActionOpenSell,
			fmt.Sprintf("confidence %.1f >= sell %.1f, direction %s", confidence, cfg.SellThreshold, direction)
	}
	return models.ActionThinking, "no actionable signal yet"
}

// decideFold закрывает удерживаемую сторону. При HasBoth за один вызов
// закрывается только одна сторона (buy первой); полный выход — CloseAll
// или два последовательных решения.
func (e *Engine) decideFold(cfg *models.InstrumentConfig, confidence float64, state models.PositionState) (models.Action, string) {
	reason := fmt.Sprintf("confidence %.1f below close %.1f", confidence, cfg.CloseThreshold)
	switch state {
	case models.HasBuy, models.HasBoth:
		return models.ActionCloseBuy, reason
	case models.HasSell:
		return models.ActionCloseSell, reason
	}
	return models.ActionHold, reason
}

// decideAdd: долив только при точном совпадении направления — Unclear,
// достаточный для открытия, для долива не годится.
func (e *Engine) decideAdd(cfg *models.InstrumentConfig, confidence float64, direction models.Direction, state models.PositionState) (models.Action, string, bool) {
	reason := fmt.Sprintf("confidence %.1f >= add %.1f, direction %s", confidence, cfg.AddThreshold, direction)
	canAdd := func(isBuy bool) bool {
		return e.exec != nil && e.exec.CanAddToPosition(cfg.Instrument, isBuy)
	}
	if (state == models.HasBuy || state == models.HasBoth) &&
		direction == models.DirectionBullish && canAdd(true) {
		return models.ActionAddBuy, reason, true
	}
	if (state == models.HasSell || state == models.HasBoth) &&
		direction == models.DirectionBearish && canAdd(false) {
		return models.ActionAddSell, reason, true
	}
	return models.ActionNone, "", false
}

// decideHold: закрытие из hold-ветки только при развороте против
// удерживаемой стороны вместе с confidence ниже порога закрытия.
func (e *Engine) decideHold(cfg *models.InstrumentConfig, confidence float64, direction models.Direction, state models.PositionState, why string) (models.Action, string) {
	if confidence < cfg.CloseThreshold {
		if (state == models.HasBuy || state == models.HasBoth) && direction == models.DirectionBearish {
			return models.ActionCloseBuy, why + "; reversal against buy"
		}
		if (state == models.HasSell || state == models.HasBoth) && direction == models.DirectionBullish {
			return models.ActionCloseSell, why + "; reversal against sell"
		}
	}
	return models.ActionHold, why
}

// sideInCooldown — гейт кулдауна. При выключенном CooldownGating всегда
// false: записи ведутся, но решения не блокируются (наследие исходного
// движка, см. Settings).
func (e *Engine) sideInCooldown(cfg *models.InstrumentConfig, isBuy bool) bool {
	if !e.settings.CooldownGating || cfg.Cooldown <= 0 {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	cd, ok := e.cooldowns[cfg.Instrument]
	if !ok {
		return false
	}
	last := cd.SellLastAt
	if isBuy {
		last = cd.BuyLastAt
	}
	if last.IsZero() {
		return false
	}
	return e.now().Sub(last) < cfg.Cooldown
}

// isRanging: при выключенном RangingDetection рынок "никогда не во флэте".
func (e *Engine) isRanging(instrument string, analysis *models.MarketAnalysis) bool {
	if !e.settings.RangingDetection {
		return false
	}
	if analysis != nil && analysis.IsRanging {
		return true
	}
	if p := e.provider(); p != nil {
		return p.IsRanging(instrument)
	}
	return false
}

func (e *Engine) countInputError() {
	e.mu.Lock()
	e.prof.InputErrors++
	e.mu.Unlock()
}
