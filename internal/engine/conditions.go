package engine

import "trade_engine/internal/models"

// evaluateConditions — шесть гейтов под конкретное действие-кандидат.
// Агрегат нужен для объяснимости ("почему"), исполнение гейтит валидатор.
func (e *Engine) evaluateConditions(
	cfg *models.InstrumentConfig,
	confidence float64,
	direction models.Direction,
	action models.Action,
) models.TradeConditions {
	tc := models.TradeConditions{
		TradingHours:  true,
		RiskManagerOK: false,
	}

	// 1. confidence против порога полярности действия
	switch action {
	case models.ActionOpenBuy:
		tc.ConfidenceMet = confidence >= cfg.BuyThreshold
	case models.ActionOpenSell:
		tc.ConfidenceMet = confidence >= cfg.SellThreshold
	case models.ActionAddBuy, models.ActionAddSell:
		tc.ConfidenceMet = confidence >= cfg.AddThreshold
	case models.ActionCloseBuy, models.ActionCloseSell:
		tc.ConfidenceMet = confidence < cfg.CloseThreshold
	case models.ActionCloseAll:
		tc.ConfidenceMet = confidence < cfg.CloseAllBelow
	default:
		tc.ConfidenceMet = true
	}

	// 2. направление — только для open/add
	switch action {
	case models.ActionOpenBuy:
		tc.DirectionOK = direction == models.DirectionBullish || direction == models.DirectionUnclear
	case models.ActionOpenSell:
		tc.DirectionOK = direction == models.DirectionBearish || direction == models.DirectionUnclear
	case models.ActionAddBuy:
		tc.DirectionOK = direction == models.DirectionBullish
	case models.ActionAddSell:
		tc.DirectionOK = direction == models.DirectionBearish
	default:
		tc.DirectionOK = true
	}

	// 3. лимит позиций — живой счётчик исполнителя, не кеш
	tc.PositionLimit = true
	if action.IsOpenOrAdd() && e.exec != nil && cfg.MaxPositions > 0 {
		tc.PositionLimit = e.exec.PositionCount(cfg.Instrument) < cfg.MaxPositions
	}

	// 4. кулдаун той же стороны
	switch {
	case action.IsBuySide():
		tc.NotInCooldown = !e.sideInCooldown(cfg, true)
	case action.IsSellSide():
		tc.NotInCooldown = !e.sideInCooldown(cfg, false)
	default:
		tc.NotInCooldown = true
	}

	// 5. торговые часы — хук, без календаря всегда true
	e.mu.Lock()
	hours := e.hours
	risk := e.risk
	e.mu.Unlock()
	if hours != nil {
		tc.TradingHours = hours.WithinTradingHours(cfg.Instrument, e.now())
	}

	// 6. risk-гейт: true только когда риск-менеджер подключён
	tc.RiskManagerOK = risk != nil

	return tc
}
