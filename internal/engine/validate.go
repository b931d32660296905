package engine

import (
	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// Validate — последний рубеж перед исполнением: тот же порог, что видел
// решатель (защита от гонок через кеши), плюс живой "торговля разрешена"
// от исполнителя. Никогда не возвращает ошибку — только false;
// вызывающий понижает действие до Hold.
func (e *Engine) Validate(instrument string, action models.Action, confidence float64) bool {
	if !action.IsActionable() {
		return true
	}
	cfg, ok := e.Config(instrument)
	if !ok {
		return false
	}

	switch action {
	case models.ActionOpenBuy:
		if confidence < cfg.BuyThreshold {
			return false
		}
	case models.ActionOpenSell:
		if confidence < cfg.SellThreshold {
			return false
		}
	case models.ActionAddBuy, models.ActionAddSell:
		if confidence < cfg.AddThreshold {
			return false
		}
	case models.ActionCloseBuy, models.ActionCloseSell:
		if confidence >= cfg.CloseThreshold {
			return false
		}
	case models.ActionCloseAll:
		if confidence >= cfg.CloseAllBelow {
			return false
		}
	}

	// исполнитель отсутствует — деградируем в "нельзя", не падаем
	if e.exec == nil {
		logger.Error("engine: [%s] no executor attached, %s rejected", instrument, action)
		return false
	}
	return e.exec.IsTradingAllowed()
}
