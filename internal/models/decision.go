package models

import "time"

// TradeConditions — шесть независимых гейтов. Пересчитываются на каждое
// решение под конкретное действие-кандидат, поэтому не кешируются.
type TradeConditions struct {
	ConfidenceMet  bool `json:"confidence_met"`
	DirectionOK    bool `json:"direction_ok"`
	PositionLimit  bool `json:"position_limit"`
	NotInCooldown  bool `json:"not_in_cooldown"`
	TradingHours   bool `json:"trading_hours"`
	RiskManagerOK  bool `json:"risk_manager_ok"`
}

// AllMet — агрегат для объяснимости. Исполнение гейтит валидатор, не он.
func (tc TradeConditions) AllMet() bool {
	return tc.ConfidenceMet && tc.DirectionOK && tc.PositionLimit &&
		tc.NotInCooldown && tc.TradingHours && tc.RiskManagerOK
}

// DecisionRecord — последнее решение по инструменту, хранится для
// аудита/реплея и для decision-кеша.
type DecisionRecord struct {
	Instrument string
	Action     Action
	Confidence float64
	Direction  Direction
	Reason     string
	Conditions TradeConditions
	Snapshot   PositionSnapshot
	Analysis   MarketAnalysis
	At         time.Time
}
