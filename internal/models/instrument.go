package models

import "time"

// InstrumentConfig — пороги и лимиты одного инструмента.
// После регистрации меняется только через Engine.UpdateConfig.
type InstrumentConfig struct {
	Instrument string `yaml:"instrument"`

	// Пороги confidence (0..100)
	BuyThreshold   float64 `yaml:"buy_threshold"`
	SellThreshold  float64 `yaml:"sell_threshold"`
	AddThreshold   float64 `yaml:"add_threshold"`
	CloseThreshold float64 `yaml:"close_threshold"` // ниже — фолдим удерживаемую сторону
	CloseAllBelow  float64 `yaml:"close_all_below"` // ниже — аварийный полный выход

	Cooldown     time.Duration `yaml:"cooldown"`
	MaxPositions int           `yaml:"max_positions"`
	RiskPct      float64       `yaml:"risk_pct"`
}

// Validate — базовая проверка порогов при регистрации.
func (c *InstrumentConfig) Validate() error {
	if c.Instrument == "" {
		return ErrEmptyInstrument
	}
	if c.CloseAllBelow > c.CloseThreshold {
		return ErrThresholdOrder
	}
	return nil
}

// CooldownRecord — последняя попытка действия по стороне.
// Обновляется только диспетчером, в том числе при неудачном исполнении.
type CooldownRecord struct {
	Instrument string
	BuyLastAt  time.Time
	SellLastAt time.Time
	BuyCount   int
	SellCount  int
}
