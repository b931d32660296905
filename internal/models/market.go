package models

import "time"

// Direction — классификация рынка от сигнального провайдера.
type Direction string

const (
	DirectionBullish Direction = "BULLISH"
	DirectionBearish Direction = "BEARISH"
	DirectionRanging Direction = "RANGING"
	DirectionUnclear Direction = "UNCLEAR"
)

func (d Direction) String() string { return string(d) }

func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionBullish, DirectionBearish, DirectionRanging, DirectionUnclear:
		return Direction(s)
	}
	return DirectionUnclear
}

// MarketAnalysis — сводка по инструменту, живёт в 5s-кеше.
type MarketAnalysis struct {
	Instrument    string
	Direction     Direction
	TrendStrength float64 // 0..100
	IsRanging     bool
	VolatilityPct float64 // ATR/price * 100
	Bias          string  // человекочитаемое резюме
	At            time.Time
}

// PriceTick — то, что приходит из фида.
type PriceTick struct {
	Instrument string
	Bid        float64
	Ask        float64
	Last       float64
	At         time.Time
}

// Candle — универсальная свеча для индикаторов.
type Candle struct {
	Open, High, Low, Close float64
	Volume                 float64
	Start                  time.Time
}

// CandleTick — закрытая свеча из фида с привязкой к инструменту.
type CandleTick struct {
	Instrument string
	Candle     Candle
}

// IndicatorValues — сырые значения под анализ, живут в 60s-кеше.
type IndicatorValues struct {
	EMAFast float64
	EMASlow float64
	ATR     float64
	Price   float64
	At      time.Time
}
