package models

import "time"

// PositionState — агрегат открытых позиций инструмента.
type PositionState string

const (
	NoPosition PositionState = "NO_POSITION"
	HasBuy     PositionState = "HAS_BUY"
	HasSell    PositionState = "HAS_SELL"
	HasBoth    PositionState = "HAS_BOTH"
)

// Position — живая позиция, как её отдаёт исполнитель.
type Position struct {
	Ticket     int64
	Instrument string
	IsBuy      bool
	Volume     float64
	EntryPrice float64
	Profit     float64 // плавающий
	OpenedAt   time.Time
}

// PositionSnapshot — срез позиций, живёт в 2s-кеше.
type PositionSnapshot struct {
	Instrument  string
	BuyCount    int
	SellCount   int
	BuyVolume   float64
	SellVolume  float64
	AvgBuyPx    float64
	AvgSellPx   float64
	TotalProfit float64
	OldestOpen  time.Time
	NewestOpen  time.Time
	At          time.Time
}

func (s *PositionSnapshot) State() PositionState {
	switch {
	case s.BuyCount > 0 && s.SellCount > 0:
		return HasBoth
	case s.BuyCount > 0:
		return HasBuy
	case s.SellCount > 0:
		return HasSell
	}
	return NoPosition
}

func (s *PositionSnapshot) Total() int { return s.BuyCount + s.SellCount }

// BuildSnapshot собирает срез из живого списка позиций.
func BuildSnapshot(instrument string, positions []Position, now time.Time) PositionSnapshot {
	snap := PositionSnapshot{Instrument: instrument, At: now}
	var buyNotional, sellNotional float64
	for _, p := range positions {
		if p.Instrument != instrument {
			continue
		}
		if p.IsBuy {
			snap.BuyCount++
			snap.BuyVolume += p.Volume
			buyNotional += p.EntryPrice * p.Volume
		} else {
			snap.SellCount++
			snap.SellVolume += p.Volume
			sellNotional += p.EntryPrice * p.Volume
		}
		snap.TotalProfit += p.Profit
		if snap.OldestOpen.IsZero() || p.OpenedAt.Before(snap.OldestOpen) {
			snap.OldestOpen = p.OpenedAt
		}
		if p.OpenedAt.After(snap.NewestOpen) {
			snap.NewestOpen = p.OpenedAt
		}
	}
	if snap.BuyVolume > 0 {
		snap.AvgBuyPx = buyNotional / snap.BuyVolume
	}
	if snap.SellVolume > 0 {
		snap.AvgSellPx = sellNotional / snap.SellVolume
	}
	return snap
}
