package models

import "time"

// TradeLogEntry — одна запись трейд-лога (кольцевой буфер + опционально pg).
type TradeLogEntry struct {
	At          time.Time
	Instrument  string
	Action      Action
	Confidence  float64
	Executed    bool
	Profit      float64 // реализованный, если был close
	CountBefore int
	CountAfter  int
	Detail      string
}

// DailyStats — статистика текущего торгового дня.
// Сбрасывается целиком при смене календарной даты.
type DailyStats struct {
	Day         string // YYYY-MM-DD
	Trades      int
	Wins        int
	Losses      int
	TotalProfit float64
	GrossWin    float64
	GrossLoss   float64 // отрицательная сумма
	LargestWin  float64
	LargestLoss float64
	BuyTrades   int
	SellTrades  int
}

// WinRate — процент прибыльных закрытий за день.
func (s *DailyStats) WinRate() float64 {
	closed := s.Wins + s.Losses
	if closed == 0 {
		return 0
	}
	return 100 * float64(s.Wins) / float64(closed)
}

// Expectancy — матожидание на сделку: wr*avgWin - (1-wr)*avgLoss.
func (s *DailyStats) Expectancy() float64 {
	closed := s.Wins + s.Losses
	if closed == 0 {
		return 0
	}
	var avgWin, avgLoss float64
	if s.Wins > 0 {
		avgWin = s.GrossWin / float64(s.Wins)
	}
	if s.Losses > 0 {
		avgLoss = -s.GrossLoss / float64(s.Losses)
	}
	wr := float64(s.Wins) / float64(closed)
	return wr*avgWin - (1-wr)*avgLoss
}
