package journal

import (
	"sync"
	"time"

	"trade_engine/internal/models"
)

// Stats — дневная статистика с детектом смены даты.
// Сброс происходит до записи первой сделки нового дня.
type Stats struct {
	mu  sync.Mutex
	cur models.DailyStats
	now func() time.Time
}

func NewStats(now func() time.Time) *Stats {
	if now == nil {
		now = time.Now
	}
	s := &Stats{now: now}
	s.cur.Day = dayOf(now())
	return s
}

func dayOf(t time.Time) string { return t.Format("2006-01-02") }

// Record учитывает одну запись трейд-лога.
// profit != 0 трактуем как реализованный результат закрытия.
func (s *Stats) Record(e models.TradeLogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := dayOf(e.At)
	if day != s.cur.Day {
		// новый день — статистика с нуля
		s.cur = models.DailyStats{Day: day}
	}
	Accumulate(&s.cur, e)
}

// Accumulate учитывает запись в агрегате дня. Вынесено отдельно,
// cmd/replay пересчитывает этой же логикой исторический журнал.
func Accumulate(s *models.DailyStats, e models.TradeLogEntry) {
	s.Trades++
	if e.Action.IsBuySide() {
		s.BuyTrades++
	}
	if e.Action.IsSellSide() {
		s.SellTrades++
	}

	if e.Profit != 0 {
		s.TotalProfit += e.Profit
		if e.Profit > 0 {
			s.Wins++
			s.GrossWin += e.Profit
			if e.Profit > s.LargestWin {
				s.LargestWin = e.Profit
			}
		} else {
			s.Losses++
			s.GrossLoss += e.Profit
			if e.Profit < s.LargestLoss {
				s.LargestLoss = e.Profit
			}
		}
	}
}

// Snapshot — копия текущего дня.
func (s *Stats) Snapshot() models.DailyStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur
}
