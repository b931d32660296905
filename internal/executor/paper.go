package executor

import (
	"fmt"
	"sync"
	"time"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// Paper — бумажный исполнитель: заполнение по последней цене фида,
// учёт баланса/эквити и просадки. Для прогонов без брокера и для тестов.
type Paper struct {
	mu sync.RWMutex

	prices    map[string]float64
	positions map[int64]models.Position
	next      int64

	balance    float64
	equityPeak float64

	// лимит открытых позиций на инструмент, 0 = без лимита
	maxPerInstrument int

	tradingAllowed bool

	Now func() time.Time
}

func NewPaper(balance float64, maxPerInstrument int) *Paper {
	return &Paper{
		prices:           make(map[string]float64),
		positions:        make(map[int64]models.Position),
		next:             1,
		balance:          balance,
		equityPeak:       balance,
		maxPerInstrument: maxPerInstrument,
		tradingAllowed:   true,
		Now:              time.Now,
	}
}

// SetPrice — фид обновляет последнюю цену; от неё считаем плавающий профит.
func (p *Paper) SetPrice(instrument string, px float64) {
	p.mu.Lock()
	p.prices[instrument] = px
	p.mu.Unlock()
}

func (p *Paper) Price(instrument string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.prices[instrument]
}

func (p *Paper) SetTradingAllowed(v bool) {
	p.mu.Lock()
	p.tradingAllowed = v
	p.mu.Unlock()
}

func (p *Paper) IsTradingAllowed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tradingAllowed
}

func (p *Paper) countLocked(instrument string) int {
	n := 0
	for _, pos := range p.positions {
		if pos.Instrument == instrument {
			n++
		}
	}
	return n
}

func (p *Paper) CanOpenNewPosition(instrument string, isBuy bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.tradingAllowed {
		return false
	}
	if _, ok := p.prices[instrument]; !ok {
		return false // без цены не заполним
	}
	return p.maxPerInstrument == 0 || p.countLocked(instrument) < p.maxPerInstrument
}

func (p *Paper) CanAddToPosition(instrument string, isBuy bool) bool {
	return p.CanOpenNewPosition(instrument, isBuy)
}

func (p *Paper) OpenPosition(instrument string, isBuy bool, volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	px, ok := p.prices[instrument]
	if !ok {
		return fmt.Errorf("paper: no price for %s", instrument)
	}
	if volume <= 0 {
		return fmt.Errorf("paper: bad volume %.4f", volume)
	}
	t := p.next
	p.next++
	p.positions[t] = models.Position{
		Ticket:     t,
		Instrument: instrument,
		IsBuy:      isBuy,
		Volume:     volume,
		EntryPrice: px,
		OpenedAt:   p.Now(),
	}
	return nil
}

func (p *Paper) AddToPosition(instrument string, isBuy bool, volume float64) error {
	// в бумажной модели долив — просто ещё один тикет той же стороны
	return p.OpenPosition(instrument, isBuy, volume)
}

func (p *Paper) floatingLocked(pos models.Position) float64 {
	px, ok := p.prices[pos.Instrument]
	if !ok {
		return 0
	}
	if pos.IsBuy {
		return (px - pos.EntryPrice) * pos.Volume
	}
	return (pos.EntryPrice - px) * pos.Volume
}

func (p *Paper) ClosePosition(ticket int64) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	pos, ok := p.positions[ticket]
	if !ok {
		return 0, fmt.Errorf("paper: ticket %d not found", ticket)
	}
	profit := p.floatingLocked(pos)
	p.balance += profit
	delete(p.positions, ticket)
	p.updatePeakLocked()
	return profit, nil
}

func (p *Paper) CloseAllPositions(instrument string) (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var total float64
	closed := 0
	for t, pos := range p.positions {
		if pos.Instrument != instrument {
			continue
		}
		total += p.floatingLocked(pos)
		delete(p.positions, t)
		closed++
	}
	if closed == 0 {
		return 0, false
	}
	p.balance += total
	p.updatePeakLocked()
	logger.Debug("paper: closed %d positions on %s, pnl=%.2f", closed, instrument, total)
	return total, true
}

func (p *Paper) OpenPositions(instrument string) []models.Position {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.Position, 0, 4)
	for _, pos := range p.positions {
		if instrument == "" || pos.Instrument == instrument {
			pos.Profit = p.floatingLocked(pos)
			out = append(out, pos)
		}
	}
	return out
}

func (p *Paper) PositionCount(instrument string) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.countLocked(instrument)
}

func (p *Paper) AveragePrice(instrument string, isBuy bool) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var vol, notional float64
	for _, pos := range p.positions {
		if pos.Instrument == instrument && pos.IsBuy == isBuy {
			vol += pos.Volume
			notional += pos.EntryPrice * pos.Volume
		}
	}
	if vol == 0 {
		return 0
	}
	return notional / vol
}

func (p *Paper) TotalProfit(instrument string) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var total float64
	for _, pos := range p.positions {
		if pos.Instrument == instrument {
			total += p.floatingLocked(pos)
		}
	}
	return total
}

func (p *Paper) equityLocked() float64 {
	eq := p.balance
	for _, pos := range p.positions {
		eq += p.floatingLocked(pos)
	}
	return eq
}

func (p *Paper) updatePeakLocked() {
	if eq := p.equityLocked(); eq > p.equityPeak {
		p.equityPeak = eq
	}
}

// CurrentDrawdown — процент от пика эквити.
func (p *Paper) CurrentDrawdown() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.equityPeak <= 0 {
		return 0
	}
	eq := p.equityLocked()
	if eq >= p.equityPeak {
		return 0
	}
	return 100 * (p.equityPeak - eq) / p.equityPeak
}

func (p *Paper) Balance() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balance
}
