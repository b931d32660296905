package engine

import (
	"context"
	"fmt"

	"trade_engine/internal/models"
	"trade_engine/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// Dispatch исполняет действие через исполнителя. None/Hold/Thinking — no-op.
// Кулдаун стороны потребляется и при неудаче: попытка была, повторные
// штормы на каждом тике нам не нужны. Ретраев нет — следующий тик сам
// переоценит ситуацию.
func (e *Engine) Dispatch(ctx context.Context, instrument string, action models.Action, confidence float64) {
	if !action.IsActionable() {
		return
	}
	span, _ := opentracing.StartSpanFromContext(ctx, "engine.dispatch")
	span.SetTag("instrument", instrument)
	span.SetTag("action", action.String())
	defer span.Finish()

	countBefore := 0
	if e.exec != nil {
		countBefore = e.exec.PositionCount(instrument)
	}

	executed, profit, detail := e.execute(instrument, action)

	// кулдаун — независимо от исхода
	e.touchCooldown(instrument, action)

	countAfter := countBefore
	if e.exec != nil {
		countAfter = e.exec.PositionCount(instrument)
	}

	entry := models.TradeLogEntry{
		At:          e.now(),
		Instrument:  instrument,
		Action:      action,
		Confidence:  confidence,
		Executed:    executed,
		Profit:      profit,
		CountBefore: countBefore,
		CountAfter:  countAfter,
		Detail:      detail,
	}
	e.ring.Append(entry)
	e.stats.Record(entry)

	e.mu.Lock()
	e.prof.Dispatches++
	pg := e.pg
	sink := e.sink
	var rec *models.DecisionRecord
	if d, ok := e.decisions[instrument]; ok {
		cp := *d
		rec = &cp
	}
	e.mu.Unlock()

	if pg != nil {
		if err := pg.Insert(ctx, entry, rec); err != nil {
			logger.Error("engine: [%s] journal insert: %v", instrument, err)
		}
	}

	// после сделки состояние позиций другое: корректность кешей важнее хитрейта
	e.decCache.Invalidate(instrument)
	e.snapshots.Invalidate(instrument)

	if !executed {
		logger.Error("engine: [%s] %s failed: %s", instrument, action, detail)
	}
	if sink != nil && executed {
		sink.Note("✅ [%s] %s @ conf %.1f, pnl=%.2f, positions %d→%d",
			instrument, action, confidence, profit, countBefore, countAfter)
	}
}

// execute — маппинг действия на операции исполнителя.
func (e *Engine) execute(instrument string, action models.Action) (executed bool, profit float64, detail string) {
	if e.exec == nil {
		return false, 0, "no executor attached"
	}
	vol := e.settings.DefaultVolume

	switch action {
	case models.ActionOpenBuy, models.ActionOpenSell:
		err := e.exec.OpenPosition(instrument, action == models.ActionOpenBuy, vol)
		if err != nil {
			return false, 0, fmt.Sprintf("open: %v", err)
		}
		return true, 0, fmt.Sprintf("opened %.2f", vol)

	case models.ActionAddBuy, models.ActionAddSell:
		err := e.exec.AddToPosition(instrument, action == models.ActionAddBuy, vol)
		if err != nil {
			return false, 0, fmt.Sprintf("add: %v", err)
		}
		return true, 0, fmt.Sprintf("added %.2f", vol)

	case models.ActionCloseBuy, models.ActionCloseSell:
		return e.closeSide(instrument, action == models.ActionCloseBuy)

	case models.ActionCloseAll:
		pnl, ok := e.exec.CloseAllPositions(instrument)
		if !ok {
			return false, 0, "close all: nothing closed"
		}
		return true, pnl, "closed all"
	}
	return false, 0, fmt.Sprintf("unsupported action %s", action)
}

// closeSide закрывает все тикеты одной стороны.
func (e *Engine) closeSide(instrument string, isBuy bool) (bool, float64, string) {
	var total float64
	closed := 0
	for _, pos := range e.exec.OpenPositions(instrument) {
		if pos.IsBuy != isBuy {
			continue
		}
		pnl, err := e.exec.ClosePosition(pos.Ticket)
		if err != nil {
			// без ретраев: логируем брокерскую деталь и идём дальше
			logger.Error("engine: [%s] close ticket %d: %v", instrument, pos.Ticket, err)
			continue
		}
		total += pnl
		closed++
	}
	if closed == 0 {
		return false, 0, "close side: nothing closed"
	}
	return true, total, fmt.Sprintf("closed %d tickets", closed)
}

// touchCooldown отмечает попытку действия на стороне (или обеих для CloseAll).
func (e *Engine) touchCooldown(instrument string, action models.Action) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cd, ok := e.cooldowns[instrument]
	if !ok {
		return
	}
	now := e.now()
	if action.IsBuySide() || action == models.ActionCloseAll {
		cd.BuyLastAt = now
		cd.BuyCount++
	}
	if action.IsSellSide() || action == models.ActionCloseAll {
		cd.SellLastAt = now
		cd.SellCount++
	}
}
