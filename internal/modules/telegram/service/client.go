package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"trade_engine/internal/engine"
	"trade_engine/pkg/logger"

	tgbot "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram — уведомления о сделках плюс пара команд наблюдения за движком.
// Реализует audit.Sink: накопленный контекст решения уходит одним сообщением.
type Telegram struct {
	bot    *tgbot.BotAPI
	chatID int64
	e      *engine.Engine

	mu   sync.Mutex
	inst string
	kv   []string
}

func NewTelegram(token string, chatID int64, e *engine.Engine) (*Telegram, error) {
	b, err := tgbot.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{
		bot:    b,
		chatID: chatID,
		e:      e,
	}, nil
}

func (t *Telegram) Send(ctx context.Context, msg string) {
	if _, err := t.bot.Send(tgbot.NewMessage(t.chatID, msg)); err != nil {
		logger.Error("telegram: send: %v", err)
	}
}

func (t *Telegram) Sendf(ctx context.Context, format string, args ...any) {
	t.Send(ctx, fmt.Sprintf(format, args...))
}

// ----- audit.Sink -----

func (t *Telegram) Begin(instrument string) {
	t.mu.Lock()
	t.inst = instrument
	t.kv = t.kv[:0]
	t.mu.Unlock()
}

func (t *Telegram) Append(key string, value any) {
	t.mu.Lock()
	t.kv = append(t.kv, fmt.Sprintf("%s: %v", key, value))
	t.mu.Unlock()
}

func (t *Telegram) Flush() {
	t.mu.Lock()
	inst, kv := t.inst, strings.Join(t.kv, "\n")
	t.inst, t.kv = "", t.kv[:0]
	t.mu.Unlock()
	if kv == "" {
		return
	}
	t.Send(context.Background(), fmt.Sprintf("📋 %s\n%s", inst, kv))
}

func (t *Telegram) Note(format string, args ...any) {
	t.Sendf(context.Background(), format, args...)
}

// ----- команды -----

// Start крутит update-loop до закрытия канала.
func (t *Telegram) Start(ctx context.Context) {
	u := tgbot.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.handleUpdate(ctx, update)
		}
	}
}

func (t *Telegram) handleUpdate(ctx context.Context, update tgbot.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}
	switch update.Message.Command() {
	case "status":
		t.Send(ctx, t.statusText())
	case "stats":
		t.Send(ctx, t.statsText())
	case "history":
		t.Send(ctx, t.historyText())
	default:
		t.Send(ctx, "Команды: /status /stats /history")
	}
}

func (t *Telegram) statusText() string {
	insts := t.e.Instruments()
	if len(insts) == 0 {
		return "📭 Инструменты не зарегистрированы"
	}

	var b strings.Builder
	b.WriteString("📊 Состояние движка\n")
	for _, inst := range insts {
		snap := t.e.PositionSnapshot(inst)
		fmt.Fprintf(&b, "\n%s: %s, buy=%d sell=%d profit=%.2f",
			inst, snap.State(), snap.BuyCount, snap.SellCount, snap.TotalProfit)
		if d, ok := t.e.LastDecision(inst); ok {
			fmt.Fprintf(&b, "\n  последнее: %s (conf %.0f, %s)", d.Action, d.Confidence, d.Direction)
		}
		if px, ok := t.e.LastPrice(inst); ok {
			fmt.Fprintf(&b, "\n  цена: %.5f", px.Last)
		}
	}
	return b.String()
}

func (t *Telegram) statsText() string {
	s := t.e.DailyStats()
	if s.Trades == 0 {
		return "📭 Сегодня сделок не было"
	}
	return fmt.Sprintf(
		"📈 Статистика за %s\nСделок: %d (buy %d / sell %d)\nW/L: %d/%d, winrate %.0f%%\nProfit: %.2f\nExpectancy: %.2f",
		s.Day, s.Trades, s.BuyTrades, s.SellTrades,
		s.Wins, s.Losses, s.WinRate(), s.TotalProfit, s.Expectancy(),
	)
}

func (t *Telegram) historyText() string {
	hist := t.e.TradeHistory(10)
	if len(hist) == 0 {
		return "📭 Журнал пуст"
	}
	var b strings.Builder
	b.WriteString("🧾 Последние сделки\n")
	for _, h := range hist {
		mark := "✅"
		if !h.Executed {
			mark = "❌"
		}
		fmt.Fprintf(&b, "%s %s %s conf=%.0f profit=%.2f\n",
			mark, h.At.Format("15:04:05"), h.Action, h.Confidence, h.Profit)
	}
	return b.String()
}
