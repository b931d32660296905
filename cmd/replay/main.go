// Реплей трейд-лога из postgres: последние записи плюс сводка по дню.
// DSN берётся из DATABASE_DSN либо первым аргументом.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"trade_engine/internal/journal"
	"trade_engine/internal/models"
	"trade_engine/pkg/db"
)

func main() {
	limit := flag.Int("n", 100, "сколько последних записей поднять")
	flag.Parse()

	dsn := os.Getenv("DATABASE_DSN")
	if flag.NArg() > 0 {
		dsn = flag.Arg(0)
	}
	if dsn == "" {
		log.Fatal("replay: DSN не задан (DATABASE_DSN или аргумент)")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, db.PoolConfig{DSN: dsn})
	if err != nil {
		log.Fatalf("replay: pool: %v", err)
	}
	defer pool.Close()

	w := journal.NewPgWriter(db.NewPgTxManager(pool))
	entries, err := w.History(ctx, *limit)
	if err != nil {
		log.Fatalf("replay: history: %v", err)
	}
	if len(entries) == 0 {
		fmt.Println("журнал пуст")
		return
	}

	// History отдаёт свежие первыми, печатаем хронологически
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		mark := "ok"
		if !e.Executed {
			mark = "FAIL"
		}
		fmt.Printf("%s  %-8s %-12s conf=%5.1f  %d→%d  profit=%8.2f  [%s] %s\n",
			e.At.Format("2006-01-02 15:04:05"), e.Instrument, e.Action,
			e.Confidence, e.CountBefore, e.CountAfter, e.Profit, mark, e.Detail)
	}

	fmt.Println()
	printSummary(entries)
}

// printSummary прогоняет записи через ту же дневную статистику, что и рантайм.
func printSummary(entries []models.TradeLogEntry) {
	byDay := make(map[string]*models.DailyStats)
	var days []string
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		day := e.At.Format("2006-01-02")
		s, ok := byDay[day]
		if !ok {
			s = &models.DailyStats{Day: day}
			byDay[day] = s
			days = append(days, day)
		}
		journal.Accumulate(s, e)
	}

	for _, day := range days {
		s := byDay[day]
		fmt.Printf("%s: сделок %d (buy %d / sell %d), W/L %d/%d, winrate %.0f%%, profit %.2f, expectancy %.2f\n",
			s.Day, s.Trades, s.BuyTrades, s.SellTrades,
			s.Wins, s.Losses, s.WinRate(), s.TotalProfit, s.Expectancy())
	}
}
