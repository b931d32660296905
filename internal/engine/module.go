package engine

import (
	"context"
	"time"

	"trade_engine/internal/engine/cache"
	"trade_engine/internal/executor"
	"trade_engine/internal/journal"
	"trade_engine/internal/market"
	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	"trade_engine/pkg/db"
	"trade_engine/pkg/logger"

	"go.uber.org/fx"
)

func newTicksChan() chan models.PriceTick {
	return make(chan models.PriceTick, 4096)
}
func asSendOnlyTicks(ch chan models.PriceTick) chan<- models.PriceTick { return ch }

func newCandlesChan() chan models.CandleTick {
	return make(chan models.CandleTick, 1024)
}
func asSendOnlyCandles(ch chan models.CandleTick) chan<- models.CandleTick { return ch }

func newWindow() *market.Window {
	return market.NewWindow(market.DefaultWindowSize)
}

func newProvider(cfg *config.Config, w *market.Window) *market.Provider {
	return market.NewProvider(market.ProviderConfig{
		EMAFast:       cfg.Provider.EMAFast,
		EMASlow:       cfg.Provider.EMASlow,
		ATRPeriod:     cfg.Provider.ATRPeriod,
		RangingFactor: cfg.Provider.RangingFactor,
		IndicatorTTL:  cfg.Provider.IndicatorTTL,
	}, w)
}

func newAnalyzer(p *market.Provider) *market.Analyzer {
	return market.NewAnalyzer(p, market.DefaultAnalysisTTL)
}

func newPaper(cfg *config.Config) *executor.Paper {
	return executor.NewPaper(cfg.Paper.Balance, cfg.Paper.MaxPerInstrument)
}

// newEngine собирает движок из конфига: кеши, paper-исполнитель, журнал в pg
// (если есть DSN) и регистрация инструментов из пресетов.
func newEngine(
	ctx context.Context,
	cfg *config.Config,
	paper *executor.Paper,
	analyzer *market.Analyzer,
	tm *db.PgTxManager,
) (*Engine, error) {
	cache.SetTestingMode(cfg.Engine.TestingMode)

	e := New(Settings{
		CooldownGating:   cfg.Engine.CooldownGating,
		RangingDetection: cfg.Engine.RangingDetection,
		PriceTTL:         cfg.Engine.PriceTTL,
		PositionTTL:      cfg.Engine.PositionTTL,
		DecisionTTL:      cfg.Engine.DecisionTTL,
		DefaultVolume:    cfg.Engine.DefaultVolume,
		RingCapacity:     cfg.Engine.RingCapacity,
	}, paper, analyzer)

	// tm == nil — постгреса нет, журнал остаётся в памяти
	if tm != nil {
		w := journal.NewPgWriter(tm)
		if err := w.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		e.SetPgWriter(w)
	}

	presets, err := config.LoadInstruments(cfg.InstrumentsFile)
	if err != nil {
		return nil, err
	}
	for _, ic := range presets {
		if err := e.Register(ic); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Module поднимает движок и единственную горутину-насос событий: тики,
// свечи и таймер сходятся в один select, решения принимаются последовательно.
func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			newTicksChan,
			asSendOnlyTicks,
			newCandlesChan,
			asSendOnlyCandles,
			newWindow,
			newProvider,
			newAnalyzer,
			newPaper,
			newEngine,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			e *Engine,
			w *market.Window,
			paper *executor.Paper,
			ticks chan models.PriceTick,
			candles chan models.CandleTick,
			cfg *config.Config,
			ctx context.Context,
		) {
			interval := cfg.Engine.TimerInterval
			if interval <= 0 {
				interval = 10 * time.Second
			}
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						logger.Info("engine: event loop started, timer %s", interval)
						timer := time.NewTicker(interval)
						defer timer.Stop()
						for {
							select {
							case <-ctx.Done():
								logger.Info("engine: event loop stopped")
								return
							case t, ok := <-ticks:
								if !ok {
									return
								}
								paper.SetPrice(t.Instrument, tickPrice(t))
								e.OnTick(ctx, t)
							case c, ok := <-candles:
								if !ok {
									return
								}
								w.Push(c.Instrument, c.Candle)
							case <-timer.C:
								e.OnTimer(ctx)
							}
						}
					}()
					return nil
				},
			})
		}),
	)
}

// tickPrice: last, а без него середина спреда.
func tickPrice(t models.PriceTick) float64 {
	if t.Last > 0 {
		return t.Last
	}
	return (t.Bid + t.Ask) / 2
}
