package feed

import (
	"context"

	"trade_engine/internal/engine"
	"trade_engine/internal/models"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/feed/service"

	"go.uber.org/fx"
)

// Module поднимает стример цен и свечей. Список инструментов берём у
// движка: что зарегистрировано, на то и подписываемся.
func Module() fx.Option {
	return fx.Module("feed",
		fx.Provide(
			func(cfg *config.Config, e *engine.Engine) *service.Client {
				return service.NewClient(cfg.Feed.URL, cfg.Feed.Timeframe, cfg.Feed.Ping, e.Instruments())
			},
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			c *service.Client,
			ticks chan<- models.PriceTick,
			candles chan<- models.CandleTick,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					c.Start(ctx, ticks, candles)
					return nil
				},
			})
		}),
	)
}
