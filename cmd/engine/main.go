package main

import (
	"context"
	"log"

	"trade_engine/internal/engine"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/feed"
	"trade_engine/internal/modules/health"
	"trade_engine/internal/modules/postgres"
	"trade_engine/internal/modules/telegram"
	"trade_engine/pkg/logger"
	"trade_engine/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			tracing.SetServiceName(cfg.Service.Name)
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("tracing: init: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
		postgres.Module(),
		engine.Module(),
		feed.Module(),
		telegram.Module(),
		health.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	_ = app.Stop(context.Background())
}
