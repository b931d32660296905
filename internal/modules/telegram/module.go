package telegram

import (
	"context"

	"trade_engine/internal/audit"
	"trade_engine/internal/engine"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/telegram/service"
	"trade_engine/pkg/logger"

	"go.uber.org/fx"
)

// Module подключает телеграм как второй сток аудита и канал команд.
// Токен не задан — движок остаётся на лог-стоке, это не ошибка.
func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			func(cfg *config.Config, e *engine.Engine) (*service.Telegram, error) {
				if cfg.Telegram.Token == "" {
					logger.Info("telegram: token not set, audit goes to log only")
					return nil, nil
				}
				return service.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, e)
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, t *service.Telegram, e *engine.Engine, ctx context.Context) {
			if t == nil {
				e.SetAuditSink(audit.NewLog())
				return
			}
			e.SetAuditSink(audit.Multi{audit.NewLog(), t})
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go t.Start(ctx)
					return nil
				},
			})
		}),
	)
}
