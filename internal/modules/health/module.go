package health

import (
	"context"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"trade_engine/internal/engine"
	"trade_engine/internal/modules/config"
	"trade_engine/internal/modules/health/service"

	"github.com/bytedance/sonic"
)

func NewMux(state *service.State, e *engine.Engine) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		// liveness: процесс жив
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		// readiness: движок собран и инструменты зарегистрированы
		if !state.Ready() || len(e.Instruments()) == 0 {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		// полезный JSON для отладки
		prof := e.Profile()
		stats := e.DailyStats()
		resp := map[string]any{
			"ready":       state.Ready(),
			"uptimeSec":   int64(state.Uptime().Seconds()),
			"instruments": e.Instruments(),
			"decisions":   prof.Decisions,
			"cacheHits":   prof.DecisionCacheHits,
			"dispatches":  prof.Dispatches,
			"tradesToday": stats.Trades,
			"profitToday": stats.TotalProfit,
		}
		w.Header().Set("Content-Type", "application/json")
		payload, _ := sonic.Marshal(resp)
		_, _ = w.Write(payload)
	})

	return mux
}

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, state *service.State, mux *http.ServeMux) {
	srv := &http.Server{
		Addr:              cfg.Health.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.Health.Addr)
			if err != nil {
				return err
			}
			state.SetReady(true)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			state.SetReady(false)
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("health",
		fx.Provide(
			service.NewState,
			NewMux,
		),
		fx.Invoke(RunHTTP),
	)
}
