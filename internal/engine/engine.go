// Package engine — ядро принятия решений: по каждому инструменту на каждый
// вызов ровно одно действие из десяти, с учётом порогов, лимитов, кулдаунов
// и слоя TTL-кешей.
package engine

import (
	"context"
	"sync"
	"time"

	"trade_engine/internal/audit"
	"trade_engine/internal/engine/cache"
	"trade_engine/internal/executor"
	"trade_engine/internal/journal"
	"trade_engine/internal/market"
	"trade_engine/internal/models"
	"trade_engine/pkg/logger"
)

// TradingCalendar — хук торговых часов. Не подключён — торгуем всегда.
type TradingCalendar interface {
	WithinTradingHours(instrument string, t time.Time) bool
}

// Settings — поведение движка целиком, инструментные пороги живут
// в models.InstrumentConfig.
type Settings struct {
	// CooldownGating: false — кулдаун учитывается (записи обновляются),
	// но НЕ гейтит решения. Так вёл себя исходный движок, поведение
	// сохранено как явный выбор конфигурации.
	CooldownGating bool
	// RangingDetection: false — рынок "никогда не во флэте", ranging-ветка
	// выключена. Тоже осознанное наследие, включается конфигом.
	RangingDetection bool

	PriceTTL    time.Duration
	PositionTTL time.Duration
	DecisionTTL time.Duration
	// решение из кеша валидно только пока confidence не уехал на >= этот шаг
	DecisionConfidenceStep float64

	DefaultVolume float64
	RingCapacity  int
}

func (s Settings) withDefaults() Settings {
	if s.PriceTTL <= 0 {
		s.PriceTTL = 500 * time.Millisecond
	}
	if s.PositionTTL <= 0 {
		s.PositionTTL = 2 * time.Second
	}
	if s.DecisionTTL <= 0 {
		s.DecisionTTL = 5 * time.Second
	}
	if s.DecisionConfidenceStep <= 0 {
		s.DecisionConfidenceStep = 1.0
	}
	if s.DefaultVolume <= 0 {
		s.DefaultVolume = 1.0
	}
	if s.RingCapacity <= 0 {
		s.RingCapacity = journal.DefaultCapacity
	}
	return s
}

// Profile — лёгкие счётчики для самодиагностики.
type Profile struct {
	Decisions         uint64
	DecisionCacheHits uint64
	SnapshotRebuilds  uint64
	Dispatches        uint64
	ValidationFails   uint64
	InputErrors       uint64
}

type Engine struct {
	mu sync.Mutex

	settings Settings
	exec     executor.Executor
	risk     executor.RiskAuthority // опционален: само подключение включает risk-гейт
	analyzer *market.Analyzer
	sink     audit.Sink // опционален
	hours    TradingCalendar

	ring  *journal.Ring
	stats *journal.Stats
	pg    *journal.PgWriter // опционален

	// порядок регистрации важен: итерация и тай-брейки стабильны
	order     []string
	configs   map[string]*models.InstrumentConfig
	cooldowns map[string]*models.CooldownRecord
	decisions map[string]*models.DecisionRecord

	prices    *cache.TTLCache[models.PriceTick]
	snapshots *cache.TTLCache[models.PositionSnapshot]
	decCache  *cache.TTLCache[models.DecisionRecord]

	now  func() time.Time
	prof Profile
}

func New(settings Settings, exec executor.Executor, analyzer *market.Analyzer) *Engine {
	s := settings.withDefaults()
	e := &Engine{
		settings:  s,
		exec:      exec,
		analyzer:  analyzer,
		configs:   make(map[string]*models.InstrumentConfig),
		cooldowns: make(map[string]*models.CooldownRecord),
		decisions: make(map[string]*models.DecisionRecord),
		prices:    cache.NewTTL[models.PriceTick](s.PriceTTL),
		snapshots: cache.NewTTL[models.PositionSnapshot](s.PositionTTL),
		decCache:  cache.NewTTL[models.DecisionRecord](s.DecisionTTL),
		now:       time.Now,
	}
	e.ring = journal.NewRing(s.RingCapacity)
	e.stats = journal.NewStats(e.Now)
	return e
}

// Now — часы движка, подменяются в тестах вместе с часами кешей.
func (e *Engine) Now() time.Time { return e.now() }

// SetClock подменяет часы движка и всех его кешей разом.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
	e.prices.Now = now
	e.snapshots.Now = now
	e.decCache.Now = now
}

func (e *Engine) SetRiskAuthority(r executor.RiskAuthority) {
	e.mu.Lock()
	e.risk = r
	e.mu.Unlock()
}

func (e *Engine) SetAuditSink(s audit.Sink) {
	e.mu.Lock()
	e.sink = s
	e.mu.Unlock()
}

func (e *Engine) SetCalendar(c TradingCalendar) {
	e.mu.Lock()
	e.hours = c
	e.mu.Unlock()
}

func (e *Engine) SetPgWriter(w *journal.PgWriter) {
	e.mu.Lock()
	e.pg = w
	e.mu.Unlock()
}

// ----- регистрация -----

func (e *Engine) Register(cfg models.InstrumentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.configs[cfg.Instrument]; exists {
		return e.updateLocked(cfg)
	}
	c := cfg
	e.configs[cfg.Instrument] = &c
	e.cooldowns[cfg.Instrument] = &models.CooldownRecord{Instrument: cfg.Instrument}
	e.order = append(e.order, cfg.Instrument)
	logger.Info("engine: registered %s (buy>=%.0f sell>=%.0f add>=%.0f close<%.0f closeAll<%.0f)",
		cfg.Instrument, cfg.BuyThreshold, cfg.SellThreshold, cfg.AddThreshold,
		cfg.CloseThreshold, cfg.CloseAllBelow)
	return nil
}

// Unregister выбрасывает инструмент и всё его состояние: конфиг, кулдаун,
// последнее решение, все кеши, ряд индикаторов. Перерегистрация под тем же
// именем стартует с чистого листа.
func (e *Engine) Unregister(instrument string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.configs[instrument]; !ok {
		return
	}
	delete(e.configs, instrument)
	delete(e.cooldowns, instrument)
	delete(e.decisions, instrument)
	for i, id := range e.order {
		if id == instrument {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.prices.Remove(instrument)
	e.snapshots.Remove(instrument)
	e.decCache.Remove(instrument)
	if e.analyzer != nil {
		e.analyzer.Invalidate(instrument)
		if def, ok := e.analyzer.Provider().(*market.Provider); ok {
			def.Drop(instrument)
		}
	}
	logger.Info("engine: unregistered %s", instrument)
}

func (e *Engine) updateLocked(cfg models.InstrumentConfig) error {
	c := cfg
	e.configs[cfg.Instrument] = &c
	// пороги изменились — закешированное решение больше не объяснимо ими
	e.decCache.Invalidate(cfg.Instrument)
	return nil
}

func (e *Engine) UpdateConfig(cfg models.InstrumentConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.configs[cfg.Instrument]; !ok {
		return models.ErrUnknownInstrument
	}
	return e.updateLocked(cfg)
}

func (e *Engine) Config(instrument string) (models.InstrumentConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.configs[instrument]
	if !ok {
		return models.InstrumentConfig{}, false
	}
	return *c, true
}

// Instruments — в порядке регистрации.
func (e *Engine) Instruments() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

func (e *Engine) LastDecision(instrument string) (models.DecisionRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.decisions[instrument]
	if !ok {
		return models.DecisionRecord{}, false
	}
	return *d, true
}

func (e *Engine) Cooldown(instrument string) (models.CooldownRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.cooldowns[instrument]
	if !ok {
		return models.CooldownRecord{}, false
	}
	return *c, true
}

func (e *Engine) Profile() Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prof
}

func (e *Engine) DailyStats() models.DailyStats { return e.stats.Snapshot() }

func (e *Engine) TradeHistory(n int) []models.TradeLogEntry { return e.ring.History(n) }

// ----- события хоста -----

// OnTick — основной вход: цена пришла, решаем по её инструменту.
func (e *Engine) OnTick(ctx context.Context, tick models.PriceTick) {
	e.prices.Put(tick.Instrument, tick)

	if _, ok := e.Config(tick.Instrument); !ok {
		return // не наш инструмент
	}
	p := e.provider()
	if p == nil {
		return
	}
	conf := p.Confidence(tick.Instrument)
	dir := p.Direction(tick.Instrument)
	e.Process(ctx, tick.Instrument, conf, dir)
}

// OnTimer обходит все инструменты в порядке регистрации.
func (e *Engine) OnTimer(ctx context.Context) {
	p := e.provider()
	if p == nil {
		return
	}
	for _, inst := range e.Instruments() {
		e.Process(ctx, inst, p.Confidence(inst), p.Direction(inst))
	}
}

// OnTradeTransaction — позиции могли измениться мимо нашего диспатча,
// корректность кешей важнее hit-rate: выбрасываем всё.
func (e *Engine) OnTradeTransaction() {
	e.prices.InvalidateAll()
	e.snapshots.InvalidateAll()
	e.decCache.InvalidateAll()
	if e.analyzer != nil {
		e.analyzer.Invalidate("")
		if def, ok := e.analyzer.Provider().(*market.Provider); ok {
			def.InvalidateIndicators("")
		}
	}
}

func (e *Engine) provider() market.SignalProvider {
	if e.analyzer == nil {
		return nil
	}
	return e.analyzer.Provider()
}

// Process — решение плюс исполнение, если есть что исполнять.
func (e *Engine) Process(ctx context.Context, instrument string, confidence float64, direction models.Direction) models.Action {
	action := e.Decide(instrument, confidence, direction)
	if action.IsActionable() {
		e.Dispatch(ctx, instrument, action, confidence)
	}
	return action
}
