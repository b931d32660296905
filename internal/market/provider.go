package market

import (
	"math"
	"time"

	"trade_engine/internal/engine/cache"
	"trade_engine/internal/models"

	talib "github.com/markcheno/go-talib"
)

// SignalProvider — сменный источник сигнала. Дефолт ниже, но любая
// внешняя реализация подставляется на лету.
type SignalProvider interface {
	Confidence(instrument string) float64 // 0..100
	Direction(instrument string) models.Direction
	IsRanging(instrument string) bool
}

// ProviderConfig — периоды дефолтного провайдера.
type ProviderConfig struct {
	EMAFast   int
	EMASlow   int
	ATRPeriod int
	// разделение EMA меньше этой доли ATR считаем флэтом
	RangingFactor float64
	IndicatorTTL  time.Duration
}

func (c *ProviderConfig) withDefaults() ProviderConfig {
	out := *c
	if out.EMAFast <= 0 {
		out.EMAFast = 9
	}
	if out.EMASlow <= 0 {
		out.EMASlow = 21
	}
	if out.ATRPeriod <= 0 {
		out.ATRPeriod = 14
	}
	if out.RangingFactor <= 0 {
		out.RangingFactor = 0.25
	}
	if out.IndicatorTTL <= 0 {
		out.IndicatorTTL = 60 * time.Second
	}
	return out
}

// Provider — дефолтный сигнальщик: направление из отношения fast/slow EMA,
// волатильность и флэт — из ATR. Значения индикаторов живут в 60s-кеше,
// сами расчёты talib за тиком не гоняем.
type Provider struct {
	cfg        ProviderConfig
	window     *Window
	indicators *cache.TTLCache[models.IndicatorValues]
}

func NewProvider(cfg ProviderConfig, w *Window) *Provider {
	full := cfg.withDefaults()
	return &Provider{
		cfg:        full,
		window:     w,
		indicators: cache.NewTTL[models.IndicatorValues](full.IndicatorTTL),
	}
}

// Indicators считает (или берёт из кеша) значения по инструменту.
// Данных меньше медленного периода — ok=false.
func (p *Provider) Indicators(instrument string) (models.IndicatorValues, bool) {
	if v, hit := p.indicators.TryGet(instrument); hit {
		return v, true
	}

	high, low, close_ := p.window.Series(instrument)
	need := p.cfg.EMASlow
	if p.cfg.ATRPeriod+1 > need {
		need = p.cfg.ATRPeriod + 1
	}
	if len(close_) < need {
		return models.IndicatorValues{}, false
	}

	emaFast := talib.Ema(close_, p.cfg.EMAFast)
	emaSlow := talib.Ema(close_, p.cfg.EMASlow)
	atr := talib.Atr(high, low, close_, p.cfg.ATRPeriod)

	v := models.IndicatorValues{
		EMAFast: emaFast[len(emaFast)-1],
		EMASlow: emaSlow[len(emaSlow)-1],
		ATR:     atr[len(atr)-1],
		Price:   close_[len(close_)-1],
		At:      p.indicators.Now(),
	}
	p.indicators.Put(instrument, v)
	return v, true
}

// Confidence — сила сигнала 0..100: насколько EMA разошлись в единицах ATR.
func (p *Provider) Confidence(instrument string) float64 {
	v, ok := p.Indicators(instrument)
	if !ok || v.ATR <= 0 {
		return 50 // нет данных — нейтрально
	}
	sep := math.Abs(v.EMAFast-v.EMASlow) / v.ATR
	conf := 50 + 50*sep/3.0 // 3 ATR разлёта = максимум
	if conf > 100 {
		conf = 100
	}
	return conf
}

func (p *Provider) Direction(instrument string) models.Direction {
	v, ok := p.Indicators(instrument)
	if !ok {
		return models.DirectionUnclear
	}
	if p.isRangingValues(v) {
		return models.DirectionRanging
	}
	switch {
	case v.EMAFast > v.EMASlow:
		return models.DirectionBullish
	case v.EMAFast < v.EMASlow:
		return models.DirectionBearish
	}
	return models.DirectionUnclear
}

func (p *Provider) IsRanging(instrument string) bool {
	v, ok := p.Indicators(instrument)
	if !ok {
		return false
	}
	return p.isRangingValues(v)
}

func (p *Provider) isRangingValues(v models.IndicatorValues) bool {
	if v.ATR <= 0 {
		return false
	}
	return math.Abs(v.EMAFast-v.EMASlow) < p.cfg.RangingFactor*v.ATR
}

// InvalidateIndicators — сброс 60s-кеша (дерегистрация или InvalidateAll).
func (p *Provider) InvalidateIndicators(instrument string) {
	if instrument == "" {
		p.indicators.InvalidateAll()
		return
	}
	p.indicators.Remove(instrument)
}

// Drop освобождает всё по инструменту: и кеш, и окно свечей.
func (p *Provider) Drop(instrument string) {
	p.indicators.Remove(instrument)
	p.window.Drop(instrument)
}
