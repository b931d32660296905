package market

import (
	"sync"

	"trade_engine/internal/models"
)

// Window — скользящее окно свечей на инструмент, кормит индикаторы.
type Window struct {
	mu      sync.RWMutex
	size    int
	candles map[string][]models.Candle
}

const DefaultWindowSize = 128

func NewWindow(size int) *Window {
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Window{size: size, candles: make(map[string][]models.Candle)}
}

func (w *Window) Push(instrument string, c models.Candle) {
	w.mu.Lock()
	buf := append(w.candles[instrument], c)
	if len(buf) > w.size {
		buf = buf[len(buf)-w.size:]
	}
	w.candles[instrument] = buf
	w.mu.Unlock()
}

// Series отдаёт копии OHLC-рядов (talib мутировать не даём).
func (w *Window) Series(instrument string) (high, low, close_ []float64) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	buf := w.candles[instrument]
	high = make([]float64, len(buf))
	low = make([]float64, len(buf))
	close_ = make([]float64, len(buf))
	for i, c := range buf {
		high[i], low[i], close_[i] = c.High, c.Low, c.Close
	}
	return high, low, close_
}

func (w *Window) Len(instrument string) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.candles[instrument])
}

// Drop выбрасывает ряд инструмента (дерегистрация).
func (w *Window) Drop(instrument string) {
	w.mu.Lock()
	delete(w.candles, instrument)
	w.mu.Unlock()
}
