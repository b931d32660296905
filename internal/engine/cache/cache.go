// Package cache — TTL-кеши движка. Каждый кеш независим: свой TTL,
// своя инвалидация. Глобальный testing mode выключает кеширование целиком,
// не трогая логику решателя.
package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

var testingMode atomic.Bool

// SetTestingMode: true — каждый TryGet промахивается, каждый Put — no-op.
// Нужен для детерминированных тестов без ветвления в решателе.
func SetTestingMode(on bool) { testingMode.Store(on) }

func TestingMode() bool { return testingMode.Load() }

type entry[V any] struct {
	value V
	at    time.Time
}

// TTLCache — кеш значение-на-инструмент с единым TTL.
type TTLCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry[V]

	// Now подменяется в тестах.
	Now func() time.Time
}

func NewTTL[V any](ttl time.Duration) *TTLCache[V] {
	return &TTLCache[V]{
		ttl:     ttl,
		entries: make(map[string]entry[V]),
		Now:     time.Now,
	}
}

func (c *TTLCache[V]) TTL() time.Duration { return c.ttl }

// TryGet: hit = (now - stamp) < TTL. В testing mode — всегда промах.
func (c *TTLCache[V]) TryGet(instrument string) (V, bool) {
	var zero V
	if testingMode.Load() {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[instrument]
	if !ok {
		return zero, false
	}
	if c.Now().Sub(e.at) >= c.ttl {
		return zero, false
	}
	return e.value, true
}

// Put всегда штампует текущее время.
func (c *TTLCache[V]) Put(instrument string, v V) {
	if testingMode.Load() {
		return
	}
	c.mu.Lock()
	c.entries[instrument] = entry[V]{value: v, at: c.Now()}
	c.mu.Unlock()
}

// Invalidate сбрасывает запись инструмента, Remove удаляет её совсем
// (Remove — при дерегистрации, чтобы перерегистрация не видела старое).
func (c *TTLCache[V]) Invalidate(instrument string) {
	c.mu.Lock()
	delete(c.entries, instrument)
	c.mu.Unlock()
}

func (c *TTLCache[V]) Remove(instrument string) { c.Invalidate(instrument) }

// InvalidateAll принудительно выбрасывает всё: позиции могли измениться
// вне нашего диспатча (внешняя трейд-транзакция).
func (c *TTLCache[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len — для профилирования и тестов.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
