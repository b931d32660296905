package journal

import (
	"sync"

	"trade_engine/internal/models"
)

// Ring — трейд-лог фиксированной ёмкости. Старые записи перезаписываются,
// буфер никогда не растёт. Общий для всех инструментов, поэтому под мьютексом.
type Ring struct {
	mu    sync.Mutex
	buf   []models.TradeLogEntry
	next  int // позиция следующей записи
	total int // всего append'ов за всё время
}

const DefaultCapacity = 256

func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]models.TradeLogEntry, capacity)}
}

func (r *Ring) Append(e models.TradeLogEntry) {
	r.mu.Lock()
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	r.total++
	r.mu.Unlock()
}

// History отдаёт n последних записей, свежие первыми.
// n больше ёмкости или числа записей — отдаём сколько есть.
func (r *Ring) History(n int) []models.TradeLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.total
	if stored > len(r.buf) {
		stored = len(r.buf)
	}
	if n > stored {
		n = stored
	}
	if n <= 0 {
		return nil
	}

	out := make([]models.TradeLogEntry, 0, n)
	idx := r.next - 1
	for i := 0; i < n; i++ {
		if idx < 0 {
			idx += len(r.buf)
		}
		out = append(out, r.buf[idx])
		idx--
	}
	return out
}

func (r *Ring) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total
}

func (r *Ring) Capacity() int { return len(r.buf) }
