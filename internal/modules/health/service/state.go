package service

import (
	"sync/atomic"
	"time"
)

// State — живость процесса для /readyz. Готовность выставляет запуск
// HTTP-сервера.
type State struct {
	ready     atomic.Bool
	startedAt time.Time
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
