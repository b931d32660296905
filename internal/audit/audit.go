// Package audit — сток структурированного аудита решений.
// Ядро обязано работать и без стока: nil везде допустим.
package audit

import (
	"fmt"
	"strings"
	"sync"

	"trade_engine/pkg/logger"
)

// Sink — жизненный цикл start/append/flush плюс простая текстовая заметка.
type Sink interface {
	// Begin открывает контекст записи по инструменту.
	Begin(instrument string)
	// Append добавляет пару ключ/значение в открытый контекст.
	Append(key string, value any)
	// Flush публикует накопленный контекст и очищает его.
	Flush()
	// Note — свободный текст вне контекста.
	Note(format string, args ...any)
}

// Log — сток в zap-логгер. Контекст собирается в одну строку,
// чтобы решение читалось целиком.
type Log struct {
	mu   sync.Mutex
	inst string
	kv   []string
}

func NewLog() *Log { return &Log{} }

func (l *Log) Begin(instrument string) {
	l.mu.Lock()
	l.inst = instrument
	l.kv = l.kv[:0]
	l.mu.Unlock()
}

func (l *Log) Append(key string, value any) {
	l.mu.Lock()
	l.kv = append(l.kv, fmt.Sprintf("%s=%v", key, value))
	l.mu.Unlock()
}

func (l *Log) Flush() {
	l.mu.Lock()
	inst, kv := l.inst, strings.Join(l.kv, " ")
	l.inst, l.kv = "", l.kv[:0]
	l.mu.Unlock()
	if kv == "" {
		return
	}
	logger.Info("[AUDIT] %s %s", inst, kv)
}

func (l *Log) Note(format string, args ...any) {
	logger.Info("[AUDIT] "+format, args...)
}

// Multi рассылает в несколько стоков (логгер + телеграм).
type Multi []Sink

func (m Multi) Begin(instrument string) {
	for _, s := range m {
		s.Begin(instrument)
	}
}
func (m Multi) Append(key string, value any) {
	for _, s := range m {
		s.Append(key, value)
	}
}
func (m Multi) Flush() {
	for _, s := range m {
		s.Flush()
	}
}
func (m Multi) Note(format string, args ...any) {
	for _, s := range m {
		s.Note(format, args...)
	}
}
