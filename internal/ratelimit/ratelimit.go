// Package ratelimit реализует скользящее окно подсчёта запросов по ключу
// идентичности. Хранилище локально для процесса и не синхронизируется между
// репликами: лимитер защищает от злоупотреблений, а не ведёт биллинговый учёт.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// SweepInterval — период фоновой очистки просроченных записей.
const SweepInterval = 5 * time.Minute

// Decision — результат проверки запроса лимитером.
type Decision struct {
	Allowed    bool          // Пропущен ли запрос
	Limit      int           // Максимум запросов в окне
	Remaining  int           // Остаток квоты в текущем окне
	ResetAt    time.Time     // Момент сброса окна
	RetryAfter time.Duration // Через сколько можно повторить (при отказе)
}

type entry struct {
	count   int
	resetAt time.Time
}

// Limiter — лимитер с фиксированным окном и максимумом запросов.
// На каждый ключ существует не более одной записи; запись пересоздаётся,
// когда её окно истекло.
type Limiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	entries map[string]*entry
}

// New создает лимитер с заданным окном и максимумом запросов в окне.
func New(window time.Duration, max int) *Limiter {
	return &Limiter{
		window:  window,
		max:     max,
		entries: make(map[string]*entry),
	}
}

// Window возвращает длительность окна лимитера.
func (l *Limiter) Window() time.Duration { return l.window }

// Check регистрирует запрос по ключу и решает, пропускать ли его.
func (l *Limiter) Check(key string, now time.Time) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok || !e.resetAt.After(now) {
		e = &entry{count: 1, resetAt: now.Add(l.window)}
		l.entries[key] = e
		return Decision{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - 1,
			ResetAt:   e.resetAt,
		}
	}

	if e.count < l.max {
		e.count++
		return Decision{
			Allowed:   true,
			Limit:     l.max,
			Remaining: l.max - e.count,
			ResetAt:   e.resetAt,
		}
	}

	return Decision{
		Allowed:    false,
		Limit:      l.max,
		Remaining:  0,
		ResetAt:    e.resetAt,
		RetryAfter: e.resetAt.Sub(now),
	}
}

// StartSweeper запускает фоновую очистку просроченных записей,
// чтобы ограничить память. Останавливается при отмене контекста.
func (l *Limiter) StartSweeper(ctx context.Context, every time.Duration) {
	if every <= 0 {
		every = SweepInterval
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.Sweep(now)
			}
		}
	}()
}

// Sweep удаляет записи, окно которых уже истекло.
func (l *Limiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, e := range l.entries {
		if !e.resetAt.After(now) {
			delete(l.entries, key)
		}
	}
}

// Len возвращает количество живых записей.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
