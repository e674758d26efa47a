// Package taskqueue реализует внутрипроцессную очередь фоновых задач
// с ограничением числа одновременно выполняемых задач. Задачи сверх лимита
// ждут в порядке поступления. Очередь не переживает перезапуск процесса:
// всё, что не успело выполниться, теряется.
package taskqueue

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mindwellhq/mindwell-backend/internal/lib/sl"
)

// DefaultLimit — предел одновременных задач по умолчанию.
const DefaultLimit = 3

// Job — единица фоновой работы. Ошибка задачи не доходит до отправителя:
// она логируется, передаётся в hook (если задан) и на этом забывается.
type Job func(ctx context.Context) error

// Option настраивает очередь при создании.
type Option func(*Queue)

// WithFailureHook задаёт наблюдателя ошибок задач. Hook вызывается
// для каждой упавшей задачи; контракт «ошибки не распространяются» сохраняется.
func WithFailureHook(hook func(error)) Option {
	return func(q *Queue) { q.onFailure = hook }
}

// Queue — очередь задач с ограниченной конкурентностью.
// Submit не блокируется и не сообщает о завершении; длина очереди не ограничена.
type Queue struct {
	log   *slog.Logger
	limit int

	mu      sync.Mutex
	running int
	pending []Job

	onFailure func(error)
	ctx       context.Context
}

// New создает очередь с заданным пределом одновременных задач.
// При limit <= 0 используется DefaultLimit. Контекст передаётся задачам
// и живёт до остановки процесса: отмена выполняющихся задач не гарантируется.
func New(ctx context.Context, limit int, log *slog.Logger, opts ...Option) *Queue {
	if limit <= 0 {
		limit = DefaultLimit
	}
	q := &Queue{
		log:   log,
		limit: limit,
		ctx:   ctx,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit ставит задачу в очередь и сразу возвращает управление.
// Если есть свободный слот, задача стартует немедленно, иначе ждёт своей
// очереди в порядке FIFO.
func (q *Queue) Submit(job Job) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running < q.limit {
		q.running++
		go q.run(job)
		return
	}
	q.pending = append(q.pending, job)
}

// run выполняет задачу и по её завершении запускает следующую ожидающую.
func (q *Queue) run(job Job) {
	defer q.done()
	defer func() {
		if r := recover(); r != nil {
			q.log.Error("background job panicked", slog.Any("panic", r))
		}
	}()

	if err := job(q.ctx); err != nil {
		q.log.Error("background job failed", sl.Err(err))
		if q.onFailure != nil {
			q.onFailure(err)
		}
	}
}

// done освобождает слот и стартует следующую задачу, если она есть.
func (q *Queue) done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) > 0 {
		next := q.pending[0]
		q.pending = q.pending[1:]
		go q.run(next)
		return
	}
	q.running--
}

// Running возвращает количество выполняющихся задач.
func (q *Queue) Running() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Len возвращает количество ожидающих задач.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
