package service

import (
	"sync"

	"github.com/annelo/go-parkour-server/internal/metrics"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// InputQueue — ограниченная очередь событий ввода между сетевыми
// горутинами и тик-циклом. При переполнении отбрасывается самое старое
// событие: свежая позиция игрока всегда ценнее устаревшей.
type InputQueue struct {
	mu     sync.Mutex
	events []worldinterfaces.InputEvent
	cap    int
}

// NewInputQueue создает очередь ввода указанной ёмкости.
func NewInputQueue(capacity int) *InputQueue {
	if capacity <= 0 {
		capacity = 4096
	}
	return &InputQueue{
		events: make([]worldinterfaces.InputEvent, 0, capacity),
		cap:    capacity,
	}
}

// Push добавляет событие, вытесняя самое старое при переполнении.
func (q *InputQueue) Push(ev worldinterfaces.InputEvent) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.cap {
		copy(q.events, q.events[1:])
		q.events = q.events[:len(q.events)-1]
		metrics.InputEventsDropped.Inc()
	}
	q.events = append(q.events, ev)
}

// Drain забирает все накопленные события в порядке поступления.
func (q *InputQueue) Drain() []worldinterfaces.InputEvent {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := q.events
	q.events = make([]worldinterfaces.InputEvent, 0, q.cap)
	return out
}

// Len возвращает текущее число событий в очереди.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
