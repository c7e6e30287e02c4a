// Package gameloop реализует основной игровой цикл сервера с
// фиксированным тиком и изоляцией паник по системам.
package gameloop

import (
	"context"
	"log"
	"time"

	"github.com/annelo/go-parkour-server/internal/metrics"
)

// Loop — игровой цикл с фиксированным интервалом тика.
type Loop struct {
	tick    time.Duration
	deps    Dependencies
	systems []System
}

// NewLoop создает игровой цикл и инициализирует все системы.
func NewLoop(tick time.Duration, deps Dependencies, systems ...System) (*Loop, error) {
	l := &Loop{
		tick:    tick,
		deps:    deps,
		systems: systems,
	}
	for _, s := range systems {
		if err := s.Init(deps); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Run запускает цикл и блокируется до отмены контекста. Паника в одной
// системе логируется и не валит ни цикл, ни остальные системы.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Println("[GameLoop] остановлен")
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			start := time.Now()
			for _, s := range l.systems {
				l.runSystem(ctx, s, dt)
			}
			metrics.TicksTotal.Inc()
			metrics.TickDuration.Observe(time.Since(start).Seconds())
		}
	}
}

func (l *Loop) runSystem(ctx context.Context, s System, dt time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[GameLoop] паника в системе %s: %v", s.Name(), r)
		}
	}()
	s.Tick(ctx, dt)
}
