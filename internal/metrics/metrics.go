// Package metrics содержит счётчики Prometheus для наблюдаемости сервера.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal — количество выполненных игровых тиков.
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_ticks_total",
		Help: "Количество игровых тиков",
	})

	// SegmentsGenerated — количество сгенерированных сегментов трассы.
	SegmentsGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_segments_generated_total",
		Help: "Количество сгенерированных сегментов",
	})

	// SegmentsEvicted — количество вычищенных сегментов.
	SegmentsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_segments_evicted_total",
		Help: "Количество вычищенных сегментов",
	})

	// GenerationErrors — отказы генератора (исчерпание попыток).
	GenerationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_generation_errors_total",
		Help: "Отказы генерации сегментов",
	})

	// InputEventsDropped — события ввода, отброшенные при переполнении очереди.
	InputEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_input_events_dropped_total",
		Help: "Отброшенные события ввода игроков",
	})

	// SendDropped — исходящие сообщения, отброшенные при переполнении
	// очереди клиента.
	SendDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkour_send_dropped_total",
		Help: "Отброшенные исходящие сообщения",
	})

	// ActiveSessions — текущее число сессий.
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parkour_active_sessions",
		Help: "Число активных сессий",
	})

	// TickDuration — длительность тика.
	TickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parkour_tick_duration_seconds",
		Help:    "Длительность игрового тика",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)
