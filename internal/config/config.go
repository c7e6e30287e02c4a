// Package config описывает настройки сервера и их загрузку из YAML.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// Config — полная конфигурация сервера.
type Config struct {
	// Addr — адрес HTTP-сервера с websocket-шлюзом.
	Addr string `yaml:"addr"`
	// MetricsAddr — адрес эндпоинта /metrics; пустой отключает метрики.
	MetricsAddr string `yaml:"metrics_addr"`
	// HighscorePath — файл личных рекордов; пустой отключает сохранение.
	HighscorePath string `yaml:"highscore_path"`
	// Seed — сид генерации; 0 означает случайный.
	Seed int64 `yaml:"seed"`

	Game Game `yaml:"game"`
}

// Game — параметры ядра трассы.
type Game struct {
	// TickInterval — период игрового тика.
	TickInterval time.Duration `yaml:"tick_interval"`

	// StartX/StartY/StartZ — якорь стартовой площадки.
	StartX int32 `yaml:"start_x"`
	StartY int32 `yaml:"start_y"`
	StartZ int32 `yaml:"start_z"`

	// LookaheadDepth — на сколько сегментов вперёд держится окно.
	LookaheadDepth int64 `yaml:"lookahead_depth"`
	// EvictionSafetyMargin — запас сегментов позади самого отстающего
	// игрока, которые не вычищаются.
	EvictionSafetyMargin int64 `yaml:"eviction_safety_margin"`

	// DifficultyRampEvery — через сколько сегментов растёт сложность.
	DifficultyRampEvery int64 `yaml:"difficulty_ramp_every"`
	// MaxDifficulty — верхняя граница сложности.
	MaxDifficulty int `yaml:"max_difficulty"`
	// YBand — полуширина полосы высот трассы.
	YBand int32 `yaml:"y_band"`

	// FallMargin — блоков ниже якоря до засчитывания падения.
	FallMargin int32 `yaml:"fall_margin"`
	// FallTimeout — падение по таймеру без продвижения.
	FallTimeout time.Duration `yaml:"fall_timeout"`
	// MaxStepDistance — максимальное правдоподобное перемещение за отчёт.
	MaxStepDistance float64 `yaml:"max_step_distance"`
	// HardResetOnFall — возврат в начало окна вместо чекпоинта.
	HardResetOnFall bool `yaml:"hard_reset_on_fall"`

	// BaseReward — базовая награда за сегмент.
	BaseReward int64 `yaml:"base_reward"`
	// CourseLength — длина трассы; 0 означает бесконечную.
	CourseLength int64 `yaml:"course_length"`

	// InputQueueSize — ёмкость очереди входных событий.
	InputQueueSize int `yaml:"input_queue_size"`
	// SendQueueSize — ёмкость исходящей очереди на клиента.
	SendQueueSize int `yaml:"send_queue_size"`
}

// Default возвращает конфигурацию с ограниченными разумными значениями.
func Default() Config {
	return Config{
		Addr:        ":8080",
		MetricsAddr: ":9100",
		Game: Game{
			TickInterval:         50 * time.Millisecond,
			StartY:               100,
			LookaheadDepth:       10,
			EvictionSafetyMargin: 3,
			DifficultyRampEvery:  15,
			MaxDifficulty:        6,
			YBand:                20,
			FallMargin:           4,
			FallTimeout:          20 * time.Second,
			MaxStepDistance:      12,
			BaseReward:           10,
			InputQueueSize:       4096,
			SendQueueSize:        1024,
		},
	}
}

// Load читает конфигурацию из YAML-файла поверх значений по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("чтение конфигурации %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("разбор конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate проверяет согласованность параметров.
func (c Config) Validate() error {
	if c.Game.TickInterval <= 0 {
		return fmt.Errorf("tick_interval должен быть положительным")
	}
	if c.Game.LookaheadDepth <= 0 {
		return fmt.Errorf("lookahead_depth должен быть положительным")
	}
	if c.Game.EvictionSafetyMargin < 0 {
		return fmt.Errorf("eviction_safety_margin не может быть отрицательным")
	}
	if c.Game.CourseLength < 0 {
		return fmt.Errorf("course_length не может быть отрицательным")
	}
	return nil
}
