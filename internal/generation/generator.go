package generation

import (
	"errors"
	"math/rand"

	"github.com/aquilax/go-perlin"

	"github.com/annelo/go-parkour-server/internal/course"
)

// ErrGenerationExhausted возвращается, когда повторные выборки и резервное
// смещение не дали проходимого сегмента. При ограниченных параметрах
// огибающей ошибка практически недостижима и трактуется как нарушение
// инварианта генератора.
var ErrGenerationExhausted = errors.New("generation: попытки исчерпаны")

const (
	// Параметры шума для островов, в духе генерации ландшафта.
	perlinAlpha      = 2.0
	perlinBeta       = 2.0
	perlinOctaves    = 3
	islandNoiseScale = 0.15
)

// Config — настройки генератора сегментов.
type Config struct {
	// StartY — целевая высота трассы; якоря удерживаются в полосе
	// [StartY-YBand, StartY+YBand].
	StartY int32
	// YBand — полуширина допустимой полосы высот.
	YBand int32
	// MaxRetries — число выборок до отката на минимальное смещение.
	MaxRetries int
	// Weights — веса форм сегментов.
	Weights ShapeWeights
}

// ShapeWeights — относительные веса форм при выборе.
type ShapeWeights struct {
	Single   float64
	Platform float64
	Island   float64
	Ramp     float64
	Blink    float64
}

// DefaultConfig возвращает ограниченные разумные значения по умолчанию.
func DefaultConfig(startY int32) Config {
	return Config{
		StartY:     startY,
		YBand:      20,
		MaxRetries: 16,
		Weights: ShapeWeights{
			Single:   4,
			Platform: 2,
			Island:   1,
			Ramp:     1,
			Blink:    1,
		},
	}
}

// Generator порождает сегменты трассы. Шум для островов фиксируется сидом
// при создании, остальная случайность приходит через rng вызова — результат
// детерминирован при одинаковых аргументах.
type Generator struct {
	cfg   Config
	noise *perlin.Perlin
	table []shapeWeight
}

// New создаёт генератор с заданным сидом шума.
func New(cfg Config, seed int64) *Generator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 16
	}
	if cfg.YBand <= 0 {
		cfg.YBand = 20
	}
	return &Generator{
		cfg:   cfg,
		noise: perlin.NewPerlin(perlinAlpha, perlinBeta, perlinOctaves, seed),
		table: []shapeWeight{
			{ShapeSingle, cfg.Weights.Single},
			{ShapePlatform, cfg.Weights.Platform},
			{ShapeIsland, cfg.Weights.Island},
			{ShapeRamp, cfg.Weights.Ramp},
			{ShapeBlink, cfg.Weights.Blink},
		},
	}
}

// Generate порождает следующий сегмент после prev на заданной сложности.
// Гарантии: JumpVec внутри огибающей для difficulty, опорные поверхности
// соседних сегментов не пересекаются, якорь остаётся в полосе высот.
func (g *Generator) Generate(prev *course.Segment, difficulty int, rng *rand.Rand) (*course.Segment, error) {
	if difficulty < 0 {
		difficulty = 0
	}
	env := EnvelopeFor(difficulty)
	exit := prev.Exit()
	st := g.steerFor(exit.Y)

	for attempt := 0; attempt < g.cfg.MaxRetries; attempt++ {
		jump := drawJump(env, st, rng)
		if !env.Within(jump) {
			continue
		}
		anchor := exit.Add(jump)
		if anchor.Y < g.cfg.StartY-g.cfg.YBand || anchor.Y > g.cfg.StartY+g.cfg.YBand {
			continue
		}
		seg := g.buildShape(pickShape(rng, g.table, st), anchor, jump, difficulty, rng)
		if seg.OverlapsFootprint(prev) {
			continue
		}
		return seg, nil
	}

	// Резерв: минимальное смещение нулевой сложности, одиночный блок.
	jump := course.BlockPos{Z: EnvelopeFor(0).MinForward}
	seg := singleSegment(exit.Add(jump), jump, difficulty, rng)
	if seg.OverlapsFootprint(prev) {
		return nil, ErrGenerationExhausted
	}
	return seg, nil
}

// steerFor определяет выравнивание высоты: за пределами половины полосы
// трасса тянется обратно к StartY.
func (g *Generator) steerFor(exitY int32) steer {
	switch {
	case exitY > g.cfg.StartY+g.cfg.YBand/2:
		return steerDown
	case exitY < g.cfg.StartY-g.cfg.YBand/2:
		return steerUp
	default:
		return steerAny
	}
}

// drawJump выбирает перемещение внутри огибающей с учётом выравнивания.
func drawJump(env Envelope, st steer, rng *rand.Rand) course.BlockPos {
	forward := env.MinForward + rng.Int31n(env.MaxForward-env.MinForward+1)
	lateral := rng.Int31n(2*env.MaxLateral+1) - env.MaxLateral

	var dy int32
	switch st {
	case steerUp:
		dy = minInt32(env.MaxUp, 1)
	case steerDown:
		dy = -(1 + rng.Int31n(env.MaxDown))
	default:
		dy = rng.Int31n(env.MaxUp+env.MaxDown+1) - env.MaxDown
	}

	// Подъём несовместим с прыжком на полную дальность.
	if dy > 0 && forward >= env.MaxForward {
		forward = env.MaxForward - 1
	}
	return course.BlockPos{X: lateral, Y: dy, Z: forward}
}

func (g *Generator) buildShape(sh Shape, anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	switch sh {
	case ShapePlatform:
		return platformSegment(anchor, jump, difficulty, rng)
	case ShapeIsland:
		return g.islandSegment(anchor, jump, difficulty, rng)
	case ShapeRamp:
		return rampSegment(anchor, jump, difficulty, rng)
	case ShapeBlink:
		return blinkSegment(anchor, jump, difficulty, rng)
	default:
		return singleSegment(anchor, jump, difficulty, rng)
	}
}
