package course

import (
	"fmt"
	"math/rand"
)

// Generator порождает следующий сегмент трассы по предыдущему.
// Реализация обязана быть чистой функцией от аргументов.
type Generator interface {
	Generate(prev *Segment, difficulty int, rng *rand.Rand) (*Segment, error)
}

// LedgerConfig задаёт параметры скользящего окна и рампы сложности.
type LedgerConfig struct {
	// Start — якорь стартовой площадки (сегмент 0).
	Start BlockPos
	// DifficultyRampEvery — через сколько сегментов сложность растёт на 1.
	DifficultyRampEvery int64
	// MaxDifficulty — верхняя граница сложности.
	MaxDifficulty int
	// CourseLength — длина трассы в сегментах; 0 означает бесконечную трассу.
	CourseLength int64
}

// Ledger — упорядоченная, append-only запись сгенерированных сегментов,
// материализованная в скользящем окне [low, high]. Мутирует его только
// тик-цикл, поэтому внутренних блокировок нет.
type Ledger struct {
	cfg      LedgerConfig
	gen      Generator
	rng      *rand.Rand
	segments map[int64]*Segment
	low      int64
	high     int64
}

// NewLedger создаёт бухгалтерию со стартовой площадкой в качестве сегмента 0.
func NewLedger(cfg LedgerConfig, gen Generator, rng *rand.Rand) *Ledger {
	if cfg.DifficultyRampEvery <= 0 {
		cfg.DifficultyRampEvery = 10
	}
	l := &Ledger{
		cfg:      cfg,
		gen:      gen,
		rng:      rng,
		segments: make(map[int64]*Segment),
	}
	l.segments[0] = startSegment(cfg.Start)
	return l
}

// startSegment — площадка 3x3 из камня, с которой начинается трасса.
func startSegment(anchor BlockPos) *Segment {
	fp := make(Footprint, 0, 9)
	for x := int32(-1); x <= 1; x++ {
		for z := int32(-1); z <= 1; z++ {
			fp = append(fp, BlockPos{X: x, Z: z})
		}
	}
	return &Segment{
		Index:     0,
		Anchor:    anchor,
		Footprint: fp,
		ExitOff:   BlockPos{Z: 1},
		Block:     BlockTypeStone,
	}
}

// Low возвращает нижнюю границу материализованного окна.
func (l *Ledger) Low() int64 { return l.low }

// High возвращает индекс последнего сгенерированного сегмента.
func (l *Ledger) High() int64 { return l.high }

// Finite сообщает, ограничена ли трасса по длине.
func (l *Ledger) Finite() bool { return l.cfg.CourseLength > 0 }

// Cap возвращает индекс последнего сегмента конечной трассы (0 — бесконечная).
func (l *Ledger) Cap() int64 { return l.cfg.CourseLength }

// DifficultyAt возвращает сложность для сегмента с данным индексом.
func (l *Ledger) DifficultyAt(index int64) int {
	d := int(index / l.cfg.DifficultyRampEvery)
	if d > l.cfg.MaxDifficulty {
		d = l.cfg.MaxDifficulty
	}
	return d
}

// SegmentAt возвращает сегмент по индексу. Второе значение false означает,
// что сегмент ниже окна (уже пройден и вычищен) либо ещё не сгенерирован;
// вызывающий обязан трактовать индекс ниже окна как «уже пройденный».
func (l *Ledger) SegmentAt(index int64) (*Segment, bool) {
	seg, ok := l.segments[index]
	return seg, ok
}

// EnsureGenerated последовательно догенерирует сегменты до upTo включительно
// и возвращает вновь созданные. Повторный вызов с тем же upTo ничего не
// добавляет. Для конечной трассы upTo обрезается по её длине.
func (l *Ledger) EnsureGenerated(upTo int64) ([]*Segment, error) {
	if l.Finite() && upTo > l.cfg.CourseLength {
		upTo = l.cfg.CourseLength
	}
	if upTo <= l.high {
		return nil, nil
	}

	added := make([]*Segment, 0, upTo-l.high)
	for l.high < upTo {
		prev := l.segments[l.high]
		next := l.high + 1
		seg, err := l.gen.Generate(prev, l.DifficultyAt(next), l.rng)
		if err != nil {
			// Генерация повторится на следующем тике; уже созданные
			// сегменты отдаём, чтобы их успели разместить в мире.
			return added, fmt.Errorf("генерация сегмента %d: %w", next, err)
		}
		seg.Index = next
		l.segments[next] = seg
		l.high = next
		added = append(added, seg)
	}
	return added, nil
}

// EvictBelow убирает из окна сегменты с индексом меньше floor и возвращает
// их для удаления из мира. Floor рассчитывается вызывающим как минимум
// текущих сегментов всех сессий минус запас — сегмент под активным игроком
// никогда не вычищается.
func (l *Ledger) EvictBelow(floor int64) []*Segment {
	if floor <= l.low {
		return nil
	}
	if floor > l.high {
		floor = l.high
	}
	evicted := make([]*Segment, 0, floor-l.low)
	for i := l.low; i < floor; i++ {
		if seg, ok := l.segments[i]; ok {
			evicted = append(evicted, seg)
			delete(l.segments, i)
		}
	}
	l.low = floor
	return evicted
}

// Materialized возвращает количество сегментов в окне.
func (l *Ledger) Materialized() int { return len(l.segments) }
