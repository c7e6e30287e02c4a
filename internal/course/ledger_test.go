package course

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

// stubGenerator кладёт следующий сегмент на фиксированном смещении.
type stubGenerator struct {
	calls   int
	failAt  int
	failErr error
}

func (g *stubGenerator) Generate(prev *Segment, difficulty int, rng *rand.Rand) (*Segment, error) {
	g.calls++
	if g.failErr != nil && g.calls >= g.failAt {
		return nil, g.failErr
	}
	jump := BlockPos{Z: 2}
	return &Segment{
		Anchor:     prev.Exit().Add(jump),
		Footprint:  Footprint{{}},
		JumpVec:    jump,
		Difficulty: difficulty,
		Block:      BlockTypeGrass,
	}, nil
}

func newTestLedger(gen Generator) *Ledger {
	return NewLedger(LedgerConfig{
		Start:               BlockPos{Y: 100},
		DifficultyRampEvery: 10,
		MaxDifficulty:       3,
	}, gen, rand.New(rand.NewSource(1)))
}

func TestEnsureGeneratedIsIdempotent(t *testing.T) {
	gen := &stubGenerator{}
	l := newTestLedger(gen)

	added, err := l.EnsureGenerated(10)
	if err != nil {
		t.Fatalf("EnsureGenerated: %v", err)
	}
	if len(added) != 10 {
		t.Fatalf("ожидалось 10 новых сегментов, получено %d", len(added))
	}
	if l.High() != 10 {
		t.Fatalf("ожидался верх окна 10, получен %d", l.High())
	}

	// Повторный вызов с тем же порогом ничего не генерирует.
	calls := gen.calls
	added, err = l.EnsureGenerated(10)
	if err != nil {
		t.Fatalf("повторный EnsureGenerated: %v", err)
	}
	if len(added) != 0 || gen.calls != calls {
		t.Fatalf("повторный вызов добавил %d сегментов (%d вызовов генератора)", len(added), gen.calls-calls)
	}

	// Индексы монотонны и уникальны.
	for i := int64(0); i <= 10; i++ {
		seg, ok := l.SegmentAt(i)
		if !ok {
			t.Fatalf("сегмент %d отсутствует в окне", i)
		}
		if seg.Index != i {
			t.Fatalf("сегмент %d имеет индекс %d", i, seg.Index)
		}
	}
}

func TestEnsureGeneratedReturnsPartialOnError(t *testing.T) {
	genErr := errors.New("нет места")
	gen := &stubGenerator{failAt: 4, failErr: genErr}
	l := newTestLedger(gen)

	added, err := l.EnsureGenerated(10)
	if !errors.Is(err, genErr) {
		t.Fatalf("ожидалась ошибка генератора, получено: %v", err)
	}
	if len(added) != 3 {
		t.Fatalf("ожидалось 3 частично созданных сегмента, получено %d", len(added))
	}
	if l.High() != 3 {
		t.Fatalf("верх окна должен остановиться на 3, получен %d", l.High())
	}
}

func TestEvictBelowRaisesFloor(t *testing.T) {
	l := newTestLedger(&stubGenerator{})
	if _, err := l.EnsureGenerated(20); err != nil {
		t.Fatalf("EnsureGenerated: %v", err)
	}

	evicted := l.EvictBelow(5)
	if len(evicted) != 5 {
		t.Fatalf("ожидалось 5 вычищенных сегментов, получено %d", len(evicted))
	}
	if l.Low() != 5 {
		t.Fatalf("ожидался низ окна 5, получен %d", l.Low())
	}
	if _, ok := l.SegmentAt(4); ok {
		t.Fatalf("сегмент 4 остался в окне после вычистки")
	}
	if _, ok := l.SegmentAt(5); !ok {
		t.Fatalf("сегмент 5 вычищен ошибочно")
	}

	// Порог ниже текущего низа — no-op.
	if evicted := l.EvictBelow(3); evicted != nil {
		t.Fatalf("вычистка ниже низа окна вернула %d сегментов", len(evicted))
	}
}

func TestDifficultyRamp(t *testing.T) {
	l := newTestLedger(&stubGenerator{})
	cases := []struct {
		index int64
		want  int
	}{
		{0, 0}, {9, 0}, {10, 1}, {25, 2}, {30, 3}, {100, 3},
	}
	for _, c := range cases {
		if got := l.DifficultyAt(c.index); got != c.want {
			t.Fatalf("DifficultyAt(%d) = %d, ожидалось %d", c.index, got, c.want)
		}
	}

	// Сложность сгенерированных сегментов не убывает.
	if _, err := l.EnsureGenerated(40); err != nil {
		t.Fatalf("EnsureGenerated: %v", err)
	}
	prev := 0
	for i := int64(1); i <= 40; i++ {
		seg, _ := l.SegmentAt(i)
		if seg.Difficulty < prev {
			t.Fatalf("сложность убыла на сегменте %d: %d -> %d", i, prev, seg.Difficulty)
		}
		prev = seg.Difficulty
	}
}

func TestFiniteCourseClampsGeneration(t *testing.T) {
	l := NewLedger(LedgerConfig{
		Start:               BlockPos{Y: 100},
		DifficultyRampEvery: 10,
		MaxDifficulty:       3,
		CourseLength:        5,
	}, &stubGenerator{}, rand.New(rand.NewSource(1)))

	added, err := l.EnsureGenerated(50)
	if err != nil {
		t.Fatalf("EnsureGenerated: %v", err)
	}
	if len(added) != 5 || l.High() != 5 {
		t.Fatalf("конечная трасса: добавлено %d, верх %d", len(added), l.High())
	}
	if !l.Finite() || l.Cap() != 5 {
		t.Fatalf("Finite/Cap: %v/%d", l.Finite(), l.Cap())
	}
}

func TestBlockUnderFeet(t *testing.T) {
	cases := []struct {
		x, y, z float64
		want    BlockPos
	}{
		{0.5, 101.0, 0.5, BlockPos{0, 100, 0}},
		{-0.5, 101.0, 2.9, BlockPos{-1, 100, 2}},
		{3.0, 100.2, -1.1, BlockPos{3, 99, -2}},
	}
	for _, c := range cases {
		if got := BlockUnderFeet(c.x, c.y, c.z); got != c.want {
			t.Fatalf("BlockUnderFeet(%v, %v, %v) = %+v, ожидалось %+v", c.x, c.y, c.z, got, c.want)
		}
	}
}

func ExampleSegment_Exit() {
	seg := &Segment{
		Anchor:  BlockPos{X: 1, Y: 100, Z: 10},
		ExitOff: BlockPos{Z: 2},
	}
	fmt.Println(seg.Exit())
	// Output: {1 100 12}
}
