package worldsync

import (
	"testing"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// recordingSink записывает мутации мира в порядке применения.
type recordingSink struct {
	ops []string
}

func (r *recordingSink) PlaceBlock(pos course.BlockPos, blockType int32) {
	r.ops = append(r.ops, "place")
}
func (r *recordingSink) RemoveBlock(pos course.BlockPos) {
	r.ops = append(r.ops, "remove")
}
func (r *recordingSink) Teleport(playerID string, pos worldinterfaces.Position) {}
func (r *recordingSink) SendMessage(playerID, text string)                      {}

func seg(index int64, z int32) *course.Segment {
	return &course.Segment{
		Index:     index,
		Anchor:    course.BlockPos{Y: 100, Z: z},
		Footprint: course.Footprint{{}},
		Decoration: []course.PlacedBlock{
			{Off: course.BlockPos{Y: -1}, Type: course.BlockTypeDirt},
		},
		Block: course.BlockTypeGrass,
	}
}

func TestApplyPlacementsBeforeRemovals(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink)

	old := seg(1, 2)
	c.Apply([]*course.Segment{old}, nil)
	sink.ops = nil

	// Дельта с размещением и удалением в одном тике.
	c.Apply([]*course.Segment{seg(2, 4), seg(3, 6)}, []*course.Segment{old})

	sawRemove := false
	for _, op := range sink.ops {
		if op == "remove" {
			sawRemove = true
		}
		if op == "place" && sawRemove {
			t.Fatalf("размещение после удаления: %v", sink.ops)
		}
	}
	if !sawRemove {
		t.Fatalf("удаление не применено: %v", sink.ops)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink)

	s := seg(1, 2)
	c.Apply([]*course.Segment{s}, nil)
	n := len(sink.ops)
	if n == 0 {
		t.Fatalf("сегмент не размещён")
	}

	// Повторное размещение того же сегмента — no-op.
	c.Apply([]*course.Segment{s}, nil)
	if len(sink.ops) != n {
		t.Fatalf("повторное размещение продублировало мутации: %d -> %d", n, len(sink.ops))
	}

	// Удаление и повторное удаление.
	c.Apply(nil, []*course.Segment{s})
	n = len(sink.ops)
	c.Apply(nil, []*course.Segment{s})
	if len(sink.ops) != n {
		t.Fatalf("повторное удаление продублировало мутации: %d -> %d", n, len(sink.ops))
	}
	if c.IsMaterialized(1) {
		t.Fatalf("сегмент остался материализованным после удаления")
	}
}

func TestBlinkingSegmentTogglesWithTicks(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink)

	s := &course.Segment{
		Index:       1,
		Anchor:      course.BlockPos{Y: 100, Z: 4},
		Footprint:   course.Footprint{{}},
		Block:       course.BlockTypeMoss,
		BlinkPeriod: 2,
	}
	c.Apply([]*course.Segment{s}, nil)
	if len(sink.ops) != 1 || sink.ops[0] != "place" {
		t.Fatalf("сегмент размещён не видимым: %v", sink.ops)
	}
	sink.ops = nil

	// Первая фаза видима, переключений нет.
	c.Advance(1)
	if len(sink.ops) != 0 {
		t.Fatalf("лишние мутации в видимой фазе: %v", sink.ops)
	}

	// Смена фазы убирает блок, следующая возвращает.
	c.Advance(2)
	if len(sink.ops) != 1 || sink.ops[0] != "remove" {
		t.Fatalf("скрытая фаза не убрала блок: %v", sink.ops)
	}
	c.Advance(3)
	if len(sink.ops) != 1 {
		t.Fatalf("повтор тика той же фазы продублировал мутации: %v", sink.ops)
	}
	c.Advance(4)
	if len(sink.ops) != 2 || sink.ops[1] != "place" {
		t.Fatalf("видимая фаза не вернула блок: %v", sink.ops)
	}

	// Вычистка в скрытой фазе не шлёт лишних удалений и гасит мигание.
	c.Advance(6)
	sink.ops = nil
	c.Apply(nil, []*course.Segment{s})
	if len(sink.ops) != 0 {
		t.Fatalf("удаление скрытого сегмента продублировало мутации: %v", sink.ops)
	}
	if c.IsMaterialized(1) {
		t.Fatalf("сегмент остался материализованным после вычистки")
	}
	c.Advance(8)
	if len(sink.ops) != 0 {
		t.Fatalf("вычищенный сегмент продолжает мигать: %v", sink.ops)
	}
}

func TestApplyCountsBlocks(t *testing.T) {
	sink := &recordingSink{}
	c := New(sink)

	s := seg(1, 2)
	c.Apply([]*course.Segment{s}, nil)
	// Опорный блок + декорация.
	if len(sink.ops) != 2 {
		t.Fatalf("ожидалось 2 мутации, получено %d", len(sink.ops))
	}
	if c.MaterializedCount() != 1 {
		t.Fatalf("MaterializedCount=%d", c.MaterializedCount())
	}

	c.Apply(nil, []*course.Segment{s})
	if len(sink.ops) != 4 {
		t.Fatalf("удаление должно убрать оба блока, мутаций %d", len(sink.ops))
	}
	if c.MaterializedCount() != 0 {
		t.Fatalf("после удаления MaterializedCount=%d", c.MaterializedCount())
	}
}
