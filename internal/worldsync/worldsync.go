// Package worldsync согласует бухгалтерию трассы с живым миром: размещает
// блоки новых сегментов и убирает блоки вычищенных.
package worldsync

import (
	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// Coordinator превращает дельту бухгалтерии за тик в упорядоченную пачку
// мутаций мира. Размещения всегда идут раньше удалений, чтобы под игроком
// не открылась дыра в полу. Повтор применения безопасен: множество
// материализованных индексов делает повторные мутации no-op.
type Coordinator struct {
	sink         worldinterfaces.WorldMutationSink
	materialized map[int64]struct{}
	blinking     map[int64]*blinkState
}

// blinkState отслеживает фазу мигающего сегмента.
type blinkState struct {
	seg     *course.Segment
	visible bool
}

// New создает координатор поверх приёмника мутаций.
func New(sink worldinterfaces.WorldMutationSink) *Coordinator {
	return &Coordinator{
		sink:         sink,
		materialized: make(map[int64]struct{}),
		blinking:     make(map[int64]*blinkState),
	}
}

// Apply применяет дельту тика: сначала все размещения, затем все удаления.
func (c *Coordinator) Apply(added, evicted []*course.Segment) {
	for _, seg := range added {
		c.place(seg)
	}
	for _, seg := range evicted {
		c.remove(seg)
	}
}

// Advance двигает фазы мигающих сегментов: на чётной фазе блоки стоят в
// мире, на нечётной убраны. Вызывается тик-циклом раз в тик.
func (c *Coordinator) Advance(tick uint64) {
	for _, bs := range c.blinking {
		period := uint64(bs.seg.BlinkPeriod)
		visible := (tick/period)%2 == 0
		if visible == bs.visible {
			continue
		}
		bs.visible = visible
		if visible {
			c.placeBlocks(bs.seg)
		} else {
			c.removeBlocks(bs.seg)
		}
	}
}

func (c *Coordinator) place(seg *course.Segment) {
	if _, ok := c.materialized[seg.Index]; ok {
		return
	}
	c.placeBlocks(seg)
	c.materialized[seg.Index] = struct{}{}
	if seg.BlinkPeriod > 0 {
		c.blinking[seg.Index] = &blinkState{seg: seg, visible: true}
	}
}

func (c *Coordinator) remove(seg *course.Segment) {
	if _, ok := c.materialized[seg.Index]; !ok {
		return
	}
	bs := c.blinking[seg.Index]
	delete(c.blinking, seg.Index)
	delete(c.materialized, seg.Index)
	if bs != nil && !bs.visible {
		// Блоки скрытой фазы уже убраны из мира.
		return
	}
	c.removeBlocks(seg)
}

func (c *Coordinator) placeBlocks(seg *course.Segment) {
	for _, off := range seg.Footprint {
		c.sink.PlaceBlock(seg.Anchor.Add(off), seg.Block)
	}
	for _, d := range seg.Decoration {
		c.sink.PlaceBlock(seg.Anchor.Add(d.Off), d.Type)
	}
}

func (c *Coordinator) removeBlocks(seg *course.Segment) {
	for _, off := range seg.Footprint {
		c.sink.RemoveBlock(seg.Anchor.Add(off))
	}
	for _, d := range seg.Decoration {
		c.sink.RemoveBlock(seg.Anchor.Add(d.Off))
	}
}

// MaterializedCount возвращает число материализованных сегментов.
func (c *Coordinator) MaterializedCount() int {
	return len(c.materialized)
}

// IsMaterialized сообщает, размещён ли сегмент в мире.
func (c *Coordinator) IsMaterialized(index int64) bool {
	_, ok := c.materialized[index]
	return ok
}
