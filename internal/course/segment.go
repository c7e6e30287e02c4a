// Package course содержит базовые типы бесконечной паркур-трассы:
// позиции блоков, сегменты и бухгалтерию сгенерированных участков.
package course

// BlockPos — целочисленная позиция блока в мире.
type BlockPos struct {
	X int32
	Y int32
	Z int32
}

// Add возвращает сумму двух позиций.
func (p BlockPos) Add(o BlockPos) BlockPos {
	return BlockPos{X: p.X + o.X, Y: p.Y + o.Y, Z: p.Z + o.Z}
}

// Sub возвращает разность двух позиций.
func (p BlockPos) Sub(o BlockPos) BlockPos {
	return BlockPos{X: p.X - o.X, Y: p.Y - o.Y, Z: p.Z - o.Z}
}

// BlockUnderFeet переводит координаты ног игрока в позицию блока, на котором он стоит.
func BlockUnderFeet(x, y, z float64) BlockPos {
	return BlockPos{
		X: floorInt32(x),
		Y: floorInt32(y) - 1,
		Z: floorInt32(z),
	}
}

func floorInt32(v float64) int32 {
	i := int32(v)
	if v < 0 && float64(i) != v {
		i--
	}
	return i
}

// Типы блоков трассы
const (
	BlockTypeAir int32 = iota
	BlockTypeStone
	BlockTypeGrass
	BlockTypeDirt
	BlockTypeCobblestone
	BlockTypeMossyCobblestone
	BlockTypeOakLog
	BlockTypeOakLeaves
	BlockTypeMoss
	BlockTypeAndesite
	BlockTypeGravel
	BlockTypeOakPlanks
	BlockTypeStoneSlab
	BlockTypeOakSlab
	BlockTypeWater
)

// Палитры блоков для разных частей сегмента
var (
	// SurfaceBlockTypes — блоки опорной поверхности.
	SurfaceBlockTypes = []int32{
		BlockTypeGrass,
		BlockTypeOakLog,
		BlockTypeOakLeaves,
		BlockTypeDirt,
		BlockTypeMoss,
	}

	// UndergroundBlockTypes — блоки подложки островов.
	UndergroundBlockTypes = []int32{
		BlockTypeStone,
		BlockTypeCobblestone,
		BlockTypeMossyCobblestone,
		BlockTypeAndesite,
		BlockTypeGravel,
	}

	// SlabPairs — пары «полный блок + плита» для рамп.
	SlabPairs = [][2]int32{
		{BlockTypeStone, BlockTypeStoneSlab},
		{BlockTypeOakPlanks, BlockTypeOakSlab},
	}
)

// Footprint — набор относительных смещений от якоря, образующих опорную
// поверхность сегмента. Игрок засчитывается на сегменте, если стоит на любом
// из этих блоков.
type Footprint []BlockPos

// PlacedBlock — декоративный блок сегмента (подложка острова, плита рампы).
// Смещение задаётся относительно якоря.
type PlacedBlock struct {
	Off  BlockPos
	Type int32
}

// Segment — один сгенерированный участок трассы.
type Segment struct {
	// Index монотонно растёт, уникален и никогда не переиспользуется.
	Index int64
	// Anchor — опорный блок сегмента (точка входа игрока).
	Anchor BlockPos
	// Footprint — опорная поверхность относительно якоря.
	Footprint Footprint
	// Decoration — неопорные блоки сегмента относительно якоря.
	Decoration []PlacedBlock
	// ExitOff — смещение блока, с которого ожидается прыжок на следующий
	// сегмент. Для одиночных блоков равно нулю.
	ExitOff BlockPos
	// Difficulty — уровень сложности, неубывающий по Index.
	Difficulty int
	// JumpVec — перемещение от точки выхода предыдущего сегмента к якорю
	// этого; всегда внутри огибающей достижимости для Difficulty.
	JumpVec BlockPos
	// Block — тип блоков опорной поверхности.
	Block int32
	// BlinkPeriod — период мигания опорной поверхности в тиках; ноль
	// означает постоянно видимый сегмент.
	BlinkPeriod int32
}

// Exit возвращает абсолютную позицию блока выхода.
func (s *Segment) Exit() BlockPos {
	return s.Anchor.Add(s.ExitOff)
}

// AbsoluteFootprint возвращает опорные блоки в мировых координатах.
func (s *Segment) AbsoluteFootprint() []BlockPos {
	abs := make([]BlockPos, len(s.Footprint))
	for i, off := range s.Footprint {
		abs[i] = s.Anchor.Add(off)
	}
	return abs
}

// ContainsBlock сообщает, входит ли мировая позиция в опорную поверхность.
func (s *Segment) ContainsBlock(pos BlockPos) bool {
	rel := pos.Sub(s.Anchor)
	for _, off := range s.Footprint {
		if off == rel {
			return true
		}
	}
	return false
}

// OverlapsFootprint сообщает, пересекаются ли опорные поверхности двух
// сегментов в мировых координатах.
func (s *Segment) OverlapsFootprint(o *Segment) bool {
	for _, a := range s.AbsoluteFootprint() {
		if o.ContainsBlock(a) {
			return true
		}
	}
	return false
}
