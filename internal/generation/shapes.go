package generation

import (
	"math"
	"math/rand"

	"github.com/annelo/go-parkour-server/internal/course"
)

// Shape — форма опорной поверхности сегмента.
type Shape int

const (
	ShapeSingle Shape = iota
	ShapePlatform
	ShapeIsland
	ShapeRamp
	ShapeBlink
)

// steer — направление, в котором генератор выравнивает высоту трассы.
type steer int

const (
	steerAny steer = iota
	steerUp
	steerDown
)

type shapeWeight struct {
	shape  Shape
	weight float64
}

// pickShape выбирает форму сегмента с вероятностью, пропорциональной весу.
// При выравнивании вверх выпадают только формы, ведущие вверх; при
// выравнивании вниз — не мешающие спуску.
func pickShape(rng *rand.Rand, table []shapeWeight, st steer) Shape {
	filtered := make([]shapeWeight, 0, len(table))
	total := 0.0
	for _, sw := range table {
		switch st {
		case steerUp:
			if sw.shape != ShapeSingle && sw.shape != ShapeRamp {
				continue
			}
		case steerDown:
			if sw.shape == ShapeRamp {
				continue
			}
		}
		if sw.weight <= 0 {
			continue
		}
		filtered = append(filtered, sw)
		total += sw.weight
	}
	if len(filtered) == 0 || total <= 0 {
		return ShapeSingle
	}
	r := rng.Float64() * total
	for _, sw := range filtered {
		r -= sw.weight
		if r <= 0 {
			return sw.shape
		}
	}
	return filtered[len(filtered)-1].shape
}

// singleSegment — одиночный блок.
func singleSegment(anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	return &course.Segment{
		Anchor:     anchor,
		Footprint:  course.Footprint{{}},
		Difficulty: difficulty,
		JumpVec:    jump,
		Block:      course.SurfaceBlockTypes[rng.Intn(len(course.SurfaceBlockTypes))],
	}
}

// blinkSegment — одиночный блок, периодически исчезающий из мира. Прыжок
// на него требует тайминга; период сокращается со сложностью.
func blinkSegment(anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	period := int32(24 - 2*difficulty)
	if period < 10 {
		period = 10
	}
	period += rng.Int31n(6)
	return &course.Segment{
		Anchor:      anchor,
		Footprint:   course.Footprint{{}},
		Difficulty:  difficulty,
		JumpVec:     jump,
		Block:       course.BlockTypeMoss,
		BlinkPeriod: period,
	}
}

// platformSegment — прямоугольная площадка 3 блока шириной и 2–3 глубиной.
func platformSegment(anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	depth := int32(2 + rng.Intn(2))
	fp := make(course.Footprint, 0, 3*depth)
	for z := int32(0); z < depth; z++ {
		for x := int32(-1); x <= 1; x++ {
			fp = append(fp, course.BlockPos{X: x, Z: z})
		}
	}
	return &course.Segment{
		Anchor:     anchor,
		Footprint:  fp,
		ExitOff:    course.BlockPos{Z: depth - 1},
		Difficulty: difficulty,
		JumpVec:    jump,
		Block:      course.SurfaceBlockTypes[rng.Intn(len(course.SurfaceBlockTypes))],
	}
}

// islandSegment — круглый остров с высотами по шуму Перлина и подложкой из
// подземных блоков. Вход — одиночный блок на ближнем краю, выход — самый
// высокий блок дальнего ряда.
func (g *Generator) islandSegment(anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	r := int32(2 + rng.Intn(3))
	fp := make(course.Footprint, 0, 4*r*r)
	deco := make([]course.PlacedBlock, 0, 8*r*r)

	exitX, exitY := int32(0), int32(math.MinInt32)
	for z := int32(0); z <= 2*r; z++ {
		s := rowRadius(r, z-r)
		for x := -s; x <= s; x++ {
			h := g.islandHeight(anchor, x, z)
			if z == 0 {
				// Точка входа всегда на высоте якоря.
				h = 0
			}
			fp = append(fp, course.BlockPos{X: x, Y: h, Z: z})

			// Подложка: грязь сразу под поверхностью, дальше камень.
			under := course.UndergroundBlockTypes[rng.Intn(len(course.UndergroundBlockTypes))]
			deco = append(deco,
				course.PlacedBlock{Off: course.BlockPos{X: x, Y: h - 1, Z: z}, Type: course.BlockTypeDirt},
				course.PlacedBlock{Off: course.BlockPos{X: x, Y: h - 2, Z: z}, Type: under},
			)

			if z == 2*r && (h > exitY || (h == exitY && abs32(x) < abs32(exitX))) {
				exitX, exitY = x, h
			}
		}
	}

	return &course.Segment{
		Anchor:     anchor,
		Footprint:  fp,
		Decoration: deco,
		ExitOff:    course.BlockPos{X: exitX, Y: exitY, Z: 2 * r},
		Difficulty: difficulty,
		JumpVec:    jump,
		Block:      course.BlockTypeGrass,
	}
}

// islandHeight возвращает высоту поверхности острова в [-1, 1] по шуму.
func (g *Generator) islandHeight(anchor course.BlockPos, x, z int32) int32 {
	n := g.noise.Noise2D(
		float64(anchor.X+x)*islandNoiseScale,
		float64(anchor.Z+z)*islandNoiseScale,
	)
	h := int32(math.Round(n * 1.5))
	if h > 1 {
		h = 1
	}
	if h < -1 {
		h = -1
	}
	return h
}

// rowRadius возвращает половину ширины ряда круга радиуса r на смещении zr.
func rowRadius(r, zr int32) int32 {
	d := float64(r*r - zr*zr)
	if d < 0 {
		return 0
	}
	return int32(math.Round(math.Sqrt(d)))
}

// rampSegment — рампа из полных блоков и плит, поднимающаяся на length-1.
func rampSegment(anchor, jump course.BlockPos, difficulty int, rng *rand.Rand) *course.Segment {
	length := int32(2 + rng.Intn(3))
	pair := course.SlabPairs[rng.Intn(len(course.SlabPairs))]

	fp := make(course.Footprint, 0, 3*length)
	deco := make([]course.PlacedBlock, 0, 6*length)
	for x := int32(-1); x <= 1; x++ {
		for k := int32(0); k < length; k++ {
			fp = append(fp, course.BlockPos{X: x, Y: k, Z: 2 * k})
			if k > 0 {
				deco = append(deco,
					course.PlacedBlock{Off: course.BlockPos{X: x, Y: k, Z: 2*k - 1}, Type: pair[1]},
					course.PlacedBlock{Off: course.BlockPos{X: x, Y: k - 1, Z: 2*k - 1}, Type: pair[1]},
				)
			}
		}
	}

	return &course.Segment{
		Anchor:     anchor,
		Footprint:  fp,
		Decoration: deco,
		ExitOff:    course.BlockPos{Y: length - 1, Z: 2 * (length - 1)},
		Difficulty: difficulty,
		JumpVec:    jump,
		Block:      pair[0],
	}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
