// Package generation порождает сегменты паркур-трассы: чистые функции от
// предыдущего сегмента, уровня сложности и источника случайности.
package generation

import "github.com/annelo/go-parkour-server/internal/course"

// Envelope — огибающая достижимости прыжка: множество перемещений, которые
// игрок гарантированно может совершить на данном уровне сложности.
// Трасса растёт вдоль +Z; X — боковое смещение, Y — вертикаль.
type Envelope struct {
	MinForward int32 // минимальный прыжок вперёд
	MaxForward int32 // максимальный прыжок вперёд
	MaxLateral int32 // максимальное боковое смещение в обе стороны
	MaxUp      int32 // максимальный подъём
	MaxDown    int32 // максимальный спуск
}

// EnvelopeFor возвращает огибающую для уровня сложности. Рост сложности
// расширяет дальность и боковые смещения, но сужает допустимый подъём:
// длинный прыжок вверх не проходится.
func EnvelopeFor(difficulty int) Envelope {
	if difficulty < 0 {
		difficulty = 0
	}
	d := int32(difficulty)
	env := Envelope{
		MinForward: 2,
		MaxForward: 3 + minInt32(d, 1),
		MaxLateral: 1 + minInt32(d/2, 2),
		MaxUp:      1,
		MaxDown:    2 + minInt32(d/2, 2),
	}
	if difficulty >= 4 {
		env.MaxUp = 0
	}
	return env
}

// Within проверяет, лежит ли перемещение внутри огибающей.
func (e Envelope) Within(v course.BlockPos) bool {
	if v.Z < e.MinForward || v.Z > e.MaxForward {
		return false
	}
	if v.X < -e.MaxLateral || v.X > e.MaxLateral {
		return false
	}
	if v.Y < -e.MaxDown || v.Y > e.MaxUp {
		return false
	}
	// Прыжок на максимальную дальность с подъёмом не проходится.
	if v.Y > 0 && v.Z >= e.MaxForward {
		return false
	}
	return true
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
