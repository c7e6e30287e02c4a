// Package worldinterfaces содержит общие интерфейсы границы ядра и сетевого
// коллаборатора, чтобы избегать циклических зависимостей.
package worldinterfaces

import (
	"time"

	"github.com/annelo/go-parkour-server/internal/course"
)

// Position — позиция игрока в мировых координатах.
type Position struct {
	X float64
	Y float64
	Z float64
}

// InputEvent — событие от игрока, буферизуемое до ближайшего тика.
// Порядок событий одного игрока сохраняется; между игроками — нет.
type InputEvent struct {
	PlayerID   string
	Name       string
	Pos        Position
	Timestamp  time.Time
	Join       bool
	Disconnect bool
}

// TeleportIntent — намерение телепортировать игрока.
type TeleportIntent struct {
	PlayerID string
	Pos      Position
}

// ScoreUpdate — намерение уведомить о новом счёте игрока.
type ScoreUpdate struct {
	PlayerID    string
	Score       int64
	BestSegment int64
	Combo       int32
}

// UIMessage — намерение показать игроку текстовое сообщение.
type UIMessage struct {
	PlayerID string
	Text     string
}

// WorldMutationSink применяет мутации мира. Вызовы fire-and-forget: ядро не
// ждёт подтверждений, доставка — забота коллаборатора.
type WorldMutationSink interface {
	PlaceBlock(pos course.BlockPos, blockType int32)
	RemoveBlock(pos course.BlockPos)
	Teleport(playerID string, pos Position)
	SendMessage(playerID string, text string)
}

// PlayerInputSource отдаёт накопленные события игроков. Тик-цикл —
// единственный потребитель; Drain вызывается раз в тик.
type PlayerInputSource interface {
	Drain() []InputEvent
}

// ScoreSink получает обновления счёта для табло, не чаще раза за тик на
// игрока.
type ScoreSink interface {
	Notify(update ScoreUpdate)
}
