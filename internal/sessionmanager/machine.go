package sessionmanager

import (
	"fmt"
	"math"
	"time"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// Config — настройки машины состояний сессии.
type Config struct {
	// FallMargin — на сколько блоков ниже якоря текущего сегмента надо
	// опуститься, чтобы засчитать падение.
	FallMargin int32
	// FallTimeout — падение по таймеру: столько времени без продвижения.
	FallTimeout time.Duration
	// MaxStepDistance — максимальное правдоподобное перемещение между
	// двумя отчётами позиции; больше — вход не доверенный.
	MaxStepDistance float64
	// BaseReward — базовая награда за сегмент; умножается на (сложность+1).
	BaseReward int64
	// HardResetOnFall — при падении возвращать в начало окна вместо
	// чекпоинта текущего сегмента.
	HardResetOnFall bool
	// AnnounceEvery — каждые сколько сегментов рекорда объявлять счёт.
	AnnounceEvery int64
}

// DefaultConfig возвращает разумные значения по умолчанию.
func DefaultConfig() Config {
	return Config{
		FallMargin:      4,
		FallTimeout:     20 * time.Second,
		MaxStepDistance: 12,
		BaseReward:      10,
		AnnounceEvery:   25,
	}
}

// Effects собирает намерения, порождённые переходами за один тик. Машина
// состояний не зовёт сетевой код: все побочные эффекты выражены здесь и
// передаются коллабораторам тик-циклом.
type Effects struct {
	Teleports []worldinterfaces.TeleportIntent
	Messages  []worldinterfaces.UIMessage
	// Scores дедуплицированы по игроку: не больше одного за тик.
	Scores map[string]worldinterfaces.ScoreUpdate
}

// NewEffects создает пустой набор намерений.
func NewEffects() *Effects {
	return &Effects{Scores: make(map[string]worldinterfaces.ScoreUpdate)}
}

func (fx *Effects) teleport(playerID string, pos worldinterfaces.Position) {
	fx.Teleports = append(fx.Teleports, worldinterfaces.TeleportIntent{PlayerID: playerID, Pos: pos})
}

func (fx *Effects) message(playerID, text string) {
	fx.Messages = append(fx.Messages, worldinterfaces.UIMessage{PlayerID: playerID, Text: text})
}

func (fx *Effects) score(s *Session) {
	fx.Scores[s.PlayerID] = worldinterfaces.ScoreUpdate{
		PlayerID:    s.PlayerID,
		Score:       s.Score,
		BestSegment: s.BestSegment,
		Combo:       s.Combo,
	}
}

// Machine выполняет переходы сессий. Владеет только чтением бухгалтерии;
// мир меняется исключительно через Effects.
type Machine struct {
	cfg    Config
	ledger *course.Ledger
}

// NewMachine создает машину состояний над бухгалтерией трассы.
func NewMachine(ledger *course.Ledger, cfg Config) *Machine {
	if cfg.AnnounceEvery <= 0 {
		cfg.AnnounceEvery = 25
	}
	return &Machine{cfg: cfg, ledger: ledger}
}

// HandlePosition обрабатывает отчёт о позиции игрока.
func (m *Machine) HandlePosition(s *Session, pos worldinterfaces.Position, now time.Time, fx *Effects) {
	switch s.State {
	case StateDisconnected, StateFinished:
		return
	case StateFalling:
		// Позиции до телепорта устарели; ждём возрождения.
		return
	case StateIdle:
		if !moved(s.LastPos, pos) {
			s.LastPos = pos
			return
		}
		s.State = StatePlaying
		s.StartTime = now
		s.LastAdvance = now
	}

	// Скачок позиции за пределами физически достижимого не засчитывается
	// как продвижение: сессия принудительно уходит в падение.
	if stepDistance(s.LastPos, pos) > m.cfg.MaxStepDistance {
		m.fall(s, now, fx)
		return
	}
	s.LastPos = pos

	block := course.BlockUnderFeet(pos.X, pos.Y, pos.Z)
	for j := s.CurrentSegment + 1; j <= m.ledger.High(); j++ {
		seg, ok := m.ledger.SegmentAt(j)
		if !ok {
			// Ниже окна — уже пройден.
			continue
		}
		if seg.ContainsBlock(block) {
			m.advanceTo(s, j, now, fx)
			return
		}
	}

	if cur, ok := m.ledger.SegmentAt(s.CurrentSegment); ok {
		if int32(math.Floor(pos.Y)) < cur.Anchor.Y-m.cfg.FallMargin {
			m.fall(s, now, fx)
		}
	}
}

// CheckTimers переводит играющую сессию в падение, если продвижения не было
// дольше таймаута.
func (m *Machine) CheckTimers(s *Session, now time.Time, fx *Effects) {
	if s.State != StatePlaying {
		return
	}
	if now.Sub(s.LastAdvance) > m.cfg.FallTimeout {
		m.fall(s, now, fx)
	}
}

// ForceFall принудительно переводит сессию в падение. Используется
// тик-циклом при восстановлении после паники в обработке сессии.
func (m *Machine) ForceFall(s *Session, now time.Time, fx *Effects) {
	if s.State == StateDisconnected || s.State == StateFinished || s.State == StateFalling {
		return
	}
	m.fall(s, now, fx)
}

// Respawn завершает падение: телепорт уже отправлен, сессия возвращается в
// игру со сброшенным таймером. CurrentSegment и BestSegment не меняются.
func (m *Machine) Respawn(s *Session, now time.Time) {
	if s.State != StateFalling {
		return
	}
	s.State = StatePlaying
	s.LastAdvance = now
}

// advanceTo продвигает сессию до сегмента j, начисляя награду за каждый
// пройденный сегмент пропорционально его сложности.
func (m *Machine) advanceTo(s *Session, j int64, now time.Time, fx *Effects) {
	prevBest := s.BestSegment
	for k := s.CurrentSegment + 1; k <= j; k++ {
		if seg, ok := m.ledger.SegmentAt(k); ok {
			s.Score += m.cfg.BaseReward * int64(seg.Difficulty+1)
		}
	}
	s.Combo += int32(j - s.CurrentSegment)
	s.CurrentSegment = j
	if j > s.BestSegment {
		s.BestSegment = j
	}
	s.LastAdvance = now
	fx.score(s)

	if s.BestSegment/m.cfg.AnnounceEvery > prevBest/m.cfg.AnnounceEvery {
		fx.message(s.PlayerID, fmt.Sprintf("Segment %d! Score: %d", s.BestSegment, s.Score))
	}

	if m.ledger.Finite() && j >= m.ledger.Cap() {
		s.State = StateFinished
		fx.message(s.PlayerID, fmt.Sprintf("Course complete! Final score: %d", s.Score))
		fx.score(s)
	}
}

// fall переводит сессию в падение и отправляет намерение телепорта на точку
// возрождения. BestSegment никогда не убывает.
func (m *Machine) fall(s *Session, now time.Time, fx *Effects) {
	s.State = StateFalling
	s.Combo = 0

	target := s.CurrentSegment
	if m.cfg.HardResetOnFall {
		target = m.ledger.Low()
		fx.message(s.PlayerID, fmt.Sprintf("Your score was %d", s.Score))
		s.Score = 0
		s.CurrentSegment = target
	}

	seg, ok := m.ledger.SegmentAt(target)
	if !ok {
		// Чекпоинт ниже окна: возрождаемся на нижней границе.
		target = m.ledger.Low()
		seg, ok = m.ledger.SegmentAt(target)
		if !ok {
			return
		}
		s.CurrentSegment = target
	}

	spawn := RespawnPosition(seg)
	s.LastPos = spawn
	s.LastAdvance = now
	fx.teleport(s.PlayerID, spawn)
	fx.score(s)
}

// RespawnPosition возвращает позицию игрока над якорем сегмента.
func RespawnPosition(seg *course.Segment) worldinterfaces.Position {
	return worldinterfaces.Position{
		X: float64(seg.Anchor.X) + 0.5,
		Y: float64(seg.Anchor.Y) + 1.0,
		Z: float64(seg.Anchor.Z) + 0.5,
	}
}

func moved(a, b worldinterfaces.Position) bool {
	const eps = 0.01
	return math.Abs(a.X-b.X) > eps || math.Abs(a.Y-b.Y) > eps || math.Abs(a.Z-b.Z) > eps
}

func stepDistance(a, b worldinterfaces.Position) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
