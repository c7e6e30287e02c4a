package gameloop

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/metrics"
	"github.com/annelo/go-parkour-server/internal/sessionmanager"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// CourseConfig — параметры поддержания окна трассы.
type CourseConfig struct {
	// Lookahead — на сколько сегментов впереди лидера держать трассу.
	Lookahead int64
	// SafetyMargin — запас сегментов позади самого отстающего игрока,
	// которые не вычищаются.
	SafetyMargin int64
}

// PlayerInfo — снимок сессии на конец тика для админской консоли.
type PlayerInfo struct {
	PlayerID string
	Name     string
	State    sessionmanager.State
	Segment  int64
	Score    int64
}

// CourseSystem — главная система тика: принимает ввод игроков, гоняет
// машину состояний сессий, поддерживает окно трассы и применяет дельту
// к миру. Единственный мутатор бухгалтерии и сессий.
type CourseSystem struct {
	cfg   CourseConfig
	deps  Dependencies
	ticks uint64

	// roster публикуется тик-циклом и читается консолью.
	rosterMu sync.Mutex
	roster   []PlayerInfo
}

// NewCourseSystem создает систему трассы.
func NewCourseSystem(cfg CourseConfig) *CourseSystem {
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 10
	}
	return &CourseSystem{cfg: cfg}
}

// Name возвращает имя системы.
func (cs *CourseSystem) Name() string { return "CourseSystem" }

// Init сохраняет зависимости.
func (cs *CourseSystem) Init(deps Dependencies) error {
	cs.deps = deps
	return nil
}

// Tick выполняет один шаг симуляции.
func (cs *CourseSystem) Tick(ctx context.Context, dt time.Duration) {
	cs.ticks++
	now := time.Now()
	fx := sessionmanager.NewEffects()

	// Телепорты падения разосланы в конце прошлого тика; падавшие
	// возвращаются в игру.
	for _, s := range cs.deps.Sessions.All() {
		cs.guardSession(s, now, fx, func() { cs.deps.Machine.Respawn(s, now) })
	}

	for _, ev := range cs.deps.Inputs.Drain() {
		cs.handleEvent(ev, now, fx)
	}

	for _, s := range cs.deps.Sessions.All() {
		cs.guardSession(s, now, fx, func() { cs.deps.Machine.CheckTimers(s, now, fx) })
	}
	metrics.ActiveSessions.Set(float64(cs.deps.Sessions.Count()))

	cs.maintainWindow(fx)
	cs.deps.Sync.Advance(cs.ticks)
	cs.flush(fx)
	cs.publishRoster()
}

// guardSession изолирует панику в обработке одной сессии: ошибка
// логируется, сессия принудительно уходит в падение, тик продолжается.
func (cs *CourseSystem) guardSession(s *sessionmanager.Session, now time.Time, fx *sessionmanager.Effects, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Course] паника в обработке сессии %s: %v", s.PlayerID, r)
			cs.deps.Machine.ForceFall(s, now, fx)
		}
	}()
	fn()
}

// handleEvent обрабатывает одно событие ввода. Паника в обработке одной
// сессии не валит тик: сессия принудительно уходит в падение.
func (cs *CourseSystem) handleEvent(ev worldinterfaces.InputEvent, now time.Time, fx *sessionmanager.Effects) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[Course] паника в обработке сессии %s: %v", ev.PlayerID, r)
			if s, err := cs.deps.Sessions.Get(ev.PlayerID); err == nil {
				cs.deps.Machine.ForceFall(s, now, fx)
			}
		}
	}()

	switch {
	case ev.Join:
		cs.handleJoin(ev, now, fx)
	case ev.Disconnect:
		if err := cs.deps.Sessions.Remove(ev.PlayerID); err == nil {
			log.Printf("[Course] игрок %s отключился", ev.PlayerID)
		}
	default:
		s, err := cs.deps.Sessions.Get(ev.PlayerID)
		if err != nil {
			return
		}
		cs.deps.Machine.HandlePosition(s, ev.Pos, now, fx)
	}
}

func (cs *CourseSystem) handleJoin(ev worldinterfaces.InputEvent, now time.Time, fx *sessionmanager.Effects) {
	start := cs.deps.Ledger.Low()
	seg, ok := cs.deps.Ledger.SegmentAt(start)
	if !ok {
		log.Printf("[Course] нет стартового сегмента %d для игрока %s", start, ev.PlayerID)
		return
	}
	spawn := sessionmanager.RespawnPosition(seg)

	s, err := cs.deps.Sessions.Add(ev.PlayerID, ev.Name, start, spawn, now)
	if err != nil {
		log.Printf("[Course] не удалось добавить сессию %s: %v", ev.PlayerID, err)
		return
	}
	log.Printf("[Course] игрок %s (%s) вошёл на сегменте %d", s.Name, s.PlayerID, start)

	fx.Teleports = append(fx.Teleports, worldinterfaces.TeleportIntent{PlayerID: s.PlayerID, Pos: spawn})
	fx.Messages = append(fx.Messages, worldinterfaces.UIMessage{
		PlayerID: s.PlayerID,
		Text:     "Welcome to epic infinite parkour game!",
	})
}

// maintainWindow догенерирует трассу впереди лидера и вычищает сегменты
// позади отстающего, затем применяет дельту к миру одной пачкой.
func (cs *CourseSystem) maintainWindow(fx *sessionmanager.Effects) {
	ledger := cs.deps.Ledger

	watermark := ledger.Low() + cs.cfg.Lookahead
	if maxCur, ok := cs.deps.Sessions.MaxCurrent(); ok {
		watermark = maxCur + cs.cfg.Lookahead
	}
	added, err := ledger.EnsureGenerated(watermark)
	if err != nil {
		// Частичный результат всё равно размещаем; догенерация
		// повторится на следующем тике.
		metrics.GenerationErrors.Inc()
		log.Printf("[Course] генерация: %v", err)
	}
	metrics.SegmentsGenerated.Add(float64(len(added)))

	var evicted []*course.Segment
	if minCur, ok := cs.deps.Sessions.MinCurrent(); ok {
		floor := minCur - cs.cfg.SafetyMargin
		if floor > ledger.Low() {
			evicted = ledger.EvictBelow(floor)
			metrics.SegmentsEvicted.Add(float64(len(evicted)))
		}
	}

	cs.deps.Sync.Apply(added, evicted)
}

// flush рассылает накопленные за тик намерения.
func (cs *CourseSystem) flush(fx *sessionmanager.Effects) {
	for _, tp := range fx.Teleports {
		cs.deps.World.Teleport(tp.PlayerID, tp.Pos)
	}
	for _, msg := range fx.Messages {
		cs.deps.World.SendMessage(msg.PlayerID, msg.Text)
	}
	for _, upd := range fx.Scores {
		cs.deps.Scores.Notify(upd)
	}
}

// publishRoster снимает копию сессий под мьютексом. Живые указатели на
// сессии за пределы тик-цикла не выходят.
func (cs *CourseSystem) publishRoster() {
	all := cs.deps.Sessions.All()
	roster := make([]PlayerInfo, 0, len(all))
	for _, s := range all {
		roster = append(roster, PlayerInfo{
			PlayerID: s.PlayerID,
			Name:     s.Name,
			State:    s.State,
			Segment:  s.CurrentSegment,
			Score:    s.Score,
		})
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].PlayerID < roster[j].PlayerID })

	cs.rosterMu.Lock()
	cs.roster = roster
	cs.rosterMu.Unlock()
}

// Players возвращает снимок сессий на конец последнего тика. Безопасен
// для вызова из других горутин (админская консоль).
func (cs *CourseSystem) Players() []PlayerInfo {
	cs.rosterMu.Lock()
	defer cs.rosterMu.Unlock()
	out := make([]PlayerInfo, len(cs.roster))
	copy(out, cs.roster)
	return out
}
