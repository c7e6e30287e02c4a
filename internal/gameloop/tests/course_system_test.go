package gameloop_test

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/gameloop"
	"github.com/annelo/go-parkour-server/internal/generation"
	"github.com/annelo/go-parkour-server/internal/sessionmanager"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
	"github.com/annelo/go-parkour-server/internal/worldsync"
)

// fakeGateway — источник ввода и приёмник мутаций в памяти: то, что в
// рабочем сервере делает websocket-шлюз.
type fakeGateway struct {
	pending []worldinterfaces.InputEvent

	blocks    map[course.BlockPos]int32
	teleports map[string][]worldinterfaces.Position
	messages  map[string][]string
	scores    map[string]worldinterfaces.ScoreUpdate
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		blocks:    make(map[course.BlockPos]int32),
		teleports: make(map[string][]worldinterfaces.Position),
		messages:  make(map[string][]string),
		scores:    make(map[string]worldinterfaces.ScoreUpdate),
	}
}

func (f *fakeGateway) push(ev worldinterfaces.InputEvent) {
	f.pending = append(f.pending, ev)
}

func (f *fakeGateway) Drain() []worldinterfaces.InputEvent {
	out := f.pending
	f.pending = nil
	return out
}

func (f *fakeGateway) PlaceBlock(pos course.BlockPos, blockType int32) { f.blocks[pos] = blockType }
func (f *fakeGateway) RemoveBlock(pos course.BlockPos)                 { delete(f.blocks, pos) }
func (f *fakeGateway) Teleport(playerID string, pos worldinterfaces.Position) {
	f.teleports[playerID] = append(f.teleports[playerID], pos)
}
func (f *fakeGateway) SendMessage(playerID, text string) {
	f.messages[playerID] = append(f.messages[playerID], text)
}
func (f *fakeGateway) Notify(upd worldinterfaces.ScoreUpdate) { f.scores[upd.PlayerID] = upd }

type world struct {
	gw       *fakeGateway
	ledger   *course.Ledger
	sessions *sessionmanager.Manager
	system   *gameloop.CourseSystem
}

func newWorld(t *testing.T) *world {
	t.Helper()

	gen := generation.New(generation.DefaultConfig(100), 11)
	ledger := course.NewLedger(course.LedgerConfig{
		Start:               course.BlockPos{Y: 100},
		DifficultyRampEvery: 15,
		MaxDifficulty:       6,
	}, gen, rand.New(rand.NewSource(11)))

	gw := newFakeGateway()
	sessions := sessionmanager.NewManager()
	machine := sessionmanager.NewMachine(ledger, sessionmanager.DefaultConfig())

	system := gameloop.NewCourseSystem(gameloop.CourseConfig{Lookahead: 10, SafetyMargin: 3})
	deps := gameloop.Dependencies{
		Sessions: sessions,
		Machine:  machine,
		Ledger:   ledger,
		Sync:     worldsync.New(gw),
		Inputs:   gw,
		World:    gw,
		Scores:   gw,
	}
	require.NoError(t, system.Init(deps))
	return &world{gw: gw, ledger: ledger, sessions: sessions, system: system}
}

func (w *world) tick() {
	w.system.Tick(context.Background(), 50*time.Millisecond)
}

// posAbove возвращает позицию ног игрока, стоящего на блоке.
func posAbove(b course.BlockPos) worldinterfaces.Position {
	return worldinterfaces.Position{
		X: float64(b.X) + 0.5,
		Y: float64(b.Y) + 1.0,
		Z: float64(b.Z) + 0.5,
	}
}

// advanceTo шагает как настоящий клиент: сначала на блок выхода текущего
// сегмента, затем прыжок на якорь следующего. Каждый отчёт — свой тик.
func (w *world) advanceTo(t *testing.T, playerID string, j int64) {
	t.Helper()
	prev, ok := w.ledger.SegmentAt(j - 1)
	require.True(t, ok, "сегмент %d не сгенерирован", j-1)
	next, ok := w.ledger.SegmentAt(j)
	require.True(t, ok, "сегмент %d не сгенерирован", j)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: playerID, Pos: posAbove(prev.Exit())})
	w.tick()
	w.gw.push(worldinterfaces.InputEvent{PlayerID: playerID, Pos: posAbove(next.Anchor)})
	w.tick()
}

func TestJoinSpawnsPlayerAndMaterializesCourse(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Name: "alice", Join: true})
	w.tick()

	s, err := w.sessions.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, sessionmanager.StateIdle, s.State)

	// Окно сгенерировано вперёд и размещено в мире.
	assert.GreaterOrEqual(t, w.ledger.High(), int64(10))
	assert.NotEmpty(t, w.gw.blocks)
	require.Len(t, w.gw.teleports["p1"], 1)
	assert.Contains(t, w.gw.messages["p1"], "Welcome to epic infinite parkour game!")
}

func TestPlayerAdvancesThroughSegments(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Name: "alice", Join: true})
	w.tick()

	// Шагаем по сегментам 1..3.
	for j := int64(1); j <= 3; j++ {
		w.advanceTo(t, "p1", j)
	}

	s, err := w.sessions.Get("p1")
	require.NoError(t, err)
	assert.Equal(t, sessionmanager.StatePlaying, s.State)
	assert.Equal(t, int64(3), s.CurrentSegment)
	assert.Equal(t, int64(3), s.BestSegment)
	assert.Positive(t, s.Score)

	upd, ok := w.gw.scores["p1"]
	require.True(t, ok)
	assert.Equal(t, s.Score, upd.Score)
	assert.Equal(t, int64(3), upd.BestSegment)

	// Окно держится впереди лидера.
	assert.GreaterOrEqual(t, w.ledger.High(), s.CurrentSegment+10)
}

func TestFallRespawnCycle(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Name: "alice", Join: true})
	w.tick()

	w.advanceTo(t, "p1", 1)
	w.advanceTo(t, "p1", 2)

	s, _ := w.sessions.Get("p1")
	require.Equal(t, int64(2), s.CurrentSegment)

	// Проваливаемся глубоко под трассу.
	seg2, ok := w.ledger.SegmentAt(2)
	require.True(t, ok)
	below := posAbove(seg2.Anchor)
	below.Y -= 30
	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Pos: below})
	w.tick()

	assert.Equal(t, sessionmanager.StateFalling, s.State)
	teleports := len(w.gw.teleports["p1"])
	assert.Equal(t, 2, teleports, "вход + падение")

	// Следующий тик возвращает в игру на том же чекпоинте.
	w.tick()
	assert.Equal(t, sessionmanager.StatePlaying, s.State)
	assert.Equal(t, int64(2), s.CurrentSegment)
	assert.Equal(t, int64(2), s.BestSegment)
}

func TestEvictionRespectsSlowestPlayer(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "fast", Name: "fast", Join: true})
	w.gw.push(worldinterfaces.InputEvent{PlayerID: "slow", Name: "slow", Join: true})
	w.tick()

	// Быстрый игрок уходит вперёд, медленный остаётся на старте.
	for j := int64(1); j <= 8; j++ {
		w.advanceTo(t, "fast", j)
	}

	// Низ окна не поднимается выше сегмента медленного игрока.
	assert.Equal(t, int64(0), w.ledger.Low())
	start, ok := w.ledger.SegmentAt(0)
	require.True(t, ok)
	assert.True(t, w.ledger.Materialized() > 0)
	assert.NotNil(t, start)

	// Медленный игрок отключается — окно подтягивается за быстрым.
	w.gw.push(worldinterfaces.InputEvent{PlayerID: "slow", Disconnect: true})
	w.tick()

	fast, _ := w.sessions.Get("fast")
	assert.Equal(t, fast.CurrentSegment-3, w.ledger.Low())
	_, ok = w.ledger.SegmentAt(fast.CurrentSegment)
	assert.True(t, ok, "сегмент под игроком вычищен")

	// Индексы ниже окна отсутствуют и в мире их блоков больше нет.
	_, ok = w.ledger.SegmentAt(0)
	assert.False(t, ok)
}

// Консоль сервера читает список игроков из другой горутины; снимок
// должен быть безопасен параллельно тикам и отражать конец последнего.
func TestPlayersSnapshotForConsole(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Name: "alice", Join: true})
	w.tick()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				w.system.Players()
			}
		}
	}()

	for j := int64(1); j <= 3; j++ {
		w.advanceTo(t, "p1", j)
	}
	close(stop)
	wg.Wait()

	players := w.system.Players()
	require.Len(t, players, 1)
	assert.Equal(t, "p1", players[0].PlayerID)
	assert.Equal(t, "alice", players[0].Name)
	assert.Equal(t, sessionmanager.StatePlaying, players[0].State)
	assert.Equal(t, int64(3), players[0].Segment)
	assert.Positive(t, players[0].Score)

	// Снимок — копия: правка у вызывающего не трогает оригинал.
	players[0].Score = -1
	again := w.system.Players()
	assert.Positive(t, again[0].Score)
}

func TestDisconnectRemovesSession(t *testing.T) {
	w := newWorld(t)

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Name: "alice", Join: true})
	w.tick()
	require.Equal(t, 1, w.sessions.Count())

	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Disconnect: true})
	w.tick()
	assert.Equal(t, 0, w.sessions.Count())

	// События от отключённого игрока игнорируются.
	w.gw.push(worldinterfaces.InputEvent{PlayerID: "p1", Pos: worldinterfaces.Position{Y: 101}})
	w.tick()
	assert.Equal(t, 0, w.sessions.Count())
}
