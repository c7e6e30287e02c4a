package gameloop

import (
	"context"
	"time"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/sessionmanager"
	"github.com/annelo/go-parkour-server/internal/storage"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
	"github.com/annelo/go-parkour-server/internal/worldsync"
)

// System описывает логику, выполняемую каждый тик цикла.
type System interface {
	// Init вызывается один раз перед запуском цикла.
	Init(deps Dependencies) error
	// Tick вызывается каждый игровой тик.
	Tick(ctx context.Context, dt time.Duration)
	// Name возвращает читаемое имя системы.
	Name() string
}

// Dependencies передаются системам при инициализации. Тик-цикл —
// единственный мутатор бухгалтерии и сессий; системы вызываются
// последовательно внутри одного тика.
type Dependencies struct {
	Sessions *sessionmanager.Manager
	Machine  *sessionmanager.Machine
	Ledger   *course.Ledger
	Sync     *worldsync.Coordinator

	Inputs worldinterfaces.PlayerInputSource
	World  worldinterfaces.WorldMutationSink
	Scores worldinterfaces.ScoreSink

	// Highscores может быть nil: рекорды тогда не сохраняются.
	Highscores storage.HighscoreStore
}
