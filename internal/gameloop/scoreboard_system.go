package gameloop

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/annelo/go-parkour-server/internal/storage"
)

const (
	// scoreboardLogEvery — раз в сколько тиков печатать лидеров.
	scoreboardLogEvery = 200
	// scoreboardSaveEvery — раз в сколько тиков сохранять рекорды.
	scoreboardSaveEvery = 600
)

// ScoreboardSystem ведёт таблицу личных рекордов: впитывает рекорды живых
// сессий, периодически печатает лидеров и сохраняет таблицу на диск.
// Таблица защищена мьютексом: Leaders читается и из консоли сервера.
type ScoreboardSystem struct {
	deps    Dependencies
	mu      sync.Mutex
	records map[string]storage.Record
	ticks   uint64
	dirty   bool
}

// NewScoreboardSystem создает систему табло рекордов.
func NewScoreboardSystem() *ScoreboardSystem {
	return &ScoreboardSystem{records: make(map[string]storage.Record)}
}

// Name возвращает имя системы.
func (ss *ScoreboardSystem) Name() string { return "ScoreboardSystem" }

// Init загружает сохранённые рекорды, если хранилище настроено.
func (ss *ScoreboardSystem) Init(deps Dependencies) error {
	ss.deps = deps
	if deps.Highscores == nil {
		return nil
	}
	records, err := deps.Highscores.Load(context.Background())
	if err != nil {
		return err
	}
	ss.records = records
	log.Printf("[Scoreboard] загружено %d рекордов", len(records))
	return nil
}

// Tick впитывает рекорды сессий и по расписанию печатает и сохраняет их.
func (ss *ScoreboardSystem) Tick(ctx context.Context, dt time.Duration) {
	ss.ticks++
	ss.absorb()

	if ss.ticks%scoreboardLogEvery == 0 {
		ss.logLeaders()
	}
	if ss.deps.Highscores != nil && ss.ticks%scoreboardSaveEvery == 0 {
		ss.save(ctx)
	}
}

// save сохраняет таблицу, если она менялась с прошлого сохранения.
func (ss *ScoreboardSystem) save(ctx context.Context) {
	ss.mu.Lock()
	if !ss.dirty {
		ss.mu.Unlock()
		return
	}
	snapshot := make(map[string]storage.Record, len(ss.records))
	for id, rec := range ss.records {
		snapshot[id] = rec
	}
	ss.dirty = false
	ss.mu.Unlock()

	if err := ss.deps.Highscores.Save(ctx, snapshot); err != nil {
		log.Printf("[Scoreboard] сохранение рекордов: %v", err)
		ss.mu.Lock()
		ss.dirty = true
		ss.mu.Unlock()
	}
}

// absorb обновляет таблицу по живым сессиям. Рекорды не убывают.
func (ss *ScoreboardSystem) absorb() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	now := time.Now().Unix()
	for _, s := range ss.deps.Sessions.All() {
		rec, ok := ss.records[s.PlayerID]
		if ok && s.BestSegment <= rec.BestSegment && s.Score <= rec.Score {
			continue
		}
		if !ok {
			rec = storage.Record{PlayerID: s.PlayerID}
		}
		rec.Name = s.Name
		if s.BestSegment > rec.BestSegment {
			rec.BestSegment = s.BestSegment
		}
		if s.Score > rec.Score {
			rec.Score = s.Score
		}
		rec.UpdatedAt = now
		ss.records[s.PlayerID] = rec
		ss.dirty = true
	}
}

// Leaders возвращает первые n рекордов по дальности, затем по счёту.
func (ss *ScoreboardSystem) Leaders(n int) []storage.Record {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	out := make([]storage.Record, 0, len(ss.records))
	for _, rec := range ss.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BestSegment != out[j].BestSegment {
			return out[i].BestSegment > out[j].BestSegment
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (ss *ScoreboardSystem) logLeaders() {
	leaders := ss.Leaders(3)
	if len(leaders) == 0 {
		return
	}
	for i, rec := range leaders {
		log.Printf("[Scoreboard] #%d %s: сегмент %d, счёт %d", i+1, rec.Name, rec.BestSegment, rec.Score)
	}
}
