// Package sessionmanager отслеживает продвижение каждого подключённого
// игрока по трассе: позицию, счёт, тайминги и переходы падение/возрождение.
package sessionmanager

import (
	"errors"
	"sync"
	"time"

	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

// State — состояние сессии игрока.
type State int32

const (
	StateIdle State = iota
	StatePlaying
	StateFalling
	StateFinished
	StateDisconnected
)

// String возвращает строковое представление состояния.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateFalling:
		return "falling"
	case StateFinished:
		return "finished"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Session — данные одной сессии игрока. Изменяется только тик-циклом.
type Session struct {
	PlayerID string
	Name     string

	State State

	// CurrentSegment — дальний сегмент, на который игрок успешно приземлился.
	CurrentSegment int64
	// BestSegment — личный рекорд за эту сессию; никогда не убывает.
	BestSegment int64

	Score int64
	Combo int32

	JoinedAt    time.Time
	StartTime   time.Time
	LastAdvance time.Time

	LastPos worldinterfaces.Position
}

// Manager управляет сессиями игроков.
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewManager создает новый экземпляр менеджера сессий.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
	}
}

// Add добавляет новую сессию. Игрок появляется в состоянии Idle на
// указанном сегменте.
func (m *Manager) Add(id, name string, startSegment int64, spawn worldinterfaces.Position, now time.Time) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("сессия с таким ID уже существует")
	}

	s := &Session{
		PlayerID:       id,
		Name:           name,
		State:          StateIdle,
		CurrentSegment: startSegment,
		BestSegment:    startSegment,
		JoinedAt:       now,
		LastPos:        spawn,
	}
	m.sessions[id] = s
	return s, nil
}

// Get возвращает сессию по ID игрока.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("сессия не найдена")
	}
	return s, nil
}

// Remove уничтожает сессию; после этого она не участвует ни в каких
// агрегатах (порог вычистки, табло).
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return errors.New("сессия не найдена")
	}
	delete(m.sessions, id)
	return nil
}

// All возвращает список всех сессий.
func (m *Manager) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Count возвращает число активных сессий.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MinCurrent возвращает минимальный текущий сегмент среди сессий.
// Второе значение false, если сессий нет.
func (m *Manager) MinCurrent() (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := false
	var min int64
	for _, s := range m.sessions {
		if !found || s.CurrentSegment < min {
			min = s.CurrentSegment
			found = true
		}
	}
	return min, found
}

// MaxCurrent возвращает максимальный текущий сегмент среди сессий.
func (m *Manager) MaxCurrent() (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := false
	var max int64
	for _, s := range m.sessions {
		if !found || s.CurrentSegment > max {
			max = s.CurrentSegment
			found = true
		}
	}
	return max, found
}
