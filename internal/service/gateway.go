// Package service — сетевой шлюз сервера: websocket-соединения игроков,
// очереди ввода и рассылка мутаций мира.
package service

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/worldinterfaces"
)

var (
	statConnects    = expvar.NewInt("gateway_connects")
	statDisconnects = expvar.NewInt("gateway_disconnects")
)

// Gateway принимает websocket-подключения игроков и служит границей
// между сетью и тик-циклом: реализует источник ввода, приёмник мутаций
// мира и приёмник счёта. Сетевые горутины никогда не трогают игровое
// состояние напрямую — только очередь событий.
type Gateway struct {
	logger    *zap.SugaredLogger
	upgrader  websocket.Upgrader
	queue     *InputQueue
	queueSize int

	mu      sync.RWMutex
	clients map[string]*clientConn
}

// NewGateway создает шлюз с указанными размерами очередей.
func NewGateway(logger *zap.SugaredLogger, inputQueueSize, sendQueueSize int) *Gateway {
	if sendQueueSize <= 0 {
		sendQueueSize = 1024
	}
	return &Gateway{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		queue:     NewInputQueue(inputQueueSize),
		queueSize: sendQueueSize,
		clients:   make(map[string]*clientConn),
	}
}

// ServeHTTP обрабатывает новое websocket-подключение игрока.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Warnw("не удалось обновить соединение", "err", err)
		return
	}

	playerID := uuid.NewString()
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "player-" + playerID[:8]
	}

	client := newClientConn(playerID, conn, g.queueSize)
	g.mu.Lock()
	g.clients[playerID] = client
	g.mu.Unlock()
	statConnects.Add(1)

	go client.writeLoop()
	client.send(&ServerMessage{Type: ServerMsgWelcome, PlayerID: playerID})

	g.queue.Push(worldinterfaces.InputEvent{
		PlayerID:  playerID,
		Name:      name,
		Timestamp: time.Now(),
		Join:      true,
	})
	g.logger.Infow("игрок подключился", "player", playerID, "name", name)

	g.readLoop(client, name)
}

// readLoop читает сообщения клиента до разрыва соединения.
func (g *Gateway) readLoop(client *clientConn, name string) {
	defer g.drop(client)

	for {
		var msg ClientMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case ClientMsgPosition:
			g.queue.Push(worldinterfaces.InputEvent{
				PlayerID:  client.playerID,
				Name:      name,
				Pos:       worldinterfaces.Position{X: msg.X, Y: msg.Y, Z: msg.Z},
				Timestamp: time.Now(),
			})
		case ClientMsgLeave:
			return
		case ClientMsgJoin:
			// Вход уже зарегистрирован при подключении.
		default:
			g.logger.Debugw("неизвестный тип сообщения", "player", client.playerID, "type", msg.Type)
		}
	}
}

// drop закрывает соединение и сообщает тик-циклу об отключении.
func (g *Gateway) drop(client *clientConn) {
	g.mu.Lock()
	if _, ok := g.clients[client.playerID]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.clients, client.playerID)
	g.mu.Unlock()

	client.close()
	client.conn.Close()
	statDisconnects.Add(1)

	g.queue.Push(worldinterfaces.InputEvent{
		PlayerID:   client.playerID,
		Timestamp:  time.Now(),
		Disconnect: true,
	})
	g.logger.Infow("игрок отключился", "player", client.playerID)
}

// Drain реализует worldinterfaces.PlayerInputSource.
func (g *Gateway) Drain() []worldinterfaces.InputEvent {
	return g.queue.Drain()
}

// PlaceBlock рассылает размещение блока всем клиентам.
func (g *Gateway) PlaceBlock(pos course.BlockPos, blockType int32) {
	g.broadcast(&ServerMessage{
		Type:      ServerMsgBlockPlace,
		BlockX:    pos.X,
		BlockY:    pos.Y,
		BlockZ:    pos.Z,
		BlockType: blockType,
	})
}

// RemoveBlock рассылает удаление блока всем клиентам.
func (g *Gateway) RemoveBlock(pos course.BlockPos) {
	g.broadcast(&ServerMessage{
		Type:   ServerMsgBlockRemove,
		BlockX: pos.X,
		BlockY: pos.Y,
		BlockZ: pos.Z,
	})
}

// Teleport отправляет игроку команду телепортации.
func (g *Gateway) Teleport(playerID string, pos worldinterfaces.Position) {
	g.sendTo(playerID, &ServerMessage{Type: ServerMsgTeleport, X: pos.X, Y: pos.Y, Z: pos.Z})
}

// SendMessage отправляет игроку текстовое сообщение.
func (g *Gateway) SendMessage(playerID, text string) {
	g.sendTo(playerID, &ServerMessage{Type: ServerMsgChat, Text: text})
}

// Notify реализует worldinterfaces.ScoreSink.
func (g *Gateway) Notify(upd worldinterfaces.ScoreUpdate) {
	g.sendTo(upd.PlayerID, &ServerMessage{
		Type:        ServerMsgScore,
		Score:       upd.Score,
		BestSegment: upd.BestSegment,
		Combo:       upd.Combo,
	})
}

func (g *Gateway) sendTo(playerID string, msg *ServerMessage) {
	g.mu.RLock()
	client, ok := g.clients[playerID]
	g.mu.RUnlock()
	if ok {
		client.send(msg)
	}
}

func (g *Gateway) broadcast(msg *ServerMessage) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, client := range g.clients {
		client.send(msg)
	}
}

// ClientCount возвращает число подключённых клиентов.
func (g *Gateway) ClientCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.clients)
}

// Shutdown уведомляет клиентов об остановке и закрывает соединения.
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	clients := make([]*clientConn, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.clients = make(map[string]*clientConn)
	g.mu.Unlock()

	for _, c := range clients {
		c.send(&ServerMessage{Type: ServerMsgShutdown, Text: "Server is shutting down"})
		c.close()
		c.conn.Close()
	}
	g.logger.Infow("шлюз остановлен", "clients", len(clients))
}
