package service

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/annelo/go-parkour-server/internal/metrics"
)

// clientConn представляет соединение клиента с приоритетными очередями
// отправки. Телепорты и сообщения идут через highQueue, остальное —
// через normalQueue; переполнение любой очереди разрешается отбросом,
// чтобы медленный клиент не тормозил тик.
type clientConn struct {
	playerID string
	conn     *websocket.Conn

	highQueue   chan *ServerMessage
	normalQueue chan *ServerMessage
	done        chan struct{}
	closeOnce   sync.Once
}

func newClientConn(playerID string, conn *websocket.Conn, queueSize int) *clientConn {
	return &clientConn{
		playerID:    playerID,
		conn:        conn,
		highQueue:   make(chan *ServerMessage, queueSize),
		normalQueue: make(chan *ServerMessage, queueSize),
		done:        make(chan struct{}),
	}
}

// send ставит сообщение в очередь и никогда не блокирует отправителя:
// его зовёт тик-цикл, и зависший клиент не должен останавливать сервер.
// У телепортов, чата и shutdown при переполнении вытесняется самое
// старое сообщение очереди (свежая команда важнее), обычные сообщения
// просто отбрасываются.
func (c *clientConn) send(msg *ServerMessage) {
	switch msg.Type {
	case ServerMsgTeleport, ServerMsgChat, ServerMsgWelcome, ServerMsgShutdown:
		for {
			select {
			case c.highQueue <- msg:
				return
			case <-c.done:
				return
			default:
			}
			select {
			case <-c.highQueue:
				metrics.SendDropped.Inc()
			default:
			}
		}
	default:
		select {
		case c.normalQueue <- msg:
		default:
			metrics.SendDropped.Inc()
		}
	}
}

// writeLoop сливает очереди в сокет; высокоприоритетная очередь всегда
// осушается первой. Выходит при закрытии done.
func (c *clientConn) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.highQueue:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
		}

		select {
		case <-c.done:
			return
		case msg := <-c.highQueue:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case msg := <-c.normalQueue:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

// close будит writeLoop; последующие отправки уходят в никуда.
func (c *clientConn) close() {
	c.closeOnce.Do(func() { close(c.done) })
}
