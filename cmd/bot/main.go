// Бот-клиент для нагрузочной проверки сервера: подключается по
// websocket, слушает телепорты и шлёт отчёты позиции, шагая вперёд.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

var (
	serverAddr = flag.String("addr", "localhost:8080", "Адрес сервера")
	botName    = flag.String("name", "bot", "Имя бота")
	interval   = flag.Duration("interval", 100*time.Millisecond, "Интервал отчётов позиции")
	step       = flag.Float64("step", 0.4, "Шаг вперёд за отчёт")
)

type clientMessage struct {
	Type string  `json:"type"`
	X    float64 `json:"x,omitempty"`
	Y    float64 `json:"y,omitempty"`
	Z    float64 `json:"z,omitempty"`
}

type serverMessage struct {
	Type     string  `json:"type"`
	PlayerID string  `json:"player_id,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Z        float64 `json:"z,omitempty"`
	Text     string  `json:"text,omitempty"`
	Score    int64   `json:"score,omitempty"`
}

func main() {
	flag.Parse()

	u := url.URL{
		Scheme:   "ws",
		Host:     *serverAddr,
		Path:     "/ws",
		RawQuery: "name=" + url.QueryEscape(*botName),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Не удалось подключиться к %s: %v", u.String(), err)
	}
	defer conn.Close()

	var mu sync.Mutex
	var pos clientMessage
	spawned := false

	// Читаем сообщения сервера: телепорты задают позицию бота.
	go func() {
		for {
			var msg serverMessage
			if err := conn.ReadJSON(&msg); err != nil {
				log.Printf("Соединение закрыто: %v", err)
				os.Exit(0)
			}
			switch msg.Type {
			case "welcome":
				log.Printf("Подключён как %s", msg.PlayerID)
			case "teleport":
				mu.Lock()
				pos = clientMessage{Type: "position", X: msg.X, Y: msg.Y, Z: msg.Z}
				spawned = true
				mu.Unlock()
			case "message":
				fmt.Println(msg.Text)
			case "score":
				log.Printf("Счёт: %d", msg.Score)
			case "shutdown":
				log.Println("Сервер останавливается")
				os.Exit(0)
			}
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-signalChan:
			conn.WriteJSON(clientMessage{Type: "leave"})
			return
		case <-ticker.C:
			mu.Lock()
			if spawned {
				pos.Z += *step
				if err := conn.WriteJSON(pos); err != nil {
					mu.Unlock()
					log.Fatalf("Ошибка отправки: %v", err)
				}
			}
			mu.Unlock()
		}
	}
}
