package main

import (
	"bufio"
	"context"
	"expvar"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/annelo/go-parkour-server/internal/config"
	"github.com/annelo/go-parkour-server/internal/course"
	"github.com/annelo/go-parkour-server/internal/gameloop"
	"github.com/annelo/go-parkour-server/internal/generation"
	"github.com/annelo/go-parkour-server/internal/service"
	"github.com/annelo/go-parkour-server/internal/sessionmanager"
	"github.com/annelo/go-parkour-server/internal/storage"
	"github.com/annelo/go-parkour-server/internal/worldsync"
)

var (
	configPath = flag.String("config", "", "Путь к YAML-конфигурации (пусто = значения по умолчанию)")
	addr       = flag.String("addr", "", "Адрес websocket-сервера (переопределяет конфигурацию)")
	seed       = flag.Int64("seed", 0, "Сид генерации трассы (0 = случайный)")
)

func main() {
	// Парсим флаги командной строки
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Ошибка загрузки конфигурации: %v", err)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Собираем ядро: генератор -> бухгалтерия -> машина состояний.
	genCfg := generation.DefaultConfig(cfg.Game.StartY)
	genCfg.YBand = cfg.Game.YBand
	gen := generation.New(genCfg, cfg.Seed)

	rng := rand.New(rand.NewSource(cfg.Seed))
	ledger := course.NewLedger(course.LedgerConfig{
		Start:               course.BlockPos{X: cfg.Game.StartX, Y: cfg.Game.StartY, Z: cfg.Game.StartZ},
		DifficultyRampEvery: cfg.Game.DifficultyRampEvery,
		MaxDifficulty:       cfg.Game.MaxDifficulty,
		CourseLength:        cfg.Game.CourseLength,
	}, gen, rng)

	machine := sessionmanager.NewMachine(ledger, sessionmanager.Config{
		FallMargin:      cfg.Game.FallMargin,
		FallTimeout:     cfg.Game.FallTimeout,
		MaxStepDistance: cfg.Game.MaxStepDistance,
		BaseReward:      cfg.Game.BaseReward,
		HardResetOnFall: cfg.Game.HardResetOnFall,
		AnnounceEvery:   25,
	})
	sessions := sessionmanager.NewManager()

	gateway := service.NewGateway(logger, cfg.Game.InputQueueSize, cfg.Game.SendQueueSize)
	coordinator := worldsync.New(gateway)

	// Хранилище рекордов опционально.
	var highscores storage.HighscoreStore
	if cfg.HighscorePath != "" {
		fs, err := storage.NewFileStore(cfg.HighscorePath)
		if err != nil {
			logger.Warnw("хранилище рекордов недоступно, продолжаем без него", "err", err)
		} else {
			highscores = fs
			defer fs.Close()
		}
	}

	deps := gameloop.Dependencies{
		Sessions:   sessions,
		Machine:    machine,
		Ledger:     ledger,
		Sync:       coordinator,
		Inputs:     gateway,
		World:      gateway,
		Scores:     gateway,
		Highscores: highscores,
	}

	courseSystem := gameloop.NewCourseSystem(gameloop.CourseConfig{
		Lookahead:    cfg.Game.LookaheadDepth,
		SafetyMargin: cfg.Game.EvictionSafetyMargin,
	})
	scoreboard := gameloop.NewScoreboardSystem()
	loop, err := gameloop.NewLoop(cfg.Game.TickInterval, deps, courseSystem, scoreboard)
	if err != nil {
		log.Fatalf("Ошибка инициализации игрового цикла: %v", err)
	}
	go loop.Run(ctx)

	// HTTP-сервер со шлюзом игроков.
	mux := http.NewServeMux()
	mux.Handle("/ws", gateway)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	// Отдельный эндпоинт метрик и expvar.
	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsMux.Handle("/debug/vars", expvar.Handler())
		go func() {
			if err := http.ListenAndServe(cfg.MetricsAddr, metricsMux); err != nil && err != http.ErrServerClosed {
				logger.Warnw("сервер метрик остановлен", "err", err)
			}
		}()
	}

	// Обрабатываем сигналы для корректного завершения
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalChan
		log.Println("Получен сигнал завершения, останавливаем сервер...")
		cancel()
		gateway.Shutdown()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("Паркур-сервер запущен на %s", cfg.Addr)
	log.Printf("Используется сид трассы: %d", cfg.Seed)

	// CLI для администратора: REPL для команд
	runREPL(courseSystem, scoreboard, func() {
		cancel()
		gateway.Shutdown()
		httpServer.Close()
	})

	<-ctx.Done()
}

func runREPL(courseSystem *gameloop.CourseSystem, scoreboard *gameloop.ScoreboardSystem, stop func()) {
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			switch strings.TrimSpace(line) {
			case "":
			case "players":
				players := courseSystem.Players()
				for _, p := range players {
					fmt.Printf("%s (%s): состояние=%s сегмент=%d счёт=%d\n",
						p.Name, p.PlayerID, p.State, p.Segment, p.Score)
				}
				fmt.Printf("Всего: %d\n", len(players))
			case "top":
				for i, rec := range scoreboard.Leaders(10) {
					fmt.Printf("#%d %s: сегмент %d, счёт %d\n", i+1, rec.Name, rec.BestSegment, rec.Score)
				}
			case "stop":
				fmt.Println("Останавливаем сервер...")
				stop()
				return
			case "help":
				fmt.Println("players - список сессий\ntop - таблица рекордов\nstop - остановить сервер")
			default:
				fmt.Printf("Неизвестная команда: %s\n", strings.TrimSpace(line))
			}
		}
	}()
}
