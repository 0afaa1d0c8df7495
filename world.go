// Package arena is the authoritative simulation core of the game: it owns the
// tick engine that resolves all collisions against the shared world store and
// broadcasts the resulting snapshot to every connected client.
package arena

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/akaeyuhi/GameLeaderTable/events"
	"github.com/akaeyuhi/GameLeaderTable/gamestate"
	"github.com/akaeyuhi/GameLeaderTable/server"
)

type World struct {
	cfg Config

	// Storage
	store gamestate.Store

	// Networking
	hub    *events.EventHub
	server *server.Server

	// Tick
	tick            *atomic.Uint64
	tickChannel     <-chan time.Time
	tickDoneChannel chan<- uint64

	running      atomic.Bool
	stopLoop     chan struct{}
	shutdownDone chan struct{}
	shutdownOnce sync.Once
}

// NewWorld creates a World against the store described by cfg. The returned
// world does nothing until StartGame is called.
func NewWorld(cfg Config, opts ...WorldOption) (*World, error) {
	w := &World{
		cfg:          cfg,
		hub:          events.NewEventHub(),
		tick:         new(atomic.Uint64),
		stopLoop:     make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.store == nil {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
		})
		w.store = gamestate.NewRedisStorage(client)
	}
	if w.tickChannel == nil {
		w.tickChannel = time.Tick(cfg.TickPeriod) //nolint:staticcheck // the ticker lives as long as the process.
	}

	w.server = server.New(w.store, w.hub,
		server.WithPort(w.cfg.ArenaPort),
		server.WithMoveSpeed(cfg.MoveSpeed),
		server.WithStartSize(cfg.StartSize),
	)

	return w, nil
}

// CurrentTick returns the number of completed ticks.
func (w *World) CurrentTick() uint64 {
	return w.tick.Load()
}

// StartGame wipes and seeds the world store, starts the tick loop and the
// transport server, and blocks until Shutdown is called or a termination
// signal arrives.
func (w *World) StartGame() error {
	if !w.running.CompareAndSwap(false, true) {
		return eris.New("game has already been started")
	}

	if err := w.store.Reset(context.Background(), w.cfg.MaxFoods); err != nil {
		return eris.Wrap(err, "failed to initialize world state")
	}

	w.startGameLoop(context.Background(), w.tickChannel, w.tickDoneChannel)
	w.startServer()
	w.handleShutdown()

	<-w.shutdownDone
	return nil
}

func (w *World) IsGameRunning() bool {
	return w.running.Load()
}

// Shutdown stops the tick loop, the transport server and the event hub. It is
// safe to call more than once.
func (w *World) Shutdown() {
	w.shutdownOnce.Do(func() {
		log.Info().Msg("Shutting down game loop.")
		close(w.stopLoop)
		if err := w.server.Shutdown(); err != nil {
			log.Error().Err(err).Msg(eris.ToString(err, true))
		}
		w.hub.Shutdown()
		w.running.Store(false)
		close(w.shutdownDone)
	})
}

func (w *World) startServer() {
	go func() {
		if err := w.server.Serve(); err != nil {
			log.Error().Err(err).Msgf("the server has failed: %s", eris.ToString(err, true))
		}
	}()
}

func (w *World) handleShutdown() {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalChan
		w.Shutdown()
	}()
}

// startGameLoop runs ticks in a single goroutine, so two ticks can never
// overlap: if a tick outlasts the period, the pending trigger simply fires
// late instead of doubling up.
func (w *World) startGameLoop(ctx context.Context, tickStart <-chan time.Time, tickDone chan<- uint64) {
	log.Info().Msg("Game loop started")
	go func() {
		for {
			select {
			case _, ok := <-tickStart:
				if !ok {
					return
				}
				w.tickTheEngine(ctx, tickDone)
			case <-w.stopLoop:
				return
			}
		}
	}()
}

// tickTheEngine runs one tick. A failed tick is abandoned: nothing was
// broadcast, the error is logged, and the next scheduled tick retries
// naturally.
func (w *World) tickTheEngine(ctx context.Context, tickDone chan<- uint64) {
	currTick := w.CurrentTick()
	if err := w.Tick(ctx); err != nil {
		log.Error().Err(err).Uint64("tick", currTick).Msgf("tick abandoned: %s", eris.ToString(err, true))
	}
	if tickDone != nil {
		tickDone <- currTick
	}
}
