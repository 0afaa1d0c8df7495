package arena

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"

	"github.com/akaeyuhi/GameLeaderTable/gamestate"
)

// TestWorld is a helper that manages a World instance backed by an in-process
// redis. Ticks only run when the test sends on TickTrigger, and each
// completed tick is reported on TickDone.
type TestWorld struct {
	testing.TB
	*World

	Redis *miniredis.Miniredis
	Store gamestate.Store

	TickTrigger chan time.Time
	TickDone    chan uint64
}

// NewTestWorld creates a test fixture with the default configuration.
func NewTestWorld(t testing.TB, opts ...WorldOption) *TestWorld {
	return NewTestWorldWithConfig(t, DefaultConfig(), opts...)
}

// NewTestWorldWithConfig creates a test fixture with a caller-supplied
// configuration, for tests that need non-default thresholds or ceilings.
func NewTestWorldWithConfig(t testing.TB, cfg Config, opts ...WorldOption) *TestWorld {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	store := gamestate.NewRedisStorage(client)

	tickTrigger := make(chan time.Time)
	tickDone := make(chan uint64)

	defaultOpts := []WorldOption{
		WithStore(store),
		WithTickChannel(tickTrigger),
		WithTickDoneChannel(tickDone),
	}

	// Default options go first so that any caller supplied options overwrite
	// the defaults.
	w, err := NewWorld(cfg, append(defaultOpts, opts...)...)
	assert.NilError(t, err)

	t.Cleanup(func() {
		w.hub.Shutdown()
	})

	return &TestWorld{
		TB:          t,
		World:       w,
		Redis:       s,
		Store:       store,
		TickTrigger: tickTrigger,
		TickDone:    tickDone,
	}
}

// DoTick runs exactly one tick and fails the test if it is abandoned.
func (tw *TestWorld) DoTick() {
	assert.NilError(tw, tw.World.Tick(context.Background()))
}

// StartTickLoop starts the game loop goroutine without starting the transport
// server, so tests can drive ticks through TickTrigger.
func (tw *TestWorld) StartTickLoop() {
	tw.World.startGameLoop(context.Background(), tw.TickTrigger, tw.TickDone)
	tw.TB.Cleanup(func() {
		close(tw.World.stopLoop)
	})
}
