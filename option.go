package arena

import (
	"time"

	"github.com/akaeyuhi/GameLeaderTable/gamestate"
)

// WorldOption represents an option that can be used to augment how the World
// will be run.
type WorldOption func(*World)

// WithStore replaces the redis-backed world store. Tests use this together
// with a miniredis-backed client.
func WithStore(store gamestate.Store) WorldOption {
	return func(w *World) {
		w.store = store
	}
}

// WithTickChannel sets the channel that will be used to decide when World.Tick
// is executed. If unset, a loop interval of Config.TickPeriod is used. To set
// some other time, use: WithTickChannel(time.Tick(<some-duration>)). Tests can
// pass in a channel controlled by the test for fine-grained control over when
// ticks are executed.
func WithTickChannel(ch <-chan time.Time) WorldOption {
	return func(w *World) {
		w.tickChannel = ch
	}
}

// WithTickDoneChannel sets a channel that will be notified each time a tick
// completes. The completed tick number will be sent on the channel.
func WithTickDoneChannel(ch chan<- uint64) WorldOption {
	return func(w *World) {
		w.tickDoneChannel = ch
	}
}

// WithPort specifies the port for the transport server. If omitted, the
// ARENA_PORT configuration value is used.
func WithPort(port string) WorldOption {
	return func(w *World) {
		w.cfg.ArenaPort = port
	}
}
