// Package gamestate provides the world store adapter: typed access to the
// externally persisted player set, food set and leaderboard. It owns no game
// logic; collision resolution and lifecycle decisions live with the callers.
package gamestate

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/akaeyuhi/GameLeaderTable/types"
)

// ErrPlayerNotFound is returned by GetPlayer when the requested id has no
// record, typically because the player disconnected or was absorbed.
var ErrPlayerNotFound = eris.New("player not found")

// Store is the world store contract. Individual operations are serialized by
// the backing store; there are no cross-operation isolation guarantees.
type Store interface {
	GetAllPlayers(ctx context.Context) ([]types.Player, error)
	GetPlayer(ctx context.Context, id string) (types.Player, error)
	GetAllFood(ctx context.Context) ([]types.Food, error)

	UpsertPlayer(ctx context.Context, p types.Player) error
	DeletePlayer(ctx context.Context, id string) error
	UpsertFood(ctx context.Context, f types.Food) error
	DeleteFood(ctx context.Context, id string) error

	// SetLeaderboardScore writes the exact score for a player.
	SetLeaderboardScore(ctx context.Context, id string, size float64) error
	// RefreshLeaderboardScore only ever raises a player's score. The movement
	// path uses it so a concurrent size update committed by the tick engine
	// can never be regressed.
	RefreshLeaderboardScore(ctx context.Context, id string, size float64) error
	RemoveFromLeaderboard(ctx context.Context, id string) error
	TopLeaders(ctx context.Context, n int) ([]types.Leader, error)

	// Reset wipes all world state and seeds foodCount food items. Called once
	// at startup.
	Reset(ctx context.Context, foodCount int) error

	// StartBatch begins a grouped write. All operations queued on the
	// returned Batch are issued together on Exec; there is no atomicity
	// guarantee across them beyond that.
	StartBatch() Batch
}

// Batch queues store mutations for grouped execution. Queued operations do
// not fail individually until Exec; per-operation failures during Exec are
// logged and do not abort sibling operations.
type Batch interface {
	UpsertPlayer(p types.Player)
	DeletePlayer(id string)
	UpsertFood(f types.Food)
	DeleteFood(id string)
	SetLeaderboardScore(id string, size float64)
	RemoveFromLeaderboard(id string)

	// Exec issues every queued operation. The returned error reflects a
	// transport-level failure only.
	Exec(ctx context.Context) error
}
