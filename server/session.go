package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/akaeyuhi/GameLeaderTable/gamestate"
	"github.com/akaeyuhi/GameLeaderTable/types"
)

// DefaultNick is used when a client connects without supplying a nickname.
const DefaultNick = "Anonymous"

// Session is the store-facing half of one client connection: it creates the
// player record on connect, applies movement intents, and removes the record
// on disconnect. It never touches size; only the tick engine does that.
type Session struct {
	ID   string
	Nick string

	store     gamestate.Store
	moveSpeed float64
	startSize float64
}

func NewSession(store gamestate.Store, nick string, moveSpeed, startSize float64) *Session {
	if nick == "" {
		nick = DefaultNick
	}
	return &Session{
		ID:        uuid.NewString(),
		Nick:      nick,
		store:     store,
		moveSpeed: moveSpeed,
		startSize: startSize,
	}
}

// Connect writes the freshly spawned player record and its initial
// leaderboard entry.
func (s *Session) Connect(ctx context.Context) error {
	player := types.NewPlayer(s.ID, s.Nick, s.startSize)
	if err := s.store.UpsertPlayer(ctx, player); err != nil {
		return eris.Wrap(err, "failed to create player record")
	}
	if err := s.store.SetLeaderboardScore(ctx, s.ID, player.Size); err != nil {
		return eris.Wrap(err, "failed to create leaderboard entry")
	}
	return nil
}

// ApplyMove translates a movement vector into a bounded position update: a
// read-modify-write against the store, deliberately unsynchronized with the
// tick engine. A player that no longer exists (disconnected or absorbed) is
// a benign no-op.
func (s *Session) ApplyMove(ctx context.Context, dir types.Vector) error {
	player, err := s.store.GetPlayer(ctx, s.ID)
	if eris.Is(err, gamestate.ErrPlayerNotFound) {
		return nil
	}
	if err != nil {
		return eris.Wrap(err, "failed to read player for movement")
	}

	player.X = types.Clamp(player.X + dir.X*s.moveSpeed)
	player.Y = types.Clamp(player.Y + dir.Y*s.moveSpeed)

	if err := s.store.UpsertPlayer(ctx, player); err != nil {
		return eris.Wrap(err, "failed to write moved player")
	}
	// Size is unchanged by movement. The greater-than-only refresh keeps this
	// write from regressing a growth the tick engine committed since our read.
	if err := s.store.RefreshLeaderboardScore(ctx, s.ID, player.Size); err != nil {
		return eris.Wrap(err, "failed to refresh leaderboard score")
	}
	return nil
}

// Disconnect removes the player record and leaderboard entry. Both deletes
// are idempotent, so disconnecting an already-absorbed player is a no-op.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.store.DeletePlayer(ctx, s.ID); err != nil {
		return eris.Wrap(err, "failed to delete player record")
	}
	if err := s.store.RemoveFromLeaderboard(ctx, s.ID); err != nil {
		return eris.Wrap(err, "failed to remove leaderboard entry")
	}
	return nil
}
