package server_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gotest.tools/v3/assert"

	"github.com/akaeyuhi/GameLeaderTable/gamestate"
	"github.com/akaeyuhi/GameLeaderTable/server"
	"github.com/akaeyuhi/GameLeaderTable/types"
)

const (
	testMoveSpeed = 5.0
	testStartSize = 20.0
)

func newSessionStore(t *testing.T) gamestate.Store {
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	return gamestate.NewRedisStorage(client)
}

func TestConnectCreatesPlayerAndLeaderboardEntry(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	session := server.NewSession(store, "alice", testMoveSpeed, testStartSize)
	assert.NilError(t, session.Connect(ctx))

	p, err := store.GetPlayer(ctx, session.ID)
	assert.NilError(t, err)
	assert.Equal(t, "alice", p.Nick)
	assert.Equal(t, 0.0, p.X)
	assert.Equal(t, 0.0, p.Y)
	assert.Equal(t, testStartSize, p.Size)
	assert.Assert(t, p.Color != "")

	leaders, err := store.TopLeaders(ctx, 1)
	assert.NilError(t, err)
	assert.DeepEqual(t, []types.Leader{{ID: session.ID, Size: testStartSize}}, leaders)
}

func TestConnectDefaultsNickname(t *testing.T) {
	store := newSessionStore(t)
	session := server.NewSession(store, "", testMoveSpeed, testStartSize)
	assert.Equal(t, server.DefaultNick, session.Nick)
}

func TestApplyMoveTranslatesAndPersists(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	session := server.NewSession(store, "alice", testMoveSpeed, testStartSize)
	assert.NilError(t, session.Connect(ctx))

	assert.NilError(t, session.ApplyMove(ctx, types.Vector{X: 1, Y: -1}))
	p, err := store.GetPlayer(ctx, session.ID)
	assert.NilError(t, err)
	assert.Equal(t, 5.0, p.X)
	assert.Equal(t, -5.0, p.Y)

	// Oversized direction vectors are not trusted for magnitude, but the
	// displacement is still clamped to the arena.
	assert.NilError(t, session.ApplyMove(ctx, types.Vector{X: 1000, Y: 0}))
	p, err = store.GetPlayer(ctx, session.ID)
	assert.NilError(t, err)
	assert.Equal(t, types.WorldMax, p.X)
	assert.Equal(t, -5.0, p.Y)
}

func TestPositionStaysClampedUnderAnyIntentSequence(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	session := server.NewSession(store, "wanderer", testMoveSpeed, testStartSize)
	assert.NilError(t, session.Connect(ctx))

	vectors := []types.Vector{
		{X: 1, Y: 1}, {X: -1, Y: 0}, {X: 300, Y: -300}, {X: 0, Y: 1},
		{X: -1000, Y: -1000}, {X: 0.5, Y: -0.5}, {X: 1, Y: 1},
	}
	for i := 0; i < 200; i++ {
		v := vectors[i%len(vectors)]
		assert.NilError(t, session.ApplyMove(ctx, v))
		p, err := store.GetPlayer(ctx, session.ID)
		assert.NilError(t, err)
		assert.Assert(t, p.X >= types.WorldMin && p.X <= types.WorldMax, "x=%v escaped bounds", p.X)
		assert.Assert(t, p.Y >= types.WorldMin && p.Y <= types.WorldMax, "y=%v escaped bounds", p.Y)
	}
}

func TestApplyMoveOnMissingPlayerIsNoOp(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	// The player was absorbed (or never existed): the stale intent is
	// silently dropped and no record is resurrected.
	session := server.NewSession(store, "ghost", testMoveSpeed, testStartSize)
	assert.NilError(t, session.ApplyMove(ctx, types.Vector{X: 1, Y: 0}))

	players, err := store.GetAllPlayers(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(players))
}

func TestApplyMoveDoesNotRegressLeaderboard(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	session := server.NewSession(store, "alice", testMoveSpeed, testStartSize)
	assert.NilError(t, session.Connect(ctx))

	// Simulate the tick engine committing growth between this session's read
	// and its leaderboard refresh.
	assert.NilError(t, store.SetLeaderboardScore(ctx, session.ID, 50))
	assert.NilError(t, session.ApplyMove(ctx, types.Vector{X: 1, Y: 0}))

	leaders, err := store.TopLeaders(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, 50.0, leaders[0].Size)
}

func TestDisconnectRemovesPlayerAndIsIdempotent(t *testing.T) {
	store := newSessionStore(t)
	ctx := context.Background()

	session := server.NewSession(store, "alice", testMoveSpeed, testStartSize)
	assert.NilError(t, session.Connect(ctx))

	assert.NilError(t, session.Disconnect(ctx))
	_, err := store.GetPlayer(ctx, session.ID)
	assert.ErrorIs(t, err, gamestate.ErrPlayerNotFound)

	leaders, err := store.TopLeaders(ctx, 1)
	assert.NilError(t, err)
	assert.Equal(t, 0, len(leaders))

	// Disconnecting an already-removed player is a benign no-op.
	assert.NilError(t, session.Disconnect(ctx))
}
