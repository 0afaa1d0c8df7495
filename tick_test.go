package arena

import (
	"context"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/akaeyuhi/GameLeaderTable/gamestate"
	"github.com/akaeyuhi/GameLeaderTable/types"
)

func seedPlayer(tw *TestWorld, p types.Player) {
	ctx := context.Background()
	assert.NilError(tw, tw.Store.UpsertPlayer(ctx, p))
	assert.NilError(tw, tw.Store.SetLeaderboardScore(ctx, p.ID, p.Size))
}

func playersByID(tw *TestWorld) map[string]types.Player {
	players, err := tw.Store.GetAllPlayers(context.Background())
	assert.NilError(tw, err)
	byID := make(map[string]types.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return byID
}

func leadersByID(tw *TestWorld) map[string]float64 {
	players, err := tw.Store.GetAllPlayers(context.Background())
	assert.NilError(tw, err)
	leaders, err := tw.Store.TopLeaders(context.Background(), len(players)+10)
	assert.NilError(tw, err)
	byID := make(map[string]float64, len(leaders))
	for _, l := range leaders {
		byID[l.ID] = l.Size
	}
	return byID
}

func TestAbsorptionAsymmetry(t *testing.T) {
	tw := NewTestWorld(t)

	// a.size=100 > b.size*1.1=55 and d=10 < 100, so a absorbs b.
	seedPlayer(tw, types.Player{ID: "a", Nick: "big", X: 0, Y: 0, Size: 100})
	seedPlayer(tw, types.Player{ID: "b", Nick: "small", X: 10, Y: 0, Size: 50})

	tw.DoTick()

	players := playersByID(tw)
	assert.Equal(t, 1, len(players))
	assert.Equal(t, 100+50*0.2, players["a"].Size)

	leaders := leadersByID(tw)
	assert.Equal(t, 1, len(leaders))
	assert.Equal(t, 110.0, leaders["a"])

	_, err := tw.Store.GetPlayer(context.Background(), "b")
	assert.ErrorIs(t, err, gamestate.ErrPlayerNotFound)
}

func TestNoMutualAbsorption(t *testing.T) {
	tw := NewTestWorld(t)

	// Overlapping, but neither exceeds the other by the 1.1x threshold.
	seedPlayer(tw, types.Player{ID: "a", X: 0, Y: 0, Size: 100})
	seedPlayer(tw, types.Player{ID: "b", X: 10, Y: 0, Size: 95})

	tw.DoTick()

	players := playersByID(tw)
	assert.Equal(t, 2, len(players))
	assert.Equal(t, 100.0, players["a"].Size)
	assert.Equal(t, 95.0, players["b"].Size)
}

func TestAbsorbedPlayerTakesNoFurtherPart(t *testing.T) {
	tw := NewTestWorld(t)
	ctx := context.Background()

	// a absorbs b (d=90 < 100, 100 > 50*1.1). The food item is inside b's
	// radius but outside a's; with b removed before the food pass, nobody
	// consumes it.
	seedPlayer(tw, types.Player{ID: "a", X: 0, Y: 0, Size: 100})
	seedPlayer(tw, types.Player{ID: "b", X: 90, Y: 0, Size: 50})
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "f", X: 135, Y: 0, Size: types.FoodSize}))

	tw.DoTick()

	players := playersByID(tw)
	assert.Equal(t, 1, len(players))
	assert.Equal(t, 110.0, players["a"].Size)

	foods, err := tw.Store.GetAllFood(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 1, len(foods))
	assert.Equal(t, "f", foods[0].ID)
}

func TestFoodCeilingHolds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFoods = 2
	tw := NewTestWorldWithConfig(t, cfg)
	ctx := context.Background()

	seedPlayer(tw, types.Player{ID: "a", X: 0, Y: 0, Size: 20})
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "f1", X: 1, Y: 0, Size: types.FoodSize}))
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "f2", X: 0, Y: 1, Size: types.FoodSize}))

	tw.DoTick()

	// Both items were consumed and both respawns fit under the ceiling.
	foods, err := tw.Store.GetAllFood(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(foods))
	for _, f := range foods {
		assert.Assert(t, f.ID != "f1" && f.ID != "f2")
	}

	players := playersByID(tw)
	assert.Equal(t, 20+2*types.FoodSize*0.5, players["a"].Size)
}

func TestNoRespawnWhileAboveCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFoods = 2
	tw := NewTestWorldWithConfig(t, cfg)
	ctx := context.Background()

	// Three items exist above the configured ceiling of two. Consuming one
	// leaves the count at the ceiling, so no respawn happens.
	seedPlayer(tw, types.Player{ID: "a", X: 0, Y: 0, Size: 20})
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "near", X: 1, Y: 0, Size: types.FoodSize}))
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "far1", X: 400, Y: 400, Size: types.FoodSize}))
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "far2", X: -400, Y: -400, Size: types.FoodSize}))

	tw.DoTick()

	foods, err := tw.Store.GetAllFood(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 2, len(foods))
	for _, f := range foods {
		assert.Assert(t, f.ID == "far1" || f.ID == "far2")
	}
}

func TestConsumedFoodFeedsExactlyOnePlayer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFoods = 1
	tw := NewTestWorldWithConfig(t, cfg)
	ctx := context.Background()

	// Both players overlap the same food item. Snapshot order decides the
	// winner, but the item can only be consumed once.
	seedPlayer(tw, types.Player{ID: "a", X: -3, Y: 0, Size: 20})
	seedPlayer(tw, types.Player{ID: "b", X: 3, Y: 0, Size: 20})
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "f", X: 0, Y: 0, Size: types.FoodSize}))

	tw.DoTick()

	players := playersByID(tw)
	assert.Equal(t, 2, len(players))
	total := players["a"].Size + players["b"].Size
	assert.Equal(t, 40+types.FoodSize*0.5, total)

	foods, err := tw.Store.GetAllFood(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 1, len(foods))
	assert.Assert(t, foods[0].ID != "f")
}

func TestLeaderboardMatchesSurvivors(t *testing.T) {
	tw := NewTestWorld(t)

	seedPlayer(tw, types.Player{ID: "hunter", X: 0, Y: 0, Size: 100})
	seedPlayer(tw, types.Player{ID: "prey", X: 10, Y: 0, Size: 50})
	seedPlayer(tw, types.Player{ID: "bystander", X: 400, Y: 400, Size: 30})

	tw.DoTick()

	players := playersByID(tw)
	leaders := leadersByID(tw)
	assert.Equal(t, len(players), len(leaders))
	for id, p := range players {
		score, ok := leaders[id]
		assert.Assert(t, ok, "live player %q missing from leaderboard", id)
		assert.Equal(t, p.Size, score)
	}
	_, ok := leaders["prey"]
	assert.Assert(t, !ok, "absorbed player survived on the leaderboard")
}

func TestEndToEndConsumption(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFoods = 1
	tw := NewTestWorldWithConfig(t, cfg)
	ctx := context.Background()

	seedPlayer(tw, types.Player{ID: "p", Nick: "solo", X: 0, Y: 0, Size: 20})
	assert.NilError(t, tw.Store.UpsertFood(ctx, types.Food{ID: "f", X: 3, Y: 4, Size: types.FoodSize}))

	tw.DoTick()

	players := playersByID(tw)
	assert.Equal(t, 1, len(players))
	assert.Equal(t, 22.5, players["p"].Size)

	foods, err := tw.Store.GetAllFood(ctx)
	assert.NilError(t, err)
	assert.Equal(t, 1, len(foods))
	assert.Assert(t, foods[0].ID != "f")

	leaders, err := tw.Store.TopLeaders(ctx, 1)
	assert.NilError(t, err)
	assert.DeepEqual(t, []types.Leader{{ID: "p", Size: 22.5}}, leaders)
}

func TestEmptyWorldTicks(t *testing.T) {
	tw := NewTestWorld(t)
	tw.DoTick()
	assert.Equal(t, uint64(1), tw.CurrentTick())
}

func TestTickAbandonedWhenStoreUnavailable(t *testing.T) {
	tw := NewTestWorld(t)
	tw.Redis.Close()

	err := tw.World.Tick(context.Background())
	assert.Assert(t, err != nil)
	// An abandoned tick broadcasts nothing and does not advance the counter.
	assert.Equal(t, uint64(0), tw.CurrentTick())
	assert.Equal(t, 0, tw.World.hub.QueueLength())
}

func TestTickGrowsLargeChains(t *testing.T) {
	tw := NewTestWorld(t)

	// A line of players where each neighbor pair is within the larger one's
	// radius but only the head clears the threshold against its neighbor.
	seedPlayer(tw, types.Player{ID: "head", X: 0, Y: 0, Size: 100})
	seedPlayer(tw, types.Player{ID: "mid", X: 50, Y: 0, Size: 60})
	seedPlayer(tw, types.Player{ID: "tail", X: 480, Y: 0, Size: 55})

	tw.DoTick()

	players := playersByID(tw)
	// head absorbs mid (d=50 < 100, 100 > 66); tail is out of reach and
	// survives untouched.
	assert.Equal(t, 2, len(players))
	assert.Equal(t, 100+60*0.2, players["head"].Size)
	assert.Equal(t, 55.0, players["tail"].Size)
}
