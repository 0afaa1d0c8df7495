package arena

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/akaeyuhi/GameLeaderTable/statsd"
	"github.com/akaeyuhi/GameLeaderTable/types"
)

// Tick performs one simulation step: it snapshots the full player and food
// sets, resolves player-vs-player absorption and player-vs-food consumption,
// tops the food population back up toward the ceiling, commits every mutation
// as one grouped store write, and broadcasts the resulting snapshot.
//
// The snapshot is a point-in-time read with no isolation against concurrent
// movement writes; a movement that lands between the snapshot and the commit
// is overwritten by the commit. That lost-update window is accepted behavior,
// kept small by the single-round-trip batch commit.
func (w *World) Tick(ctx context.Context) (err error) {
	startTime := time.Now()
	log.Info().Int("tick", int(w.CurrentTick())).Msg("Tick started")

	// A panic inside the tick degrades to an abandoned tick rather than
	// taking down the process; the next scheduled tick starts from a clean
	// snapshot.
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("tick %d panicked: %v", w.CurrentTick(), r)
		}
	}()

	snapshotStart := time.Now()
	players, err := w.store.GetAllPlayers(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to snapshot players")
	}
	foods, err := w.store.GetAllFood(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to snapshot food")
	}
	statsd.EmitTickStat(snapshotStart, "snapshot")

	batch := w.store.StartBatch()
	removed := make(map[string]bool, len(players))

	// Player-vs-player absorption over every unordered pair exactly once. A
	// player marked removed takes no further part in this tick; the growth
	// already applied to its absorber is retained.
	for i := 0; i < len(players); i++ {
		a := &players[i]
		if removed[a.ID] {
			continue
		}
		for j := i + 1; j < len(players); j++ {
			b := &players[j]
			if removed[b.ID] {
				continue
			}
			d := types.Distance(a.X, a.Y, b.X, b.Y)
			// The threshold on both directions means neither side can absorb
			// the other when their sizes are within 1.1x of each other.
			if d < a.Size && a.Size > b.Size*w.cfg.AbsorbThreshold {
				a.Size += b.Size * w.cfg.AbsorbGrowth
				removed[b.ID] = true
				batch.DeletePlayer(b.ID)
				batch.RemoveFromLeaderboard(b.ID)
			} else if d < b.Size && b.Size > a.Size*w.cfg.AbsorbThreshold {
				b.Size += a.Size * w.cfg.AbsorbGrowth
				removed[a.ID] = true
				batch.DeletePlayer(a.ID)
				batch.RemoveFromLeaderboard(a.ID)
				break
			}
		}
	}

	// Player-vs-food consumption in snapshot order: the first surviving
	// player to reach a food item consumes it. Each consumption respawns one
	// food item while the population sits below the ceiling, so the count
	// oscillates at or below MaxFoods without a separate top-up step.
	currentCount := len(foods)
	consumed := make(map[string]bool, len(foods))
	var spawned []types.Food
	for i := range players {
		p := &players[i]
		if removed[p.ID] {
			continue
		}
		for _, f := range foods {
			if consumed[f.ID] {
				continue
			}
			if types.Distance(p.X, p.Y, f.X, f.Y) < p.Size {
				p.Size += f.Size * w.cfg.FoodGrowth
				consumed[f.ID] = true
				batch.DeleteFood(f.ID)
				currentCount--
				if currentCount < w.cfg.MaxFoods {
					nf := types.NewFood()
					batch.UpsertFood(nf)
					spawned = append(spawned, nf)
					currentCount++
				}
			}
		}
	}

	survivors := make([]types.Player, 0, len(players))
	for _, p := range players {
		if removed[p.ID] {
			continue
		}
		batch.UpsertPlayer(p)
		batch.SetLeaderboardScore(p.ID, p.Size)
		survivors = append(survivors, p)
	}

	commitStart := time.Now()
	if err := batch.Exec(ctx); err != nil {
		return eris.Wrap(err, "failed to commit tick")
	}
	statsd.EmitTickStat(commitStart, "commit")

	leaders, err := w.store.TopLeaders(ctx, len(survivors))
	if err != nil {
		return eris.Wrap(err, "failed to materialize leaderboard")
	}

	remaining := make([]types.Food, 0, currentCount)
	for _, f := range foods {
		if !consumed[f.ID] {
			remaining = append(remaining, f)
		}
	}
	remaining = append(remaining, spawned...)

	w.tick.Add(1)

	flushStart := time.Now()
	if err := w.hub.EmitState(types.StateMessage{
		Players: survivors,
		Foods:   remaining,
		Leaders: leaders,
	}); err != nil {
		return eris.Wrap(err, "failed to emit state snapshot")
	}
	w.hub.FlushEvents()
	statsd.EmitTickStat(flushStart, "flush_events")

	statsd.EmitTickStat(startTime, "full_tick")
	return nil
}
