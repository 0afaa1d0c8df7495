package gamestate

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/akaeyuhi/GameLeaderTable/types"
)

var _ Batch = &redisBatch{}

// redisBatch queues mutations on a redis pipeline. Exec issues everything in
// one round trip; the store executes each command independently, so this is a
// best-effort grouping, not a transaction.
type redisBatch struct {
	pipe redis.Pipeliner
}

func (b *redisBatch) UpsertPlayer(p types.Player) {
	blob, err := json.Marshal(p)
	if err != nil {
		log.Error().Str("id", p.ID).Err(err).Msg("dropping unencodable player write")
		return
	}
	b.pipe.HSet(context.Background(), redisPlayersKey(), p.ID, blob)
}

func (b *redisBatch) DeletePlayer(id string) {
	b.pipe.HDel(context.Background(), redisPlayersKey(), id)
}

func (b *redisBatch) UpsertFood(f types.Food) {
	blob, err := json.Marshal(f)
	if err != nil {
		log.Error().Str("id", f.ID).Err(err).Msg("dropping unencodable food write")
		return
	}
	b.pipe.HSet(context.Background(), redisFoodsKey(), f.ID, blob)
}

func (b *redisBatch) DeleteFood(id string) {
	b.pipe.HDel(context.Background(), redisFoodsKey(), id)
}

func (b *redisBatch) SetLeaderboardScore(id string, size float64) {
	b.pipe.ZAdd(context.Background(), redisLeaderboardKey(), redis.Z{Score: size, Member: id})
}

func (b *redisBatch) RemoveFromLeaderboard(id string) {
	b.pipe.ZRem(context.Background(), redisLeaderboardKey(), id)
}

func (b *redisBatch) Exec(ctx context.Context) error {
	cmds, err := b.pipe.Exec(ctx)
	for _, cmd := range cmds {
		if cmdErr := cmd.Err(); cmdErr != nil && !eris.Is(cmdErr, redis.Nil) {
			// Individual command failures do not abort their siblings; the
			// next tick re-derives any state this one failed to write.
			log.Warn().Str("cmd", cmd.Name()).Err(cmdErr).Msg("batched store operation failed")
		}
	}
	if err != nil && !eris.Is(err, redis.Nil) {
		return eris.Wrap(err, "failed to execute store batch")
	}
	return nil
}
