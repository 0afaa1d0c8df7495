package gamestate

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"

	"github.com/akaeyuhi/GameLeaderTable/types"
)

var _ Store = &RedisStorage{}

// RedisStorage implements Store on top of a redis client. Player and food
// records are JSON blobs in per-collection hashes; the leaderboard is a
// sorted set scored by size.
type RedisStorage struct {
	client redis.Cmdable
}

func NewRedisStorage(client redis.Cmdable) *RedisStorage {
	return &RedisStorage{client: client}
}

func (r *RedisStorage) GetAllPlayers(ctx context.Context) ([]types.Player, error) {
	raw, err := r.client.HGetAll(ctx, redisPlayersKey()).Result()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read player set")
	}
	players := make([]types.Player, 0, len(raw))
	for id, blob := range raw {
		var p types.Player
		if err := json.Unmarshal([]byte(blob), &p); err != nil {
			// A corrupt record degrades to a missing player rather than a
			// failed snapshot.
			log.Warn().Str("id", id).Err(err).Msg("skipping undecodable player record")
			continue
		}
		players = append(players, p)
	}
	return players, nil
}

func (r *RedisStorage) GetPlayer(ctx context.Context, id string) (types.Player, error) {
	blob, err := r.client.HGet(ctx, redisPlayersKey(), id).Result()
	if eris.Is(err, redis.Nil) {
		return types.Player{}, ErrPlayerNotFound
	}
	if err != nil {
		return types.Player{}, eris.Wrap(err, "failed to read player record")
	}
	var p types.Player
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return types.Player{}, eris.Wrap(err, "failed to decode player record")
	}
	return p, nil
}

func (r *RedisStorage) GetAllFood(ctx context.Context) ([]types.Food, error) {
	raw, err := r.client.HGetAll(ctx, redisFoodsKey()).Result()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read food set")
	}
	foods := make([]types.Food, 0, len(raw))
	for id, blob := range raw {
		var f types.Food
		if err := json.Unmarshal([]byte(blob), &f); err != nil {
			log.Warn().Str("id", id).Err(err).Msg("skipping undecodable food record")
			continue
		}
		foods = append(foods, f)
	}
	return foods, nil
}

func (r *RedisStorage) UpsertPlayer(ctx context.Context, p types.Player) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "failed to encode player record")
	}
	return eris.Wrap(r.client.HSet(ctx, redisPlayersKey(), p.ID, blob).Err(), "failed to write player record")
}

func (r *RedisStorage) DeletePlayer(ctx context.Context, id string) error {
	return eris.Wrap(r.client.HDel(ctx, redisPlayersKey(), id).Err(), "failed to delete player record")
}

func (r *RedisStorage) UpsertFood(ctx context.Context, f types.Food) error {
	blob, err := json.Marshal(f)
	if err != nil {
		return eris.Wrap(err, "failed to encode food record")
	}
	return eris.Wrap(r.client.HSet(ctx, redisFoodsKey(), f.ID, blob).Err(), "failed to write food record")
}

func (r *RedisStorage) DeleteFood(ctx context.Context, id string) error {
	return eris.Wrap(r.client.HDel(ctx, redisFoodsKey(), id).Err(), "failed to delete food record")
}

func (r *RedisStorage) SetLeaderboardScore(ctx context.Context, id string, size float64) error {
	err := r.client.ZAdd(ctx, redisLeaderboardKey(), redis.Z{Score: size, Member: id}).Err()
	return eris.Wrap(err, "failed to set leaderboard score")
}

func (r *RedisStorage) RefreshLeaderboardScore(ctx context.Context, id string, size float64) error {
	err := r.client.ZAddGT(ctx, redisLeaderboardKey(), redis.Z{Score: size, Member: id}).Err()
	return eris.Wrap(err, "failed to refresh leaderboard score")
}

func (r *RedisStorage) RemoveFromLeaderboard(ctx context.Context, id string) error {
	return eris.Wrap(r.client.ZRem(ctx, redisLeaderboardKey(), id).Err(), "failed to remove leaderboard entry")
}

func (r *RedisStorage) TopLeaders(ctx context.Context, n int) ([]types.Leader, error) {
	if n <= 0 {
		return []types.Leader{}, nil
	}
	rows, err := r.client.ZRevRangeWithScores(ctx, redisLeaderboardKey(), 0, int64(n-1)).Result()
	if err != nil {
		return nil, eris.Wrap(err, "failed to read leaderboard")
	}
	leaders := make([]types.Leader, 0, len(rows))
	for _, row := range rows {
		id, ok := row.Member.(string)
		if !ok {
			log.Warn().Interface("member", row.Member).Msg("skipping non-string leaderboard member")
			continue
		}
		leaders = append(leaders, types.Leader{ID: id, Size: row.Score})
	}
	return leaders, nil
}

func (r *RedisStorage) Reset(ctx context.Context, foodCount int) error {
	err := r.client.Del(ctx, redisPlayersKey(), redisFoodsKey(), redisLeaderboardKey()).Err()
	if err != nil {
		return eris.Wrap(err, "failed to clear world state")
	}
	batch := r.StartBatch()
	for i := 0; i < foodCount; i++ {
		batch.UpsertFood(types.NewFood())
	}
	if err := batch.Exec(ctx); err != nil {
		return eris.Wrap(err, "failed to seed food")
	}
	log.Info().Int("count", foodCount).Msg("World state cleared and food seeded")
	return nil
}

func (r *RedisStorage) StartBatch() Batch {
	return &redisBatch{pipe: r.client.TxPipeline()}
}
