package gamestate

// redisPlayersKey is the hash that maps a connection id to its JSON-encoded
// player record.
func redisPlayersKey() string {
	return "rlt:players"
}

// redisFoodsKey is the hash that maps a food id to its JSON-encoded food
// record.
func redisFoodsKey() string {
	return "rlt:foods"
}

// redisLeaderboardKey is the sorted set that maps a connection id to that
// player's current size.
func redisLeaderboardKey() string {
	return "rlt:leaderboard"
}
