package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	arena "github.com/akaeyuhi/GameLeaderTable"
	"github.com/akaeyuhi/GameLeaderTable/statsd"
)

func main() {
	cfg, err := arena.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setupLogger(cfg)

	if cfg.StatsdAddress != "" {
		if err := statsd.Init(cfg.StatsdAddress, []string{"service:arena"}); err != nil {
			log.Fatal().Err(err).Msg("unable to init statsd")
		}
	} else {
		log.Logger.Warn().Msg("statsd is disabled")
	}

	world, err := arena.NewWorld(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create world")
	}

	if err := world.StartGame(); err != nil {
		log.Fatal().Err(err).Msg("failed to start game")
	}
}

func setupLogger(cfg arena.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, falling back to info")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
