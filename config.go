package arena

import (
	"time"

	"github.com/JeremyLoy/config"
	"github.com/rotisserie/eris"
)

type Config struct {
	RedisAddress  string `config:"REDIS_ADDRESS"`
	RedisPassword string `config:"REDIS_PASSWORD"`
	ArenaPort     string `config:"ARENA_PORT"`
	StatsdAddress string `config:"STATSD_ADDRESS"`

	TickPeriod time.Duration `config:"TICK_PERIOD"`

	MaxFoods        int     `config:"MAX_FOODS"`
	StartSize       float64 `config:"START_SIZE"`
	MoveSpeed       float64 `config:"MOVE_SPEED"`
	AbsorbThreshold float64 `config:"ABSORB_THRESHOLD"`
	AbsorbGrowth    float64 `config:"ABSORB_GROWTH"`
	FoodGrowth      float64 `config:"FOOD_GROWTH"`

	LogLevel  string `config:"LOG_LEVEL"`
	LogPretty bool   `config:"LOG_PRETTY"`
}

func DefaultConfig() Config {
	return Config{
		RedisAddress:    "localhost:6379",
		RedisPassword:   "",
		ArenaPort:       "3001",
		TickPeriod:      time.Second,
		MaxFoods:        100,
		StartSize:       20,
		MoveSpeed:       5,
		AbsorbThreshold: 1.1,
		AbsorbGrowth:    0.2,
		FoodGrowth:      0.5,
		LogLevel:        "info",
	}
}

// GetConfig returns the defaults overlaid with any values present in the
// environment.
func GetConfig() (Config, error) {
	cfg := DefaultConfig()
	if err := config.FromEnv().To(&cfg); err != nil {
		return cfg, eris.Wrap(err, "failed to load config from environment")
	}
	return cfg, nil
}
