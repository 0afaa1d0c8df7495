package types

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/google/uuid"
)

const (
	// WorldMin and WorldMax bound both axes of the square arena.
	WorldMin = -500.0
	WorldMax = 500.0

	// FoodSize is the fixed size of every food item.
	FoodSize = 5.0
)

// Player is the persisted record for a connected player. Position is mutated
// by the movement handler, size only by the tick engine.
type Player struct {
	ID    string  `json:"id"`
	Nick  string  `json:"nick"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Size  float64 `json:"size"`
	Color string  `json:"color"`
}

// Food is a consumable item. Its color is derived from its ID on the client
// side, so it is not persisted.
type Food struct {
	ID   string  `json:"id"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

// Leader is one leaderboard row: a live player id and its current size.
type Leader struct {
	ID   string  `json:"id"`
	Size float64 `json:"size"`
}

// Vector is a client-supplied movement direction. Components are
// conventionally in {-1, 0, 1} but any real value is accepted; the speed
// scalar and clamping bound the resulting displacement either way.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StateMessage is the snapshot broadcast to every client after a completed
// tick.
type StateMessage struct {
	Players []Player `json:"players"`
	Foods   []Food   `json:"foods"`
	Leaders []Leader `json:"leaders"`
}

// Clamp bounds a coordinate to the arena.
func Clamp(v float64) float64 {
	return math.Max(WorldMin, math.Min(WorldMax, v))
}

// Distance is the Euclidean distance between two points.
func Distance(ax, ay, bx, by float64) float64 {
	return math.Hypot(ax-bx, ay-by)
}

// RandCoord returns a uniformly random coordinate within the arena bounds.
func RandCoord() float64 {
	return rand.Float64()*(WorldMax-WorldMin) + WorldMin
}

// RandColor returns a display color with a random hue, in the hsl() form the
// clients render directly.
func RandColor() string {
	return fmt.Sprintf("hsl(%d,70%%,50%%)", rand.Intn(360))
}

// ColorForID deterministically maps an identity string into the same hue
// range as RandColor. Food colors are derived this way instead of persisted.
func ColorForID(id string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return fmt.Sprintf("hsl(%d,70%%,50%%)", h.Sum32()%360)
}

// NewFood creates a food item at a random position.
func NewFood() Food {
	return Food{
		ID:   uuid.NewString(),
		X:    RandCoord(),
		Y:    RandCoord(),
		Size: FoodSize,
	}
}

// NewPlayer creates a player record at the spawn position with the given
// starting size and a random color.
func NewPlayer(id, nick string, size float64) Player {
	return Player{
		ID:    id,
		Nick:  nick,
		X:     0,
		Y:     0,
		Size:  size,
		Color: RandColor(),
	}
}
