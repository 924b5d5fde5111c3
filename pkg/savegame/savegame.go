// Package savegame holds the player's progress: how many stars they got on
// each level of each world.
package savegame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	// MinStars and MaxStars bound the stars a player can have on a level.
	MinStars = 0
	MaxStars = 5
)

// MaxLevelNumber is the largest world or level number. Numbers start at 1
// and must fit the int32 fields of the encoded format.
const MaxLevelNumber = math.MaxInt32

var ErrInvalidLevel = errors.New("invalid level")

// Level identifies a level within a world.
type Level struct {
	World int
	Level int
}

// Valid reports whether both numbers are in [1, MaxLevelNumber].
func (l Level) Valid() bool {
	return l.World >= 1 && l.World <= MaxLevelNumber && l.Level >= 1 && l.Level <= MaxLevelNumber
}

// String returns the level name, like "2-8".
func (l Level) String() string {
	return strconv.Itoa(l.World) + "-" + strconv.Itoa(l.Level)
}

// ParseLevel parses a level name produced by Level.String.
func ParseLevel(name string) (Level, error) {
	world, level, ok := strings.Cut(name, "-")
	if !ok {
		return Level{}, fmt.Errorf("invalid level name %q", name)
	}
	w, err := strconv.Atoi(world)
	if err != nil {
		return Level{}, fmt.Errorf("invalid world in level name %q: %v", name, err)
	}
	l, err := strconv.Atoi(level)
	if err != nil {
		return Level{}, fmt.Errorf("invalid level in level name %q: %v", name, err)
	}
	parsed := Level{World: w, Level: l}
	if !parsed.Valid() {
		return Level{}, fmt.Errorf("%w: %q is out of range", ErrInvalidLevel, name)
	}
	return parsed, nil
}

// SaveGame maps levels to the number of stars the player has on them. A
// level that is not in the map has zero stars. A SaveGame is not safe for
// concurrent use; share copies instead.
type SaveGame struct {
	levelStars map[Level]int
}

// New returns an empty SaveGame: no stars on no levels. The zero value is
// also empty and ready to use.
func New() *SaveGame {
	return &SaveGame{
		levelStars: make(map[Level]int),
	}
}

// Stars returns the stars on the given level, or zero if there are none.
func (s *SaveGame) Stars(world, level int) int {
	if s == nil {
		return 0
	}
	return s.levelStars[Level{World: world, Level: level}]
}

// SetStars sets the stars on the given level, clamped to [MinStars, MaxStars].
// It returns ErrInvalidLevel and changes nothing if the world or level is
// out of range.
func (s *SaveGame) SetStars(world, level, stars int) error {
	l := Level{World: world, Level: level}
	if !l.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidLevel, l)
	}
	s.set(l, stars)
	return nil
}

func (s *SaveGame) set(l Level, stars int) {
	if s.levelStars == nil {
		s.levelStars = make(map[Level]int)
	}
	if stars < MinStars {
		stars = MinStars
	}
	if stars > MaxStars {
		stars = MaxStars
	}
	// zero stars means remove it from the map
	if stars == 0 {
		delete(s.levelStars, l)
		return
	}
	s.levelStars[l] = stars
}

// Levels returns the levels with at least one star, ordered by world then level.
func (s *SaveGame) Levels() []Level {
	if s == nil {
		return nil
	}
	levels := make([]Level, 0, len(s.levelStars))
	for l := range s.levelStars {
		levels = append(levels, l)
	}
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].World != levels[j].World {
			return levels[i].World < levels[j].World
		}
		return levels[i].Level < levels[j].Level
	})
	return levels
}

// TotalStars returns the sum of stars over all levels.
func (s *SaveGame) TotalStars() int {
	if s == nil {
		return 0
	}
	total := 0
	for _, stars := range s.levelStars {
		total += stars
	}
	return total
}

// UnionWith returns a new SaveGame holding every level present in either
// operand. A level present in both gets the greater number of stars.
func (s *SaveGame) UnionWith(other *SaveGame) *SaveGame {
	result := s.Clone()
	if other == nil {
		return result
	}
	for l, stars := range other.levelStars {
		if stars > result.levelStars[l] {
			result.levelStars[l] = stars
		}
	}
	return result
}

// Clone returns an independent copy.
func (s *SaveGame) Clone() *SaveGame {
	result := New()
	if s == nil {
		return result
	}
	for l, stars := range s.levelStars {
		result.levelStars[l] = stars
	}
	return result
}

// Zero removes all stars.
func (s *SaveGame) Zero() {
	clear(s.levelStars)
}

// IsZero reports whether there are no stars on any level.
func (s *SaveGame) IsZero() bool {
	return s == nil || len(s.levelStars) == 0
}

// Equal reports whether both SaveGames have the same stars on every level.
func (s *SaveGame) Equal(other *SaveGame) bool {
	if s.IsZero() || other.IsZero() {
		return s.IsZero() && other.IsZero()
	}
	if len(s.levelStars) != len(other.levelStars) {
		return false
	}
	for l, stars := range s.levelStars {
		if other.levelStars[l] != stars {
			return false
		}
	}
	return true
}

func (s *SaveGame) String() string {
	return string(s.JSON())
}
