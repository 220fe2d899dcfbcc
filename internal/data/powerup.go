package data

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RapidFireLevel is one row of the rapid-fire upgrade ladder.
type RapidFireLevel struct {
	FireInterval time.Duration
	Barrels      int
}

// RapidFireTable maps rapid-fire level (0..MaxLevel) to weapon stats.
// Levels are dense and validated at load, so a runtime lookup only needs
// clamping, never a shape check.
type RapidFireTable struct {
	levels []RapidFireLevel
}

// MaxLevel returns the highest configured level.
func (t *RapidFireTable) MaxLevel() int { return len(t.levels) - 1 }

// Count returns the number of levels.
func (t *RapidFireTable) Count() int { return len(t.levels) }

// Level returns the stats for a level, clamped into the configured range.
func (t *RapidFireTable) Level(n int) RapidFireLevel {
	if n < 0 {
		n = 0
	}
	if n > t.MaxLevel() {
		n = t.MaxLevel()
	}
	return t.levels[n]
}

// NewRapidFireTable builds a ladder from dense level rows (loader, tests).
func NewRapidFireTable(levels []RapidFireLevel) (*RapidFireTable, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("rapid_fire table: no levels")
	}
	for i, row := range levels {
		if row.Barrels < 1 || row.Barrels > 5 {
			return nil, fmt.Errorf("rapid_fire level %d: barrels %d outside 1..5", i, row.Barrels)
		}
		if row.FireInterval <= 0 {
			return nil, fmt.Errorf("rapid_fire level %d: fire interval must be positive", i)
		}
	}
	return &RapidFireTable{levels: levels}, nil
}

type rapidFireEntry struct {
	Level          int `yaml:"level"`
	FireIntervalMS int `yaml:"fire_interval_ms"`
	Barrels        int `yaml:"barrels"`
}

type powerupListFile struct {
	RapidFire []rapidFireEntry `yaml:"rapid_fire"`
}

// LoadRapidFireTable loads the rapid-fire ladder from a YAML file. Entries
// must form a dense 0..N range with 1..5 barrels and positive intervals.
func LoadRapidFireTable(path string) (*RapidFireTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read powerup_list: %w", err)
	}
	var f powerupListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse powerup_list: %w", err)
	}
	if len(f.RapidFire) == 0 {
		return nil, fmt.Errorf("powerup_list %s: no rapid_fire entries", path)
	}

	levels := make([]RapidFireLevel, len(f.RapidFire))
	seen := make([]bool, len(f.RapidFire))
	for _, e := range f.RapidFire {
		if e.Level < 0 || e.Level >= len(f.RapidFire) {
			return nil, fmt.Errorf("rapid_fire level %d outside dense range 0..%d", e.Level, len(f.RapidFire)-1)
		}
		if seen[e.Level] {
			return nil, fmt.Errorf("rapid_fire level %d: duplicate", e.Level)
		}
		seen[e.Level] = true
		levels[e.Level] = RapidFireLevel{
			FireInterval: time.Duration(e.FireIntervalMS) * time.Millisecond,
			Barrels:      e.Barrels,
		}
	}
	return NewRapidFireTable(levels)
}
