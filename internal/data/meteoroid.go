package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SizeClass orders meteoroid sizes. Small is terminal: it has no split rule.
type SizeClass int

const (
	SizeSmall SizeClass = iota
	SizeMedium
	SizeLarge
	NumSizes
)

func (s SizeClass) String() string {
	switch s {
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	}
	return fmt.Sprintf("size(%d)", int(s))
}

func ParseSize(s string) (SizeClass, error) {
	switch s {
	case "small":
		return SizeSmall, nil
	case "medium":
		return SizeMedium, nil
	case "large":
		return SizeLarge, nil
	}
	return 0, fmt.Errorf("unknown size class %q", s)
}

// SplitRule describes what a meteoroid of a given size breaks into.
type SplitRule struct {
	Count int
	Child SizeClass
}

// MeteoroidType is one row of the meteoroid template table.
type MeteoroidType struct {
	ID       int32
	Name     string
	Weight   int   // spawn weight, proportional selection
	Score    int64 // base score per destroyed instance
	SpeedMin float64
	SpeedMax float64
	DriftMax float64 // max horizontal velocity component; 0 = falls straight
	SpinMax  float64 // max angular speed, rad/s

	HP     [NumSizes]int
	Splits [NumSizes]*SplitRule
}

// HPFor returns the configured base hit points for a size class.
func (t *MeteoroidType) HPFor(size SizeClass) int {
	if size < 0 || size >= NumSizes {
		return t.HP[SizeSmall]
	}
	return t.HP[size]
}

// SplitFor returns the split rule for a size class, or false when the size
// is terminal.
func (t *MeteoroidType) SplitFor(size SizeClass) (SplitRule, bool) {
	if size < 0 || size >= NumSizes || t.Splits[size] == nil {
		return SplitRule{}, false
	}
	return *t.Splits[size], true
}

// MeteoroidTable holds all meteoroid templates indexed by type ID.
type MeteoroidTable struct {
	types []*MeteoroidType
	byID  map[int32]*MeteoroidType
	total int // sum of spawn weights
}

// Get returns the template for a type ID, or nil if unknown.
func (t *MeteoroidTable) Get(id int32) *MeteoroidType {
	return t.byID[id]
}

// First returns the first configured template, the documented fallback for
// failed lookups and degenerate weight tables.
func (t *MeteoroidTable) First() *MeteoroidType {
	return t.types[0]
}

// All returns templates in file order.
func (t *MeteoroidTable) All() []*MeteoroidType { return t.types }

// TotalWeight returns the sum of spawn weights.
func (t *MeteoroidTable) TotalWeight() int { return t.total }

// Count returns the number of templates.
func (t *MeteoroidTable) Count() int { return len(t.types) }

// NewMeteoroidTable builds a table from already-validated templates
// (loader, tests, tools).
func NewMeteoroidTable(types []*MeteoroidType) (*MeteoroidTable, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("meteoroid table: no entries")
	}
	t := &MeteoroidTable{
		types: make([]*MeteoroidType, 0, len(types)),
		byID:  make(map[int32]*MeteoroidType, len(types)),
	}
	for _, mt := range types {
		if _, dup := t.byID[mt.ID]; dup {
			return nil, fmt.Errorf("meteoroid %d: duplicate id", mt.ID)
		}
		t.types = append(t.types, mt)
		t.byID[mt.ID] = mt
		t.total += mt.Weight
	}
	return t, nil
}

type meteoroidSplitEntry struct {
	Count int    `yaml:"count"`
	Child string `yaml:"child"`
}

type meteoroidEntry struct {
	ID       int32                          `yaml:"id"`
	Name     string                         `yaml:"name"`
	Weight   int                            `yaml:"weight"`
	Score    int64                          `yaml:"score"`
	HP       map[string]int                 `yaml:"hp"`
	SpeedMin float64                        `yaml:"speed_min"`
	SpeedMax float64                        `yaml:"speed_max"`
	DriftMax float64                        `yaml:"drift_max"`
	SpinMax  float64                        `yaml:"spin_max"`
	Splits   map[string]meteoroidSplitEntry `yaml:"splits"`
}

type meteoroidListFile struct {
	Meteoroids []meteoroidEntry `yaml:"meteoroids"`
}

// LoadMeteoroidTable loads meteoroid templates from a YAML file and
// validates the shape rules the simulation depends on: positive HP per
// size, split children strictly smaller than their parent, small terminal.
func LoadMeteoroidTable(path string) (*MeteoroidTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read meteoroid_list: %w", err)
	}
	var f meteoroidListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse meteoroid_list: %w", err)
	}
	if len(f.Meteoroids) == 0 {
		return nil, fmt.Errorf("meteoroid_list %s: no entries", path)
	}

	types := make([]*MeteoroidType, 0, len(f.Meteoroids))
	for _, e := range f.Meteoroids {
		if e.Weight < 0 {
			return nil, fmt.Errorf("meteoroid %d: negative weight %d", e.ID, e.Weight)
		}
		if e.SpeedMin <= 0 || e.SpeedMax < e.SpeedMin {
			return nil, fmt.Errorf("meteoroid %d: bad speed range [%g, %g]", e.ID, e.SpeedMin, e.SpeedMax)
		}
		mt := &MeteoroidType{
			ID:       e.ID,
			Name:     e.Name,
			Weight:   e.Weight,
			Score:    e.Score,
			SpeedMin: e.SpeedMin,
			SpeedMax: e.SpeedMax,
			DriftMax: e.DriftMax,
			SpinMax:  e.SpinMax,
		}
		for sizeName, hp := range e.HP {
			size, err := ParseSize(sizeName)
			if err != nil {
				return nil, fmt.Errorf("meteoroid %d: hp: %w", e.ID, err)
			}
			if hp < 1 {
				return nil, fmt.Errorf("meteoroid %d: hp for %s must be at least 1", e.ID, size)
			}
			mt.HP[size] = hp
		}
		for size := SizeSmall; size < NumSizes; size++ {
			if mt.HP[size] == 0 {
				return nil, fmt.Errorf("meteoroid %d: missing hp for %s", e.ID, size)
			}
		}
		for sizeName, split := range e.Splits {
			size, err := ParseSize(sizeName)
			if err != nil {
				return nil, fmt.Errorf("meteoroid %d: splits: %w", e.ID, err)
			}
			child, err := ParseSize(split.Child)
			if err != nil {
				return nil, fmt.Errorf("meteoroid %d: splits for %s: %w", e.ID, size, err)
			}
			if child >= size {
				return nil, fmt.Errorf("meteoroid %d: split child %s not smaller than %s", e.ID, child, size)
			}
			if split.Count < 1 {
				return nil, fmt.Errorf("meteoroid %d: split count for %s must be at least 1", e.ID, size)
			}
			mt.Splits[size] = &SplitRule{Count: split.Count, Child: child}
		}
		if mt.Splits[SizeSmall] != nil {
			return nil, fmt.Errorf("meteoroid %d: small is terminal and cannot split", e.ID)
		}
		types = append(types, mt)
	}
	return NewMeteoroidTable(types)
}
