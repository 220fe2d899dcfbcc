package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/data"
)

// testMeteoroidTable builds the minimal two-template table the scenarios
// use: a splitting rock and a terminal-only pebble.
func testMeteoroidTable(t *testing.T) *data.MeteoroidTable {
	t.Helper()
	rock := &data.MeteoroidType{
		ID: 1, Name: "rock", Weight: 70, Score: 100,
		SpeedMin: 100, SpeedMax: 100, SpinMax: 1,
	}
	rock.HP[data.SizeLarge] = 3
	rock.HP[data.SizeMedium] = 2
	rock.HP[data.SizeSmall] = 1
	rock.Splits[data.SizeLarge] = &data.SplitRule{Count: 2, Child: data.SizeMedium}
	rock.Splits[data.SizeMedium] = &data.SplitRule{Count: 2, Child: data.SizeSmall}

	pebble := &data.MeteoroidType{
		ID: 2, Name: "pebble", Weight: 30, Score: 50,
		SpeedMin: 120, SpeedMax: 160, DriftMax: 40,
	}
	pebble.HP[data.SizeLarge] = 1
	pebble.HP[data.SizeMedium] = 1
	pebble.HP[data.SizeSmall] = 1

	table, err := data.NewMeteoroidTable([]*data.MeteoroidType{rock, pebble})
	if err != nil {
		t.Fatalf("build meteoroid table: %v", err)
	}
	return table
}

func testRapidFireTable(t *testing.T) *data.RapidFireTable {
	t.Helper()
	table, err := data.NewRapidFireTable([]data.RapidFireLevel{
		{FireInterval: 220 * time.Millisecond, Barrels: 1},
		{FireInterval: 180 * time.Millisecond, Barrels: 2},
		{FireInterval: 150 * time.Millisecond, Barrels: 3},
	})
	if err != nil {
		t.Fatalf("build rapid-fire table: %v", err)
	}
	return table
}

func testConfig() *config.Config {
	return config.Defaults()
}

// newTestScheduler builds a deterministic scheduler: fixed seed, no wave
// scripts, nop logger.
func newTestScheduler(t *testing.T, cfg *config.Config, seed int64) *Scheduler {
	t.Helper()
	return NewScheduler(cfg, testMeteoroidTable(t), testRapidFireTable(t), Options{
		Rand: rand.New(rand.NewSource(seed)),
	})
}

// stepTicks advances the scheduler by exactly n fixed ticks.
func stepTicks(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Advance(s.cfg.Sim.TickRate.Duration)
	}
}
