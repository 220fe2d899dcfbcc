package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/astroblast/server/internal/config"
	"github.com/astroblast/server/internal/core/event"
	"github.com/astroblast/server/internal/data"
	"github.com/astroblast/server/internal/persist"
	"github.com/astroblast/server/internal/scripting"
	"github.com/astroblast/server/internal/sim"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Astroblast  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       headless simulation core            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1msession:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main host logic ───────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/astroblast.toml"
	if p := os.Getenv("ASTROBLAST_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Game.Name)

	// 3. Load data tables
	printSection("data")

	meteoroids, err := data.LoadMeteoroidTable(cfg.Paths.DataDir + "/meteoroid_list.yaml")
	if err != nil {
		return fmt.Errorf("load meteoroid table: %w", err)
	}
	printStat("meteoroid types", meteoroids.Count())

	rapid, err := data.LoadRapidFireTable(cfg.Paths.DataDir + "/powerup_list.yaml")
	if err != nil {
		return fmt.Errorf("load rapid-fire table: %w", err)
	}
	printStat("rapid-fire levels", rapid.Count())

	// 4. Initialize Lua wave scripting
	waves, err := scripting.NewEngine(cfg.Paths.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer waves.Close()
	printOK("wave scripts loaded")

	// 5. Optional high-score ledger
	var scores *persist.ScoreRepo
	if cfg.Database.Enabled {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		cancel()
		if err != nil {
			// High scores are a ledger, not gameplay: log and play on.
			log.Warn("high-score database unavailable", zap.Error(err))
		} else {
			defer db.Close()
			migCtx, migCancel := context.WithTimeout(context.Background(), 30*time.Second)
			err = persist.RunMigrations(migCtx, db.Pool)
			migCancel()
			if err != nil {
				log.Warn("migrations failed, high scores disabled", zap.Error(err))
			} else {
				scores = persist.NewScoreRepo(db)
				printOK("high-score ledger ready")
			}
		}
	}
	fmt.Println()

	// 6. Build scheduler and subscribe soak logging to the event bus
	bus := event.NewBus()
	sched := sim.NewScheduler(cfg, meteoroids, rapid, sim.Options{
		Logger: log,
		Bus:    bus,
		Waves:  waves,
	})
	event.Subscribe(bus, func(ev event.ShipHit) {
		log.Info("ship hit", zap.Int("lives_left", ev.LivesLeft), zap.Bool("game_over", ev.GameOver))
	})
	event.Subscribe(bus, func(ev event.ScoreChanged) {
		log.Debug("score", zap.Int64("delta", ev.Delta), zap.Int64("total", ev.Total))
	})
	event.Subscribe(bus, func(ev event.TickError) {
		log.Error("tick error", zap.Error(ev.Err))
	})

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.FrameInterval.Duration)
	defer ticker.Stop()

	printSection("session ready")
	printReady(fmt.Sprintf("fixed step %s, frame %s", cfg.Sim.TickRate, cfg.Sim.FrameInterval))
	if cfg.Sim.RunFor.Duration > 0 {
		printReady(fmt.Sprintf("soak limit %s", cfg.Sim.RunFor))
	}
	fmt.Println()

	start := time.Now()
	last := start
	pilot := newAutopilot(cfg)
	for {
		select {
		case now := <-ticker.C:
			elapsed := now.Sub(last)
			last = now
			sched.SetInput(pilot.input(sched))
			sched.Advance(elapsed)

			if sched.State() == sim.StateGameOver {
				recordScore(scores, cfg, sched, log)
				log.Info("restarting session", zap.Int64("final_score", sched.Score()))
				sched.Restart()
			}
			if cfg.Sim.RunFor.Duration > 0 && time.Since(start) >= cfg.Sim.RunFor.Duration {
				hud := sched.HUD()
				log.Info("soak complete",
					zap.Int64("score", hud.Score),
					zap.Uint64("ticks", sched.TickCount()),
					zap.Int("entities", len(sched.Snapshot())))
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			return nil
		}
	}
}

// recordScore writes the finished session to the ledger, if one is wired.
func recordScore(scores *persist.ScoreRepo, cfg *config.Config, sched *sim.Scheduler, log *zap.Logger) {
	if scores == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := scores.Insert(ctx, cfg.Game.Name, sched.Score(), sched.GameTime()); err != nil {
		log.Warn("record high score", zap.Error(err))
		return
	}
	top, err := scores.TopN(ctx, 5)
	if err != nil {
		log.Warn("load high scores", zap.Error(err))
		return
	}
	for i, row := range top {
		log.Info("high score",
			zap.Int("rank", i+1),
			zap.String("name", row.Name),
			zap.Int64("score", row.Score))
	}
}

// autopilot drives the headless session: the ship sweeps between two
// pointer targets near the bottom of the playfield while autofire does the
// rest. Enough to exercise steering, firing, collection and collisions.
type autopilot struct {
	cfg *config.Config
}

func newAutopilot(cfg *config.Config) *autopilot {
	return &autopilot{cfg: cfg}
}

func (a *autopilot) input(sched *sim.Scheduler) sim.Input {
	t := sched.GameTime()
	w := a.cfg.Playfield.Width
	return sim.Input{
		PointerActive: true,
		PointerX:      w/2 + math.Sin(t*0.7)*w*0.4,
		PointerY:      a.cfg.Playfield.Height * 0.85,
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
