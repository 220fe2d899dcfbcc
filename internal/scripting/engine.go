package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/astroblast/server/internal/data"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for wave scripting. Single-goroutine
// access only (game loop). Scripts are optional: a missing directory loads
// nothing and every hook degrades to a no-op, because scripted content must
// never halt the game.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// WaveSpawn is one extra meteoroid spawn requested by a wave script.
type WaveSpawn struct {
	TypeID int32
	Size   data.SizeClass
	X      float64 // negative = let the director pick a safe column
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory (root .lua files first, then waves/).
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	if err := e.loadDir(filepath.Join(scriptsDir, "waves")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load wave scripts: %w", err)
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// WaveSpawns calls the Lua wave_spawns(second) hook, invoked once per whole
// game-second. The script returns a (possibly empty) array of spawn tables:
// { {type = 2, size = "large", x = 120}, ... }. Any script fault logs and
// yields no spawns.
func (e *Engine) WaveSpawns(second int) []WaveSpawn {
	fn := e.vm.GetGlobal("wave_spawns")
	if fn == lua.LNil {
		return nil
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(second)); err != nil {
		e.log.Error("lua wave_spawns error", zap.Error(err))
		return nil
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		if result != lua.LNil {
			e.log.Error("lua wave_spawns returned non-table")
		}
		return nil
	}

	var spawns []WaveSpawn
	rt.ForEach(func(_, v lua.LValue) {
		row, ok := v.(*lua.LTable)
		if !ok {
			e.log.Warn("lua wave_spawns: skipping non-table row")
			return
		}
		size, err := data.ParseSize(lua.LVAsString(row.RawGetString("size")))
		if err != nil {
			e.log.Warn("lua wave_spawns: bad size, defaulting to large",
				zap.Int("second", second), zap.Error(err))
			size = data.SizeLarge
		}
		x := -1.0
		if xv := row.RawGetString("x"); xv != lua.LNil {
			x = float64(lua.LVAsNumber(xv))
		}
		spawns = append(spawns, WaveSpawn{
			TypeID: int32(lua.LVAsNumber(row.RawGetString("type"))),
			Size:   size,
			X:      x,
		})
	})
	return spawns
}

// OnGameOver calls the Lua on_game_over(score, duration) hook, if defined.
func (e *Engine) OnGameOver(score int64, duration float64) {
	fn := e.vm.GetGlobal("on_game_over")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(score), lua.LNumber(duration)); err != nil {
		e.log.Error("lua on_game_over error", zap.Error(err))
	}
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
