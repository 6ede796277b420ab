package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L:
//   - engine.log.{debug,info,warn,error}(msg) write through the Manager's logger
//   - engine.clamp(v, lo, hi) bounds a number
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logTbl := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, fn := range levels {
		fn := fn
		logTbl.RawSetString(name, L.NewFunction(func(L *lua.LState) int {
			fn("lua", zap.String("msg", L.CheckString(1)))
			return 0
		}))
	}
	engine.RawSetString("log", logTbl)

	engine.RawSetString("clamp", L.NewFunction(func(L *lua.LState) int {
		v := float64(L.CheckNumber(1))
		lo := float64(L.CheckNumber(2))
		hi := float64(L.CheckNumber(3))
		switch {
		case v < lo:
			v = lo
		case v > hi:
			v = hi
		}
		L.Push(lua.LNumber(v))
		return 1
	}))

	L.SetGlobal("engine", engine)
}
