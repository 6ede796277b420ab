package scripting

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// globalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const globalScope = "__global__"

// PriorityHookPrefix is prepended to a goal name to form its priority hook.
const PriorityHookPrefix = "priority_"

type vm struct {
	mu     sync.Mutex
	L      *lua.LState
	limit  int
	closed bool
}

func (v *vm) close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.L.Close()
		v.closed = true
	}
}

// Manager owns one sandboxed LState per scope (usually an agent name) and
// exposes hook dispatch.
//
// Manager is safe for concurrent use. Calls into the same scope are serialized;
// different scopes run concurrently.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no VMs.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: the VM replaces any previous one for scope; returns error on
// Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the shared VM used as the CallHook fallback for every scope.
//
// Precondition: scriptDir must be a readable directory.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(globalScope, scriptDir, instLimit)
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		cancel := arm(L, instLimit)
		err := L.DoFile(path)
		cancel()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[key]; ok {
		old.close()
	}
	m.states[key] = &vm{L: L, limit: instLimit}
	m.mu.Unlock()
	return nil
}

// CallHook calls the named Lua global function in scope's VM. If the scope has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the hook
// is not defined or no VM exists. Lua runtime errors, including an exhausted
// instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	v := m.resolve(scope, hook)
	if v == nil {
		return lua.LNil, nil
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return m.invoke(v, scope, hook, args...), nil
}

// Priority calls priority_<goal> through CallHook with metrics as a Lua table.
//
// Postcondition: ok is false when the hook is missing, errors, or returns a
// non-number or a non-finite number; otherwise priority is the rounded return
// value.
func (m *Manager) Priority(scope, goal string, metrics map[string]float64) (priority int, ok bool) {
	ret, err := m.CallHook(scope, PriorityHookPrefix+goal, metricsTable(metrics))
	if err != nil {
		return 0, false
	}
	n, isNum := ret.(lua.LNumber)
	if !isNum {
		return 0, false
	}
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		m.logger.Warn("scripting: non-finite priority ignored",
			zap.String("scope", scope),
			zap.String("goal", goal),
		)
		return 0, false
	}
	return int(math.Round(f)), true
}

func (m *Manager) resolve(scope, hook string) *vm {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.states[scope]
	if !ok {
		v = m.states[globalScope]
	}
	if v == nil {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
	}
	return v
}

// invoke runs hook in v with a fresh instruction budget.
//
// Precondition: v.mu is held.
func (m *Manager) invoke(v *vm, scope, hook string, args ...lua.LValue) lua.LValue {
	if v.closed {
		return lua.LNil
	}
	fn := v.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil
	}

	cancel := arm(v.L, v.limit)
	defer cancel()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil
	}

	ret := v.L.Get(-1)
	v.L.Pop(1)
	return ret
}

func metricsTable(metrics map[string]float64) *lua.LTable {
	keys := make([]string, 0, len(metrics))
	for k := range metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tbl := &lua.LTable{Metatable: lua.LNil}
	for _, k := range keys {
		tbl.RawSetString(k, lua.LNumber(metrics[k]))
	}
	return tbl
}

// Close releases every VM. CallHook after Close returns (LNil, nil).
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, v := range m.states {
		v.close()
		delete(m.states, key)
	}
}
