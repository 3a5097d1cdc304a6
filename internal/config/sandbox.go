package config

import (
	lua "github.com/yuin/gopher-lua"
)

// blockedGlobals are removed from every manifest VM. Manifests are
// declarative: they cannot run commands, touch files, load code, inspect the
// VM or write around the platform table's read-only proxy.
var blockedGlobals = []string{
	"os",
	"io",
	"package",
	"require",
	"module",
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"debug",
	"collectgarbage",
	"getfenv",
	"setfenv",
	"rawset",
	"newproxy",
}

// sandboxLuaVM removes blockedGlobals. string, table, math and the basic
// functions (type, tostring, pairs, ipairs, ...) stay available.
func sandboxLuaVM(L *lua.LState) {
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
}

// newSandboxedVM creates a Lua state with bounded stacks and the sandbox
// applied.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		CallStackSize: luaCallStackSize,
		RegistrySize:  luaRegistrySize,
	})
	sandboxLuaVM(L)
	return L
}
