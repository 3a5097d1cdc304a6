package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable sets a read-only global "platform" table describing
// info. It must be called before user code runs.
//
// Fields: os, arch, release_arch, variant, is_linux, is_macos, is_windows,
// is_amd64, is_arm64, is_debian_family, is_rhel_family, distro (nil off
// Linux) and the helper when(cond, value).
func InjectPlatformTable(L *lua.LState, info *Info) error {
	t := L.NewTable()

	L.SetField(t, "os", lua.LString(info.OS))
	L.SetField(t, "arch", lua.LString(info.Arch))
	L.SetField(t, "release_arch", lua.LString(info.ReleaseArch))
	if info.Variant != "" {
		L.SetField(t, "variant", lua.LString(info.Variant))
	}

	L.SetField(t, "is_linux", lua.LBool(info.IsLinux()))
	L.SetField(t, "is_macos", lua.LBool(info.IsMacOS()))
	L.SetField(t, "is_windows", lua.LBool(info.IsWindows()))
	L.SetField(t, "is_amd64", lua.LBool(info.IsAMD64()))
	L.SetField(t, "is_arm64", lua.LBool(info.IsARM64()))
	L.SetField(t, "is_debian_family", lua.LBool(info.IsDebianFamily()))
	L.SetField(t, "is_rhel_family", lua.LBool(info.IsRHELFamily()))

	if distro := info.GetDistro(); distro != nil {
		distroTable := L.NewTable()
		L.SetField(distroTable, "id", lua.LString(distro.ID))
		L.SetField(distroTable, "family", lua.LString(distro.Family))
		L.SetField(distroTable, "version", lua.LString(distro.Version))
		L.SetField(t, "distro", makeReadOnly(L, distroTable))
	}

	// when(condition, value) returns value if condition is true, nil otherwise
	L.SetField(t, "when", L.NewFunction(func(L *lua.LState) int {
		if L.CheckBool(1) {
			L.Push(L.Get(2))
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))

	L.SetGlobal("platform", makeReadOnly(L, t))
	return nil
}

// makeReadOnly returns an empty proxy whose metatable forwards reads to table
// and rejects writes.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}
