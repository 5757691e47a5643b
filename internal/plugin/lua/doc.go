// Package lua hosts Lua plugin modules on gopher-lua.
//
// Each module file runs in its own sandboxed State: the io, os, debug and
// package-loading facilities are not available, require only resolves the
// safe standard modules and the preloaded "blockstorm" module, and every
// call runs under a deadline.
//
//	state, err := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	if err != nil {
//	    return err
//	}
//	defer state.Close()
//
//	state.Preload(lua.ModuleName, lua.API{Log: logFn}.Loader())
//	if err := state.DoFile("upper.lua"); err != nil {
//	    return err
//	}
//
// The Bridge converts values between Go and Lua; command contexts are
// handed to Lua as plain tables.
package lua
