package lua

import (
	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the name plugin code requires to reach the editor.
const ModuleName = "blockstorm"

// API is the editor surface exposed to Lua as the blockstorm module.
// Nil functions are omitted from the module.
type API struct {
	// Run executes a registered command by id.
	Run func(id string) bool

	// HTML returns the markup of the content root.
	HTML func() string

	// AppendBlock appends a block of the given kind holding text and
	// returns its id.
	AppendBlock func(kind, text string) string

	// Log writes a message to the editor log.
	Log func(msg string)
}

// Loader returns the module loader for require("blockstorm").
func (a API) Loader() lua.LGFunction {
	return func(L *lua.LState) int {
		funcs := map[string]lua.LGFunction{}
		if a.Run != nil {
			funcs["run"] = func(L *lua.LState) int {
				L.Push(lua.LBool(a.Run(L.CheckString(1))))
				return 1
			}
		}
		if a.HTML != nil {
			funcs["html"] = func(L *lua.LState) int {
				L.Push(lua.LString(a.HTML()))
				return 1
			}
		}
		if a.AppendBlock != nil {
			funcs["append_block"] = func(L *lua.LState) int {
				L.Push(lua.LString(a.AppendBlock(L.CheckString(1), L.OptString(2, ""))))
				return 1
			}
		}
		if a.Log != nil {
			funcs["log"] = func(L *lua.LState) int {
				a.Log(L.CheckString(1))
				return 0
			}
		}
		L.Push(L.SetFuncs(L.NewTable(), funcs))
		return 1
	}
}
