// Package plugin provides the plugin runtime for blockstorm.
//
// Plugins are described by manifests and instantiated once at startup:
//
//	~/.config/blockstorm/plugins/
//	└── upper/
//	    ├── plugin.json
//	    └── upper.lua
//
// # Manifest
//
//	{
//	  "name": "upper",
//	  "path": "upper.lua",
//	  "class": "Upper",
//	  "active": true,
//	  "version": "1.0.0"
//	}
//
// name, path, class and active are required. A manifest missing one of
// them is logged and skipped; the others still load.
//
// # Modules
//
// A path ending in .lua is run in a sandboxed gopher-lua state and class
// names a global table. A table with a target field is an extension whose
// commands table contributes commands to that host; otherwise its setup
// function is called as a plain plugin. Lua code reaches the editor through
// require("blockstorm").
//
// Any other path names an entry of the Modules registry, which maps
// (path, class) to a Go constructor. Built-in plugins are registered this
// way and announced with WithBuiltin.
//
// # Wiring
//
// Init partitions instances into hosts and extensions. Each host receives
// the extensions whose Target equals its HostType, and each of those gets
// SetupExtension if it implements ExtensionInitializer. Then every plugin
// that is not an extension receives Setup with the full instance list.
// Extensions whose host is absent are ignored.
//
// Ordering between contributions uses their Sort value, never load order.
package plugin
