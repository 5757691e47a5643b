// Package config provides the configuration system for blockstorm.
//
// Settings come from three places, later ones overriding earlier:
//
//	built-in defaults  ← Default()
//	config file        ← TOML (.toml) or YAML (.yaml, .yml)
//	environment        ← BLOCKSTORM_* variables
//
// Watch reloads the file when it changes and hands the new Config to the
// caller on its scheduler, so the editor applies it on the loop goroutine.
package config
