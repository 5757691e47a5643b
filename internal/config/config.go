package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "500ms" in config files.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full editor configuration.
type Config struct {
	History HistoryConfig `toml:"history" yaml:"history"`
	Overlay OverlayConfig `toml:"overlay" yaml:"overlay"`
	Plugins PluginsConfig `toml:"plugins" yaml:"plugins"`
	Keymap  KeymapConfig  `toml:"keymap" yaml:"keymap"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Locale  string        `toml:"locale" yaml:"locale"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	TypingDelay  Duration `toml:"typing_delay" yaml:"typing_delay"`
	CommandDelay Duration `toml:"command_delay" yaml:"command_delay"`
	MaxEntries   int      `toml:"max_entries" yaml:"max_entries"`
}

// OverlayConfig configures the overlay stack.
type OverlayConfig struct {
	GraceWindow Duration `toml:"grace_window" yaml:"grace_window"`
}

// PluginsConfig configures plugin discovery.
type PluginsConfig struct {
	Paths      []string `toml:"paths" yaml:"paths"`
	Disabled   []string `toml:"disabled" yaml:"disabled"`
	LuaTimeout Duration `toml:"lua_timeout" yaml:"lua_timeout"`
}

// KeymapConfig configures chord resolution.
type KeymapConfig struct {
	// Platform is "mac", "other" or "auto".
	Platform string `toml:"platform" yaml:"platform"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		History: HistoryConfig{
			TypingDelay:  Duration(500 * time.Millisecond),
			CommandDelay: Duration(50 * time.Millisecond),
			MaxEntries:   100,
		},
		Overlay: OverlayConfig{GraceWindow: Duration(100 * time.Millisecond)},
		Plugins: PluginsConfig{LuaTimeout: Duration(2 * time.Second)},
		Keymap:  KeymapConfig{Platform: "auto"},
		Log:     LogConfig{Level: "info"},
		Locale:  "en",
	}
}

// Load reads the file at path over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := Decode(c, path, data); err != nil {
			return nil, err
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode parses data over c, choosing the format from path's extension.
func Decode(c *Config, path string, data []byte) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, c); err != nil {
			pe := &ParseError{Path: path, Message: err.Error(), Err: err}
			var derr *toml.DecodeError
			if errors.As(err, &derr) {
				pe.Line, pe.Column = derr.Position()
			}
			return pe
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, c); err != nil {
			return &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	return nil
}

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "BLOCKSTORM_"

// ApplyEnv overrides settings from environment variables looked up with
// lookup. os.LookupEnv is the usual lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvPrefix + "LOCALE"); ok {
		c.Locale = v
	}
	if v, ok := lookup(EnvPrefix + "PLATFORM"); ok {
		c.Keymap.Platform = v
	}
	if v, ok := lookup(EnvPrefix + "PLUGIN_PATHS"); ok {
		c.Plugins.Paths = filepath.SplitList(v)
	}
	if v, ok := lookup(EnvPrefix + "HISTORY_MAX_ENTRIES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &ValidationError{Path: "history.max_entries", Message: "not an integer", Value: v}
		}
		c.History.MaxEntries = n
	}
	return nil
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	switch {
	case c.History.TypingDelay < 0:
		return &ValidationError{Path: "history.typing_delay", Message: "must not be negative", Value: c.History.TypingDelay.Std()}
	case c.History.CommandDelay < 0:
		return &ValidationError{Path: "history.command_delay", Message: "must not be negative", Value: c.History.CommandDelay.Std()}
	case c.History.MaxEntries < 1:
		return &ValidationError{Path: "history.max_entries", Message: "must be at least 1", Value: c.History.MaxEntries}
	case c.Overlay.GraceWindow < 0:
		return &ValidationError{Path: "overlay.grace_window", Message: "must not be negative", Value: c.Overlay.GraceWindow.Std()}
	case c.Plugins.LuaTimeout < 0:
		return &ValidationError{Path: "plugins.lua_timeout", Message: "must not be negative", Value: c.Plugins.LuaTimeout.Std()}
	}

	switch strings.ToLower(c.Keymap.Platform) {
	case "", "auto", "mac", "macos", "darwin", "other", "linux", "windows":
	default:
		return &ValidationError{Path: "keymap.platform", Message: "must be mac, other or auto", Value: c.Keymap.Platform}
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Path: "log.level", Message: err.Error(), Value: c.Log.Level}
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return &ValidationError{Path: "locale", Message: err.Error(), Value: c.Locale}
	}
	return nil
}

// LogLevel returns the parsed log level, or info.
func (c *Config) LogLevel() zapcore.Level {
	lvl, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
