// Package key models keyboard events and shortcut chords.
//
// A chord is written as modifier tokens joined by "+" with a terminal key
// token, case-insensitively: "Mod+Shift+Z", "ctrl+alt+k", "Escape".
// "Mod" is the platform's primary modifier (Meta on macOS, Ctrl elsewhere).
//
// Chords are canonicalized before they are stored and before a live event
// is compared against them, so "Mod+Shift+z" and "shift+ctrl+Z" name the
// same chord on Linux:
//
//	c, _ := key.Canonical("Mod+Shift+Z", key.PlatformOther) // "ctrl+shift+z"
//	key.FromEvent(ev).String()                              // same form
package key
