package key

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Chord parse errors.
var (
	ErrEmptyChord   = errors.New("key: empty chord")
	ErrInvalidChord = errors.New("key: invalid chord")
)

// Chord is a modifier set plus a terminal key.
type Chord struct {
	Key       string
	Modifiers Modifier
}

// String returns the canonical form: modifiers in ctrl, alt, shift, meta
// order followed by the lowercase key name.
func (c Chord) String() string {
	if c.Modifiers == ModNone {
		return c.Key
	}
	return c.Modifiers.String() + "+" + c.Key
}

var lower = cases.Lower(language.Und)

// keyAliases maps alternative spellings to canonical key names.
var keyAliases = map[string]string{
	" ":        "space",
	"spacebar": "space",
	"esc":      "escape",
	"return":   "enter",
	"cr":       "enter",
	"del":      "delete",
	"bs":       "backspace",
	"up":       "arrowup",
	"down":     "arrowdown",
	"left":     "arrowleft",
	"right":    "arrowright",
	"plus":     "+",
	"pgup":     "pageup",
	"pgdn":     "pagedown",
}

// NormalizeKey returns the canonical spelling of a key token.
func NormalizeKey(k string) string {
	if k == " " {
		return "space"
	}
	k = lower.String(strings.TrimSpace(k))
	if alias, ok := keyAliases[k]; ok {
		return alias
	}
	return k
}

// ParseChord parses a chord specification.
func ParseChord(spec string, p Platform) (Chord, error) {
	s := strings.TrimSpace(spec)
	if s == "" {
		return Chord{}, ErrEmptyChord
	}

	var keyTok string
	var modToks []string
	switch {
	case s == "+":
		keyTok = "+"
	case strings.HasSuffix(s, "++"):
		keyTok = "+"
		modToks = strings.Split(strings.TrimSuffix(s, "++"), "+")
	default:
		parts := strings.Split(s, "+")
		keyTok = parts[len(parts)-1]
		modToks = parts[:len(parts)-1]
	}

	var mods Modifier
	for _, tok := range modToks {
		name := lower.String(strings.TrimSpace(tok))
		if name == "mod" {
			mods = mods.With(p.Primary())
			continue
		}
		m, ok := modifierNames[name]
		if !ok {
			return Chord{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidChord, tok, spec)
		}
		mods = mods.With(m)
	}

	k := NormalizeKey(keyTok)
	if k == "" {
		return Chord{}, fmt.Errorf("%w: missing key in %q", ErrInvalidChord, spec)
	}
	return Chord{Key: k, Modifiers: mods}, nil
}

// Canonical parses spec and returns its canonical string.
func Canonical(spec string, p Platform) (string, error) {
	c, err := ParseChord(spec, p)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// FromEvent returns the chord a live key event represents.
func FromEvent(e *Event) Chord {
	return Chord{Key: NormalizeKey(e.Key), Modifiers: e.Modifiers}
}

// domNames maps canonical key names back to the names events report.
var domNames = map[string]string{
	"enter":      Enter,
	"escape":     Escape,
	"backspace":  Backspace,
	"delete":     Delete,
	"tab":        Tab,
	"space":      " ",
	"arrowup":    "ArrowUp",
	"arrowdown":  "ArrowDown",
	"arrowleft":  "ArrowLeft",
	"arrowright": "ArrowRight",
	"pageup":     "PageUp",
	"pagedown":   "PageDown",
	"home":       "Home",
	"end":        "End",
}

// ParseEvent builds the key-down event a chord specification describes.
// A shifted single letter reports its upper-case character.
func ParseEvent(spec string, p Platform) (*Event, error) {
	c, err := ParseChord(spec, p)
	if err != nil {
		return nil, err
	}
	k := c.Key
	if name, ok := domNames[k]; ok {
		k = name
	} else if c.Modifiers.Has(ModShift) && len(k) == 1 {
		k = strings.ToUpper(k)
	}
	return NewEvent(k, c.Modifiers), nil
}
