package event

import (
	"fmt"

	"golang.org/x/text/language"
)

// LocaleChanged is broadcast when the UI locale changes.
type LocaleChanged struct {
	Locale language.Tag
}

// BroadcastLocale parses locale and emits a LocaleChanged event.
func (b *Bus) BroadcastLocale(locale string) (language.Tag, error) {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Und, fmt.Errorf("event: invalid locale %q: %w", locale, err)
	}
	b.Emit(TopicLocaleChanged, LocaleChanged{Locale: tag})
	return tag, nil
}
