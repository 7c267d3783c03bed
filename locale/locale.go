// Package locale defines the fixed set of language tags the translator
// supports for both origin and target selection. The tags double as
// subdirectory names under the locales directory.
package locale

import (
	"fmt"

	"golang.org/x/text/language"
)

// Locale is a language tag understood by the translation providers.
type Locale string

const (
	English Locale = "en"
	Russian Locale = "ru"

	Arabic     Locale = "ar"
	Chinese    Locale = "zh-CN"
	Spanish    Locale = "es"
	French     Locale = "fr"
	German     Locale = "de"
	Hindi      Locale = "hi"
	Japanese   Locale = "ja"
	Portuguese Locale = "pt"
	Turkish    Locale = "tr"
	Ukrainian  Locale = "uk"

	Filipino   Locale = "tl"
	Indonesian Locale = "id"
)

var all = []Locale{
	English, Russian,
	Arabic, Chinese, Spanish, French, German, Hindi,
	Japanese, Portuguese, Turkish, Ukrainian,
	Filipino, Indonesian,
}

// All returns every supported locale in declaration order.
func All() []Locale {
	out := make([]Locale, len(all))
	copy(out, all)
	return out
}

// String returns the language tag, e.g. "zh-CN".
func (l Locale) String() string {
	return string(l)
}

// IsSupported reports whether l is one of the declared locales.
func (l Locale) IsSupported() bool {
	for _, known := range all {
		if l == known {
			return true
		}
	}
	return false
}

// Parse converts a language tag into a Locale. The tag must parse as a
// BCP 47 tag and match one of the supported locales.
func Parse(tag string) (Locale, error) {
	if _, err := language.Parse(tag); err != nil {
		return "", fmt.Errorf("invalid language tag %q: %w", tag, err)
	}
	l := Locale(tag)
	if !l.IsSupported() {
		return "", fmt.Errorf("unsupported locale %q", tag)
	}
	return l, nil
}
