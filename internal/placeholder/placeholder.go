// Package placeholder protects Fluent placeables ({ $var }, { -term },
// { msg-ref }) during translation by replacing them with numbered markers
// ({0}, {1}, …) that translation providers leave intact. After translation,
// Restore substitutes the originals back.
package placeholder

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// placeable: a single-level { ... } expression. Nested braces (select
	// expressions) are not matched and travel to the provider as-is.
	rePlaceable = regexp.MustCompile(`\{[^{}]*\}`)

	// numbered marker in translated text
	reMarker = regexp.MustCompile(`\{\s*(\d+)\s*\}`)
)

// Protect replaces placeables with numbered markers in the order they appear
// in text. It returns the modified text and the slice of captured originals
// so Restore can put them back.
func Protect(text string) (string, []string) {
	var markers []string
	out := rePlaceable.ReplaceAllStringFunc(text, func(match string) string {
		id := "{" + strconv.Itoa(len(markers)) + "}"
		markers = append(markers, match)
		return id
	})
	return out, markers
}

// Restore substitutes numbered markers in text back with the originals
// captured by Protect. Unrecognised indices leave the marker as-is.
func Restore(text string, markers []string) string {
	return reMarker.ReplaceAllStringFunc(text, func(match string) string {
		sub := reMarker.FindStringSubmatch(match)
		idx, err := strconv.Atoi(sub[1])
		if err != nil || idx < 0 || idx >= len(markers) {
			return match
		}
		return markers[idx]
	})
}

// InstructionHint returns a sentence to append to an LLM prompt so the model
// knows to leave the markers intact.
func InstructionHint() string {
	return "Preserve all {n} markers exactly as they appear — do not translate, move, or remove them."
}

// Validate checks whether every marker created by Protect is still present in
// the translated text. It returns the list of missing indices.
func Validate(text string, markers []string) []int {
	compact := strings.ReplaceAll(text, " ", "")
	var missing []int
	for i := range markers {
		if !strings.Contains(compact, "{"+strconv.Itoa(i)+"}") {
			missing = append(missing, i)
		}
	}
	return missing
}
