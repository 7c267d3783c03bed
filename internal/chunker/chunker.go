// Package chunker splits oversized texts into pieces that fit a provider's
// per-request character limit while preserving sentence and paragraph
// integrity.
package chunker

import (
	"strings"
	"unicode"
)

// Piece is one chunk of a split text together with the whitespace that
// separated it from the next chunk in the original, so a caller can rejoin
// translated chunks without collapsing line structure. Sep is empty for the
// last piece and for hard cuts.
type Piece struct {
	Text string
	Sep  string
}

// Split breaks text into pieces each no longer than maxChars unicode code
// points. Splits are attempted (in order of preference) at:
//  1. Paragraph boundaries (blank line)
//  2. Sentence-ending punctuation (. ! ?)
//  3. Whitespace (word boundary)
//  4. Hard cut at maxChars if no suitable boundary is found
//
// If text fits within maxChars, a single-element slice is returned.
// maxChars ≤ 0 is treated as unlimited.
func Split(text string, maxChars int) []Piece {
	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	remaining := text
	for len([]rune(remaining)) > maxChars {
		split := findSplit(remaining, maxChars)
		head, tail := remaining[:split], remaining[split:]

		chunk := strings.TrimSpace(head)
		rest := strings.TrimLeftFunc(tail, unicode.IsSpace)
		sep := head[len(strings.TrimRightFunc(head, unicode.IsSpace)):] +
			tail[:len(tail)-len(rest)]

		if chunk != "" {
			pieces = append(pieces, Piece{Text: chunk, Sep: sep})
		}
		remaining = rest
	}
	if remaining != "" {
		pieces = append(pieces, Piece{Text: remaining})
	}
	return pieces
}

// Chunk is Split without the separators.
func Chunk(text string, maxChars int) []string {
	pieces := Split(text, maxChars)
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.Text
	}
	return out
}

// findSplit returns the byte index within text at which to split, aiming for
// at most maxChars runes. It searches backwards from maxChars for the best
// boundary.
func findSplit(text string, maxChars int) int {
	runes := []rune(text)
	if len(runes) <= maxChars {
		return len(text)
	}
	candidate := runes[:maxChars]

	if idx := strings.LastIndex(string(candidate), "\n\n"); idx > 0 {
		return idx + 2
	}

	for i := len(candidate) - 2; i > 0; i-- {
		r := candidate[i]
		if (r == '.' || r == '!' || r == '?') && unicode.IsSpace(candidate[i+1]) {
			return len(string(candidate[:i+1]))
		}
	}

	for i := len(candidate) - 1; i > 0; i-- {
		if unicode.IsSpace(candidate[i]) {
			return len(string(candidate[:i]))
		}
	}

	return len(string(candidate))
}
