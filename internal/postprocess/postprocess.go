// Package postprocess removes common LLM artifacts from translation output.
//
// It is applied to the raw text returned by the LLM-backed adapter before the
// result is used downstream.
package postprocess

import (
	"regexp"
	"strings"
)

// Clean removes LLM artifacts from text in three phases and returns the
// trimmed result:
//  1. Thinking / reasoning block removal
//  2. Instruction echo removal (prompt leakage)
//  3. Quote wrapping removal
func Clean(text string) string {
	text = removeThinkingBlocks(text)
	text = removeInstructionEchoes(text)
	text = removeQuoteWrapping(text)
	return strings.TrimSpace(text)
}

// thinkingBlockRe matches complete <thinking>…</thinking> style blocks.
// Each tag variant is listed explicitly because Go's RE2 engine does not
// support backreferences.
var thinkingBlockRe = regexp.MustCompile(
	`(?is)<thinking>.*?</thinking>|<think>.*?</think>|<reasoning>.*?</reasoning>`,
)

// truncatedThinkingRe matches an opened thinking tag whose closing tag is
// missing (the model was cut off mid-thought).
var truncatedThinkingRe = regexp.MustCompile(
	`(?is)(?:<thinking>|<think>|<reasoning>).*$`,
)

func removeThinkingBlocks(text string) string {
	text = thinkingBlockRe.ReplaceAllString(text, "")
	text = truncatedThinkingRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// echoPatterns match introductory phrases that LLMs sometimes prepend even
// when instructed not to. Each pattern is anchored to the start of the string
// and requires a colon to reduce false positives on legitimate content.
var echoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
	regexp.MustCompile(`(?i)^(?:the )?(?:translation|translated text)\s*:`),
	regexp.MustCompile(`(?i)^(?:certainly|sure|of course)[,.]? here(?:'s| is)(?: the)? (?:translated )?(?:translation|text)\s*:`),
}

func removeInstructionEchoes(text string) string {
	trimmed := strings.TrimSpace(text)
	for _, re := range echoPatterns {
		if loc := re.FindStringIndex(trimmed); loc != nil {
			return strings.TrimSpace(trimmed[loc[1]:])
		}
	}
	return trimmed
}

// removeQuoteWrapping strips a single level of matching quotes when the model
// wrapped the whole answer in them.
func removeQuoteWrapping(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return trimmed
	}

	pairs := [][2]string{
		{`"`, `"`},
		{"'", "'"},
		{"«", "»"},
		{"„", "“"},
		{"“", "”"},
	}
	for _, p := range pairs {
		if strings.HasPrefix(trimmed, p[0]) && strings.HasSuffix(trimmed, p[1]) {
			inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, p[0]), p[1])
			// Only unwrap when the quotes enclose the entire answer, not
			// when the content itself contains further quotes of the pair.
			if !strings.Contains(inner, p[0]) && !strings.Contains(inner, p[1]) {
				return strings.TrimSpace(inner)
			}
		}
	}
	return trimmed
}
