// Package ftl implements reading and writing of Fluent (.ftl) localization
// resource files.
//
// The format is line-based: `identifier = value` messages, `#`-prefixed
// comments, and blank lines. A message value may continue over several
// indented lines (including `.attr = ...` attribute lines); those lines
// belong to the message block.
//
// A parsed Resource keeps the original text of every line in document order,
// so serializing an untouched Resource reproduces the input byte for byte.
// Only messages whose value was replaced through Set are reformatted.
package ftl

import (
	"fmt"
	"os"
	"strings"
)

type entryKind int

const (
	entryBlank entryKind = iota
	entryComment
	entryMessage
)

// entry is one logical block of the file: a blank line, a comment line, or a
// message together with its continuation lines.
type entry struct {
	kind  entryKind
	raw   []string // original lines, verbatim
	id    string   // entryMessage only
	value string   // entryMessage only
	dirty bool     // value replaced; serialize reformats
}

// Message is a translatable unit: an identifier paired with its text content.
type Message struct {
	ID    string
	Value string
}

// Resource is a parsed .ftl file. Message order is significant and preserved
// on write.
type Resource struct {
	entries []entry
	index   map[string]int

	trailingNewline bool
}

// ParseError reports a line that could not be interpreted as a message,
// continuation, comment, or blank line.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ftl: line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// ParseFile reads and parses a .ftl file from disk.
func ParseFile(path string) (*Resource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return r, nil
}

// Parse parses .ftl content from a byte slice.
func Parse(data []byte) (*Resource, error) {
	r := &Resource{index: make(map[string]int)}

	text := string(data)
	if text == "" {
		return r, nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
		r.trailingNewline = true
	}

	// open is the index of the message entry accepting continuation lines,
	// -1 when the previous line closed the block.
	open := -1

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)

		switch {
		case trimmed == "":
			r.entries = append(r.entries, entry{kind: entryBlank, raw: []string{raw}})
			open = -1

		case strings.HasPrefix(trimmed, "#"):
			r.entries = append(r.entries, entry{kind: entryComment, raw: []string{raw}})
			open = -1

		case raw != trimmed && (strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")):
			// Indented line: continuation of the open message.
			if open < 0 {
				return nil, &ParseError{Line: lineNo, Text: raw, Reason: "continuation line without a message"}
			}
			e := &r.entries[open]
			e.raw = append(e.raw, raw)
			if e.value == "" {
				e.value = trimmed
			} else {
				e.value += "\n" + trimmed
			}

		default:
			id, value, ok := splitMessage(trimmed)
			if !ok {
				return nil, &ParseError{Line: lineNo, Text: raw, Reason: "not a message, comment, or blank line"}
			}
			// Duplicate identifiers keep every occurrence's lines in place;
			// the index points at the last definition, which wins lookups.
			r.index[id] = len(r.entries)
			open = len(r.entries)
			r.entries = append(r.entries, entry{
				kind:  entryMessage,
				raw:   []string{raw},
				id:    id,
				value: value,
			})
		}
	}

	return r, nil
}

// splitMessage splits "identifier = value" into its parts. The identifier
// must start with a letter and contain only letters, digits, '-' and '_'.
func splitMessage(s string) (id, value string, ok bool) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return "", "", false
	}
	id = strings.TrimSpace(s[:eq])
	if !validIdentifier(id) {
		return "", "", false
	}
	return id, strings.TrimSpace(s[eq+1:]), true
}

func validIdentifier(id string) bool {
	if id == "" {
		return false
	}
	for i, ch := range id {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z':
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '-' || ch == '_'):
		default:
			return false
		}
	}
	return true
}

// Messages returns the translatable messages in document order. For a
// duplicated identifier only the winning (last) definition is returned.
func (r *Resource) Messages() []Message {
	var out []Message
	for i, e := range r.entries {
		if e.kind == entryMessage && r.index[e.id] == i {
			out = append(out, Message{ID: e.id, Value: e.value})
		}
	}
	return out
}

// Keys returns the message identifiers in document order, one per identifier.
func (r *Resource) Keys() []string {
	var out []string
	for i, e := range r.entries {
		if e.kind == entryMessage && r.index[e.id] == i {
			out = append(out, e.id)
		}
	}
	return out
}

// Get returns the value of the message with the given identifier.
func (r *Resource) Get(id string) (string, bool) {
	idx, ok := r.index[id]
	if !ok {
		return "", false
	}
	return r.entries[idx].value, true
}

// Set replaces the value of the message with the given identifier; every
// occurrence of a duplicated identifier is updated. Changed entries are
// reformatted on the next Serialize. It returns false when no message with
// that identifier exists.
func (r *Resource) Set(id, value string) bool {
	if _, ok := r.index[id]; !ok {
		return false
	}
	for i := range r.entries {
		e := &r.entries[i]
		if e.kind != entryMessage || e.id != id || e.value == value {
			continue
		}
		e.value = value
		e.dirty = true
	}
	return true
}

// Serialize writes the resource back to text. Untouched entries are emitted
// verbatim; entries changed through Set are reformatted as
// `id = value` or, for multi-line values, as an indented block.
func (r *Resource) Serialize() []byte {
	var sb strings.Builder
	for i, e := range r.entries {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if e.kind == entryMessage && e.dirty {
			sb.WriteString(formatMessage(e.id, e.value))
		} else {
			sb.WriteString(strings.Join(e.raw, "\n"))
		}
	}
	if r.trailingNewline {
		sb.WriteByte('\n')
	}
	return []byte(sb.String())
}

// WriteFile serializes the resource to path, creating parent directories as
// needed is left to the caller.
func (r *Resource) WriteFile(path string) error {
	if err := os.WriteFile(path, r.Serialize(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// formatMessage renders a message block. Single-line values stay on the
// identifier line; multi-line values are placed on indented follow-up lines.
func formatMessage(id, value string) string {
	if !strings.Contains(value, "\n") {
		return fmt.Sprintf("%s = %s", id, value)
	}
	return id + " =\n    " + strings.ReplaceAll(value, "\n", "\n    ")
}
