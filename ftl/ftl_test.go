package ftl

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const sampleFTL = `# Main interface strings
## Buttons

greeting = Привет
farewell = До свидания

# multi-line message
about =
    Первая строка
    Вторая строка

welcome = Добро пожаловать, { $name }!
`

func TestParse_RoundTripIsByteIdentical(t *testing.T) {
	inputs := []string{
		sampleFTL,
		"",
		"\n",
		"greeting = hello",
		"greeting = hello\n",
		"# only a comment\n\n",
		"a = 1\n\n\nb = 2\n",
		"menu =\n    File\n    .label = Open\n",
	}

	for _, input := range inputs {
		r, err := Parse([]byte(input))
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if got := string(r.Serialize()); got != input {
			t.Errorf("round trip mismatch:\ninput:  %q\noutput: %q", input, got)
		}
	}
}

func TestParse_Messages(t *testing.T) {
	r, err := Parse([]byte(sampleFTL))
	if err != nil {
		t.Fatal(err)
	}

	msgs := r.Messages()
	want := []Message{
		{ID: "greeting", Value: "Привет"},
		{ID: "farewell", Value: "До свидания"},
		{ID: "about", Value: "Первая строка\nВторая строка"},
		{ID: "welcome", Value: "Добро пожаловать, { $name }!"},
	}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("Messages() = %+v, want %+v", msgs, want)
	}

	keys := r.Keys()
	wantKeys := []string{"greeting", "farewell", "about", "welcome"}
	if !reflect.DeepEqual(keys, wantKeys) {
		t.Errorf("Keys() = %v, want %v", keys, wantKeys)
	}
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		name  string
		input string
		line  int
	}{
		{"no equals", "just some text\n", 1},
		{"bad identifier", "1bad = value\n", 1},
		{"orphan continuation", "# comment\n    dangling\n", 2},
		{"continuation after blank", "a = 1\n\n    dangling\n", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			if err == nil {
				t.Fatal("expected parse error")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if perr.Line != tc.line {
				t.Errorf("expected error on line %d, got %d", tc.line, perr.Line)
			}
		})
	}
}

func TestSet_ReformatsOnlyChangedMessages(t *testing.T) {
	input := "# header\ngreeting = Привет\nfarewell   =   До свидания\n"
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}

	if !r.Set("greeting", "Hello") {
		t.Fatal("Set returned false for existing id")
	}
	if r.Set("missing", "x") {
		t.Error("Set returned true for missing id")
	}

	want := "# header\ngreeting = Hello\nfarewell   =   До свидания\n"
	if got := string(r.Serialize()); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestSet_MultilineValueFormatting(t *testing.T) {
	r, err := Parse([]byte("about = old\n"))
	if err != nil {
		t.Fatal(err)
	}
	r.Set("about", "line one\nline two")

	want := "about =\n    line one\n    line two\n"
	if got := string(r.Serialize()); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestParse_DuplicateIdentifierLastWins(t *testing.T) {
	input := "a = first\nb = other\na = second\n"
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}

	v, ok := r.Get("a")
	if !ok || v != "second" {
		t.Errorf("Get(a) = %q, %v; want \"second\", true", v, ok)
	}
	if keys := r.Keys(); !reflect.DeepEqual(keys, []string{"b", "a"}) {
		t.Errorf("Keys() = %v, want [b a]", keys)
	}
	// Every occurrence stays in place when nothing was changed.
	if got := string(r.Serialize()); got != input {
		t.Errorf("round trip mismatch:\ninput:  %q\noutput: %q", input, got)
	}
}

func TestParse_DuplicateIdentifierWithContinuation(t *testing.T) {
	input := "a = first\nb = other\na =\n    second\n"
	r, err := Parse([]byte(input))
	if err != nil {
		t.Fatal(err)
	}

	// Continuation lines belong to the duplicate definition, not to the
	// message parsed before it.
	if v, ok := r.Get("a"); !ok || v != "second" {
		t.Errorf("Get(a) = %q, %v; want \"second\", true", v, ok)
	}
	if v, ok := r.Get("b"); !ok || v != "other" {
		t.Errorf("Get(b) = %q, %v; want \"other\", true", v, ok)
	}
	msgs := r.Messages()
	want := []Message{{ID: "b", Value: "other"}, {ID: "a", Value: "second"}}
	if !reflect.DeepEqual(msgs, want) {
		t.Errorf("Messages() = %+v, want %+v", msgs, want)
	}
	if got := string(r.Serialize()); got != input {
		t.Errorf("round trip mismatch:\ninput:  %q\noutput: %q", input, got)
	}
}

func TestSet_UpdatesEveryDuplicateOccurrence(t *testing.T) {
	r, err := Parse([]byte("a = first\nb = other\na = second\n"))
	if err != nil {
		t.Fatal(err)
	}

	if !r.Set("a", "translated") {
		t.Fatal("Set returned false for existing id")
	}

	want := "a = translated\nb = other\na = translated\n"
	if got := string(r.Serialize()); got != want {
		t.Errorf("Serialize() = %q, want %q", got, want)
	}
}

func TestParseFile_And_WriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ftl")
	if err := os.WriteFile(path, []byte(sampleFTL), 0644); err != nil {
		t.Fatal(err)
	}

	r, err := ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "out.ftl")
	if err := r.WriteFile(out); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != sampleFTL {
		t.Errorf("written file differs from source")
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "nope.ftl")); err == nil {
		t.Error("expected error for missing file")
	}
}
