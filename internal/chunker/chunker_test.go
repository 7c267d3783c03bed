package chunker

import (
	"strings"
	"testing"
)

func TestChunk_FitsInOne(t *testing.T) {
	text := "short text"
	chunks := Chunk(text, 100)
	if len(chunks) != 1 || chunks[0] != text {
		t.Errorf("Chunk() = %v", chunks)
	}
}

func TestChunk_UnlimitedWhenMaxCharsZero(t *testing.T) {
	text := strings.Repeat("word ", 100)
	chunks := Chunk(text, 0)
	if len(chunks) != 1 {
		t.Errorf("expected one chunk, got %d", len(chunks))
	}
}

func TestChunk_SplitsAtSentenceBoundary(t *testing.T) {
	text := "First sentence here. Second sentence follows. Third one ends it."
	chunks := Chunk(text, 30)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	if chunks[0] != "First sentence here." {
		t.Errorf("first chunk = %q", chunks[0])
	}
}

func TestChunk_PrefersParagraphBoundary(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph that continues for a while."
	chunks := Chunk(text, 30)

	if chunks[0] != "First paragraph." {
		t.Errorf("first chunk = %q", chunks[0])
	}
}

func TestChunk_RespectsLimit(t *testing.T) {
	text := strings.Repeat("слово ", 500)
	maxChars := 100
	for _, c := range Chunk(text, maxChars) {
		if n := len([]rune(c)); n > maxChars {
			t.Errorf("chunk of %d runes exceeds limit %d", n, maxChars)
		}
	}
}

func TestSplit_KeepsParagraphSeparator(t *testing.T) {
	text := "First paragraph.\n\nSecond paragraph that continues for a while."
	pieces := Split(text, 30)

	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %v", pieces)
	}
	if pieces[0].Text != "First paragraph." {
		t.Errorf("first piece = %q", pieces[0].Text)
	}
	if pieces[0].Sep != "\n\n" {
		t.Errorf("first separator = %q, want %q", pieces[0].Sep, "\n\n")
	}
	if last := pieces[len(pieces)-1]; last.Sep != "" {
		t.Errorf("last separator = %q, want empty", last.Sep)
	}
}

func TestSplit_ReassemblesToOriginal(t *testing.T) {
	texts := []string{
		"First sentence here. Second sentence follows. Third one ends it.",
		"First paragraph.\n\nSecond paragraph that continues for a while.",
		"line one\nline two\nline three and some more words to push it over",
		strings.Repeat("x", 70),
	}
	for _, text := range texts {
		var sb strings.Builder
		for _, p := range Split(text, 30) {
			sb.WriteString(p.Text)
			sb.WriteString(p.Sep)
		}
		if got := sb.String(); got != text {
			t.Errorf("reassembly mismatch:\ninput:  %q\noutput: %q", text, got)
		}
	}
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks := Chunk(text, 10)
	if len(chunks) != 3 {
		t.Errorf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if got := strings.Join(chunks, ""); got != text {
		t.Errorf("content lost: %q", got)
	}
}
