package locale

import "testing"

func TestParse_Supported(t *testing.T) {
	cases := map[string]Locale{
		"en":    English,
		"ru":    Russian,
		"zh-CN": Chinese,
		"uk":    Ukrainian,
	}
	for tag, want := range cases {
		got, err := Parse(tag)
		if err != nil {
			t.Errorf("Parse(%q): %v", tag, err)
			continue
		}
		if got != want {
			t.Errorf("Parse(%q) = %v, want %v", tag, got, want)
		}
	}
}

func TestParse_Unsupported(t *testing.T) {
	if _, err := Parse("sv"); err == nil {
		t.Error("expected error for unsupported locale")
	}
}

func TestParse_InvalidTag(t *testing.T) {
	for _, tag := range []string{"", "not a tag", "x!"} {
		if _, err := Parse(tag); err == nil {
			t.Errorf("Parse(%q): expected error", tag)
		}
	}
}

func TestAll_ContainsDeclaredLocales(t *testing.T) {
	locales := All()
	if len(locales) != 14 {
		t.Fatalf("expected 14 locales, got %d", len(locales))
	}
	for _, l := range locales {
		if !l.IsSupported() {
			t.Errorf("%v not reported as supported", l)
		}
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	first := All()
	first[0] = Locale("xx")
	if All()[0] != English {
		t.Error("All() exposed internal slice")
	}
}
