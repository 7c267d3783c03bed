package validator

import "testing"

func TestIsValid_MatchingLanguage(t *testing.T) {
	v := New()

	ok, err := v.IsValid("This is clearly an English sentence with enough words to detect.", "en")
	if !ok || err != nil {
		t.Errorf("IsValid() = %v, %v", ok, err)
	}
}

func TestIsValid_WrongLanguage(t *testing.T) {
	v := New()

	ok, err := v.IsValid("Это совершенно точно русский текст, а не английский.", "en")
	if ok {
		t.Error("expected Russian text to fail English validation")
	}
	if err == nil {
		t.Error("expected an error naming the detected language")
	}
}

func TestIsValid_StripsRegionSubtag(t *testing.T) {
	v := New()

	ok, err := v.IsValid("这是一段足够长的中文文本，用来进行语言检测。", "zh-CN")
	if !ok || err != nil {
		t.Errorf("IsValid() = %v, %v", ok, err)
	}
}

func TestIsValid_ShortTextPasses(t *testing.T) {
	v := New()

	// Too short for reliable detection; accepted regardless of language.
	ok, err := v.IsValid("Привет", "en")
	if !ok || err != nil {
		t.Errorf("IsValid() = %v, %v", ok, err)
	}
}

func TestIsValid_EmptyText(t *testing.T) {
	v := New()

	if ok, err := v.IsValid("   ", "en"); ok || err == nil {
		t.Errorf("IsValid() = %v, %v; empty translation must fail", ok, err)
	}
}

func TestIsValid_EmptyTargetSkipsCheck(t *testing.T) {
	v := New()

	if ok, err := v.IsValid("whatever text at all, in any language whatsoever", ""); !ok || err != nil {
		t.Errorf("IsValid() = %v, %v", ok, err)
	}
}
