package placeholder

import (
	"reflect"
	"testing"
)

func TestProtect_Placeables(t *testing.T) {
	text := "Добро пожаловать, { $name }! Осталось { $count } из { -brand }."

	protected, markers := Protect(text)

	want := "Добро пожаловать, {0}! Осталось {1} из {2}."
	if protected != want {
		t.Errorf("Protect() = %q, want %q", protected, want)
	}
	wantMarkers := []string{"{ $name }", "{ $count }", "{ -brand }"}
	if !reflect.DeepEqual(markers, wantMarkers) {
		t.Errorf("markers = %v, want %v", markers, wantMarkers)
	}
}

func TestProtect_NoPlaceables(t *testing.T) {
	protected, markers := Protect("plain text")
	if protected != "plain text" {
		t.Errorf("Protect() = %q", protected)
	}
	if len(markers) != 0 {
		t.Errorf("expected no markers, got %v", markers)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	text := "Hello, { $name }! You have { $count } items."
	protected, markers := Protect(text)
	if got := Restore(protected, markers); got != text {
		t.Errorf("Restore() = %q, want %q", got, text)
	}
}

func TestRestore_ToleratesProviderSpacing(t *testing.T) {
	_, markers := Protect("Привет, { $name }!")
	// Providers sometimes add spaces inside the marker braces.
	got := Restore("Hello, { 0 }!", markers)
	if got != "Hello, { $name }!" {
		t.Errorf("Restore() = %q", got)
	}
}

func TestRestore_UnknownIndexLeftAlone(t *testing.T) {
	if got := Restore("text {7} more", []string{"{ $a }"}); got != "text {7} more" {
		t.Errorf("Restore() = %q", got)
	}
}

func TestValidate_ReportsMissingMarkers(t *testing.T) {
	_, markers := Protect("{ $a } and { $b }")

	missing := Validate("only {0} survived", markers)
	if !reflect.DeepEqual(missing, []int{1}) {
		t.Errorf("Validate() = %v, want [1]", missing)
	}

	if missing := Validate("{0} {1}", markers); missing != nil {
		t.Errorf("Validate() = %v, want nil", missing)
	}
}
