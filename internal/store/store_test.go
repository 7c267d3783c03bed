package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "Привет", "ru", "en", "Hello", "google"); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get(ctx, "Привет", "ru", "en")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "Hello" {
		t.Errorf("Get() = %q, %v", got, found)
	}
}

func TestStore_MissReturnsNotFound(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.Get(context.Background(), "никогда не видел", "ru", "en")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("unexpected hit")
	}
}

func TestStore_LanguagePairIsPartOfKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "Привет", "ru", "en", "Hello", "google"); err != nil {
		t.Fatal(err)
	}

	if _, found, _ := s.Get(ctx, "Привет", "ru", "de"); found {
		t.Error("hit for wrong target language")
	}
}

func TestStore_SaveReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "Привет", "ru", "en", "Hi", "google"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "Привет", "ru", "en", "Hello", "openai"); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get(ctx, "Привет", "ru", "en")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "Hello" {
		t.Errorf("Get() = %q, %v", got, found)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("entries = %d, want 1", stats.Entries)
	}
}

func TestStore_NormalizesUnicodeKeys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// "é" precomposed vs combining acute.
	if err := s.Save(ctx, "café", "fr", "en", "coffee", "google"); err != nil {
		t.Fatal(err)
	}

	got, found, err := s.Get(ctx, "café", "fr", "en")
	if err != nil {
		t.Fatal(err)
	}
	if !found || got != "coffee" {
		t.Errorf("Get() = %q, %v; NFC variants should share an entry", got, found)
	}
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "раз", "ru", "en", "one", "google"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "два", "ru", "en", "two", "openai"); err != nil {
		t.Fatal(err)
	}
	// Two hits bump usage of the first entry.
	s.Get(ctx, "раз", "ru", "en")
	s.Get(ctx, "раз", "ru", "en")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 2 {
		t.Errorf("entries = %d, want 2", stats.Entries)
	}
	if stats.TotalUsage != 4 {
		t.Errorf("total usage = %d, want 4", stats.TotalUsage)
	}
	if stats.Providers["google"] != 1 || stats.Providers["openai"] != 1 {
		t.Errorf("providers = %v", stats.Providers)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, "раз", "ru", "en", "one", "google"); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, "два", "ru", "en", "two", "google"); err != nil {
		t.Fatal(err)
	}

	n, err := s.Clear(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("cleared %d rows, want 2", n)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 0 {
		t.Errorf("entries = %d after clear", stats.Entries)
	}
}
