// Package store implements an opt-in translation memory backed by SQLite.
//
// Each remembered entry maps (source text, source lang, target lang) to a
// previously obtained translation, so repeated runs over the same resource
// files skip provider calls for unchanged messages. The store is only opened
// when a cache path is configured; a default run keeps no state between runs.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Stats summarizes the translation memory contents.
type Stats struct {
	Entries    int
	TotalUsage int
	Providers  map[string]int
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		provider TEXT,
		usage_count INTEGER DEFAULT 1,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, source_lang, target_lang)
	);
	CREATE INDEX IF NOT EXISTS idx_memory_lookup
		ON translation_memory(source_text, source_lang, target_lang);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeKey puts source text into NFC so that visually identical strings
// with different unicode compositions hit the same memory entry.
func normalizeKey(text string) string {
	return norm.NFC.String(text)
}

// Get returns the remembered translation for the given source text and
// language pair, bumping its usage counter on a hit.
func (s *Store) Get(ctx context.Context, sourceText, sourceLang, targetLang string) (string, bool, error) {
	key := normalizeKey(sourceText)

	var id, translated string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, translated_text FROM translation_memory
		WHERE source_text = ? AND source_lang = ? AND target_lang = ?`,
		key, sourceLang, targetLang,
	).Scan(&id, &translated)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("memory lookup failed: %w", err)
	}

	_, _ = s.db.ExecContext(ctx, `
		UPDATE translation_memory
		SET usage_count = usage_count + 1, last_used = ?
		WHERE id = ?`,
		time.Now().UTC(), id,
	)

	return translated, true, nil
}

// Save remembers a translation, replacing any previous entry for the same
// source text and language pair.
func (s *Store) Save(ctx context.Context, sourceText, sourceLang, targetLang, translatedText, provider string) error {
	key := normalizeKey(sourceText)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO translation_memory (id, source_text, source_lang, target_lang, translated_text, provider)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_text, source_lang, target_lang) DO UPDATE SET
			translated_text = excluded.translated_text,
			provider = excluded.provider,
			last_used = CURRENT_TIMESTAMP`,
		uuid.New().String(), key, sourceLang, targetLang, translatedText, provider,
	)
	if err != nil {
		return fmt.Errorf("memory save failed: %w", err)
	}
	return nil
}

// Stats reports entry and usage counts, broken down by provider.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Providers: make(map[string]int)}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(usage_count), 0) FROM translation_memory`,
	).Scan(&stats.Entries, &stats.TotalUsage)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(provider, ''), COUNT(*) FROM translation_memory GROUP BY provider`)
	if err != nil {
		return nil, fmt.Errorf("stats query failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var provider string
		var count int
		if err := rows.Scan(&provider, &count); err != nil {
			return nil, err
		}
		stats.Providers[provider] = count
	}
	return stats, rows.Err()
}

// Clear removes every entry from the translation memory.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
