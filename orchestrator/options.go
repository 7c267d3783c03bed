package orchestrator

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/valpere/ftltran/locale"
)

// Default pipeline parameters.
const (
	DefaultBatchSize  = 5
	DefaultLimit      = 4
	DefaultRetryCount = 3
	DefaultRetryWait  = 5 * time.Second
)

// Opts configures a translation run. Constructed once per invocation and
// read-only afterwards.
type Opts struct {
	// LocalesDir is the root of the locale tree. Source files are read from
	// LocalesDir/<origin>/ and output written to LocalesDir/<target>/.
	LocalesDir string

	OriginLocale locale.Locale

	// TargetLocales lists the destinations. Empty means every supported
	// locale. Duplicates and the origin locale are dropped.
	TargetLocales []locale.Locale

	// IncludeFiles / ExcludeFiles filter origin files by base name.
	IncludeFiles []string
	ExcludeFiles []string

	// BatchSize is the number of messages sent per provider request.
	BatchSize int

	// Limit bounds the number of provider requests in flight at once.
	Limit int

	// RetryCount is the number of retries after a failed attempt; a batch
	// is tried at most RetryCount+1 times. Zero means the default; a
	// negative value disables retries.
	RetryCount int

	// RetryWait is the fixed delay between attempts.
	RetryWait time.Duration

	// Validate enables a language check on translated batches; a batch
	// detected in the wrong language counts as a failed attempt.
	Validate bool

	// CachePath enables the SQLite translation memory at the given path.
	// Empty keeps the run stateless.
	CachePath string

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// withDefaults fills in zero values and normalizes the target list.
func (o Opts) withDefaults() (Opts, error) {
	if o.LocalesDir == "" {
		return o, fmt.Errorf("locales directory is required")
	}
	if o.OriginLocale == "" {
		return o, fmt.Errorf("origin locale is required")
	}
	if !o.OriginLocale.IsSupported() {
		return o, fmt.Errorf("unsupported origin locale %q", o.OriginLocale)
	}

	info, err := os.Stat(o.originDir())
	if err != nil || !info.IsDir() {
		return o, fmt.Errorf("origin locale directory %s does not exist", o.originDir())
	}

	targets := o.TargetLocales
	if len(targets) == 0 {
		targets = locale.All()
	}
	seen := make(map[locale.Locale]bool, len(targets))
	var normalized []locale.Locale
	for _, t := range targets {
		// The origin translates to itself; skip it silently.
		if t == o.OriginLocale || seen[t] {
			continue
		}
		if !t.IsSupported() {
			return o, fmt.Errorf("unsupported target locale %q", t)
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	o.TargetLocales = normalized

	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	switch {
	case o.RetryCount == 0:
		o.RetryCount = DefaultRetryCount
	case o.RetryCount < 0:
		o.RetryCount = 0
	}
	if o.RetryWait <= 0 {
		o.RetryWait = DefaultRetryWait
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o, nil
}

func (o Opts) originDir() string {
	return filepath.Join(o.LocalesDir, o.OriginLocale.String())
}

// isApplicable applies the include/exclude file filters to a base name.
func (o Opts) isApplicable(name string) bool {
	if len(o.IncludeFiles) > 0 && !contains(o.IncludeFiles, name) {
		return false
	}
	return !contains(o.ExcludeFiles, name)
}

// targetPath maps an origin file to its destination for a target locale,
// mirroring the path relative to the origin locale directory.
func (o Opts) targetPath(file string, target locale.Locale) (string, error) {
	rel, err := filepath.Rel(o.originDir(), file)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return "", fmt.Errorf("%s is not inside %s", file, o.originDir())
	}
	return filepath.Join(o.LocalesDir, target.String(), rel), nil
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
