package translator

import (
	"context"
	"fmt"
	"strings"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/valpere/ftltran/internal/chunker"
	"github.com/valpere/ftltran/internal/placeholder"
	"github.com/valpere/ftltran/locale"
)

// googleMaxChars is the per-string request limit of the translation API.
// Longer inputs are split at sentence boundaries and rejoined after
// translation.
const googleMaxChars = 5000

// GoogleConfig configures the Google Cloud Translation adapter.
type GoogleConfig struct {
	// CredentialsFile points at a service-account JSON file. Empty means
	// ambient credentials (GOOGLE_APPLICATION_CREDENTIALS or ADC).
	CredentialsFile string

	// MaxChars overrides the per-string request limit. Zero means the
	// API default.
	MaxChars int
}

// Google translates batches through the Google Cloud Translation API. One
// API call carries the whole batch; the client accepts a slice of inputs.
type Google struct {
	client   *translate.Client
	maxChars int
}

// NewGoogle creates the adapter and its underlying API client.
func NewGoogle(ctx context.Context, cfg GoogleConfig) (*Google, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, &ProviderError{Provider: "google", Err: fmt.Errorf("failed to create client: %w", err)}
	}

	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = googleMaxChars
	}
	return &Google{client: client, maxChars: maxChars}, nil
}

func (g *Google) Name() string { return "google" }

func (g *Google) Close() error { return g.client.Close() }

func (g *Google) TranslateBatch(ctx context.Context, texts []string, source, target locale.Locale) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)

	targetTag, err := language.Parse(target.String())
	if err != nil {
		return nil, &ProviderError{Provider: "google", Err: fmt.Errorf("invalid target language %q: %w", target, err)}
	}
	sourceTag, err := language.Parse(source.String())
	if err != nil {
		return nil, &ProviderError{Provider: "google", Err: fmt.Errorf("invalid source language %q: %w", source, err)}
	}

	// Flatten the batch into one request: each text is placeholder-protected
	// and, when oversized, split into chunks. spans remembers which request
	// items belong to which input text and the separators to rejoin them with.
	type span struct {
		index   int // position in texts
		from    int // first request item
		seps    []string
		markers []string
	}

	var request []string
	var spans []span

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			// Nothing translatable; pass through without a provider call.
			continue
		}
		protected, markers := placeholder.Protect(text)
		pieces := chunker.Split(protected, g.maxChars)
		seps := make([]string, len(pieces))
		for j, p := range pieces {
			request = append(request, p.Text)
			seps[j] = p.Sep
		}
		spans = append(spans, span{index: i, from: len(request) - len(pieces), seps: seps, markers: markers})
	}

	if len(request) == 0 {
		return out, nil
	}

	translations, err := g.client.Translate(ctx, request, targetTag, &translate.Options{
		Source: sourceTag,
		Format: translate.Text,
	})
	if err != nil {
		return nil, &ProviderError{Provider: "google", Err: fmt.Errorf("translation failed: %w", err)}
	}
	if len(translations) != len(request) {
		return nil, &ProviderError{
			Provider: "google",
			Err:      fmt.Errorf("expected %d translations, got %d", len(request), len(translations)),
		}
	}

	for _, sp := range spans {
		var sb strings.Builder
		for j, sep := range sp.seps {
			sb.WriteString(translations[sp.from+j].Text)
			sb.WriteString(sep)
		}
		out[sp.index] = placeholder.Restore(sb.String(), sp.markers)
	}

	return out, nil
}
