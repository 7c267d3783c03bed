package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/ftltran/internal/placeholder"
	"github.com/valpere/ftltran/internal/postprocess"
	"github.com/valpere/ftltran/locale"
)

// DefaultSystemPrompt is the instruction sent with every LLM translation
// request. The two %s verbs receive the source and target language names.
const DefaultSystemPrompt = "You are a translation assistant for ftl localization files. " +
	"I will send you texts from ftl files with variables and text. " +
	"Translate from %s to %s, keeping tags and variables (e.g., HTML or XML) unchanged. " +
	"Send only the translated text, without introductions."

const defaultLLMBaseURL = "https://api.openai.com/v1"

// LLMConfig configures the OpenAI-compatible chat completion adapter.
type LLMConfig struct {
	APIKey string

	// Model defaults to gpt-4o-mini.
	Model string

	// BaseURL defaults to the OpenAI API. Any endpoint speaking the same
	// protocol works.
	BaseURL string

	// SystemPrompt overrides DefaultSystemPrompt. It must contain two %s
	// verbs for the source and target language names.
	SystemPrompt string

	// Proxy is an optional outbound proxy URL.
	Proxy string

	// Timeout bounds a single HTTP request. Defaults to 120s.
	Timeout time.Duration

	// UseBatchAPI switches from synchronous chat completions to the
	// asynchronous /v1/batches flow: upload a JSONL request file, poll
	// until the job completes, download the results.
	UseBatchAPI bool

	// CheckInterval is the poll interval for the batch API. Defaults to 10s.
	CheckInterval time.Duration
}

// LLM translates batches through an OpenAI-compatible chat completion API.
// The batch travels as a JSON array inside a single prompt; the model is
// instructed to answer with a JSON array of the same length and order.
type LLM struct {
	cfg    LLMConfig
	client *http.Client
}

// NewLLM creates the adapter. The API key is required.
func NewLLM(cfg LLMConfig) (*LLM, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LLM API key required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultLLMBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 10 * time.Second
	}

	client := &http.Client{Timeout: cfg.Timeout}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	return &LLM{cfg: cfg, client: client}, nil
}

func (s *LLM) Name() string { return "openai" }

func (s *LLM) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *LLM) TranslateBatch(ctx context.Context, texts []string, source, target locale.Locale) ([]string, error) {
	out := make([]string, len(texts))
	copy(out, texts)

	// Placeholder-protect the translatable items; blanks pass through.
	var items []string
	var indices []int
	markers := make([][]string, 0, len(texts))
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		protected, m := placeholder.Protect(text)
		items = append(items, protected)
		indices = append(indices, i)
		markers = append(markers, m)
	}
	if len(items) == 0 {
		return out, nil
	}

	var translated []string
	var err error
	if s.cfg.UseBatchAPI {
		translated, err = s.translateViaBatchJob(ctx, items, source, target)
	} else {
		translated, err = s.translateViaChat(ctx, items, source, target)
	}
	if err != nil {
		return nil, err
	}
	if len(translated) != len(items) {
		return nil, &FormatError{Provider: s.Name(), Want: len(items), Got: len(translated)}
	}

	for j, idx := range indices {
		out[idx] = placeholder.Restore(postprocess.Clean(translated[j]), markers[j])
	}
	return out, nil
}

// translateViaChat sends one chat completion request carrying the whole batch.
func (s *LLM) translateViaChat(ctx context.Context, items []string, source, target locale.Locale) ([]string, error) {
	userContent, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	chatReq := map[string]interface{}{
		"model": s.cfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": s.systemPrompt(source, target, len(items))},
			{"role": "user", "content": string(userContent)},
		},
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.cfg.BaseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return nil, &ProviderError{
			Provider:   s.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error: %v", errResp),
		}
	}

	var chatResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("empty response from API")}
	}

	return parseTranslationsArray(s.Name(), chatResp.Choices[0].Message.Content, len(items))
}

// systemPrompt renders the configured prompt and appends the batch protocol
// instructions.
func (s *LLM) systemPrompt(source, target locale.Locale, count int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(s.cfg.SystemPrompt, languageName(source), languageName(target)))
	sb.WriteString(fmt.Sprintf(
		"\n\nThe user message is a JSON array of %d strings. "+
			"Respond with a JSON array of exactly %d strings: the translations, in the same order. "+
			"Output only the JSON array.", count, count))
	sb.WriteString("\n")
	sb.WriteString(placeholder.InstructionHint())
	return sb.String()
}

// parseTranslationsArray extracts the JSON array of translations from a model
// answer, tolerating code fences, and validates the item count.
func parseTranslationsArray(provider, content string, want int) ([]string, error) {
	content = stripCodeFence(strings.TrimSpace(content))

	var items []string
	if err := json.Unmarshal([]byte(content), &items); err != nil {
		return nil, &FormatError{Provider: provider, Want: want, Got: 0, Detail: fmt.Sprintf("not a JSON array: %v", err)}
	}
	if len(items) != want {
		return nil, &FormatError{Provider: provider, Want: want, Got: len(items)}
	}
	return items, nil
}

// stripCodeFence removes a wrapping ``` block (with optional language tag).
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// languageName returns the English display name for a locale, falling back to
// the raw tag when it does not parse.
func languageName(l locale.Locale) string {
	tag, err := language.Parse(l.String())
	if err != nil {
		return l.String()
	}
	return display.English.Languages().Name(tag)
}
