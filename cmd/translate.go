/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/ftltran/locale"
	"github.com/valpere/ftltran/orchestrator"
	"github.com/valpere/ftltran/translator"
)

var (
	localesDir string
	originTag  string
	targetTags []string

	includeFiles []string
	excludeFiles []string

	provider string

	batchSize  int
	limit      int
	retryCount int
	retryWait  time.Duration

	credentials string

	apiKey        string
	model         string
	baseURL       string
	systemPrompt  string
	proxy         string
	useBatchAPI   bool
	checkInterval time.Duration

	cachePath   string
	useValidate bool
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate .ftl files into target locales",
	Long: `Translate every .ftl file under <locales-dir>/<origin>/ into the target
locales, writing output to <locales-dir>/<target>/ with the same structure.

Providers:
  - google   Google Cloud Translation (credentials file or ambient ADC)
  - openai   OpenAI-compatible chat completions (requires an API key;
             OPENAI_API_KEY is used when --api-key is not given)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if viper.GetString("locales-dir") == "" || viper.GetString("origin") == "" {
			return fmt.Errorf("locales-dir and origin are required (flag or config file)")
		}

		origin, err := locale.Parse(viper.GetString("origin"))
		if err != nil {
			return err
		}

		var targets []locale.Locale
		for _, tag := range viper.GetStringSlice("targets") {
			t, err := locale.Parse(tag)
			if err != nil {
				return err
			}
			targets = append(targets, t)
		}

		tr, err := buildTranslator(ctx)
		if err != nil {
			return err
		}
		defer tr.Close()

		orch, err := orchestrator.New(tr, orchestrator.Opts{
			LocalesDir:    viper.GetString("locales-dir"),
			OriginLocale:  origin,
			TargetLocales: targets,
			IncludeFiles:  includeFiles,
			ExcludeFiles:  excludeFiles,
			BatchSize:     viper.GetInt("batch-size"),
			Limit:         viper.GetInt("limit"),
			RetryCount:    viper.GetInt("retry-count"),
			RetryWait:     viper.GetDuration("retry-wait"),
			Validate:      viper.GetBool("validate"),
			CachePath:     viper.GetString("db"),
		})
		if err != nil {
			return err
		}
		defer orch.Close()

		return orch.Run(ctx)
	},
}

// buildTranslator constructs the provider adapter selected by --provider.
func buildTranslator(ctx context.Context) (translator.Translator, error) {
	switch viper.GetString("provider") {
	case "google":
		return translator.NewGoogle(ctx, translator.GoogleConfig{
			CredentialsFile: viper.GetString("credentials"),
		})

	case "openai", "llm":
		key := viper.GetString("api-key")
		if key == "" {
			key = os.Getenv("OPENAI_API_KEY")
		}
		return translator.NewLLM(translator.LLMConfig{
			APIKey:        key,
			Model:         viper.GetString("model"),
			BaseURL:       viper.GetString("base-url"),
			SystemPrompt:  viper.GetString("system-prompt"),
			Proxy:         viper.GetString("proxy"),
			UseBatchAPI:   viper.GetBool("batch-api"),
			CheckInterval: viper.GetDuration("check-interval"),
		})

	default:
		return nil, fmt.Errorf("unknown provider %q (use google or openai)", viper.GetString("provider"))
	}
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&localesDir, "locales-dir", "d", "", "Locales directory (required)")
	translateCmd.Flags().StringVarP(&originTag, "origin", "s", "", "Origin locale tag, e.g. en (required)")
	translateCmd.Flags().StringSliceVarP(&targetTags, "targets", "t", nil, "Target locale tags (default: all supported)")
	translateCmd.Flags().StringSliceVar(&includeFiles, "include", nil, "Only translate these file names")
	translateCmd.Flags().StringSliceVar(&excludeFiles, "exclude", nil, "Skip these file names")

	translateCmd.Flags().StringVarP(&provider, "provider", "p", "google", "Translation provider (google|openai)")

	translateCmd.Flags().IntVar(&batchSize, "batch-size", orchestrator.DefaultBatchSize, "Messages per provider request")
	translateCmd.Flags().IntVar(&limit, "limit", orchestrator.DefaultLimit, "Max provider requests in flight")
	translateCmd.Flags().IntVar(&retryCount, "retry-count", orchestrator.DefaultRetryCount, "Retries per batch after the first attempt")
	translateCmd.Flags().DurationVar(&retryWait, "retry-wait", orchestrator.DefaultRetryWait, "Fixed delay between attempts")

	translateCmd.Flags().StringVarP(&credentials, "credentials", "c", "", "Google Cloud service-account JSON file")

	translateCmd.Flags().StringVar(&apiKey, "api-key", "", "LLM API key (default: OPENAI_API_KEY)")
	translateCmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "LLM model name")
	translateCmd.Flags().StringVar(&baseURL, "base-url", "", "LLM API base URL (default: OpenAI)")
	translateCmd.Flags().StringVar(&systemPrompt, "system-prompt", "", "Override the LLM system prompt (two %s verbs: source, target)")
	translateCmd.Flags().StringVar(&proxy, "proxy", "", "Outbound proxy URL for LLM requests")
	translateCmd.Flags().BoolVar(&useBatchAPI, "batch-api", false, "Use the asynchronous LLM batch API")
	translateCmd.Flags().DurationVar(&checkInterval, "check-interval", 10*time.Second, "Batch API poll interval")

	translateCmd.Flags().StringVar(&cachePath, "db", "", "SQLite translation memory path (empty: no cache)")
	translateCmd.Flags().BoolVar(&useValidate, "validate", false, "Check translated batches are in the target language")
}
