package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/valpere/ftltran/internal/placeholder"
	"github.com/valpere/ftltran/locale"
)

// batchTerminalFailures are job states that will never produce output.
var batchTerminalFailures = map[string]bool{
	"failed":    true,
	"expired":   true,
	"cancelled": true,
}

// translateViaBatchJob runs the batch through the asynchronous /v1/batches
// flow: upload a JSONL file with one chat completion task per item, create a
// batch job, poll until it completes, then download and order the results.
func (s *LLM) translateViaBatchJob(ctx context.Context, items []string, source, target locale.Locale) ([]string, error) {
	jsonl, err := s.buildBatchFile(items, source, target)
	if err != nil {
		return nil, err
	}

	fileID, err := s.uploadBatchFile(ctx, jsonl)
	if err != nil {
		return nil, err
	}

	batchID, err := s.createBatchJob(ctx, fileID)
	if err != nil {
		return nil, err
	}

	outputFileID, err := s.waitForBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	content, err := s.downloadFile(ctx, outputFileID)
	if err != nil {
		return nil, err
	}

	return parseBatchOutput(s.Name(), content, len(items))
}

// buildBatchFile serializes one chat completion task per item into JSONL.
// custom_id carries the item's position so results can be reordered.
func (s *LLM) buildBatchFile(items []string, source, target locale.Locale) ([]byte, error) {
	systemPrompt := fmt.Sprintf(s.cfg.SystemPrompt, languageName(source), languageName(target)) +
		"\n" + placeholder.InstructionHint()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, item := range items {
		task := map[string]interface{}{
			"custom_id": fmt.Sprintf("id-%d", i+1),
			"method":    "POST",
			"url":       "/v1/chat/completions",
			"body": map[string]interface{}{
				"model": s.cfg.Model,
				"messages": []map[string]string{
					{"role": "system", "content": systemPrompt},
					{"role": "user", "content": item},
				},
			},
		}
		if err := enc.Encode(task); err != nil {
			return nil, fmt.Errorf("failed to encode batch task: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// uploadBatchFile posts the JSONL to /files with purpose=batch.
func (s *LLM) uploadBatchFile(ctx context.Context, jsonl []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if err := mw.WriteField("purpose", "batch"); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	fw, err := mw.CreateFormFile("file", "batch.jsonl")
	if err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := fw.Write(jsonl); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to build upload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.cfg.BaseURL+"/files", &body)
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	var uploaded struct {
		ID string `json:"id"`
	}
	if err := s.doJSON(httpReq, &uploaded); err != nil {
		return "", err
	}
	if uploaded.ID == "" {
		return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("file upload returned no id")}
	}
	return uploaded.ID, nil
}

// createBatchJob starts a batch over the uploaded request file.
func (s *LLM) createBatchJob(ctx context.Context, inputFileID string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"input_file_id":     inputFileID,
		"endpoint":          "/v1/chat/completions",
		"completion_window": "24h",
		"metadata": map[string]string{
			"model":   s.cfg.Model,
			"purpose": "translate",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.cfg.BaseURL+"/batches", bytes.NewBuffer(payload))
	if err != nil {
		return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := s.doJSON(httpReq, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("batch creation returned no id")}
	}
	return created.ID, nil
}

// waitForBatch polls the job until it completes and returns the output file
// id. Terminal failure states and context cancellation abort the wait.
func (s *LLM) waitForBatch(ctx context.Context, batchID string) (string, error) {
	ticker := time.NewTicker(s.cfg.CheckInterval)
	defer ticker.Stop()

	for {
		httpReq, err := http.NewRequestWithContext(ctx, "GET", s.cfg.BaseURL+"/batches/"+batchID, nil)
		if err != nil {
			return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
		}
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

		var job struct {
			Status       string `json:"status"`
			OutputFileID string `json:"output_file_id"`
		}
		if err := s.doJSON(httpReq, &job); err != nil {
			return "", err
		}

		switch {
		case job.Status == "completed":
			if job.OutputFileID == "" {
				return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("batch %s completed without output file", batchID)}
			}
			return job.OutputFileID, nil
		case batchTerminalFailures[job.Status]:
			return "", &ProviderError{Provider: s.Name(), Err: fmt.Errorf("batch %s ended in status %s", batchID, job.Status)}
		}

		select {
		case <-ctx.Done():
			return "", &ProviderError{Provider: s.Name(), Err: ctx.Err()}
		case <-ticker.C:
		}
	}
}

// downloadFile fetches the raw content of a result file.
func (s *LLM) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", s.cfg.BaseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: s.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: s.Name(), StatusCode: resp.StatusCode, Err: fmt.Errorf("file download failed")}
	}
	return io.ReadAll(resp.Body)
}

// doJSON performs the request and decodes a JSON body into v, mapping
// failures to ProviderError.
func (s *LLM) doJSON(req *http.Request, v interface{}) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return &ProviderError{Provider: s.Name(), Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return &ProviderError{
			Provider:   s.Name(),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("API error: %v", errResp),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &ProviderError{Provider: s.Name(), Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

// parseBatchOutput orders the JSONL result lines by their custom_id. Missing
// or extra ids, or per-task errors, are format violations.
func parseBatchOutput(provider string, content []byte, want int) ([]string, error) {
	type outputLine struct {
		CustomID string `json:"custom_id"`
		Response struct {
			Body struct {
				Choices []struct {
					Message struct {
						Content string `json:"content"`
					} `json:"message"`
				} `json:"choices"`
			} `json:"body"`
		} `json:"response"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}

	results := make([]string, want)
	seen := make([]bool, want)

	for _, line := range strings.Split(string(content), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var out outputLine
		if err := json.Unmarshal([]byte(line), &out); err != nil {
			return nil, &FormatError{Provider: provider, Want: want, Detail: fmt.Sprintf("bad output line: %v", err)}
		}
		var idx int
		if _, err := fmt.Sscanf(out.CustomID, "id-%d", &idx); err != nil || idx < 1 || idx > want {
			return nil, &FormatError{Provider: provider, Want: want, Detail: fmt.Sprintf("unexpected custom_id %q", out.CustomID)}
		}
		if out.Error != nil {
			return nil, &ProviderError{Provider: provider, Err: fmt.Errorf("task %s failed: %s", out.CustomID, out.Error.Message)}
		}
		if len(out.Response.Body.Choices) == 0 {
			return nil, &FormatError{Provider: provider, Want: want, Detail: fmt.Sprintf("task %s has no choices", out.CustomID)}
		}
		results[idx-1] = out.Response.Body.Choices[0].Message.Content
		seen[idx-1] = true
	}

	got := 0
	for _, ok := range seen {
		if ok {
			got++
		}
	}
	if got != want {
		return nil, &FormatError{Provider: provider, Want: want, Got: got}
	}
	return results, nil
}
