// Package orchestrator drives the translation pipeline: it reads origin
// .ftl resource files, fans their messages out to a translation provider in
// concurrency-limited batches with retry, and writes the reassembled files
// for each target locale.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/valpere/ftltran/ftl"
	"github.com/valpere/ftltran/internal/store"
	"github.com/valpere/ftltran/internal/validator"
	"github.com/valpere/ftltran/locale"
	"github.com/valpere/ftltran/translator"
)

// RetryExhaustedError reports a batch whose every attempt failed. The locale's
// output file is not written when this occurs.
type RetryExhaustedError struct {
	Batch    int // zero-based batch index within the file
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempts: %v", e.Batch, e.Attempts, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }

// Orchestrator runs the per-file translation pipeline. It does not own the
// translator; the caller closes it.
type Orchestrator struct {
	tr   translator.Translator
	opts Opts
	log  *slog.Logger

	memory *store.Store         // nil unless CachePath is set
	valid  *validator.Validator // nil unless Validate is set
}

// New validates opts and prepares a run. Close releases the translation
// memory when one was opened.
func New(tr translator.Translator, opts Opts) (*Orchestrator, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{tr: tr, opts: opts, log: opts.Logger}

	if opts.CachePath != "" {
		mem, err := store.New(opts.CachePath)
		if err != nil {
			return nil, err
		}
		o.memory = mem
	}
	if opts.Validate {
		o.valid = validator.New()
	}
	return o, nil
}

func (o *Orchestrator) Close() error {
	if o.memory != nil {
		return o.memory.Close()
	}
	return nil
}

// Run translates every applicable .ftl file under the origin locale
// directory, walking subdirectories. Files and locales that fail do not stop
// the others; all failures are joined into the returned error.
func (o *Orchestrator) Run(ctx context.Context) error {
	var files []string
	err := filepath.WalkDir(o.opts.originDir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == o.opts.originDir() {
				return err
			}
			// Unreadable entry; the rest of the tree is still translatable.
			o.log.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".ftl" && o.opts.isApplicable(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", o.opts.originDir(), err)
	}
	if len(files) == 0 {
		o.log.Warn("no .ftl files found", "dir", o.opts.originDir())
		return nil
	}

	var errs []error
	for _, file := range files {
		if err := o.TranslateFile(ctx, file); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		o.log.Info("translation completed", "files", len(files), "targets", len(o.opts.TargetLocales))
	}
	return errors.Join(errs...)
}

// TranslateFile translates a single origin file into every target locale.
// Each target is independent: one failing does not abort the others.
func (o *Orchestrator) TranslateFile(ctx context.Context, path string) error {
	res, err := ftl.ParseFile(path)
	if err != nil {
		// A malformed origin file can never produce correct output;
		// abort immediately.
		return err
	}

	var errs []error
	for _, target := range o.opts.TargetLocales {
		o.log.Info("translating",
			"file", filepath.Base(path),
			"source", o.opts.OriginLocale,
			"target", target,
		)
		if err := o.translateFileTo(ctx, path, res, target); err != nil {
			errs = append(errs, fmt.Errorf("%s -> %s: %w", filepath.Base(path), target, err))
			continue
		}
		o.log.Info("translated",
			"file", filepath.Base(path),
			"source", o.opts.OriginLocale,
			"target", target,
		)
	}
	return errors.Join(errs...)
}

// translateFileTo runs the batch pipeline for one (file, target) pair. The
// output file is all-or-nothing: when any batch exhausts its retries the
// remaining batches are cancelled and nothing is written.
func (o *Orchestrator) translateFileTo(ctx context.Context, path string, origin *ftl.Resource, target locale.Locale) error {
	// Work on a private copy so concurrent targets never share state.
	res, err := ftl.Parse(origin.Serialize())
	if err != nil {
		return err
	}

	messages := res.Messages()
	pending, cached := o.splitCached(ctx, messages, target)

	batches := partition(pending, o.opts.BatchSize)
	translated, err := o.translateBatches(ctx, batches, target)
	if err != nil {
		return err
	}

	for id, value := range cached {
		res.Set(id, value)
	}
	for i, batch := range batches {
		for j, msg := range batch {
			res.Set(msg.ID, translated[i][j])
			o.remember(ctx, msg.Value, translated[i][j], target)
		}
	}

	out, err := o.opts.targetPath(path, target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
	}
	return res.WriteFile(out)
}

// translateBatches fans the batches out as goroutines, at most Limit in
// flight, and reassembles results in batch order regardless of completion
// order. The first exhausted batch cancels the rest.
func (o *Orchestrator) translateBatches(ctx context.Context, batches [][]ftl.Message, target locale.Locale) ([][]string, error) {
	results := make([][]string, len(batches))
	if len(batches) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, o.opts.Limit)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, batch := range batches {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			mu.Lock()
			defer mu.Unlock()
			if firstErr != nil {
				return nil, firstErr
			}
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(index int, msgs []ftl.Message) {
			defer wg.Done()
			defer func() { <-sem }()

			texts := make([]string, len(msgs))
			for j, m := range msgs {
				texts[j] = m.Value
			}

			out, err := o.translateWithRetry(ctx, index, texts, target)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				cancel()
				return
			}
			results[index] = out
		}(i, batch)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// translateWithRetry attempts one batch up to RetryCount+1 times with a fixed
// wait between attempts. Validation failures count as failed attempts.
func (o *Orchestrator) translateWithRetry(ctx context.Context, index int, texts []string, target locale.Locale) ([]string, error) {
	attempts := o.opts.RetryCount + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			o.log.Warn("retrying batch",
				"batch", index,
				"attempt", attempt,
				"wait", o.opts.RetryWait,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return nil, &RetryExhaustedError{Batch: index, Attempts: attempt - 1, Err: lastErr}
			case <-time.After(o.opts.RetryWait):
			}
		}

		out, err := o.tr.TranslateBatch(ctx, texts, o.opts.OriginLocale, target)
		if err == nil {
			err = o.validate(out, target)
		}
		if err == nil {
			o.log.Debug("batch translated", "batch", index, "size", len(texts))
			return out, nil
		}
		if ctx.Err() != nil {
			// Cancelled by a sibling batch or the caller; stop retrying.
			return nil, &RetryExhaustedError{Batch: index, Attempts: attempt, Err: err}
		}
		lastErr = err
	}

	return nil, &RetryExhaustedError{Batch: index, Attempts: attempts, Err: lastErr}
}

// validate checks that a batch's non-empty results read as the target
// language.
func (o *Orchestrator) validate(out []string, target locale.Locale) error {
	if o.valid == nil {
		return nil
	}
	var joined []string
	for _, s := range out {
		if strings.TrimSpace(s) != "" {
			joined = append(joined, s)
		}
	}
	if len(joined) == 0 {
		return nil
	}
	if ok, err := o.valid.IsValid(strings.Join(joined, "\n"), target.String()); !ok {
		return fmt.Errorf("language validation failed: %w", err)
	}
	return nil
}

// splitCached separates messages already present in the translation memory
// from those that still need a provider call.
func (o *Orchestrator) splitCached(ctx context.Context, messages []ftl.Message, target locale.Locale) (pending []ftl.Message, cached map[string]string) {
	cached = make(map[string]string)
	if o.memory == nil {
		return messages, cached
	}
	for _, msg := range messages {
		hit, found, err := o.memory.Get(ctx, msg.Value, o.opts.OriginLocale.String(), target.String())
		if err == nil && found {
			cached[msg.ID] = hit
			continue
		}
		pending = append(pending, msg)
	}
	if len(cached) > 0 {
		o.log.Debug("translation memory hits", "count", len(cached), "target", target)
	}
	return pending, cached
}

// remember stores a fresh translation in the memory, when enabled.
func (o *Orchestrator) remember(ctx context.Context, source, translated string, target locale.Locale) {
	if o.memory == nil {
		return
	}
	if err := o.memory.Save(ctx, source, o.opts.OriginLocale.String(), target.String(), translated, o.tr.Name()); err != nil {
		o.log.Warn("translation memory save failed", "error", err)
	}
}

// partition splits messages into batches of at most size elements.
func partition(messages []ftl.Message, size int) [][]ftl.Message {
	var batches [][]ftl.Message
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		batches = append(batches, messages[start:end])
	}
	return batches
}
