// Package pipeline runs translation jobs: it walks a novel's chapters in
// ascending order, translates each with an LLM, learns glossary terms from
// the result, and persists progress after every chapter so a crash loses at
// most the chapter in flight.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/novelarc/novelarc/internal/jobs"
	"github.com/novelarc/novelarc/internal/providers"
	"github.com/novelarc/novelarc/internal/store"
)

// rateLimitRetriesPerKey bounds how often a single chapter may be requeued
// after rate limits, per credential in the pool.
const rateLimitRetriesPerKey = 3

// minContentLength is the smallest source text worth translating, in runes.
// Shorter content is treated as a scraped stub and skipped like empty content.
const minContentLength = 50

// Config holds orchestrator dependencies.
type Config struct {
	Jobs    jobs.Store
	Stores  *store.Stores
	Factory providers.Factory
	Logger  *slog.Logger

	// RetryDelay is the pause after rotating credentials before the same
	// chapter is retried. Negative disables the pause (tests).
	RetryDelay time.Duration
}

// Orchestrator executes translation jobs.
type Orchestrator struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With("component", "pipeline"),
	}
}

// Start launches the job in its own goroutine and returns immediately.
// Outcomes are recorded on the job itself; callers poll the record.
func (o *Orchestrator) Start(jobID string) {
	go func() {
		if err := o.Run(context.Background(), jobID); err != nil {
			o.logger.Error("translation job failed", "job", jobID, "error", err)
		}
	}()
}

// Run executes the job to completion, pause, or failure. Exported so tests
// and resume can drive a job synchronously.
func (o *Orchestrator) Run(ctx context.Context, jobID string) error {
	job, err := o.cfg.Jobs.Get(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}
	if job.Status != jobs.StatusActive {
		o.logger.Info("job not active, skipping", "job", jobID, "status", job.Status)
		return nil
	}

	if err := o.run(ctx, job); err != nil {
		// Any error escaping the chapter loop fails the job. Chapters
		// persisted before the failure stay persisted.
		job.Status = jobs.StatusFailed
		job.Error = err.Error()
		job.AppendLog(jobs.LogError, err.Error())
		job.Touch()
		if uerr := o.cfg.Jobs.Update(ctx, job); uerr != nil {
			o.logger.Error("failed to persist job failure", "job", job.ID, "error", uerr)
		}
		return err
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, job *jobs.Record) error {
	snap := loadSnapshot(ctx, o.cfg.Stores.Settings)

	creds := job.APIKeys
	if len(creds) == 0 {
		creds = snap.APIKeys
	}
	if len(creds) == 0 {
		return fmt.Errorf("no API credentials configured")
	}
	if job.Model != "" {
		snap.Model = job.Model
	}

	novel, err := o.cfg.Stores.Novels.Get(ctx, job.NovelID)
	if err != nil {
		return fmt.Errorf("novel %s not found", job.NovelID)
	}

	rot := newRotator(creds)
	maxRetries := rot.Len() * rateLimitRetriesPerKey

	job.AppendLog(jobs.LogInfo, fmt.Sprintf("translating %d chapters of %q", job.TotalToTranslate, novel.Title))
	o.persist(ctx, job)

	var prevTranslation string
	for _, number := range job.ChapterNumbers {
		// Chapters run in ascending order, so on a resumed job anything at
		// or below the high-water mark was already attempted.
		if number <= job.CurrentChapter {
			continue
		}

		// Re-read status before every chapter so pause and cancel take
		// effect at chapter granularity.
		fresh, err := o.cfg.Jobs.Get(ctx, job.ID)
		if err != nil {
			return fmt.Errorf("failed to re-read job: %w", err)
		}
		switch fresh.Status {
		case jobs.StatusPaused:
			o.logger.Info("job paused", "job", job.ID, "next_chapter", number)
			return nil
		case jobs.StatusCompleted, jobs.StatusFailed:
			o.logger.Warn("job reached terminal status externally", "job", job.ID, "status", fresh.Status)
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		translation, ok := o.translateChapter(ctx, job, rot, snap, novel, number, prevTranslation, maxRetries)
		if ok {
			prevTranslation = translation
		}

		// A pause requested while the chapter was in flight must survive the
		// progress flush, so pick up any external status change first.
		if fresh, err := o.cfg.Jobs.Get(ctx, job.ID); err == nil && fresh.Status != jobs.StatusActive {
			job.Status = fresh.Status
		}
		o.persist(ctx, job)

		o.sleep(ctx, snap.Cooldown)
	}

	job.Status = jobs.StatusCompleted
	job.AppendLog(jobs.LogSuccess, fmt.Sprintf("job completed: %d/%d chapters translated", job.TranslatedCount, job.TotalToTranslate))
	job.Touch()
	if err := o.cfg.Jobs.Update(ctx, job); err != nil {
		return fmt.Errorf("failed to persist completion: %w", err)
	}
	o.logger.Info("job completed", "job", job.ID, "translated", job.TranslatedCount)
	return nil
}

// translateChapter runs the full per-chapter flow. It returns the translated
// text and whether the chapter was successfully translated and persisted.
// Failures are recorded on the job log; they never abort the job.
func (o *Orchestrator) translateChapter(ctx context.Context, job *jobs.Record, rot *rotator, snap settingsSnapshot, novel *store.Novel, number int, prevTranslation string, maxRetries int) (string, bool) {
	source, err := o.cfg.Stores.Content.GetOriginal(ctx, job.NovelID, number)
	if err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: failed to load source: %v", number, err))
		return "", false
	}
	trimmed := strings.TrimSpace(source)
	if trimmed == "" {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d has no source content, skipping", number))
		return "", false
	}
	if len([]rune(trimmed)) < minContentLength {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d source is below %d characters, skipping", number, minContentLength))
		return "", false
	}

	entries, err := o.cfg.Stores.Glossary.List(ctx, job.NovelID)
	if err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: glossary unavailable: %v", number, err))
		entries = nil
	}

	messages := translationMessages(snap.Instructions, entries, prevTranslation, source)

	var result *providers.ChatResult
	retries := 0
	for {
		client := o.cfg.Factory(rot.Current())
		result, err = client.Chat(ctx, &providers.ChatRequest{
			Messages: messages,
			Model:    snap.Model,
		})
		if err == nil {
			break
		}

		if providers.IsRateLimit(err) {
			retries++
			if retries >= maxRetries {
				job.AppendLog(jobs.LogError, fmt.Sprintf("chapter %d skipped after %d rate-limit retries", number, retries))
				return "", false
			}
			rot.Advance()
			job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: rate limited, rotating credential", number))
			o.sleep(ctx, o.cfg.RetryDelay)
			if ctx.Err() != nil {
				job.AppendLog(jobs.LogError, fmt.Sprintf("chapter %d: cancelled during retry", number))
				return "", false
			}
			continue
		}

		job.AppendLog(jobs.LogError, fmt.Sprintf("chapter %d translation failed: %v", number, err))
		return "", false
	}

	translation := strings.TrimSpace(result.Content)
	if translation == "" {
		job.AppendLog(jobs.LogError, fmt.Sprintf("chapter %d: model returned empty translation", number))
		return "", false
	}

	// Glossary learning is best-effort; a broken extraction must never
	// cost us the finished translation.
	o.learnTerms(ctx, job, rot, snap, number, source, translation)

	if err := o.cfg.Stores.Content.PutTranslated(ctx, job.NovelID, number, translation); err != nil {
		job.AppendLog(jobs.LogError, fmt.Sprintf("chapter %d: failed to store translation: %v", number, err))
		return "", false
	}

	if err := o.cfg.Stores.Chapters.UpdateTitle(ctx, job.NovelID, number, chapterTitle(novel.TargetLanguage, number)); err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: failed to update title: %v", number, err))
	}
	if err := o.cfg.Stores.Chapters.MarkTranslated(ctx, job.NovelID, number); err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: failed to flag chapter: %v", number, err))
	}

	job.TranslatedCount++
	job.CurrentChapter = number
	job.AppendLog(jobs.LogSuccess, fmt.Sprintf("chapter %d translated", number))
	job.Touch()
	return translation, true
}

// learnTerms makes the extraction call on a rotated credential and upserts
// any terms it yields. Every failure path degrades to a warning.
func (o *Orchestrator) learnTerms(ctx context.Context, job *jobs.Record, rot *rotator, snap settingsSnapshot, number int, source, translation string) {
	client := o.cfg.Factory(rot.Advance())
	result, err := client.Chat(ctx, &providers.ChatRequest{
		Messages:       extractionMessages(snap.ExtractionInstructions, source, translation),
		Model:          snap.Model,
		ResponseFormat: &providers.ResponseFormat{Type: "json_schema", JSONSchema: extractionSchema},
	})
	if err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: term extraction failed: %v", number, err))
		return
	}

	terms, err := parseExtraction(result.Content)
	if err != nil {
		job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: term extraction unusable: %v", number, err))
		return
	}

	learned := 0
	for _, t := range terms {
		err := o.cfg.Stores.Glossary.Upsert(ctx, &store.GlossaryEntry{
			NovelID:       job.NovelID,
			Term:          t.Term,
			Translation:   t.Translation,
			AutoGenerated: true,
		})
		if err != nil {
			job.AppendLog(jobs.LogWarning, fmt.Sprintf("chapter %d: failed to save term %q: %v", number, t.Term, err))
			continue
		}
		learned++
	}
	if learned > 0 {
		job.AppendLog(jobs.LogInfo, fmt.Sprintf("chapter %d: learned %d glossary terms", number, learned))
	}
}

// persist flushes the working record. Persistence failures are logged and
// swallowed; the in-memory record keeps accumulating and the next flush
// retries.
func (o *Orchestrator) persist(ctx context.Context, job *jobs.Record) {
	job.Touch()
	if err := o.cfg.Jobs.Update(ctx, job); err != nil {
		o.logger.Error("failed to persist job progress", "job", job.ID, "error", err)
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// chapterTitle renders the placeholder title for a freshly translated
// chapter in the novel's target language.
func chapterTitle(targetLanguage string, number int) string {
	switch strings.ToLower(strings.TrimSpace(targetLanguage)) {
	case "", "ar", "arabic":
		return fmt.Sprintf("الفصل %d", number)
	default:
		return fmt.Sprintf("Chapter %d", number)
	}
}
