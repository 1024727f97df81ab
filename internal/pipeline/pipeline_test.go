package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/novelarc/novelarc/internal/jobs"
	"github.com/novelarc/novelarc/internal/providers"
	"github.com/novelarc/novelarc/internal/store"
)

type llmCall struct {
	key string
	req *providers.ChatRequest
}

func (c llmCall) extraction() bool {
	return c.req.ResponseFormat != nil
}

func (c llmCall) userContent() string {
	for _, m := range c.req.Messages {
		if m.Role == "user" {
			return m.Content
		}
	}
	return ""
}

// fakeLLM records every chat call with the credential the factory received
// and delegates the response to a configurable function.
type fakeLLM struct {
	mu      sync.Mutex
	calls   []llmCall
	respond func(key string, req *providers.ChatRequest) (*providers.ChatResult, error)
}

func (f *fakeLLM) factory() providers.Factory {
	return func(apiKey string) providers.LLMClient {
		return &providers.MockClient{
			ChatFunc: func(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResult, error) {
				f.mu.Lock()
				f.calls = append(f.calls, llmCall{key: apiKey, req: req})
				respond := f.respond
				f.mu.Unlock()
				return respond(apiKey, req)
			},
		}
	}
}

func (f *fakeLLM) recorded() []llmCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llmCall(nil), f.calls...)
}

func (f *fakeLLM) translationCalls() []llmCall {
	var out []llmCall
	for _, c := range f.recorded() {
		if !c.extraction() {
			out = append(out, c)
		}
	}
	return out
}

func okResult(content string) (*providers.ChatResult, error) {
	return &providers.ChatResult{Success: true, Content: content}, nil
}

func rateLimited() (*providers.ChatResult, error) {
	return nil, errors.New("request failed (status 429): quota exceeded")
}

const extractionJSON = `{"newTerms":[{"term":"Azure Dragon","translation":"التنين الأزرق"}]}`

// respondSimple translates every chapter and extracts one fixed term.
func respondSimple(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
	if req.ResponseFormat != nil {
		return okResult(extractionJSON)
	}
	return okResult("ترجمة " + sourceMarker(req))
}

// sourceMarker pulls the "source-N" token out of a translation prompt so
// tests can tell which chapter a call was for. The source text is always
// the final section of the prompt, with the marker as its first word.
func sourceMarker(req *providers.ChatRequest) string {
	const heading = "Chapter text:\n"
	for _, m := range req.Messages {
		if m.Role != "user" {
			continue
		}
		if idx := strings.LastIndex(m.Content, heading); idx >= 0 {
			fields := strings.Fields(m.Content[idx+len(heading):])
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}

// chapterSource renders fixture source text for a chapter: the grep-able
// marker up front, padded past the minimum translatable length.
func chapterSource(n int) string {
	return fmt.Sprintf("source-%d %s", n,
		strings.Repeat("the sect elders gathered in the great hall at dawn. ", 2))
}

type fixture struct {
	jobs    *jobs.MemoryStore
	stores  *store.Stores
	llm     *fakeLLM
	orch    *Orchestrator
	novelID string
}

func newFixture(t *testing.T, chapters []int) *fixture {
	t.Helper()
	ctx := context.Background()

	stores := store.NewMemoryStores()
	novelID, err := stores.Novels.Create(ctx, &store.Novel{Title: "Test Novel", TargetLanguage: "ar"})
	if err != nil {
		t.Fatalf("create novel: %v", err)
	}

	var metas []*store.Chapter
	for _, n := range chapters {
		metas = append(metas, &store.Chapter{NovelID: novelID, Number: n, Title: fmt.Sprintf("Chapter %d", n)})
		if err := stores.Content.PutOriginal(ctx, novelID, n, chapterSource(n)); err != nil {
			t.Fatalf("put original: %v", err)
		}
	}
	if err := stores.Chapters.CreateMany(ctx, metas); err != nil {
		t.Fatalf("create chapters: %v", err)
	}
	if err := stores.Settings.Set(ctx, store.SettingCooldownSeconds, "0"); err != nil {
		t.Fatalf("set cooldown: %v", err)
	}

	llm := &fakeLLM{respond: respondSimple}
	jobStore := jobs.NewMemoryStore()
	orch := New(Config{
		Jobs:       jobStore,
		Stores:     stores,
		Factory:    llm.factory(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		RetryDelay: -1,
	})

	return &fixture{jobs: jobStore, stores: stores, llm: llm, orch: orch, novelID: novelID}
}

func (f *fixture) startJob(t *testing.T, chapters []int, keys []string) string {
	t.Helper()
	id, err := f.jobs.Create(context.Background(), jobs.NewRecord(f.novelID, chapters, keys, ""))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	return id
}

func (f *fixture) record(t *testing.T, id string) *jobs.Record {
	t.Helper()
	record, err := f.jobs.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	return record
}

func logMessages(record *jobs.Record, level jobs.LogLevel) []string {
	var out []string
	for _, e := range record.Log {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func TestRunTranslatesChaptersInAscendingOrder(t *testing.T) {
	f := newFixture(t, []int{3, 4, 5})
	id := f.startJob(t, []int{5, 3, 4}, []string{"key-a"})

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	var order []string
	for _, c := range f.llm.translationCalls() {
		order = append(order, sourceMarker(c.req))
	}
	want := []string{"source-3", "source-4", "source-5"}
	if len(order) != len(want) {
		t.Fatalf("translation calls = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("call %d translated %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})
	ctx := context.Background()

	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want %q", record.Status, jobs.StatusCompleted)
	}
	if record.TranslatedCount != 2 {
		t.Errorf("translated count = %d, want 2", record.TranslatedCount)
	}
	if record.CurrentChapter != 2 {
		t.Errorf("current chapter = %d, want 2", record.CurrentChapter)
	}

	for _, n := range []int{1, 2} {
		text, err := f.stores.Content.GetTranslated(ctx, f.novelID, n)
		if err != nil {
			t.Fatalf("get translated %d: %v", n, err)
		}
		if want := fmt.Sprintf("ترجمة source-%d", n); text != want {
			t.Errorf("chapter %d translation = %q, want %q", n, text, want)
		}

		ch, err := f.stores.Chapters.Get(ctx, f.novelID, n)
		if err != nil {
			t.Fatalf("get chapter %d: %v", n, err)
		}
		if !ch.Translated {
			t.Errorf("chapter %d not flagged translated", n)
		}
		if want := fmt.Sprintf("الفصل %d", n); ch.Title != want {
			t.Errorf("chapter %d title = %q, want %q", n, ch.Title, want)
		}
	}

	entries, err := f.stores.Glossary.List(ctx, f.novelID)
	if err != nil {
		t.Fatalf("list glossary: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("glossary entries = %d, want 1", len(entries))
	}
	if entries[0].Term != "Azure Dragon" || entries[0].Translation != "التنين الأزرق" {
		t.Errorf("unexpected glossary entry %+v", entries[0])
	}
	if !entries[0].AutoGenerated {
		t.Error("learned entry not marked auto generated")
	}

	completed := false
	for _, msg := range logMessages(record, jobs.LogSuccess) {
		if strings.Contains(msg, "job completed") {
			completed = true
		}
	}
	if !completed {
		t.Errorf("success log = %v, want a completion entry", logMessages(record, jobs.LogSuccess))
	}
}

func TestRunRotatesCredentialOnRateLimit(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, []string{"key-a", "key-b"})

	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return okResult(extractionJSON)
		}
		if key == "key-a" {
			return rateLimited()
		}
		return okResult("ترجمة source-1")
	}

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}

	calls := f.llm.translationCalls()
	if len(calls) != 2 {
		t.Fatalf("translation calls = %d, want 2", len(calls))
	}
	if calls[0].key != "key-a" || calls[1].key != "key-b" {
		t.Errorf("credential order = [%s %s], want [key-a key-b]", calls[0].key, calls[1].key)
	}
	if sourceMarker(calls[1].req) != "source-1" {
		t.Errorf("retry translated %q, want same chapter", sourceMarker(calls[1].req))
	}
	if warnings := logMessages(record, jobs.LogWarning); len(warnings) == 0 {
		t.Error("expected a rotation warning in the job log")
	}
}

func TestRunSkipsChapterAfterRetryCap(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})

	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return okResult(extractionJSON)
		}
		if sourceMarker(req) == "source-1" {
			return rateLimited()
		}
		return okResult("ترجمة source-2")
	}

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}

	errs := logMessages(record, jobs.LogError)
	if len(errs) != 1 || !strings.Contains(errs[0], "chapter 1") {
		t.Errorf("error log = %v, want one entry for chapter 1", errs)
	}

	// One credential allows three rate-limit retries for the chapter.
	var attempts int
	for _, c := range f.llm.translationCalls() {
		if sourceMarker(c.req) == "source-1" {
			attempts++
		}
	}
	if attempts != 3 {
		t.Errorf("chapter 1 attempts = %d, want 3", attempts)
	}

	if text, _ := f.stores.Content.GetTranslated(context.Background(), f.novelID, 2); text == "" {
		t.Error("chapter 2 should still be translated")
	}
}

func TestRunFailsWithoutCredentials(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, nil)

	err := f.orch.Run(context.Background(), id)
	if err == nil {
		t.Fatal("expected error for missing credentials")
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusFailed {
		t.Fatalf("status = %q, want failed", record.Status)
	}
	if record.Error == "" {
		t.Error("job error not recorded")
	}
	if errs := logMessages(record, jobs.LogError); len(errs) != 1 {
		t.Errorf("error log entries = %d, want exactly 1", len(errs))
	}
	if calls := f.llm.recorded(); len(calls) != 0 {
		t.Errorf("made %d LLM calls, want 0", len(calls))
	}
}

func TestRunSkipsChapterWithoutSource(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}

	warnings := logMessages(record, jobs.LogWarning)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "chapter 2") && strings.Contains(w, "no source") {
			found = true
		}
	}
	if !found {
		t.Errorf("warning log = %v, want a no-source entry for chapter 2", warnings)
	}
}

func TestRunSkipsChapterBelowMinimumLength(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	ctx := context.Background()
	if err := f.stores.Content.PutOriginal(ctx, f.novelID, 2, "abc"); err != nil {
		t.Fatalf("put original: %v", err)
	}
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})

	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}

	calls := f.llm.translationCalls()
	if len(calls) != 1 || sourceMarker(calls[0].req) != "source-1" {
		t.Fatalf("translation calls = %d, want 1 for chapter 1 only", len(calls))
	}
	for _, c := range f.llm.recorded() {
		if strings.Contains(c.userContent(), "abc") {
			t.Error("stub content must never reach the model")
		}
	}

	warnings := logMessages(record, jobs.LogWarning)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "chapter 2") && strings.Contains(w, "below") {
			found = true
		}
	}
	if !found {
		t.Errorf("warning log = %v, want a minimum-length entry for chapter 2", warnings)
	}
	if errs := logMessages(record, jobs.LogError); len(errs) != 0 {
		t.Errorf("error log = %v, short content must stay a warning", errs)
	}
	if text, _ := f.stores.Content.GetTranslated(ctx, f.novelID, 2); text != "" {
		t.Error("chapter 2 must not have a stored translation")
	}
}

// failingContentStore fails every original-text read for one chapter.
type failingContentStore struct {
	store.ContentStore
	number int
}

func (s *failingContentStore) GetOriginal(ctx context.Context, novelID string, number int) (string, error) {
	if number == s.number {
		return "", errors.New("datastore unavailable")
	}
	return s.ContentStore.GetOriginal(ctx, novelID, number)
}

func TestRunSourceFetchFailureIsWarning(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	f.stores.Content = &failingContentStore{ContentStore: f.stores.Content, number: 2}
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}
	if errs := logMessages(record, jobs.LogError); len(errs) != 0 {
		t.Errorf("error log = %v, fetch failure must stay a warning", errs)
	}

	warnings := logMessages(record, jobs.LogWarning)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "chapter 2") && strings.Contains(w, "failed to load source") {
			found = true
		}
	}
	if !found {
		t.Errorf("warning log = %v, want a fetch-failure entry for chapter 2", warnings)
	}
}

func TestRunExtractionFailureDoesNotLoseTranslation(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, []string{"key-a"})

	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return nil, errors.New("model overloaded")
		}
		return okResult("ترجمة source-1")
	}

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}
	if errs := logMessages(record, jobs.LogError); len(errs) != 0 {
		t.Errorf("error log = %v, extraction failure must stay a warning", errs)
	}

	warnings := logMessages(record, jobs.LogWarning)
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "extraction") {
			found = true
		}
	}
	if !found {
		t.Errorf("warning log = %v, want an extraction warning", warnings)
	}

	if text, _ := f.stores.Content.GetTranslated(context.Background(), f.novelID, 1); text == "" {
		t.Error("translation should be persisted despite extraction failure")
	}
}

func TestRunMalformedExtractionOutput(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, []string{"key-a"})

	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return okResult("I could not find any terms, sorry!")
		}
		return okResult("ترجمة source-1")
	}

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted || record.TranslatedCount != 1 {
		t.Fatalf("status=%q count=%d, want completed/1", record.Status, record.TranslatedCount)
	}
	entries, _ := f.stores.Glossary.List(context.Background(), f.novelID)
	if len(entries) != 0 {
		t.Errorf("glossary entries = %d, want 0", len(entries))
	}
}

func TestRunPauseStopsBeforeNextChapter(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})
	ctx := context.Background()

	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return okResult(extractionJSON)
		}
		// Request the pause while the first chapter is in flight.
		if sourceMarker(req) == "source-1" {
			if err := f.jobs.SetStatus(ctx, id, jobs.StatusPaused); err != nil {
				t.Errorf("set status: %v", err)
			}
		}
		return okResult("ترجمة " + sourceMarker(req))
	}

	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusPaused {
		t.Fatalf("status = %q, want paused", record.Status)
	}
	if record.TranslatedCount != 1 {
		t.Errorf("translated count = %d, want 1", record.TranslatedCount)
	}
	if len(f.llm.translationCalls()) != 1 {
		t.Errorf("translation calls = %d, want 1", len(f.llm.translationCalls()))
	}
	if text, _ := f.stores.Content.GetTranslated(ctx, f.novelID, 2); text != "" {
		t.Error("chapter 2 must not be translated after pause")
	}
}

func TestRunResumeDoesNotRetranslate(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})
	ctx := context.Background()

	paused := false
	f.llm.respond = func(key string, req *providers.ChatRequest) (*providers.ChatResult, error) {
		if req.ResponseFormat != nil {
			return okResult(extractionJSON)
		}
		if !paused && sourceMarker(req) == "source-1" {
			paused = true
			if err := f.jobs.SetStatus(ctx, id, jobs.StatusPaused); err != nil {
				t.Errorf("set status: %v", err)
			}
		}
		return okResult("ترجمة " + sourceMarker(req))
	}

	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if record := f.record(t, id); record.Status != jobs.StatusPaused || record.TranslatedCount != 1 {
		t.Fatalf("after pause: status=%q count=%d", record.Status, record.TranslatedCount)
	}

	if err := f.jobs.SetStatus(ctx, id, jobs.StatusActive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("second run: %v", err)
	}

	record := f.record(t, id)
	if record.Status != jobs.StatusCompleted {
		t.Fatalf("status = %q, want completed", record.Status)
	}
	if record.TranslatedCount != 2 {
		t.Errorf("translated count = %d, want 2", record.TranslatedCount)
	}

	// Chapter 1 must not be translated a second time.
	var firstChapterCalls int
	for _, c := range f.llm.translationCalls() {
		if sourceMarker(c.req) == "source-1" {
			firstChapterCalls++
		}
	}
	if firstChapterCalls != 1 {
		t.Errorf("chapter 1 translated %d times, want 1", firstChapterCalls)
	}
}

func TestRunSkipsNonActiveJob(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, []string{"key-a"})
	ctx := context.Background()

	if err := f.jobs.SetStatus(ctx, id, jobs.StatusPaused); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}
	if calls := f.llm.recorded(); len(calls) != 0 {
		t.Errorf("made %d LLM calls on a paused job, want 0", len(calls))
	}
}

func TestRunUnknownNovelFailsJob(t *testing.T) {
	f := newFixture(t, []int{1})
	id, err := f.jobs.Create(context.Background(), jobs.NewRecord("no-such-novel", []int{1}, []string{"key-a"}, ""))
	if err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := f.orch.Run(context.Background(), id); err == nil {
		t.Fatal("expected error for unknown novel")
	}
	record := f.record(t, id)
	if record.Status != jobs.StatusFailed {
		t.Errorf("status = %q, want failed", record.Status)
	}
}

func TestRunGlossaryFlowsIntoPrompt(t *testing.T) {
	f := newFixture(t, []int{1})
	ctx := context.Background()

	err := f.stores.Glossary.Upsert(ctx, &store.GlossaryEntry{
		NovelID:     f.novelID,
		Term:        "Sect Master",
		Translation: "زعيم الطائفة",
	})
	if err != nil {
		t.Fatalf("upsert glossary: %v", err)
	}

	id := f.startJob(t, []int{1}, []string{"key-a"})
	if err := f.orch.Run(ctx, id); err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := f.llm.translationCalls()
	if len(calls) != 1 {
		t.Fatalf("translation calls = %d, want 1", len(calls))
	}
	content := calls[0].userContent()
	if !strings.Contains(content, `"Sect Master": "زعيم الطائفة"`) {
		t.Errorf("prompt missing glossary line:\n%s", content)
	}
}

func TestRunPreviousTranslationCarriesForward(t *testing.T) {
	f := newFixture(t, []int{1, 2})
	id := f.startJob(t, []int{1, 2}, []string{"key-a"})

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	calls := f.llm.translationCalls()
	if len(calls) != 2 {
		t.Fatalf("translation calls = %d, want 2", len(calls))
	}
	if strings.Contains(calls[0].userContent(), "previous chapter") {
		t.Error("first chapter prompt should have no previous-chapter context")
	}
	if !strings.Contains(calls[1].userContent(), "ترجمة source-1") {
		t.Error("second chapter prompt should carry the first chapter's translation")
	}
}

func TestExtractionRequestShape(t *testing.T) {
	f := newFixture(t, []int{1})
	id := f.startJob(t, []int{1}, []string{"key-a"})

	if err := f.orch.Run(context.Background(), id); err != nil {
		t.Fatalf("run: %v", err)
	}

	var extractions []llmCall
	for _, c := range f.llm.recorded() {
		if c.extraction() {
			extractions = append(extractions, c)
		}
	}
	if len(extractions) != 1 {
		t.Fatalf("extraction calls = %d, want 1", len(extractions))
	}

	req := extractions[0].req
	if req.ResponseFormat.Type != "json_schema" {
		t.Errorf("response format = %q, want json_schema", req.ResponseFormat.Type)
	}
	var schema map[string]any
	if err := json.Unmarshal(req.ResponseFormat.JSONSchema, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	content := extractions[0].userContent()
	if !strings.Contains(content, "source-1") || !strings.Contains(content, "ترجمة source-1") {
		t.Errorf("extraction prompt missing source or translation:\n%s", content)
	}
}
