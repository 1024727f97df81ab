// Package jobs defines the TranslationJob record and its persistence.
// A job is created once by the API layer and from then on mutated only by
// the pipeline orchestrator that owns it.
package jobs

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a translation job.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is an end state. Terminal jobs are
// never resumed or mutated again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Valid reports whether the status is a known value.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// LogLevel classifies job log entries.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogWarning LogLevel = "warning"
	LogError   LogLevel = "error"
)

// LogEntry is one append-only job log line.
type LogEntry struct {
	Time    string   `json:"time"`
	Level   LogLevel `json:"level"`
	Message string   `json:"message"`
}

// Record is a translation job document.
type Record struct {
	ID      string `json:"id"`
	NovelID string `json:"novel_id"`
	Status  Status `json:"status"`

	// ChapterNumbers is the fixed target list, ascending. It never changes
	// after creation; chapters added to the novel later are not picked up.
	ChapterNumbers []int `json:"chapter_numbers"`

	// APIKeys overrides the global credential list when non-empty.
	APIKeys []string `json:"api_keys,omitempty"`
	Model   string   `json:"model,omitempty"`

	TranslatedCount  int `json:"translated_count"`
	TotalToTranslate int `json:"total_to_translate"`
	CurrentChapter   int `json:"current_chapter"`

	Log   []LogEntry `json:"log"`
	Error string     `json:"error,omitempty"`

	StartedAt string `json:"started_at"`
	UpdatedAt string `json:"updated_at"`
}

// NewRecord builds a job record for the given chapters. The chapter list is
// deduplicated and sorted ascending regardless of input order.
func NewRecord(novelID string, chapters []int, apiKeys []string, model string) *Record {
	seen := make(map[int]struct{}, len(chapters))
	sorted := make([]int, 0, len(chapters))
	for _, n := range chapters {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		sorted = append(sorted, n)
	}
	sort.Ints(sorted)

	now := time.Now().UTC().Format(time.RFC3339)
	return &Record{
		NovelID:          novelID,
		Status:           StatusActive,
		ChapterNumbers:   sorted,
		APIKeys:          apiKeys,
		Model:            model,
		TotalToTranslate: len(sorted),
		StartedAt:        now,
		UpdatedAt:        now,
	}
}

// AppendLog appends a typed entry to the job log. Entries are never
// removed or rewritten.
func (r *Record) AppendLog(level LogLevel, message string) {
	r.Log = append(r.Log, LogEntry{
		Time:    time.Now().UTC().Format(time.RFC3339),
		Level:   level,
		Message: message,
	})
}

// Touch refreshes the updated timestamp.
func (r *Record) Touch() {
	r.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}
