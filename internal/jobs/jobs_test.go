package jobs

import (
	"context"
	"errors"
	"testing"
)

func TestNewRecordSortsChapters(t *testing.T) {
	record := NewRecord("n1", []int{5, 3, 4, 3}, nil, "")

	want := []int{3, 4, 5}
	if len(record.ChapterNumbers) != len(want) {
		t.Fatalf("expected %v, got %v", want, record.ChapterNumbers)
	}
	for i := range want {
		if record.ChapterNumbers[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, record.ChapterNumbers)
		}
	}
	if record.TotalToTranslate != 3 {
		t.Errorf("total should match deduplicated list, got %d", record.TotalToTranslate)
	}
	if record.Status != StatusActive {
		t.Errorf("new jobs start active, got %s", record.Status)
	}
	if record.StartedAt == "" || record.UpdatedAt == "" {
		t.Error("timestamps not set")
	}
}

func TestStatusTerminal(t *testing.T) {
	tests := []struct {
		status   Status
		terminal bool
	}{
		{StatusActive, false},
		{StatusPaused, false},
		{StatusCompleted, true},
		{StatusFailed, true},
	}
	for _, tt := range tests {
		if got := tt.status.Terminal(); got != tt.terminal {
			t.Errorf("%s.Terminal() = %v, want %v", tt.status, got, tt.terminal)
		}
	}
	if Status("bogus").Valid() {
		t.Error("unknown status should not be valid")
	}
}

func TestAppendLog(t *testing.T) {
	record := NewRecord("n1", []int{1}, nil, "")

	record.AppendLog(LogInfo, "starting")
	record.AppendLog(LogError, "chapter 1 failed")

	if len(record.Log) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(record.Log))
	}
	if record.Log[0].Level != LogInfo || record.Log[1].Level != LogError {
		t.Errorf("levels not preserved: %+v", record.Log)
	}
	if record.Log[0].Message != "starting" {
		t.Errorf("unexpected message %q", record.Log[0].Message)
	}
	if record.Log[1].Time == "" {
		t.Error("entries must be timestamped")
	}
}

func TestMemoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	record := NewRecord("n1", []int{1, 2}, []string{"k1"}, "gemini-2.5-flash")
	id, err := store.Create(ctx, record)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NovelID != "n1" || len(got.ChapterNumbers) != 2 || got.Model != "gemini-2.5-flash" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}

	// Mutations go through Update; Get returns copies.
	got.TranslatedCount = 1
	got.CurrentChapter = 1
	got.AppendLog(LogSuccess, "chapter 1 done")
	got.Touch()
	if err := store.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	again, _ := store.Get(ctx, id)
	if again.TranslatedCount != 1 || len(again.Log) != 1 {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := store.SetStatus(ctx, id, StatusPaused); err != nil {
		t.Fatalf("set status: %v", err)
	}
	again, _ = store.Get(ctx, id)
	if again.Status != StatusPaused {
		t.Errorf("expected paused, got %s", again.Status)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMarshalLogRoundtrip(t *testing.T) {
	logJSON, err := marshalLog([]LogEntry{
		{Time: "2026-01-01T00:00:00Z", Level: LogWarning, Message: "glossary update failed"},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if logJSON == "" || logJSON == "[]" {
		t.Errorf("unexpected encoding %q", logJSON)
	}

	empty, err := marshalLog(nil)
	if err != nil || empty != "[]" {
		t.Errorf("empty log should encode as [], got %q, %v", empty, err)
	}
}
