package store

import (
	"context"
	"errors"
	"testing"
)

func TestGlossaryUpsertRefreshesTranslationOnly(t *testing.T) {
	ctx := context.Background()
	glossary := NewMemoryGlossaryStore()

	first := &GlossaryEntry{NovelID: "n1", Term: "Qi", Translation: "تشي", AutoGenerated: true}
	if err := glossary.Upsert(ctx, first); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Same (novel, term) with a new translation must not create a second row.
	if err := glossary.Upsert(ctx, &GlossaryEntry{NovelID: "n1", Term: "Qi", Translation: "طاقة"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	entries, err := glossary.List(ctx, "n1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Translation != "طاقة" {
		t.Errorf("translation not refreshed: %q", entries[0].Translation)
	}
	if !entries[0].AutoGenerated {
		t.Errorf("identity fields must not change on upsert")
	}

	// Case-sensitive: "qi" is a different term.
	if err := glossary.Upsert(ctx, &GlossaryEntry{NovelID: "n1", Term: "qi", Translation: "x"}); err != nil {
		t.Fatalf("case-variant upsert: %v", err)
	}
	entries, _ = glossary.List(ctx, "n1")
	if len(entries) != 2 {
		t.Errorf("expected case-sensitive identity, got %d entries", len(entries))
	}

	// Different novel, same term.
	if err := glossary.Upsert(ctx, &GlossaryEntry{NovelID: "n2", Term: "Qi", Translation: "y"}); err != nil {
		t.Fatalf("cross-novel upsert: %v", err)
	}
	other, _ := glossary.List(ctx, "n2")
	if len(other) != 1 {
		t.Errorf("expected per-novel identity, got %d entries", len(other))
	}
}

func TestContentGetAbsentIsEmptyNotError(t *testing.T) {
	ctx := context.Background()
	content := NewMemoryContentStore()

	text, err := content.GetOriginal(ctx, "n1", 7)
	if err != nil {
		t.Fatalf("expected no error for absent content, got %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}

	if err := content.PutTranslated(ctx, "n1", 7, "translated"); err != nil {
		t.Fatalf("put: %v", err)
	}
	text, err = content.GetTranslated(ctx, "n1", 7)
	if err != nil || text != "translated" {
		t.Errorf("roundtrip failed: %q, %v", text, err)
	}
}

func TestChapterTargetedUpdates(t *testing.T) {
	ctx := context.Background()
	chapters := NewMemoryChapterStore()

	err := chapters.CreateMany(ctx, []*Chapter{
		{NovelID: "n1", Number: 1, Title: "الفصل 1"},
		{NovelID: "n1", Number: 2, Title: "الفصل 2"},
		{NovelID: "n2", Number: 1, Title: "other"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := chapters.UpdateTitle(ctx, "n1", 2, "العاصفة"); err != nil {
		t.Fatalf("update title: %v", err)
	}
	if err := chapters.MarkTranslated(ctx, "n1", 2); err != nil {
		t.Fatalf("mark translated: %v", err)
	}

	list, _ := chapters.List(ctx, "n1")
	if len(list) != 2 {
		t.Fatalf("expected 2 chapters, got %d", len(list))
	}
	if list[0].Title != "الفصل 1" || list[0].Translated {
		t.Errorf("untargeted chapter modified: %+v", list[0])
	}
	if list[1].Title != "العاصفة" || !list[1].Translated {
		t.Errorf("targeted chapter not updated: %+v", list[1])
	}

	if err := chapters.UpdateTitle(ctx, "n1", 99, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing chapter, got %v", err)
	}
}

func TestChapterListAscending(t *testing.T) {
	ctx := context.Background()
	chapters := NewMemoryChapterStore()

	// Created out of order on purpose.
	_ = chapters.CreateMany(ctx, []*Chapter{
		{NovelID: "n1", Number: 5},
		{NovelID: "n1", Number: 3},
		{NovelID: "n1", Number: 4},
	})

	list, err := chapters.List(ctx, "n1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i, want := range []int{3, 4, 5} {
		if list[i].Number != want {
			t.Errorf("position %d: got chapter %d, want %d", i, list[i].Number, want)
		}
	}
}

func TestSettingSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	settings := NewMemorySettingStore()

	if err := settings.Seed(ctx, DefaultSettings()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := settings.Set(ctx, SettingModel, "custom-model"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := settings.Seed(ctx, DefaultSettings()); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	setting, err := settings.Get(ctx, SettingModel)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if setting.Value != "custom-model" {
		t.Errorf("seed overwrote existing value: %q", setting.Value)
	}
}

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"json array", `["k1","k2","k3"]`, 3},
		{"comma separated", "k1, k2", 2},
		{"empty json array", "[]", 0},
		{"empty string", "", 0},
		{"blank entries dropped", `["k1","",""]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAPIKeys(tt.value); len(got) != tt.want {
				t.Errorf("ParseAPIKeys(%q) = %v, want %d keys", tt.value, got, tt.want)
			}
		})
	}
}
