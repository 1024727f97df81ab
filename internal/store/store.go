// Package store provides the domain persistence layer over DefraDB.
// Each store has a Defra-backed implementation and an in-memory one for
// tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

// Novel is a hosted novel's metadata.
type Novel struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Author         string `json:"author,omitempty"`
	Description    string `json:"description,omitempty"`
	SourceLanguage string `json:"source_language,omitempty"`
	TargetLanguage string `json:"target_language,omitempty"`
	ChapterCount   int    `json:"chapter_count"`
	CreatedAt      string `json:"created_at,omitempty"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// Chapter is per-chapter metadata. Body text lives in the content store.
type Chapter struct {
	ID         string `json:"id"`
	NovelID    string `json:"novel_id"`
	Number     int    `json:"chapter_number"`
	Title      string `json:"title"`
	Translated bool   `json:"translated"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// GlossaryEntry is one learned term for a novel. (novel, term) is unique
// and term matching is case-sensitive.
type GlossaryEntry struct {
	ID            string `json:"id"`
	NovelID       string `json:"novel_id"`
	Term          string `json:"term"`
	Translation   string `json:"translation"`
	AutoGenerated bool   `json:"auto_generated"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// Setting is a key/value configuration document.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// NovelStore manages novel metadata.
type NovelStore interface {
	Create(ctx context.Context, novel *Novel) (string, error)
	Get(ctx context.Context, id string) (*Novel, error)
	List(ctx context.Context) ([]*Novel, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Delete(ctx context.Context, id string) error
}

// ChapterStore manages chapter metadata for a novel.
type ChapterStore interface {
	CreateMany(ctx context.Context, chapters []*Chapter) error
	List(ctx context.Context, novelID string) ([]*Chapter, error)
	Get(ctx context.Context, novelID string, number int) (*Chapter, error)

	// UpdateTitle rewrites the title of the single chapter identified by
	// (novelID, number). The update targets only that chapter's document.
	UpdateTitle(ctx context.Context, novelID string, number int, title string) error

	// MarkTranslated flags the chapter identified by (novelID, number).
	MarkTranslated(ctx context.Context, novelID string, number int) error
}

// ContentStore manages chapter body text, original and translated.
// Get methods return empty strings (not errors) when no content exists.
type ContentStore interface {
	GetOriginal(ctx context.Context, novelID string, number int) (string, error)
	GetTranslated(ctx context.Context, novelID string, number int) (string, error)
	PutOriginal(ctx context.Context, novelID string, number int, text string) error
	PutTranslated(ctx context.Context, novelID string, number int, text string) error
}

// GlossaryStore manages per-novel terminology.
type GlossaryStore interface {
	// Upsert inserts the term or, when (novel, term) already exists,
	// refreshes only its translation. Identity fields never change.
	Upsert(ctx context.Context, entry *GlossaryEntry) error

	List(ctx context.Context, novelID string) ([]*GlossaryEntry, error)
	Get(ctx context.Context, id string) (*GlossaryEntry, error)
	Update(ctx context.Context, id string, translation string) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int, error)
}

// SettingStore manages key/value settings.
type SettingStore interface {
	Get(ctx context.Context, key string) (*Setting, error)
	Set(ctx context.Context, key, value string) error
	List(ctx context.Context) ([]*Setting, error)

	// Seed inserts missing defaults without touching existing values.
	Seed(ctx context.Context, defaults []Setting) error
}

// Stores bundles every domain store for dependency injection.
type Stores struct {
	Novels   NovelStore
	Chapters ChapterStore
	Content  ContentStore
	Glossary GlossaryStore
	Settings SettingStore
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339)
}
