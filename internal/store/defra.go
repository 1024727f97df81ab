package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/novelarc/novelarc/internal/defra"
)

// Collection names in DefraDB.
const (
	CollectionNovel          = "Novel"
	CollectionChapter        = "Chapter"
	CollectionChapterContent = "ChapterContent"
	CollectionGlossaryEntry  = "GlossaryEntry"
	CollectionSetting        = "Setting"
)

// NewDefraStores builds the full store bundle over a DefraDB client.
func NewDefraStores(client *defra.Client) *Stores {
	return &Stores{
		Novels:   &DefraNovelStore{client: client},
		Chapters: &DefraChapterStore{client: client},
		Content:  &DefraContentStore{client: client},
		Glossary: &DefraGlossaryStore{client: client},
		Settings: &DefraSettingStore{client: client},
	}
}

// decodeDocs converts GraphQL result documents into typed records, mapping
// _docID onto the id field.
func decodeDocs[T any](resp *defra.GQLResponse, collection string) ([]*T, error) {
	raw, ok := resp.Data[collection].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]*T, 0, len(raw))
	for _, d := range raw {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}
		if docID, ok := doc["_docID"]; ok {
			doc["id"] = docID
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to encode document: %w", err)
		}
		var rec T
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode document: %w", err)
		}
		out = append(out, &rec)
	}
	return out, nil
}

// DefraNovelStore implements NovelStore over DefraDB.
type DefraNovelStore struct {
	client *defra.Client
}

var novelFields = []string{"_docID", "title", "author", "description",
	"source_language", "target_language", "chapter_count", "created_at", "updated_at"}

func (s *DefraNovelStore) Create(ctx context.Context, novel *Novel) (string, error) {
	now := nowRFC3339()
	return s.client.Create(ctx, CollectionNovel, map[string]any{
		"title":           novel.Title,
		"author":          novel.Author,
		"description":     novel.Description,
		"source_language": novel.SourceLanguage,
		"target_language": novel.TargetLanguage,
		"chapter_count":   novel.ChapterCount,
		"created_at":      now,
		"updated_at":      now,
	})
}

func (s *DefraNovelStore) Get(ctx context.Context, id string) (*Novel, error) {
	if _, err := defra.SafeID(id); err != nil {
		return nil, fmt.Errorf("invalid novel id: %w", err)
	}
	resp, err := defra.SafeQueryByDocID(ctx, s.client, CollectionNovel, id, novelFields...)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	novels, err := decodeDocs[Novel](resp, CollectionNovel)
	if err != nil {
		return nil, err
	}
	if len(novels) == 0 {
		return nil, ErrNotFound
	}
	return novels[0], nil
}

func (s *DefraNovelStore) List(ctx context.Context) ([]*Novel, error) {
	resp, err := defra.NewQuery(CollectionNovel).
		Fields(novelFields...).
		OrderBy("created_at", "DESC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	return decodeDocs[Novel](resp, CollectionNovel)
}

func (s *DefraNovelStore) Update(ctx context.Context, id string, fields map[string]any) error {
	input := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		input[k] = v
	}
	input["updated_at"] = nowRFC3339()
	return s.client.Update(ctx, CollectionNovel, id, input)
}

func (s *DefraNovelStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, CollectionNovel, id)
}

// DefraChapterStore implements ChapterStore over DefraDB.
type DefraChapterStore struct {
	client *defra.Client
}

var chapterFields = []string{"_docID", "novel_id", "chapter_number", "title",
	"translated", "created_at", "updated_at"}

func (s *DefraChapterStore) CreateMany(ctx context.Context, chapters []*Chapter) error {
	if len(chapters) == 0 {
		return nil
	}
	now := nowRFC3339()
	inputs := make([]map[string]any, 0, len(chapters))
	for _, ch := range chapters {
		inputs = append(inputs, map[string]any{
			"novel_id":       ch.NovelID,
			"chapter_number": ch.Number,
			"title":          ch.Title,
			"translated":     ch.Translated,
			"created_at":     now,
			"updated_at":     now,
		})
	}
	_, err := s.client.CreateMany(ctx, CollectionChapter, inputs, "chapter_number")
	return err
}

func (s *DefraChapterStore) List(ctx context.Context, novelID string) ([]*Chapter, error) {
	resp, err := defra.NewQuery(CollectionChapter).
		Filter("novel_id", novelID).
		Fields(chapterFields...).
		OrderBy("chapter_number", "ASC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	return decodeDocs[Chapter](resp, CollectionChapter)
}

func (s *DefraChapterStore) Get(ctx context.Context, novelID string, number int) (*Chapter, error) {
	resp, err := defra.NewQuery(CollectionChapter).
		Filter("novel_id", novelID).
		Filter("chapter_number", number).
		Fields(chapterFields...).
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	chapters, err := decodeDocs[Chapter](resp, CollectionChapter)
	if err != nil {
		return nil, err
	}
	if len(chapters) == 0 {
		return nil, ErrNotFound
	}
	return chapters[0], nil
}

func (s *DefraChapterStore) UpdateTitle(ctx context.Context, novelID string, number int, title string) error {
	n, err := s.client.UpdateFiltered(ctx, CollectionChapter,
		map[string]any{
			"novel_id":       map[string]any{"_eq": novelID},
			"chapter_number": map[string]any{"_eq": number},
		},
		map[string]any{
			"title":      title,
			"updated_at": nowRFC3339(),
		},
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DefraChapterStore) MarkTranslated(ctx context.Context, novelID string, number int) error {
	n, err := s.client.UpdateFiltered(ctx, CollectionChapter,
		map[string]any{
			"novel_id":       map[string]any{"_eq": novelID},
			"chapter_number": map[string]any{"_eq": number},
		},
		map[string]any{
			"translated": true,
			"updated_at": nowRFC3339(),
		},
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DefraContentStore implements ContentStore over DefraDB.
type DefraContentStore struct {
	client *defra.Client
}

func (s *DefraContentStore) get(ctx context.Context, novelID string, number int, field string) (string, error) {
	resp, err := defra.NewQuery(CollectionChapterContent).
		Filter("novel_id", novelID).
		Filter("chapter_number", number).
		Fields("_docID", field).
		Execute(ctx, s.client)
	if err != nil {
		return "", err
	}
	if msg := resp.Error(); msg != "" {
		return "", fmt.Errorf("query error: %s", msg)
	}
	docs, ok := resp.Data[CollectionChapterContent].([]any)
	if !ok || len(docs) == 0 {
		// Absent content reads as empty, callers decide what that means.
		return "", nil
	}
	doc, ok := docs[0].(map[string]any)
	if !ok {
		return "", nil
	}
	text, _ := doc[field].(string)
	return text, nil
}

func (s *DefraContentStore) put(ctx context.Context, novelID string, number int, field, text string) error {
	_, err := s.client.Upsert(ctx, CollectionChapterContent,
		map[string]any{
			"novel_id":       map[string]any{"_eq": novelID},
			"chapter_number": map[string]any{"_eq": number},
		},
		map[string]any{
			"novel_id":       novelID,
			"chapter_number": number,
			field:            text,
			"updated_at":     nowRFC3339(),
		},
		map[string]any{
			field:        text,
			"updated_at": nowRFC3339(),
		},
	)
	return err
}

func (s *DefraContentStore) GetOriginal(ctx context.Context, novelID string, number int) (string, error) {
	return s.get(ctx, novelID, number, "original_text")
}

func (s *DefraContentStore) GetTranslated(ctx context.Context, novelID string, number int) (string, error) {
	return s.get(ctx, novelID, number, "translated_text")
}

func (s *DefraContentStore) PutOriginal(ctx context.Context, novelID string, number int, text string) error {
	return s.put(ctx, novelID, number, "original_text", text)
}

func (s *DefraContentStore) PutTranslated(ctx context.Context, novelID string, number int, text string) error {
	return s.put(ctx, novelID, number, "translated_text", text)
}

// DefraGlossaryStore implements GlossaryStore over DefraDB.
type DefraGlossaryStore struct {
	client *defra.Client
}

var glossaryFields = []string{"_docID", "novel_id", "term", "translation",
	"auto_generated", "created_at", "updated_at"}

func (s *DefraGlossaryStore) Upsert(ctx context.Context, entry *GlossaryEntry) error {
	now := nowRFC3339()
	_, err := s.client.Upsert(ctx, CollectionGlossaryEntry,
		map[string]any{
			"novel_id": map[string]any{"_eq": entry.NovelID},
			"term":     map[string]any{"_eq": entry.Term},
		},
		map[string]any{
			"novel_id":       entry.NovelID,
			"term":           entry.Term,
			"translation":    entry.Translation,
			"auto_generated": entry.AutoGenerated,
			"created_at":     now,
			"updated_at":     now,
		},
		map[string]any{
			"translation": entry.Translation,
			"updated_at":  now,
		},
	)
	return err
}

func (s *DefraGlossaryStore) List(ctx context.Context, novelID string) ([]*GlossaryEntry, error) {
	resp, err := defra.NewQuery(CollectionGlossaryEntry).
		Filter("novel_id", novelID).
		Fields(glossaryFields...).
		OrderBy("term", "ASC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	return decodeDocs[GlossaryEntry](resp, CollectionGlossaryEntry)
}

func (s *DefraGlossaryStore) Get(ctx context.Context, id string) (*GlossaryEntry, error) {
	if _, err := defra.SafeID(id); err != nil {
		return nil, fmt.Errorf("invalid glossary id: %w", err)
	}
	resp, err := defra.SafeQueryByDocID(ctx, s.client, CollectionGlossaryEntry, id, glossaryFields...)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	entries, err := decodeDocs[GlossaryEntry](resp, CollectionGlossaryEntry)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return entries[0], nil
}

func (s *DefraGlossaryStore) Update(ctx context.Context, id string, translation string) error {
	return s.client.Update(ctx, CollectionGlossaryEntry, id, map[string]any{
		"translation": translation,
		"updated_at":  nowRFC3339(),
	})
}

func (s *DefraGlossaryStore) Delete(ctx context.Context, id string) error {
	return s.client.Delete(ctx, CollectionGlossaryEntry, id)
}

func (s *DefraGlossaryStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, err := defra.SafeID(id); err != nil {
			continue
		}
		if err := s.client.Delete(ctx, CollectionGlossaryEntry, id); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DefraSettingStore implements SettingStore over DefraDB.
type DefraSettingStore struct {
	client *defra.Client
}

var settingFields = []string{"_docID", "key", "value", "description", "updated_at"}

func (s *DefraSettingStore) Get(ctx context.Context, key string) (*Setting, error) {
	resp, err := defra.SafeQuery(ctx, s.client, CollectionSetting, "key", key, settingFields...)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	settings, err := decodeDocs[Setting](resp, CollectionSetting)
	if err != nil {
		return nil, err
	}
	if len(settings) == 0 {
		return nil, ErrNotFound
	}
	return settings[0], nil
}

func (s *DefraSettingStore) Set(ctx context.Context, key, value string) error {
	now := nowRFC3339()
	_, err := s.client.Upsert(ctx, CollectionSetting,
		map[string]any{"key": map[string]any{"_eq": key}},
		map[string]any{"key": key, "value": value, "updated_at": now},
		map[string]any{"value": value, "updated_at": now},
	)
	return err
}

func (s *DefraSettingStore) List(ctx context.Context) ([]*Setting, error) {
	resp, err := defra.NewQuery(CollectionSetting).
		Fields(settingFields...).
		OrderBy("key", "ASC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	return decodeDocs[Setting](resp, CollectionSetting)
}

func (s *DefraSettingStore) Seed(ctx context.Context, defaults []Setting) error {
	for _, def := range defaults {
		_, err := s.Get(ctx, def.Key)
		if err == nil {
			continue
		}
		if err != ErrNotFound {
			return err
		}
		_, err = s.client.Create(ctx, CollectionSetting, map[string]any{
			"key":         def.Key,
			"value":       def.Value,
			"description": def.Description,
			"updated_at":  nowRFC3339(),
		})
		if err != nil {
			return fmt.Errorf("failed to seed setting %s: %w", def.Key, err)
		}
	}
	return nil
}
