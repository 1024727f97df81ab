package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryStores builds an in-memory store bundle for tests.
func NewMemoryStores() *Stores {
	return &Stores{
		Novels:   NewMemoryNovelStore(),
		Chapters: NewMemoryChapterStore(),
		Content:  NewMemoryContentStore(),
		Glossary: NewMemoryGlossaryStore(),
		Settings: NewMemorySettingStore(),
	}
}

// MemoryNovelStore is an in-memory NovelStore.
type MemoryNovelStore struct {
	mu     sync.RWMutex
	novels map[string]*Novel
}

func NewMemoryNovelStore() *MemoryNovelStore {
	return &MemoryNovelStore{novels: make(map[string]*Novel)}
}

func (s *MemoryNovelStore) Create(ctx context.Context, novel *Novel) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	now := nowRFC3339()
	stored := *novel
	stored.ID = id
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.novels[id] = &stored
	return id, nil
}

func (s *MemoryNovelStore) Get(ctx context.Context, id string) (*Novel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	novel, ok := s.novels[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *novel
	return &copied, nil
}

func (s *MemoryNovelStore) List(ctx context.Context) ([]*Novel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Novel, 0, len(s.novels))
	for _, n := range s.novels {
		copied := *n
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

func (s *MemoryNovelStore) Update(ctx context.Context, id string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	novel, ok := s.novels[id]
	if !ok {
		return ErrNotFound
	}
	if title, ok := fields["title"].(string); ok {
		novel.Title = title
	}
	if count, ok := fields["chapter_count"].(int); ok {
		novel.ChapterCount = count
	}
	if desc, ok := fields["description"].(string); ok {
		novel.Description = desc
	}
	novel.UpdatedAt = nowRFC3339()
	return nil
}

func (s *MemoryNovelStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.novels[id]; !ok {
		return ErrNotFound
	}
	delete(s.novels, id)
	return nil
}

// MemoryChapterStore is an in-memory ChapterStore.
type MemoryChapterStore struct {
	mu       sync.RWMutex
	chapters map[string]*Chapter // id -> chapter
}

func NewMemoryChapterStore() *MemoryChapterStore {
	return &MemoryChapterStore{chapters: make(map[string]*Chapter)}
}

func (s *MemoryChapterStore) CreateMany(ctx context.Context, chapters []*Chapter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	for _, ch := range chapters {
		stored := *ch
		stored.ID = uuid.New().String()
		stored.CreatedAt = now
		stored.UpdatedAt = now
		s.chapters[stored.ID] = &stored
	}
	return nil
}

func (s *MemoryChapterStore) List(ctx context.Context, novelID string) ([]*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Chapter, 0)
	for _, ch := range s.chapters {
		if ch.NovelID == novelID {
			copied := *ch
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *MemoryChapterStore) Get(ctx context.Context, novelID string, number int) (*Chapter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.chapters {
		if ch.NovelID == novelID && ch.Number == number {
			copied := *ch
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryChapterStore) UpdateTitle(ctx context.Context, novelID string, number int, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.chapters {
		if ch.NovelID == novelID && ch.Number == number {
			ch.Title = title
			ch.UpdatedAt = nowRFC3339()
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryChapterStore) MarkTranslated(ctx context.Context, novelID string, number int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.chapters {
		if ch.NovelID == novelID && ch.Number == number {
			ch.Translated = true
			ch.UpdatedAt = nowRFC3339()
			return nil
		}
	}
	return ErrNotFound
}

// MemoryContentStore is an in-memory ContentStore.
type MemoryContentStore struct {
	mu         sync.RWMutex
	original   map[string]string
	translated map[string]string
}

func NewMemoryContentStore() *MemoryContentStore {
	return &MemoryContentStore{
		original:   make(map[string]string),
		translated: make(map[string]string),
	}
}

func contentKey(novelID string, number int) string {
	return novelID + "/" + strconv.Itoa(number)
}

func (s *MemoryContentStore) GetOriginal(ctx context.Context, novelID string, number int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.original[contentKey(novelID, number)], nil
}

func (s *MemoryContentStore) GetTranslated(ctx context.Context, novelID string, number int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.translated[contentKey(novelID, number)], nil
}

func (s *MemoryContentStore) PutOriginal(ctx context.Context, novelID string, number int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.original[contentKey(novelID, number)] = text
	return nil
}

func (s *MemoryContentStore) PutTranslated(ctx context.Context, novelID string, number int, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.translated[contentKey(novelID, number)] = text
	return nil
}

// MemoryGlossaryStore is an in-memory GlossaryStore.
type MemoryGlossaryStore struct {
	mu      sync.RWMutex
	entries map[string]*GlossaryEntry
}

func NewMemoryGlossaryStore() *MemoryGlossaryStore {
	return &MemoryGlossaryStore{entries: make(map[string]*GlossaryEntry)}
}

func (s *MemoryGlossaryStore) Upsert(ctx context.Context, entry *GlossaryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	for _, existing := range s.entries {
		if existing.NovelID == entry.NovelID && existing.Term == entry.Term {
			existing.Translation = entry.Translation
			existing.UpdatedAt = now
			return nil
		}
	}

	stored := *entry
	stored.ID = uuid.New().String()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.entries[stored.ID] = &stored
	return nil
}

func (s *MemoryGlossaryStore) List(ctx context.Context, novelID string) ([]*GlossaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*GlossaryEntry, 0)
	for _, e := range s.entries {
		if e.NovelID == novelID {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out, nil
}

func (s *MemoryGlossaryStore) Get(ctx context.Context, id string) (*GlossaryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (s *MemoryGlossaryStore) Update(ctx context.Context, id string, translation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return ErrNotFound
	}
	e.Translation = translation
	e.UpdatedAt = nowRFC3339()
	return nil
}

func (s *MemoryGlossaryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func (s *MemoryGlossaryStore) DeleteMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.entries[id]; ok {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// MemorySettingStore is an in-memory SettingStore.
type MemorySettingStore struct {
	mu       sync.RWMutex
	settings map[string]*Setting
}

func NewMemorySettingStore() *MemorySettingStore {
	return &MemorySettingStore{settings: make(map[string]*Setting)}
}

func (s *MemorySettingStore) Get(ctx context.Context, key string) (*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	setting, ok := s.settings[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *setting
	return &copied, nil
}

func (s *MemorySettingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := nowRFC3339()
	if existing, ok := s.settings[key]; ok {
		existing.Value = value
		existing.UpdatedAt = now
		return nil
	}
	s.settings[key] = &Setting{Key: key, Value: value, UpdatedAt: now}
	return nil
}

func (s *MemorySettingStore) List(ctx context.Context) ([]*Setting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Setting, 0, len(s.settings))
	for _, setting := range s.settings {
		copied := *setting
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *MemorySettingStore) Seed(ctx context.Context, defaults []Setting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, def := range defaults {
		if _, ok := s.settings[def.Key]; ok {
			continue
		}
		stored := def
		stored.UpdatedAt = nowRFC3339()
		s.settings[def.Key] = &stored
	}
	return nil
}
