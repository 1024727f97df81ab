package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/novelarc/novelarc/internal/defra"
)

// Collection is the DefraDB collection for job records.
const Collection = "TranslationJob"

var jobFields = []string{"_docID", "novel_id", "status", "chapter_numbers",
	"api_keys", "model", "translated_count", "total_to_translate",
	"current_chapter", "log", "error", "started_at", "updated_at"}

// DefraStore implements Store over DefraDB. The log is stored as a JSON
// string because entries are structured and always read whole.
type DefraStore struct {
	client *defra.Client
}

// NewDefraStore creates a Defra-backed job store.
func NewDefraStore(client *defra.Client) *DefraStore {
	return &DefraStore{client: client}
}

func (s *DefraStore) Create(ctx context.Context, record *Record) (string, error) {
	logJSON, err := marshalLog(record.Log)
	if err != nil {
		return "", err
	}

	docID, err := s.client.Create(ctx, Collection, map[string]any{
		"novel_id":           record.NovelID,
		"status":             string(record.Status),
		"chapter_numbers":    intsToAny(record.ChapterNumbers),
		"api_keys":           record.APIKeys,
		"model":              record.Model,
		"translated_count":   record.TranslatedCount,
		"total_to_translate": record.TotalToTranslate,
		"current_chapter":    record.CurrentChapter,
		"log":                logJSON,
		"error":              record.Error,
		"started_at":         record.StartedAt,
		"updated_at":         record.UpdatedAt,
	})
	if err != nil {
		return "", err
	}
	record.ID = docID
	return docID, nil
}

func (s *DefraStore) Get(ctx context.Context, id string) (*Record, error) {
	if _, err := defra.SafeID(id); err != nil {
		return nil, fmt.Errorf("invalid job id: %w", err)
	}
	resp, err := defra.SafeQueryByDocID(ctx, s.client, Collection, id, jobFields...)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	records, err := decodeRecords(resp)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

func (s *DefraStore) List(ctx context.Context) ([]*Record, error) {
	resp, err := defra.NewQuery(Collection).
		Fields(jobFields...).
		OrderBy("started_at", "DESC").
		Execute(ctx, s.client)
	if err != nil {
		return nil, err
	}
	if msg := resp.Error(); msg != "" {
		return nil, fmt.Errorf("query error: %s", msg)
	}
	return decodeRecords(resp)
}

func (s *DefraStore) Update(ctx context.Context, record *Record) error {
	logJSON, err := marshalLog(record.Log)
	if err != nil {
		return err
	}

	return s.client.Update(ctx, Collection, record.ID, map[string]any{
		"status":           string(record.Status),
		"translated_count": record.TranslatedCount,
		"current_chapter":  record.CurrentChapter,
		"log":              logJSON,
		"error":            record.Error,
		"updated_at":       record.UpdatedAt,
	})
}

func (s *DefraStore) SetStatus(ctx context.Context, id string, status Status) error {
	return s.client.Update(ctx, Collection, id, map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func marshalLog(log []LogEntry) (string, error) {
	if len(log) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("failed to encode job log: %w", err)
	}
	return string(b), nil
}

func intsToAny(values []int) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func decodeRecords(resp *defra.GQLResponse) ([]*Record, error) {
	raw, ok := resp.Data[Collection].([]any)
	if !ok {
		return nil, nil
	}

	out := make([]*Record, 0, len(raw))
	for _, d := range raw {
		doc, ok := d.(map[string]any)
		if !ok {
			continue
		}

		rec := &Record{}
		rec.ID, _ = doc["_docID"].(string)
		rec.NovelID, _ = doc["novel_id"].(string)
		if status, ok := doc["status"].(string); ok {
			rec.Status = Status(status)
		}
		if nums, ok := doc["chapter_numbers"].([]any); ok {
			for _, n := range nums {
				if f, ok := n.(float64); ok {
					rec.ChapterNumbers = append(rec.ChapterNumbers, int(f))
				}
			}
		}
		if keys, ok := doc["api_keys"].([]any); ok {
			for _, k := range keys {
				if s, ok := k.(string); ok {
					rec.APIKeys = append(rec.APIKeys, s)
				}
			}
		}
		rec.Model, _ = doc["model"].(string)
		if v, ok := doc["translated_count"].(float64); ok {
			rec.TranslatedCount = int(v)
		}
		if v, ok := doc["total_to_translate"].(float64); ok {
			rec.TotalToTranslate = int(v)
		}
		if v, ok := doc["current_chapter"].(float64); ok {
			rec.CurrentChapter = int(v)
		}
		if logJSON, ok := doc["log"].(string); ok && logJSON != "" {
			if err := json.Unmarshal([]byte(logJSON), &rec.Log); err != nil {
				return nil, fmt.Errorf("failed to decode job log: %w", err)
			}
		}
		rec.Error, _ = doc["error"].(string)
		rec.StartedAt, _ = doc["started_at"].(string)
		rec.UpdatedAt, _ = doc["updated_at"].(string)

		out = append(out, rec)
	}
	return out, nil
}
