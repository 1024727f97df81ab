package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/novelarc/novelarc/internal/providers"
)

// extractionSchema validates the structured extraction output.
var extractionSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"newTerms": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"term": {"type": "string"},
					"translation": {"type": "string"}
				},
				"required": ["term", "translation"]
			}
		}
	},
	"required": ["newTerms"]
}`)

// term is one extracted glossary candidate.
type term struct {
	Term        string `json:"term"`
	Translation string `json:"translation"`
}

type extractionResult struct {
	NewTerms []term `json:"newTerms"`
}

// parseExtraction parses the extraction model output into terms. Entries
// with a blank term or translation are dropped without error; the stage is
// best-effort by contract.
func parseExtraction(content string) ([]term, error) {
	parsed, err := providers.ParseJSON(content)
	if err != nil {
		return nil, fmt.Errorf("extraction output is not JSON: %w", err)
	}
	if err := providers.ValidateJSON(extractionSchema, parsed); err != nil {
		return nil, err
	}

	var result extractionResult
	if err := json.Unmarshal(parsed, &result); err != nil {
		return nil, fmt.Errorf("failed to decode extraction output: %w", err)
	}

	terms := make([]term, 0, len(result.NewTerms))
	for _, t := range result.NewTerms {
		t.Term = strings.TrimSpace(t.Term)
		t.Translation = strings.TrimSpace(t.Translation)
		if t.Term == "" || t.Translation == "" {
			continue
		}
		terms = append(terms, t)
	}
	return terms, nil
}
