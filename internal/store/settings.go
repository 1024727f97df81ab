package store

import (
	"encoding/json"
	"strings"
)

// Setting keys used by the translation pipeline.
const (
	SettingAPIKeys                 = "translation.api_keys"
	SettingModel                   = "translation.model"
	SettingTranslationInstructions = "translation.instructions"
	SettingExtractionInstructions  = "extraction.instructions"
	SettingCooldownSeconds         = "translation.cooldown_seconds"
)

const defaultTranslationInstructions = `You are a professional literary translator. Translate the chapter below into Arabic.
Preserve names, places and techniques exactly as given in the glossary.
Keep paragraph structure. Output only the translated chapter text.`

const defaultExtractionInstructions = `You extract recurring proper nouns (characters, places, techniques, organizations) from a source chapter and its translation.
Return only terms that appear in the source text with the translation actually used.
Respond with JSON only: {"newTerms": [{"term": "...", "translation": "..."}]}`

// DefaultSettings returns the settings seeded at startup. Seeding is
// idempotent; existing values are never overwritten.
func DefaultSettings() []Setting {
	return []Setting{
		{
			Key:         SettingAPIKeys,
			Value:       "[]",
			Description: "JSON array of provider API keys rotated by translation jobs",
		},
		{
			Key:         SettingModel,
			Value:       "gemini-2.5-flash",
			Description: "Model used for translation and term extraction",
		},
		{
			Key:         SettingTranslationInstructions,
			Value:       defaultTranslationInstructions,
			Description: "System instructions for the translation call",
		},
		{
			Key:         SettingExtractionInstructions,
			Value:       defaultExtractionInstructions,
			Description: "System instructions for the glossary extraction call",
		},
		{
			Key:         SettingCooldownSeconds,
			Value:       "3",
			Description: "Pause between chapters within a translation job",
		},
	}
}

// FormatAPIKeys encodes a credential list in the canonical stored format,
// a JSON string array.
func FormatAPIKeys(keys []string) string {
	data, err := json.Marshal(keys)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// ParseAPIKeys parses a stored credential list. The canonical format is a
// JSON string array; comma-separated values are accepted as a fallback.
// Blank entries are dropped.
func ParseAPIKeys(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}

	var keys []string
	if err := json.Unmarshal([]byte(value), &keys); err != nil {
		keys = strings.Split(value, ",")
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
