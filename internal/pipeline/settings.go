package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/novelarc/novelarc/internal/store"
)

// settingsSnapshot is the immutable view of global settings a job runs
// against. It is read once at job start; later settings edits affect only
// subsequent jobs.
type settingsSnapshot struct {
	Model                  string
	Instructions           string
	ExtractionInstructions string
	Cooldown               time.Duration
	APIKeys                []string
}

// loadSnapshot reads the pipeline settings, falling back to the seeded
// defaults for any missing key.
func loadSnapshot(ctx context.Context, settings store.SettingStore) settingsSnapshot {
	defaults := make(map[string]string)
	for _, def := range store.DefaultSettings() {
		defaults[def.Key] = def.Value
	}

	get := func(key string) string {
		setting, err := settings.Get(ctx, key)
		if err != nil || setting.Value == "" {
			return defaults[key]
		}
		return setting.Value
	}

	snap := settingsSnapshot{
		Model:                  get(store.SettingModel),
		Instructions:           get(store.SettingTranslationInstructions),
		ExtractionInstructions: get(store.SettingExtractionInstructions),
		APIKeys:                store.ParseAPIKeys(get(store.SettingAPIKeys)),
	}

	seconds, err := strconv.Atoi(get(store.SettingCooldownSeconds))
	if err != nil || seconds < 0 {
		seconds = 3
	}
	snap.Cooldown = time.Duration(seconds) * time.Second

	return snap
}
