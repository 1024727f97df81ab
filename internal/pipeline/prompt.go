package pipeline

import (
	"fmt"
	"strings"

	"github.com/novelarc/novelarc/internal/providers"
	"github.com/novelarc/novelarc/internal/store"
)

const (
	// extractionInputLimit caps each text fed to the extraction call.
	extractionInputLimit = 4000

	// previousContextLimit caps the tail of the previous chapter's
	// translation included for continuity.
	previousContextLimit = 1000
)

// glossaryBlock renders glossary entries as one `"term": "translation"` line
// each, in the order given. Callers pass store-ordered entries so the block
// is stable within a single composition.
func glossaryBlock(entries []*store.GlossaryEntry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Glossary (use these translations exactly):\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "%q: %q\n", e.Term, e.Translation)
	}
	return b.String()
}

// translationMessages composes the translation request. The prompt carries
// the instructions, the glossary block, optional previous-chapter context,
// and the source text.
func translationMessages(instructions string, entries []*store.GlossaryEntry, prevTranslation, source string) []providers.Message {
	var user strings.Builder

	if block := glossaryBlock(entries); block != "" {
		user.WriteString(block)
		user.WriteString("\n")
	}
	if prev := truncateTail(prevTranslation, previousContextLimit); prev != "" {
		user.WriteString("End of the previous chapter's translation, for continuity:\n")
		user.WriteString(prev)
		user.WriteString("\n\n")
	}
	user.WriteString("Chapter text:\n")
	user.WriteString(source)

	return []providers.Message{
		{Role: "system", Content: instructions},
		{Role: "user", Content: user.String()},
	}
}

// extractionMessages composes the term-extraction request. Both inputs are
// truncated so oversized chapters cannot blow the context window.
func extractionMessages(instructions, source, translation string) []providers.Message {
	var user strings.Builder
	user.WriteString("Source chapter:\n")
	user.WriteString(truncateHead(source, extractionInputLimit))
	user.WriteString("\n\nTranslation:\n")
	user.WriteString(truncateHead(translation, extractionInputLimit))

	return []providers.Message{
		{Role: "system", Content: instructions},
		{Role: "user", Content: user.String()},
	}
}

// truncateHead keeps the first n runes.
func truncateHead(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// truncateTail keeps the last n runes.
func truncateTail(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
