package schema

import (
	"strings"
	"testing"
)

func TestAllLoadsEverySchema(t *testing.T) {
	schemas, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(schemas) != len(registry) {
		t.Fatalf("expected %d schemas, got %d", len(registry), len(schemas))
	}

	for i, s := range schemas {
		if s.SDL == "" {
			t.Errorf("schema %s has empty SDL", s.Name)
		}
		if !strings.Contains(s.SDL, "type "+s.Name+" ") {
			t.Errorf("schema %s SDL does not declare its type:\n%s", s.Name, s.SDL)
		}
		if i > 0 && schemas[i-1].Order > s.Order {
			t.Errorf("schemas out of order at %d: %s before %s", i, schemas[i-1].Name, s.Name)
		}
	}
}

func TestGet(t *testing.T) {
	s, err := Get("TranslationJob")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	for _, field := range []string{"status", "translated_count", "current_chapter", "log"} {
		if !strings.Contains(s.SDL, field) {
			t.Errorf("TranslationJob SDL missing field %s", field)
		}
	}

	if _, err := Get("Nope"); err == nil {
		t.Error("expected error for unknown schema")
	}
}

func TestIsAlreadyExistsError(t *testing.T) {
	if isAlreadyExistsError(nil) {
		t.Error("nil should not match")
	}
}
