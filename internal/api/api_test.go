package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOutputTo(t *testing.T) {
	data := map[string]any{"name": "novelarc", "count": 2}

	t.Run("json", func(t *testing.T) {
		var sb strings.Builder
		if err := OutputTo(&sb, OutputFormatJSON, data); err != nil {
			t.Fatalf("OutputTo: %v", err)
		}
		if !strings.Contains(sb.String(), `"name": "novelarc"`) {
			t.Errorf("unexpected JSON output: %s", sb.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var sb strings.Builder
		if err := OutputTo(&sb, OutputFormatYAML, data); err != nil {
			t.Fatalf("OutputTo: %v", err)
		}
		if !strings.Contains(sb.String(), "name: novelarc") {
			t.Errorf("unexpected YAML output: %s", sb.String())
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		var sb strings.Builder
		if err := OutputTo(&sb, OutputFormat("xml"), data); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestSetOutputFormat(t *testing.T) {
	defer SetOutputFormat("yaml")

	SetOutputFormat("json")
	if GetOutputFormat() != OutputFormatJSON {
		t.Errorf("got %s, want json", GetOutputFormat())
	}
	SetOutputFormat("bogus")
	if GetOutputFormat() != DefaultOutput {
		t.Errorf("got %s, want default", GetOutputFormat())
	}
}

func TestClientGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/novels" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"novels":[{"title":"Test"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var resp struct {
		Novels []struct {
			Title string `json:"title"`
		} `json:"novels"`
	}
	if err := client.Get(context.Background(), "/api/novels", &resp); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Novels) != 1 || resp.Novels[0].Title != "Test" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestClientErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"novel not found"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Get(context.Background(), "/api/novels/x", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "novel not found") {
		t.Errorf("error should carry server message, got %v", err)
	}
}

func TestClientPostSendsJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %s", ct)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"j1"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	var resp struct {
		ID string `json:"id"`
	}
	err := client.Post(context.Background(), "/api/jobs", map[string]any{"novel_id": "n1"}, &resp)
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.ID != "j1" {
		t.Errorf("id = %s", resp.ID)
	}
}
