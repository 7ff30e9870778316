package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSources(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSources(t *testing.T) {
	path := writeSources(t, `
sources:
  - id: guardian
    name: The Guardian
    url: https://www.theguardian.com/world/rss
    category: left
    topic: World
  - id: reuters
    name: Reuters
    url: https://feeds.reuters.com/reuters/topNews
    category: center
`)

	sources, err := LoadSources(path)
	if err != nil {
		t.Fatalf("LoadSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Fatalf("got %d sources, want 2", len(sources))
	}
	if sources[0].ID != "guardian" || sources[0].Topic != "World" {
		t.Errorf("first source = %+v", sources[0])
	}
	if sources[1].Topic != "" {
		t.Errorf("optional topic should be empty, got %q", sources[1].Topic)
	}
}

func TestLoadSourcesRejectsInvalidURL(t *testing.T) {
	path := writeSources(t, `
sources:
  - id: bad
    name: Bad Feed
    url: not-a-url
    category: center
`)
	if _, err := LoadSources(path); err == nil {
		t.Fatal("invalid url accepted")
	}
}

func TestLoadSourcesRejectsMissingFields(t *testing.T) {
	path := writeSources(t, `
sources:
  - id: partial
    url: https://example.com/feed
`)
	if _, err := LoadSources(path); err == nil {
		t.Fatal("source without name/category accepted")
	}
}

func TestLoadSourcesRejectsDuplicateIDs(t *testing.T) {
	path := writeSources(t, `
sources:
  - id: dup
    name: One
    url: https://example.com/one
    category: left
  - id: dup
    name: Two
    url: https://example.com/two
    category: right
`)
	if _, err := LoadSources(path); err == nil {
		t.Fatal("duplicate source ids accepted")
	}
}

func TestLoadSourcesRejectsEmptyFile(t *testing.T) {
	path := writeSources(t, "sources: []\n")
	if _, err := LoadSources(path); err == nil {
		t.Fatal("empty source list accepted")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.CacheTTL != 15*time.Minute {
		t.Errorf("CacheTTL = %v, want 15m", cfg.CacheTTL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.SweepInterval != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", cfg.SweepInterval)
	}
	if cfg.FailureThreshold != 3 {
		t.Errorf("FailureThreshold = %d, want 3", cfg.FailureThreshold)
	}
}
