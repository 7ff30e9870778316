package feed

import (
	"testing"
	"time"

	"github.com/kaleidonews/kaleido/internal/models"
)

var testSource = models.Source{
	ID:       "x",
	Name:     "Example Wire",
	URL:      "https://example.com/feed",
	Category: "center",
	Topic:    "Test",
}

func validRaw() models.RawItem {
	return models.RawItem{
		Title:   "A perfectly fine headline",
		Link:    "https://example.com/a",
		PubDate: time.Now().Add(-30 * time.Minute).Format(time.RFC1123Z),
	}
}

func TestNormalizeValidItem(t *testing.T) {
	n := NewNormalizer(NewParser())

	a, ok := n.Normalize(validRaw(), testSource, 3)
	if !ok {
		t.Fatal("valid item dropped")
	}
	if a.ID != "x-3" {
		t.Errorf("ID = %q, want x-3", a.ID)
	}
	if a.Source != "Example Wire" || a.Topic != "Test" || a.Category != "center" {
		t.Errorf("source fields not carried: %+v", a)
	}
	if a.PublishedAt.IsZero() {
		t.Error("PublishedAt is zero")
	}
	if a.Time != a.PublishedAt.Local().Format("15:04") {
		t.Errorf("Time = %q", a.Time)
	}
	if a.Velocity < 90 || a.Velocity > 100 {
		t.Errorf("30-minute-old article velocity = %d, want 90-100", a.Velocity)
	}
}

func TestNormalizeDropsMissingFields(t *testing.T) {
	n := NewNormalizer(NewParser())

	cases := map[string]models.RawItem{
		"no title":   {Link: "https://example.com/a", PubDate: "Mon, 02 Jan 2006 15:04:05 -0700"},
		"no link":    {Title: "t", PubDate: "Mon, 02 Jan 2006 15:04:05 -0700"},
		"no pubDate": {Title: "t", Link: "https://example.com/a"},
	}
	for name, raw := range cases {
		if _, ok := n.Normalize(raw, testSource, 0); ok {
			t.Errorf("%s: item not dropped", name)
		}
	}
}

func TestNormalizeDropsBadDate(t *testing.T) {
	n := NewNormalizer(NewParser())

	raw := validRaw()
	raw.PubDate = "not-a-date"
	if _, ok := n.Normalize(raw, testSource, 0); ok {
		t.Fatal("unparseable date not dropped")
	}

	// Batch shrinks by exactly the one bad item.
	batch := []models.RawItem{validRaw(), raw, validRaw()}
	articles := n.NormalizeBatch(batch, testSource)
	if len(articles) != 2 {
		t.Fatalf("batch size = %d, want 2", len(articles))
	}
}

func TestNormalizeRejectsUnsafeURLs(t *testing.T) {
	n := NewNormalizer(NewParser())

	for _, link := range []string{
		"javascript:alert(1)",
		"data:text/html,<script>alert(1)</script>",
		"/relative/path",
		"ftp://example.com/file",
		"not a url",
	} {
		raw := validRaw()
		raw.Link = link
		if _, ok := n.Normalize(raw, testSource, 0); ok {
			t.Errorf("unsafe link %q survived normalization", link)
		}
	}

	raw := validRaw()
	raw.Link = "http://example.com/plain"
	if _, ok := n.Normalize(raw, testSource, 0); !ok {
		t.Error("plain http link rejected")
	}
}

func TestNormalizeUsesUpstreamParsedDate(t *testing.T) {
	n := NewNormalizer(NewParser())

	// A layout our own parser does not know, already resolved upstream:
	// the resolved time wins and the item survives.
	resolved := time.Date(2026, 8, 27, 18, 30, 0, 0, time.UTC)
	raw := models.RawItem{
		Title:           "Headline with exotic date",
		Link:            "https://example.com/a",
		PubDate:         "Wednesday, 27th of August 2026, 6:30pm",
		PublishedParsed: &resolved,
	}

	a, ok := n.Normalize(raw, testSource, 0)
	if !ok {
		t.Fatal("item with upstream-parsed date dropped")
	}
	if !a.PublishedAt.Equal(resolved) {
		t.Fatalf("PublishedAt = %v, want %v", a.PublishedAt, resolved)
	}
}

func TestNormalizeDefaultsTopic(t *testing.T) {
	n := NewNormalizer(NewParser())

	src := testSource
	src.Topic = ""
	a, ok := n.Normalize(validRaw(), src, 0)
	if !ok || a.Topic != "General" {
		t.Fatalf("topic = %q, want General", a.Topic)
	}
}

func TestParseDateLayouts(t *testing.T) {
	for _, value := range []string{
		"Mon, 02 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if _, err := ParseDate(value); err != nil {
			t.Errorf("ParseDate(%q) failed: %v", value, err)
		}
	}
	if _, err := ParseDate("yesterday-ish"); err == nil {
		t.Error("garbage date parsed")
	}
}

func TestFreshnessBands(t *testing.T) {
	now := time.Now()
	cases := []struct {
		age      time.Duration
		min, max int
	}{
		{5 * time.Minute, 90, 100},
		{2 * time.Hour, 69, 89},
		{4 * time.Hour, 49, 69},
		{9 * time.Hour, 29, 49},
		{18 * time.Hour, 9, 29},
		{48 * time.Hour, 0, 9},
		{30 * 24 * time.Hour, 0, 0},
	}
	for _, tc := range cases {
		score := Freshness(now.Add(-tc.age), now)
		if score < tc.min || score > tc.max {
			t.Errorf("Freshness(age=%v) = %d, want %d-%d", tc.age, score, tc.min, tc.max)
		}
	}
}

func TestFreshnessMonotonic(t *testing.T) {
	now := time.Now()
	prev := 101
	// Sample every 30 minutes across three days; score must never rise
	// with age, and the same inputs must give the same score.
	for age := time.Duration(0); age <= 72*time.Hour; age += 30 * time.Minute {
		score := Freshness(now.Add(-age), now)
		if score > prev {
			t.Fatalf("score rose with age at %v: %d > %d", age, score, prev)
		}
		if again := Freshness(now.Add(-age), now); again != score {
			t.Fatalf("Freshness not deterministic at %v: %d vs %d", age, score, again)
		}
		prev = score
	}
}
