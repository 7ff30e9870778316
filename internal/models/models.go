package models

import "time"

// FetchStatus is the per-source outcome of one fetch cycle.
type FetchStatus string

const (
	StatusOK      FetchStatus = "ok"
	StatusError   FetchStatus = "error"
	StatusLoading FetchStatus = "loading"
)

// Source is the static configuration for one feed origin.
type Source struct {
	ID       string `yaml:"id" json:"id" validate:"required"`
	Name     string `yaml:"name" json:"name" validate:"required"`
	URL      string `yaml:"url" json:"url" validate:"required,url"`
	Category string `yaml:"category" json:"category" validate:"required"`
	Topic    string `yaml:"topic" json:"topic,omitempty"`
}

// RawItem is the loosely-typed record extracted from a proxy response
// before validation. Fields may be empty; the normalizer decides.
// PublishedParsed is set when the upstream parser already resolved the
// date (the XML path), so the normalizer need not re-parse PubDate.
type RawItem struct {
	Title           string     `json:"title"`
	Link            string     `json:"link"`
	PubDate         string     `json:"pubDate"`
	Description     string     `json:"description,omitempty"`
	Content         string     `json:"content,omitempty"`
	PublishedParsed *time.Time `json:"-"`
}

// ParsedFeed is the uniform result of parsing one proxy response,
// regardless of the proxy's wire shape.
type ParsedFeed struct {
	Status  string    `json:"status"`
	Items   []RawItem `json:"items"`
	Message string    `json:"message,omitempty"`
}

// OK reports whether the parse yielded at least one item.
func (p ParsedFeed) OK() bool {
	return p.Status == "ok" && len(p.Items) > 0
}

// Article is the canonical, validated unit served to consumers.
//
// Invariants: PublishedAt is always a real parsed timestamp (items with
// unparseable dates are dropped, never stored with a sentinel), URL always
// carries an http or https scheme, and ID is unique within one fetch batch.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Topic       string    `json:"topic"`
	Time        string    `json:"time"`
	PublishedAt time.Time `json:"published_at"`
	URL         string    `json:"url"`
	Velocity    int       `json:"velocity"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
}

// FeedResult is the aggregate output of one fetch cycle. Items are sorted
// newest-first; Status has one entry per requested source; Errors has an
// entry only for sources that ended in error.
type FeedResult struct {
	Items     []Article              `json:"items"`
	Status    map[string]FetchStatus `json:"status"`
	Errors    map[string]string      `json:"errors"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// SourceResult carries one source's outcome through the orchestrator's
// fan-in channel.
type SourceResult struct {
	SourceID string
	Articles []Article
	Err      error
}
