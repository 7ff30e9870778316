package feed

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kaleidonews/kaleido/internal/models"
)

// Normalizer validates raw items and converts them into canonical Articles.
// Rejection is per-item and silent: a bad item shrinks the batch, it never
// fails the source.
type Normalizer struct {
	parser *Parser
	now    func() time.Time
}

func NewNormalizer(parser *Parser) *Normalizer {
	return &Normalizer{parser: parser, now: time.Now}
}

// dateLayouts covers the pubDate formats the proxied feeds actually emit.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// ParseDate parses a feed timestamp permissively across known layouts.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}

// validLink reports whether link is an absolute http or https URL. This is
// the injection defense boundary: javascript:, data:, relative paths and
// malformed strings all fail here and the item is dropped.
func validLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Normalize validates one raw item against its owning source and returns
// the canonical Article, or false if the item must be dropped.
func (n *Normalizer) Normalize(raw models.RawItem, src models.Source, index int) (models.Article, bool) {
	title := n.parser.CleanHTML(raw.Title)
	if title == "" || strings.TrimSpace(raw.Link) == "" {
		return models.Article{}, false
	}
	if strings.TrimSpace(raw.PubDate) == "" && raw.PublishedParsed == nil {
		return models.Article{}, false
	}

	// Prefer a date the upstream parser already resolved; only the JSON
	// path leaves the raw string to parse here.
	var publishedAt time.Time
	if raw.PublishedParsed != nil {
		publishedAt = *raw.PublishedParsed
	} else {
		var err error
		publishedAt, err = ParseDate(raw.PubDate)
		if err != nil {
			return models.Article{}, false
		}
	}

	link := strings.TrimSpace(raw.Link)
	if !validLink(link) {
		return models.Article{}, false
	}

	topic := src.Topic
	if topic == "" {
		topic = "General"
	}

	return models.Article{
		ID:          fmt.Sprintf("%s-%d", src.ID, index),
		Title:       title,
		Source:      src.Name,
		Topic:       topic,
		Time:        publishedAt.Local().Format("15:04"),
		PublishedAt: publishedAt,
		URL:         link,
		Velocity:    Freshness(publishedAt, n.now()),
		Category:    src.Category,
		Description: n.parser.CleanHTML(raw.Description),
	}, true
}

// NormalizeBatch converts a parsed item list, dropping invalid items.
// Article IDs are assigned from the raw item's position so a given input
// always yields the same IDs.
func (n *Normalizer) NormalizeBatch(items []models.RawItem, src models.Source) []models.Article {
	articles := make([]models.Article, 0, len(items))
	for i, raw := range items {
		if a, ok := n.Normalize(raw, src, i); ok {
			articles = append(articles, a)
		}
	}
	return articles
}

// Freshness maps article age to a 0-100 score via a piecewise-linear decay.
// It is a pure function of the two timestamps: same inputs, same score.
// Bands: <1h → 90-100, 1-3h → 69-89, 3-6h → 49-69, 6-12h → 29-49,
// 12-24h → 9-29, then a fixed per-day decay floored at 0.
func Freshness(publishedAt, now time.Time) int {
	age := now.Sub(publishedAt).Hours()
	if age < 0 {
		age = 0
	}

	var score float64
	switch {
	case age < 1:
		score = 100 - 10*age
	case age < 3:
		score = 89 - 10*(age-1)
	case age < 6:
		score = 69 - (20.0/3.0)*(age-3)
	case age < 12:
		score = 49 - (20.0/6.0)*(age-6)
	case age < 24:
		score = 29 - (20.0/12.0)*(age-12)
	default:
		score = 9 - 3*((age-24)/24)
	}

	if score < 0 {
		score = 0
	}
	return int(score)
}
