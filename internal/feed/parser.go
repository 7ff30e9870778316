package feed

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/kaleidonews/kaleido/internal/models"
)

// Parser converts raw proxy response bodies into a uniform list of raw
// items, regardless of whether the proxy wraps the feed in a JSON envelope
// or relays the XML body as-is. Parse failures are reported in the result,
// never panicked or thrown past this boundary.
type Parser struct {
	feedParser   *gofeed.Parser
	htmlTagRegex *regexp.Regexp
}

func NewParser() *Parser {
	return &Parser{
		feedParser:   gofeed.NewParser(),
		htmlTagRegex: regexp.MustCompile(`<[^>]*>`),
	}
}

// jsonEnvelope is the wire shape of JSON-wrapping proxies (rss2json style):
// the remote reports its own status and item list.
type jsonEnvelope struct {
	Status  string           `json:"status"`
	Message string           `json:"message"`
	Items   []models.RawItem `json:"items"`
}

// ParseJSON decodes a JSON-enveloped response. The remote's own status and
// message are passed through unmodified.
func (p *Parser) ParseJSON(body []byte) models.ParsedFeed {
	var env jsonEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.ParsedFeed{Status: "error", Message: "invalid JSON response: " + err.Error()}
	}
	if env.Status != "ok" {
		msg := env.Message
		if msg == "" {
			msg = "remote reported status " + env.Status
		}
		return models.ParsedFeed{Status: "error", Message: msg}
	}
	if len(env.Items) == 0 {
		return models.ParsedFeed{Status: "error", Message: "no items in JSON response"}
	}
	return models.ParsedFeed{Status: "ok", Items: env.Items}
}

// ParseXML parses a raw RSS/Atom body. gofeed handles the format detection,
// CDATA sections, content:encoded and dc:date fallbacks that the feeds in
// the wild actually use.
func (p *Parser) ParseXML(body []byte) models.ParsedFeed {
	parsed, err := p.feedParser.ParseString(string(body))
	if err != nil {
		return models.ParsedFeed{Status: "error", Message: "unparseable feed body: " + err.Error()}
	}

	items := make([]models.RawItem, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		pubDate := item.Published
		parsedDate := item.PublishedParsed
		if pubDate == "" {
			pubDate = item.Updated
			parsedDate = item.UpdatedParsed
		}
		items = append(items, models.RawItem{
			Title:           item.Title,
			Link:            item.Link,
			PubDate:         pubDate,
			Description:     item.Description,
			Content:         item.Content,
			PublishedParsed: parsedDate,
		})
	}

	if len(items) == 0 {
		return models.ParsedFeed{Status: "error", Message: "no items parsed from XML"}
	}
	return models.ParsedFeed{Status: "ok", Items: items}
}

// CleanHTML removes HTML tags, unescapes entities and normalizes whitespace.
func (p *Parser) CleanHTML(input string) string {
	cleaned := p.htmlTagRegex.ReplaceAllString(input, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.TrimSpace(cleaned)
}
