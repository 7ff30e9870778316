package feed

import (
	"strings"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">
<channel>
  <title>Example Feed</title>
  <item>
    <title><![CDATA[First headline]]></title>
    <link>https://example.com/articles/1</link>
    <pubDate>Mon, 02 Jan 2006 15:04:05 -0700</pubDate>
    <description><![CDATA[Some <b>bold</b> summary]]></description>
    <content:encoded><![CDATA[<p>Full body</p>]]></content:encoded>
  </item>
  <item>
    <title>Second headline</title>
    <link>https://example.com/articles/2</link>
    <pubDate>Tue, 03 Jan 2006 10:00:00 -0700</pubDate>
  </item>
</channel>
</rss>`

func TestParseXML(t *testing.T) {
	p := NewParser()

	parsed := p.ParseXML([]byte(sampleRSS))
	if !parsed.OK() {
		t.Fatalf("parse failed: %s", parsed.Message)
	}
	if len(parsed.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(parsed.Items))
	}

	first := parsed.Items[0]
	if first.Title != "First headline" {
		t.Errorf("CDATA title = %q", first.Title)
	}
	if first.Link != "https://example.com/articles/1" {
		t.Errorf("link = %q", first.Link)
	}
	if first.PubDate == "" {
		t.Error("pubDate not extracted")
	}
	if !strings.Contains(first.Content, "Full body") {
		t.Errorf("content:encoded not extracted, got %q", first.Content)
	}
	if first.PublishedParsed == nil {
		t.Fatal("parsed date not carried through")
	}
	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))
	if !first.PublishedParsed.Equal(want) {
		t.Errorf("PublishedParsed = %v, want %v", first.PublishedParsed, want)
	}
}

func TestParseXMLMalformed(t *testing.T) {
	p := NewParser()

	for name, body := range map[string]string{
		"garbage":  "this is not xml at all {{{",
		"empty":    "",
		"no items": `<?xml version="1.0"?><rss version="2.0"><channel><title>empty</title></channel></rss>`,
	} {
		parsed := p.ParseXML([]byte(body))
		if parsed.Status != "error" {
			t.Errorf("%s: status = %q, want error", name, parsed.Status)
		}
		if len(parsed.Items) != 0 {
			t.Errorf("%s: got %d items, want 0", name, len(parsed.Items))
		}
		if parsed.Message == "" {
			t.Errorf("%s: error result carries no message", name)
		}
	}
}

func TestParseJSON(t *testing.T) {
	p := NewParser()

	body := `{"status":"ok","items":[{"title":"A","link":"https://example.com/a","pubDate":"2026-08-28 10:00:00"}]}`
	parsed := p.ParseJSON([]byte(body))
	if !parsed.OK() {
		t.Fatalf("parse failed: %s", parsed.Message)
	}
	if parsed.Items[0].Title != "A" {
		t.Errorf("title = %q", parsed.Items[0].Title)
	}
}

func TestParseJSONRemoteError(t *testing.T) {
	p := NewParser()

	// The remote's own status and message pass through unmodified.
	parsed := p.ParseJSON([]byte(`{"status":"error","message":"rate limited"}`))
	if parsed.Status != "error" || parsed.Message != "rate limited" {
		t.Fatalf("got status=%q message=%q", parsed.Status, parsed.Message)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	p := NewParser()

	parsed := p.ParseJSON([]byte(`{"status": "ok", items: broken`))
	if parsed.Status != "error" {
		t.Fatalf("status = %q, want error", parsed.Status)
	}
}

func TestCleanHTML(t *testing.T) {
	p := NewParser()

	got := p.CleanHTML("<p>Breaking:&nbsp;  <b>big</b>   news</p>")
	if got != "Breaking: big news" {
		t.Errorf("CleanHTML = %q", got)
	}
}
