package feed

import (
	"net/url"
	"sync"

	"github.com/kaleidonews/kaleido/internal/models"
)

// Shape declares how a proxy delivers the feed body.
type Shape int

const (
	// ShapeJSON means the proxy wraps the feed in a JSON status envelope.
	ShapeJSON Shape = iota
	// ShapeRaw means the proxy relays the feed XML unmodified.
	ShapeRaw
)

// Proxy is one fetch-proxy configuration: how to build the proxied URL for
// a feed and how to read the response back.
type Proxy struct {
	Name     string
	Shape    Shape
	BuildURL func(feedURL string) string
}

// Parse reads a response body according to the proxy's wire shape.
func (p Proxy) Parse(parser *Parser, body []byte) models.ParsedFeed {
	if p.Shape == ShapeJSON {
		return parser.ParseJSON(body)
	}
	return parser.ParseXML(body)
}

// DefaultProxies is the standard rotation of public CORS/RSS proxies.
func DefaultProxies() []Proxy {
	return []Proxy{
		{
			Name:  "rss2json",
			Shape: ShapeJSON,
			BuildURL: func(feedURL string) string {
				return "https://api.rss2json.com/v1/api.json?rss_url=" + url.QueryEscape(feedURL)
			},
		},
		{
			Name:  "allorigins",
			Shape: ShapeRaw,
			BuildURL: func(feedURL string) string {
				return "https://api.allorigins.win/raw?url=" + url.QueryEscape(feedURL)
			},
		},
		{
			Name:  "corsproxy",
			Shape: ShapeRaw,
			BuildURL: func(feedURL string) string {
				return "https://corsproxy.io/?url=" + url.QueryEscape(feedURL)
			},
		},
		{
			Name:  "codetabs",
			Shape: ShapeRaw,
			BuildURL: func(feedURL string) string {
				return "https://api.codetabs.com/v1/proxy?quest=" + url.QueryEscape(feedURL)
			},
		},
	}
}

// Router rotates through the proxy pool and tracks per-proxy failure
// counts. It is a soft circuit breaker: proxies with threshold or more
// recent failures are deprioritized, never removed, so a recovered proxy
// gets retried on the next rotation or once its peers degrade too.
type Router struct {
	mu        sync.Mutex
	proxies   []Proxy
	failures  map[string]int
	cursor    int
	threshold int
}

// NewRouter builds a router over the given pool. threshold is the failure
// count at which a proxy is skipped during selection.
func NewRouter(proxies []Proxy, threshold int) *Router {
	if threshold <= 0 {
		threshold = 3
	}
	return &Router{
		proxies:   proxies,
		failures:  make(map[string]int),
		threshold: threshold,
	}
}

// Size returns the pool size.
func (r *Router) Size() int {
	return len(r.proxies)
}

// Next returns the next proxy to try, skipping any name in tried and
// preferring proxies under the failure threshold. When every untried proxy
// is at or over the threshold the last one reached is returned anyway; the
// pool degrades to plain round-robin under universal failure rather than
// exhausting.
func (r *Router) Next(tried map[string]bool) (Proxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return Proxy{}, false
	}

	var fallback *Proxy
	for i := 0; i < len(r.proxies); i++ {
		p := r.proxies[(r.cursor+i)%len(r.proxies)]
		if tried[p.Name] {
			continue
		}
		if r.failures[p.Name] < r.threshold {
			r.cursor = (r.cursor + i + 1) % len(r.proxies)
			return p, true
		}
		fallback = &p
	}

	if fallback != nil {
		r.cursor = (r.cursor + 1) % len(r.proxies)
		return *fallback, true
	}
	return Proxy{}, false
}

// RecordSuccess resets the proxy's failure counter.
func (r *Router) RecordSuccess(name string) {
	r.mu.Lock()
	r.failures[name] = 0
	r.mu.Unlock()
}

// RecordFailure increments the proxy's failure counter.
func (r *Router) RecordFailure(name string) {
	r.mu.Lock()
	r.failures[name]++
	r.mu.Unlock()
}

// Failures returns the proxy's current failure count.
func (r *Router) Failures(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures[name]
}

// Reset clears all failure counters and the rotation cursor.
func (r *Router) Reset() {
	r.mu.Lock()
	r.failures = make(map[string]int)
	r.cursor = 0
	r.mu.Unlock()
}
