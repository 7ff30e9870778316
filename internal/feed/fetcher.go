package feed

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/kaleidonews/kaleido/internal/models"
)

// Fetcher retrieves one source's articles, trying proxies from the router
// until one yields at least one valid article or the pool is exhausted.
// Retry is the proxy rotation itself, so the resty client carries no retry
// policy of its own.
type Fetcher struct {
	client     *resty.Client
	router     *Router
	parser     *Parser
	normalizer *Normalizer
	timeout    time.Duration
	log        zerolog.Logger
}

func NewFetcher(router *Router, timeout time.Duration, log zerolog.Logger) *Fetcher {
	parser := NewParser()
	return &Fetcher{
		client:     resty.New().SetHeader("Accept", "application/rss+xml, application/xml, application/json, text/xml"),
		router:     router,
		parser:     parser,
		normalizer: NewNormalizer(parser),
		timeout:    timeout,
		log:        log,
	}
}

// Fetch attempts each distinct proxy at most once, each under its own
// timeout, and returns the first non-empty valid batch. A nil error means
// at least one article; a non-nil error means every proxy failed and
// carries the last failure reason. One source's failure never propagates
// past this boundary as anything but that error value.
func (f *Fetcher) Fetch(ctx context.Context, src models.Source) ([]models.Article, error) {
	tried := make(map[string]bool, f.router.Size())
	var lastErr error

	for attempt := 0; attempt < f.router.Size(); attempt++ {
		proxy, ok := f.router.Next(tried)
		if !ok {
			break
		}
		tried[proxy.Name] = true

		articles, err := f.attempt(ctx, proxy, src)
		if err != nil {
			f.router.RecordFailure(proxy.Name)
			lastErr = err
			f.log.Debug().
				Str("source", src.ID).
				Str("proxy", proxy.Name).
				Err(err).
				Msg("proxy attempt failed")
			continue
		}

		f.router.RecordSuccess(proxy.Name)
		f.log.Debug().
			Str("source", src.ID).
			Str("proxy", proxy.Name).
			Int("articles", len(articles)).
			Msg("source fetched")
		return articles, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no proxies available")
	}
	return nil, fmt.Errorf("all proxies failed for %s: %w", src.ID, lastErr)
}

// attempt runs one proxy try under its own deadline. A slow proxy burns
// only its own 10 seconds, not the budget of the proxies after it.
func (f *Fetcher) attempt(ctx context.Context, proxy Proxy, src models.Source) ([]models.Article, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.client.R().
		SetContext(attemptCtx).
		Get(proxy.BuildURL(src.URL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", proxy.Name, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status code %d", proxy.Name, resp.StatusCode())
	}

	parsed := proxy.Parse(f.parser, resp.Body())
	if !parsed.OK() {
		return nil, fmt.Errorf("%s: %s", proxy.Name, parsed.Message)
	}

	articles := f.normalizer.NormalizeBatch(parsed.Items, src)
	if len(articles) == 0 {
		return nil, fmt.Errorf("%s: no valid articles after normalization", proxy.Name)
	}
	return articles, nil
}
