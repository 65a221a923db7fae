package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	securitynet "newsflow/internal/security/netutil"
)

const (
	maxFeedBytes = 5 << 20
	userAgent    = "Newsflow/1.0 (+https://github.com/newsflow)"
)

// ErrNotModified means the server answered a conditional GET with 304.
var ErrNotModified = errors.New("feed not modified")

// Fetcher downloads and parses feeds. It remembers validator headers per URL
// so repeat polls can be answered with 304.
type Fetcher struct {
	parser *gofeed.Parser
	client *http.Client
	cache  *sync.Map
}

type cacheEntry struct {
	lastModified string
	etag         string
}

func NewFetcher() *Fetcher {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Fetcher{
		parser: gofeed.NewParser(),
		client: &http.Client{Timeout: 30 * time.Second, Transport: transport, CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("stopped after 5 redirects")
			}
			return securitynet.CheckHost(req.Context(), req.URL.Hostname())
		}},
		cache: &sync.Map{},
	}
}

// Fetch retrieves and parses feedURL. Non-2xx answers are errors; a 304 is
// reported as ErrNotModified.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	u, err := url.Parse(feedURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: must use HTTP or HTTPS", ErrInvalidURL)
	}
	if err := securitynet.CheckHost(ctx, u.Hostname()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	if cached, ok := f.cache.Load(feedURL); ok {
		entry := cached.(cacheEntry)
		if entry.lastModified != "" {
			req.Header.Set("If-Modified-Since", entry.lastModified)
		}
		if entry.etag != "" {
			req.Header.Set("If-None-Match", entry.etag)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected response status %d", resp.StatusCode)
	}

	parsed, err := f.parser.Parse(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAFeed, err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("%w: empty document", ErrNotAFeed)
	}

	if lm, et := resp.Header.Get("Last-Modified"), resp.Header.Get("ETag"); lm != "" || et != "" {
		f.cache.Store(feedURL, cacheEntry{lastModified: lm, etag: et})
	}
	return parsed, nil
}

// Forget drops cached validators so the next Fetch is unconditional.
func (f *Fetcher) Forget(feedURL string) {
	f.cache.Delete(feedURL)
}
