package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"SentiFeed/internal/ports"
)

// Fetcher retrieves RSS/Atom feeds over HTTP and normalizes their entries.
type Fetcher struct {
	client    *http.Client
	parser    *gofeed.Parser
	sanitizer *bluemonday.Policy
	userAgent string
	now       func() time.Time
}

var _ ports.FeedSource = (*Fetcher)(nil)

// NewFetcher wires an HTTP client; a nil client gets a 20s timeout default.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Fetcher{
		client:    client,
		parser:    gofeed.NewParser(),
		sanitizer: bluemonday.StrictPolicy(),
		userAgent: userAgent,
		now:       time.Now,
	}
}

// Fetch downloads and parses the feed at url. Each entry's publish timestamp
// is resolved with the fallback order published -> updated -> now; feeds that
// omit both fields are common enough that this order must hold.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]ports.FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := f.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	entries := make([]ports.FeedEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, f.normalize(item))
	}

	return entries, nil
}

func (f *Fetcher) normalize(item *gofeed.Item) ports.FeedEntry {
	publishedAt := f.now()
	switch {
	case item.PublishedParsed != nil:
		publishedAt = *item.PublishedParsed
	case item.UpdatedParsed != nil:
		publishedAt = *item.UpdatedParsed
	}

	title := strings.TrimSpace(item.Title)

	// Descriptions arrive as HTML fragments; only the text survives.
	description := strings.TrimSpace(f.sanitizer.Sanitize(item.Description))
	if description == "" {
		description = title
	}

	return ports.FeedEntry{
		Title:       title,
		Description: description,
		Link:        item.Link,
		PublishedAt: publishedAt,
	}
}
