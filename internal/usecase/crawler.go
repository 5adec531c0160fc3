package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/metrics"
	"SentiFeed/internal/ports"
)

// dedupWindow is how far back an identical (title, source) pair blocks a new item.
const dedupWindow = 24 * time.Hour

// CrawlerDeps wires all driven adapters into the crawler.
type CrawlerDeps struct {
	Sources        ports.SourceStore
	Items          ports.NewsItemStore
	Feeds          ports.FeedSource
	Broker         ports.Broker
	Metrics        *metrics.Collector
	Logger         *slog.Logger
	ClassifyQueue  string
	StaleThreshold time.Duration
	RequestsPerSec float64
}

// Crawler fetches feeds for registered sources and queues new items for
// classification.
type Crawler struct {
	sources        ports.SourceStore
	items          ports.NewsItemStore
	feeds          ports.FeedSource
	broker         ports.Broker
	metrics        *metrics.Collector
	logger         *slog.Logger
	limiter        *rate.Limiter
	classifyQueue  string
	staleThreshold time.Duration
	now            func() time.Time
}

// NewCrawler constructs the crawl use case.
func NewCrawler(deps CrawlerDeps) *Crawler {
	rps := deps.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &Crawler{
		sources:        deps.Sources,
		items:          deps.Items,
		feeds:          deps.Feeds,
		broker:         deps.Broker,
		metrics:        deps.Metrics,
		logger:         deps.Logger,
		limiter:        rate.NewLimiter(rate.Limit(rps), 1),
		classifyQueue:  deps.ClassifyQueue,
		staleThreshold: deps.StaleThreshold,
		now:            time.Now,
	}
}

// CrawlPass runs one scheduling pass: every active source that is not mid-crawl,
// or whose pending flag has gone stale, gets crawled. A name narrows the pass
// to sources with that name. Per-source failures are logged and do not stop
// the pass.
func (c *Crawler) CrawlPass(ctx context.Context, name string) error {
	var (
		sources []domain.Source
		err     error
	)
	if name != "" {
		sources, err = c.sources.ByName(ctx, name)
	} else {
		sources, err = c.sources.Active(ctx)
	}
	if err != nil {
		return fmt.Errorf("load sources: %w", err)
	}
	if len(sources) == 0 {
		c.logger.Error("no sources found", "name", name)
		return nil
	}

	if err := c.broker.Declare(ctx, c.classifyQueue); err != nil {
		return fmt.Errorf("declare classify queue: %w", err)
	}

	for _, source := range sources {
		if !source.Crawlable(c.now(), c.staleThreshold) {
			continue
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := c.Crawl(ctx, source); err != nil {
			c.logger.Error("crawl failed", "source", source.Name, "error", err)
		}
	}

	return nil
}

// Crawl fetches one source's feed, persists entries not seen in the dedup
// window and queues each new item for classification. The pending flag is
// raised before any network I/O; on failure it is deliberately left raised so
// the source is only retried once the staleness threshold self-heals it.
func (c *Crawler) Crawl(ctx context.Context, source domain.Source) (int, error) {
	if err := c.sources.MarkCrawling(ctx, source.ID); err != nil {
		return 0, fmt.Errorf("mark crawling: %w", err)
	}

	c.logger.Info("crawling", "source", source.Name)

	entries, err := c.feeds.Fetch(ctx, source.URL)
	if err != nil {
		if c.metrics != nil {
			c.metrics.RecordCrawlFailure()
		}
		return 0, fmt.Errorf("fetch %s: %w", source.Name, err)
	}

	published := 0
	for _, entry := range entries {
		exists, err := c.items.Exists(ctx, entry.Title, entry.PublishedAt.Add(-dedupWindow), source.ID)
		if err != nil {
			return published, fmt.Errorf("dedup check: %w", err)
		}
		if exists {
			continue
		}

		item := domain.NewsItem{
			Title:       entry.Title,
			Description: entry.Description,
			URL:         entry.Link,
			SourceID:    source.ID,
			Score:       nil,
			Published:   false,
			AddedAt:     entry.PublishedAt,
		}
		if err := c.items.Save(ctx, &item); err != nil {
			return published, fmt.Errorf("save item: %w", err)
		}

		body, err := encodeItem(item)
		if err != nil {
			return published, fmt.Errorf("encode item %d: %w", item.ID, err)
		}
		if err := c.broker.Publish(ctx, c.classifyQueue, body, selfTrainHeaders(false)); err != nil {
			return published, fmt.Errorf("queue item %d: %w", item.ID, err)
		}

		if c.metrics != nil {
			c.metrics.RecordItemCrawled()
		}
		published++
	}

	if err := c.sources.MarkCrawled(ctx, source.ID, c.now()); err != nil {
		return published, fmt.Errorf("mark crawled: %w", err)
	}

	c.logger.Info("crawled", "source", source.Name, "new_items", published)
	return published, nil
}
