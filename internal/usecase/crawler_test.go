package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

func newTestCrawler(sources *fakeSourceStore, items *fakeItemStore, feeds *fakeFeeds, broker *fakeBroker) *Crawler {
	c := NewCrawler(CrawlerDeps{
		Sources:        sources,
		Items:          items,
		Feeds:          feeds,
		Broker:         broker,
		Logger:         discardLogger(),
		ClassifyQueue:  "classify",
		StaleThreshold: 30 * time.Minute,
		RequestsPerSec: 1000,
	})
	c.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestCrawlQueuesNewItems(t *testing.T) {
	t.Parallel()

	sources := &fakeSourceStore{}
	items := &fakeItemStore{}
	broker := &fakeBroker{}
	feeds := &fakeFeeds{entries: []ports.FeedEntry{
		{Title: "first story", Link: "https://example.com/1", PublishedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Title: "second story", Link: "https://example.com/2", PublishedAt: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)},
	}}
	c := newTestCrawler(sources, items, feeds, broker)

	source := domain.Source{ID: 4, Name: "example", URL: "https://example.com/rss"}
	n, err := c.Crawl(context.Background(), source)
	if err != nil {
		t.Fatalf("Crawl returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 new items, got %d", n)
	}

	if len(sources.crawling) != 1 || sources.crawling[0] != 4 {
		t.Fatalf("pending flag not raised before fetch: %v", sources.crawling)
	}
	if len(sources.crawled) != 1 || sources.crawled[0] != 4 {
		t.Fatalf("pending flag not cleared after success: %v", sources.crawled)
	}

	if len(items.saved) != 2 {
		t.Fatalf("expected 2 saved items, got %d", len(items.saved))
	}
	saved := items.saved[0]
	if saved.SourceID != 4 || saved.Score != nil || saved.Published {
		t.Fatalf("new item must start unscored and unpublished: %+v", saved)
	}

	if len(broker.messages) != 2 {
		t.Fatalf("expected 2 queued messages, got %d", len(broker.messages))
	}
	msg := broker.messages[0]
	if msg.queue != "classify" {
		t.Fatalf("published to wrong queue: %s", msg.queue)
	}
	selfTrain, err := selfTrainFromHeaders(msg.headers)
	if err != nil {
		t.Fatalf("queued message misses self-train header: %v", err)
	}
	if selfTrain {
		t.Fatal("crawled items must carry self-train=false")
	}

	decoded, err := decodeItem(msg.body)
	if err != nil {
		t.Fatalf("queued body does not decode: %v", err)
	}
	if decoded.ID != items.saved[0].ID || decoded.Title != "first story" {
		t.Fatalf("queued envelope does not match stored item: %+v", decoded)
	}
}

func TestCrawlSkipsRecentDuplicates(t *testing.T) {
	t.Parallel()

	sources := &fakeSourceStore{}
	items := &fakeItemStore{existing: map[string]bool{"seen before/4": true}}
	broker := &fakeBroker{}
	feeds := &fakeFeeds{entries: []ports.FeedEntry{
		{Title: "seen before", PublishedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{Title: "brand new", PublishedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
	}}
	c := newTestCrawler(sources, items, feeds, broker)

	n, err := c.Crawl(context.Background(), domain.Source{ID: 4, Name: "example"})
	if err != nil {
		t.Fatalf("Crawl returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 new item, got %d", n)
	}
	if len(items.saved) != 1 || items.saved[0].Title != "brand new" {
		t.Fatalf("duplicate was not skipped: %+v", items.saved)
	}
}

func TestCrawlFetchFailureLeavesPendingRaised(t *testing.T) {
	t.Parallel()

	sources := &fakeSourceStore{}
	feeds := &fakeFeeds{err: errors.New("connection refused")}
	c := newTestCrawler(sources, &fakeItemStore{}, feeds, &fakeBroker{})

	_, err := c.Crawl(context.Background(), domain.Source{ID: 7, Name: "down"})
	if err == nil {
		t.Fatal("expected error from failed fetch")
	}

	if len(sources.crawling) != 1 {
		t.Fatalf("pending flag must be raised before fetch: %v", sources.crawling)
	}
	if len(sources.crawled) != 0 {
		t.Fatal("failed crawl must leave the pending flag raised")
	}
}

func TestCrawlPassSkipsPendingSources(t *testing.T) {
	t.Parallel()

	recent := time.Date(2024, 3, 1, 11, 50, 0, 0, time.UTC)
	stuck := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sources := &fakeSourceStore{sources: []domain.Source{
		{ID: 1, Name: "idle", URL: "https://a/rss", Pending: false, LastCrawlAt: &recent},
		{ID: 2, Name: "busy", URL: "https://b/rss", Pending: true, LastCrawlAt: &recent},
		{ID: 3, Name: "stuck", URL: "https://c/rss", Pending: true, LastCrawlAt: &stuck},
	}}
	feeds := &fakeFeeds{}
	c := newTestCrawler(sources, &fakeItemStore{}, feeds, &fakeBroker{})

	if err := c.CrawlPass(context.Background(), ""); err != nil {
		t.Fatalf("CrawlPass returned error: %v", err)
	}

	if len(feeds.fetched) != 2 {
		t.Fatalf("expected 2 fetches, got %v", feeds.fetched)
	}
	if feeds.fetched[0] != "https://a/rss" || feeds.fetched[1] != "https://c/rss" {
		t.Fatalf("wrong sources crawled: %v", feeds.fetched)
	}
}

func TestCrawlPassByName(t *testing.T) {
	t.Parallel()

	sources := &fakeSourceStore{sources: []domain.Source{
		{ID: 1, Name: "alpha", URL: "https://a/rss"},
		{ID: 2, Name: "beta", URL: "https://b/rss"},
	}}
	feeds := &fakeFeeds{}
	broker := &fakeBroker{}
	c := newTestCrawler(sources, &fakeItemStore{}, feeds, broker)

	if err := c.CrawlPass(context.Background(), "beta"); err != nil {
		t.Fatalf("CrawlPass returned error: %v", err)
	}

	if len(feeds.fetched) != 1 || feeds.fetched[0] != "https://b/rss" {
		t.Fatalf("expected only beta crawled, got %v", feeds.fetched)
	}
	if len(broker.declared) != 1 || broker.declared[0] != "classify" {
		t.Fatalf("classify queue not declared: %v", broker.declared)
	}
}

func TestCrawlPassNoSources(t *testing.T) {
	t.Parallel()

	feeds := &fakeFeeds{}
	c := newTestCrawler(&fakeSourceStore{}, &fakeItemStore{}, feeds, &fakeBroker{})

	if err := c.CrawlPass(context.Background(), "missing"); err != nil {
		t.Fatalf("CrawlPass must not fail on empty source set: %v", err)
	}
	if len(feeds.fetched) != 0 {
		t.Fatal("nothing to crawl")
	}
}
