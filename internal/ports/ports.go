package ports

import (
	"context"
	"time"

	"SentiFeed/internal/domain"
)

// SourceStore persists crawl targets and their cadence state.
type SourceStore interface {
	Active(ctx context.Context) ([]domain.Source, error)
	ByName(ctx context.Context, name string) ([]domain.Source, error)
	MarkCrawling(ctx context.Context, id int64) error
	MarkCrawled(ctx context.Context, id int64, at time.Time) error
	Count(ctx context.Context) (int64, error)
}

// NewsItemStore persists feed entries and the domain queries the pipeline needs.
type NewsItemStore interface {
	Save(ctx context.Context, item *domain.NewsItem) error
	Update(ctx context.Context, item domain.NewsItem) error
	Exists(ctx context.Context, title string, addedAfter time.Time, sourceID int64) (bool, error)
	// FindNeutral returns unpublished items scored exactly 1 with no corpus row.
	FindNeutral(ctx context.Context) ([]domain.NewsItem, error)
	// FindNegative returns unpublished items below threshold with no positive corpus row.
	FindNegative(ctx context.Context, threshold float64) ([]domain.NewsItem, error)
	FindUnscored(ctx context.Context) ([]domain.NewsItem, error)
	Count(ctx context.Context) (int64, error)
}

// CorpusStore persists labeled training examples.
type CorpusStore interface {
	Save(ctx context.Context, corpus *domain.Corpus) error
	// ActiveWithTitles returns every active corpus row joined with its news item title.
	ActiveWithTitles(ctx context.Context) ([]LabeledTitle, error)
	CountActive(ctx context.Context) (int64, error)
}

// LabeledTitle pairs a news item title with its curated classification.
type LabeledTitle struct {
	Title string
	Label domain.Label
}

// StatisticStore persists periodic pipeline snapshots.
type StatisticStore interface {
	Save(ctx context.Context, stat *domain.Statistic) error
}

// Delivery is one message handed to a consumer callback.
type Delivery struct {
	Body    []byte
	Headers map[string]string
}

// Receipt tells the consumer loop what to do with a delivery. A rejected
// delivery is returned to the broker for redelivery; Reason is logged.
type Receipt struct {
	Ack    bool
	Reason string
}

// Acked builds a positive receipt.
func Acked() Receipt { return Receipt{Ack: true} }

// Rejected builds a negative receipt with the reason to log.
func Rejected(reason string) Receipt { return Receipt{Reason: reason} }

// Broker is a durable queue service with manual acknowledgement and
// one-at-a-time delivery per consumer.
type Broker interface {
	Declare(ctx context.Context, queue string) error
	Publish(ctx context.Context, queue string, body []byte, headers map[string]string) error
	// Consume blocks, delivering messages one by one until ctx is done or the
	// connection fails. The callback's receipt drives ack/nack.
	Consume(ctx context.Context, queue string, fn func(Delivery) Receipt) error
	Purge(ctx context.Context, queue string) error
	Pending(ctx context.Context, queue string) (int64, error)
}

// FeedSource fetches and normalizes one feed's entries.
type FeedSource interface {
	Fetch(ctx context.Context, url string) ([]FeedEntry, error)
}

// FeedEntry is a normalized feed entry; PublishedAt is already resolved
// through the published -> updated -> now fallback chain.
type FeedEntry struct {
	Title       string
	Description string
	Link        string
	PublishedAt time.Time
}

// Model is an opaque trained classifier.
type Model interface {
	Classify(text string) domain.Label
}

// Trainer builds models from labeled examples and round-trips snapshots.
type Trainer interface {
	Train(examples []TrainingPair) (Model, error)
	LoadSnapshot(path string) (Model, error)
	SaveSnapshot(model Model, path string) error
}

// TrainingPair is one (text, label) example fed to the trainer.
type TrainingPair struct {
	Text  string
	Label domain.Label
}

// Scheduler controls when the crawl pass executes.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
