package domain

import "time"

// Label is a sentiment classification produced by the classifier engine.
type Label string

const (
	LabelPositive Label = "pos"
	LabelNegative Label = "neg"
	LabelNeutral  Label = "neu"
)

// Source is a crawl target holding an RSS/Atom feed URL.
type Source struct {
	ID          int64
	Name        string
	URL         string
	Homepage    string
	LastCrawlAt *time.Time
	Pending     bool
	Active      bool
}

// IsStale reports whether a source stuck in pending state may be re-crawled.
// A pending source with no recorded crawl at all counts as stale immediately,
// otherwise the configured threshold since the last crawl must have elapsed.
func (s Source) IsStale(now time.Time, threshold time.Duration) bool {
	if !s.Pending {
		return false
	}
	if s.LastCrawlAt == nil {
		return true
	}
	return now.Sub(*s.LastCrawlAt) >= threshold
}

// Crawlable reports whether the scheduling pass should pick this source up.
func (s Source) Crawlable(now time.Time, threshold time.Duration) bool {
	return !s.Pending || s.IsStale(now, threshold)
}

// NewsItem is a single feed entry persisted for classification.
// Score is nil until the classify consumer has seen the item.
type NewsItem struct {
	ID          int64
	Title       string
	Description string
	URL         string
	SourceID    int64
	Score       *float64
	Published   bool
	AddedAt     time.Time
}

// Corpus is a labeled training example, independent of the automatic score.
// Inactive rows are excluded from training (soft delete for curation).
type Corpus struct {
	ID         int64
	NewsItemID int64
	Positive   bool
	Active     bool
	AddedAt    time.Time
}

// Classification maps the stored polarity flag onto a classifier label.
func (c Corpus) Classification() Label {
	if c.Positive {
		return LabelPositive
	}
	return LabelNegative
}

// Statistic is a periodic snapshot of pipeline-wide counters.
type Statistic struct {
	ID                   int64
	NewsItemsCount       int64
	CorporaCount         int64
	SourcesCount         int64
	PendingClassifyCount int64
	CreatedAt            time.Time
}
