package usecase

import (
	"context"
	"fmt"
	"time"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

type fakeSourceStore struct {
	sources  []domain.Source
	crawling []int64
	crawled  []int64
	err      error
}

func (f *fakeSourceStore) Active(ctx context.Context) ([]domain.Source, error) {
	return f.sources, f.err
}

func (f *fakeSourceStore) ByName(ctx context.Context, name string) ([]domain.Source, error) {
	var out []domain.Source
	for _, s := range f.sources {
		if s.Name == name {
			out = append(out, s)
		}
	}
	return out, f.err
}

func (f *fakeSourceStore) MarkCrawling(ctx context.Context, id int64) error {
	f.crawling = append(f.crawling, id)
	return nil
}

func (f *fakeSourceStore) MarkCrawled(ctx context.Context, id int64, at time.Time) error {
	f.crawled = append(f.crawled, id)
	return nil
}

func (f *fakeSourceStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.sources)), nil
}

type fakeItemStore struct {
	saved    []domain.NewsItem
	updated  []domain.NewsItem
	existing map[string]bool
	neutral  []domain.NewsItem
	negative []domain.NewsItem
	unscored []domain.NewsItem
	saveErr  error
	updErr   error
	findErr  error
	nextID   int64
}

func (f *fakeItemStore) Save(ctx context.Context, item *domain.NewsItem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.nextID++
	item.ID = f.nextID
	f.saved = append(f.saved, *item)
	return nil
}

func (f *fakeItemStore) Update(ctx context.Context, item domain.NewsItem) error {
	if f.updErr != nil {
		return f.updErr
	}
	f.updated = append(f.updated, item)
	return nil
}

func (f *fakeItemStore) Exists(ctx context.Context, title string, addedAfter time.Time, sourceID int64) (bool, error) {
	return f.existing[fmt.Sprintf("%s/%d", title, sourceID)], nil
}

func (f *fakeItemStore) FindNeutral(ctx context.Context) ([]domain.NewsItem, error) {
	return f.neutral, f.findErr
}

func (f *fakeItemStore) FindNegative(ctx context.Context, threshold float64) ([]domain.NewsItem, error) {
	return f.negative, f.findErr
}

func (f *fakeItemStore) FindUnscored(ctx context.Context) ([]domain.NewsItem, error) {
	return f.unscored, f.findErr
}

func (f *fakeItemStore) Count(ctx context.Context) (int64, error) {
	return int64(len(f.saved)), nil
}

type fakeCorpusStore struct {
	saved   []domain.Corpus
	labeled []ports.LabeledTitle
	saveErr error
	loadErr error
}

func (f *fakeCorpusStore) Save(ctx context.Context, corpus *domain.Corpus) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	corpus.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, *corpus)
	return nil
}

func (f *fakeCorpusStore) ActiveWithTitles(ctx context.Context) ([]ports.LabeledTitle, error) {
	return f.labeled, f.loadErr
}

func (f *fakeCorpusStore) CountActive(ctx context.Context) (int64, error) {
	return int64(len(f.labeled)), nil
}

type fakeStatStore struct {
	saved []domain.Statistic
}

func (f *fakeStatStore) Save(ctx context.Context, stat *domain.Statistic) error {
	stat.ID = int64(len(f.saved) + 1)
	f.saved = append(f.saved, *stat)
	return nil
}

type published struct {
	queue   string
	body    []byte
	headers map[string]string
}

type fakeBroker struct {
	declared   []string
	messages   []published
	purged     []string
	pending    int64
	publishErr error
}

func (f *fakeBroker) Declare(ctx context.Context, queue string) error {
	f.declared = append(f.declared, queue)
	return nil
}

func (f *fakeBroker) Publish(ctx context.Context, queue string, body []byte, headers map[string]string) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.messages = append(f.messages, published{queue: queue, body: body, headers: headers})
	return nil
}

func (f *fakeBroker) Consume(ctx context.Context, queue string, fn func(ports.Delivery) ports.Receipt) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeBroker) Purge(ctx context.Context, queue string) error {
	f.purged = append(f.purged, queue)
	return nil
}

func (f *fakeBroker) Pending(ctx context.Context, queue string) (int64, error) {
	return f.pending, nil
}

type fakeFeeds struct {
	entries []ports.FeedEntry
	err     error
	fetched []string
}

func (f *fakeFeeds) Fetch(ctx context.Context, url string) ([]ports.FeedEntry, error) {
	f.fetched = append(f.fetched, url)
	return f.entries, f.err
}

// staticModel labels titles from a fixed table; unknown titles are negative.
type staticModel struct {
	labels map[string]domain.Label
}

func (m staticModel) Classify(text string) domain.Label {
	if label, ok := m.labels[text]; ok {
		return label
	}
	return domain.LabelNegative
}

type fakeTrainer struct {
	trained      [][]ports.TrainingPair
	model        ports.Model
	trainErr     error
	snapshot     ports.Model
	snapshotErr  error
	savedTo      []string
	saveSnapErr  error
	loadAttempts int
}

func (f *fakeTrainer) Train(examples []ports.TrainingPair) (ports.Model, error) {
	f.trained = append(f.trained, examples)
	if f.trainErr != nil {
		return nil, f.trainErr
	}
	return f.model, nil
}

func (f *fakeTrainer) LoadSnapshot(path string) (ports.Model, error) {
	f.loadAttempts++
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeTrainer) SaveSnapshot(model ports.Model, path string) error {
	f.savedTo = append(f.savedTo, path)
	return f.saveSnapErr
}
