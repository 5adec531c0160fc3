package usecase

import (
	"context"
	"time"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// ResultHandler applies a classification outcome to persisted state. The two
// implementations are selected per message by the self-train header.
type ResultHandler interface {
	Apply(ctx context.Context, item domain.NewsItem, label domain.Label) error
}

// PublishHandler is the normal flow: record the score and, when auto-publish
// is enabled, release positively classified items.
type PublishHandler struct {
	items       ports.NewsItemStore
	autoPublish bool
}

var _ ResultHandler = (*PublishHandler)(nil)

// NewPublishHandler wires the item store and the auto-publish policy flag.
func NewPublishHandler(items ports.NewsItemStore, autoPublish bool) *PublishHandler {
	return &PublishHandler{items: items, autoPublish: autoPublish}
}

// Apply sets score 1 for "pos" and 0 otherwise. Published is reset to false
// and only raised again for "pos" under auto-publish; a negative
// classification never publishes regardless of the flag. Re-running on a
// redelivered message writes the same values, so the update is idempotent.
func (h *PublishHandler) Apply(ctx context.Context, item domain.NewsItem, label domain.Label) error {
	score := 0.0
	if label == domain.LabelPositive {
		score = 1.0
	}
	item.Score = &score
	item.Published = false
	if h.autoPublish && label == domain.LabelPositive {
		item.Published = true
	}
	return h.items.Update(ctx, item)
}

// CorpusHandler is the self-training flow: a positive classification seeds a
// new inactive corpus row pending human curation. Negative classifications
// are deliberately ignored on this path.
type CorpusHandler struct {
	corpus ports.CorpusStore
	now    func() time.Time
}

var _ ResultHandler = (*CorpusHandler)(nil)

// NewCorpusHandler wires the corpus store.
func NewCorpusHandler(corpus ports.CorpusStore) *CorpusHandler {
	return &CorpusHandler{corpus: corpus, now: time.Now}
}

// Apply creates the inactive positive corpus row for "pos"; anything else is
// a no-op.
func (h *CorpusHandler) Apply(ctx context.Context, item domain.NewsItem, label domain.Label) error {
	if label != domain.LabelPositive {
		return nil
	}
	corpus := domain.Corpus{
		NewsItemID: item.ID,
		Positive:   true,
		Active:     false,
		AddedAt:    h.now(),
	}
	return h.corpus.Save(ctx, &corpus)
}
