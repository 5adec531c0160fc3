package storage

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// NewsItemStore persists feed entries in the news_item table.
type NewsItemStore struct {
	db *sqlx.DB
}

var _ ports.NewsItemStore = (*NewsItemStore)(nil)

// NewNewsItemStore wires a sqlx.DB implementation.
func NewNewsItemStore(db *sqlx.DB) *NewsItemStore {
	return &NewsItemStore{db: db}
}

type dbNewsItem struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	URL         string    `db:"url"`
	SourceID    int64     `db:"source_id"`
	Score       *float64  `db:"score"`
	Published   bool      `db:"published"`
	AddedAt     time.Time `db:"added_at"`
}

func (n dbNewsItem) toDomain() domain.NewsItem {
	return domain.NewsItem{
		ID:          n.ID,
		Title:       n.Title,
		Description: n.Description,
		URL:         n.URL,
		SourceID:    n.SourceID,
		Score:       n.Score,
		Published:   n.Published,
		AddedAt:     n.AddedAt,
	}
}

var newsItemColumns = []string{"id", "title", "description", "url", "source_id", "score", "published", "added_at"}

// Save inserts a new item and backfills its generated ID.
func (s *NewsItemStore) Save(ctx context.Context, item *domain.NewsItem) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Insert("news_item").
		Columns("title", "description", "url", "source_id", "score", "published", "added_at").
		Values(item.Title, item.Description, item.URL, item.SourceID, item.Score, item.Published, item.AddedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build news item insert: %w", err)
	}

	if err := conn.GetContext(ctx, &item.ID, query, args...); err != nil {
		return fmt.Errorf("insert news item: %w", err)
	}
	return nil
}

// Update persists the classification outcome for an existing item.
func (s *NewsItemStore) Update(ctx context.Context, item domain.NewsItem) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Update("news_item").
		SetMap(map[string]any{
			"title":       item.Title,
			"description": item.Description,
			"url":         item.URL,
			"score":       item.Score,
			"published":   item.Published,
		}).
		Where(sq.Eq{"id": item.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build news item update: %w", err)
	}

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update news item %d: %w", item.ID, err)
	}
	return nil
}

// Exists reports whether the same (title, source) pair was already stored
// after addedAfter. This is the crawl dedup key, not a DB constraint.
func (s *NewsItemStore) Exists(ctx context.Context, title string, addedAfter time.Time, sourceID int64) (bool, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return false, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Select("COUNT(*)").From("news_item").
		Where(sq.Eq{"title": title, "source_id": sourceID}).
		Where(sq.Gt{"added_at": addedAfter}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build news item exists: %w", err)
	}

	var count int64
	if err := conn.GetContext(ctx, &count, query, args...); err != nil {
		return false, fmt.Errorf("query news item exists: %w", err)
	}
	return count > 0, nil
}

// FindNeutral returns unpublished items scored exactly 1 that have no corpus
// row at all. These act as the counterweight "neu" training class.
func (s *NewsItemStore) FindNeutral(ctx context.Context) ([]domain.NewsItem, error) {
	return s.selectItems(ctx, builder.Select(newsItemColumns...).From("news_item").
		Where(sq.Eq{"published": false}).
		Where(sq.Eq{"score": 1}).
		Where("id NOT IN (SELECT news_item_id FROM corpus)"))
}

// FindNegative returns unpublished items scored below threshold without a
// positive corpus row; these are candidates for self-training re-queue.
func (s *NewsItemStore) FindNegative(ctx context.Context, threshold float64) ([]domain.NewsItem, error) {
	return s.selectItems(ctx, builder.Select(newsItemColumns...).From("news_item").
		Where(sq.Lt{"score": threshold}).
		Where("id NOT IN (SELECT news_item_id FROM corpus WHERE positive)").
		Where(sq.Eq{"published": false}).
		OrderBy("added_at DESC"))
}

// FindUnscored returns items the classify consumer has never seen.
func (s *NewsItemStore) FindUnscored(ctx context.Context) ([]domain.NewsItem, error) {
	return s.selectItems(ctx, builder.Select(newsItemColumns...).From("news_item").
		Where("score IS NULL"))
}

func (s *NewsItemStore) selectItems(ctx context.Context, q sq.SelectBuilder) ([]domain.NewsItem, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build news item query: %w", err)
	}

	var rows []dbNewsItem
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select news items: %w", err)
	}

	return lo.Map(rows, func(row dbNewsItem, _ int) domain.NewsItem {
		return row.toDomain()
	}), nil
}

// Count returns the total number of stored items.
func (s *NewsItemStore) Count(ctx context.Context) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, _, err := builder.Select("COUNT(*)").From("news_item").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build news item count: %w", err)
	}

	var count int64
	if err := conn.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("count news items: %w", err)
	}
	return count, nil
}
