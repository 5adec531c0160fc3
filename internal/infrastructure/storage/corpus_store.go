package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/samber/lo"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// CorpusStore persists labeled training examples in the corpus table.
type CorpusStore struct {
	db *sqlx.DB
}

var _ ports.CorpusStore = (*CorpusStore)(nil)

// NewCorpusStore wires a sqlx.DB implementation.
func NewCorpusStore(db *sqlx.DB) *CorpusStore {
	return &CorpusStore{db: db}
}

// Save inserts a new corpus row and backfills its generated ID.
func (s *CorpusStore) Save(ctx context.Context, corpus *domain.Corpus) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Insert("corpus").
		Columns("news_item_id", "positive", "active", "added_at").
		Values(corpus.NewsItemID, corpus.Positive, corpus.Active, corpus.AddedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build corpus insert: %w", err)
	}

	if err := conn.GetContext(ctx, &corpus.ID, query, args...); err != nil {
		return fmt.Errorf("insert corpus: %w", err)
	}
	return nil
}

type dbLabeledTitle struct {
	Title    string `db:"title"`
	Positive bool   `db:"positive"`
}

// ActiveWithTitles returns every active corpus row joined with its item title,
// ready to become training input.
func (s *CorpusStore) ActiveWithTitles(ctx context.Context) ([]ports.LabeledTitle, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Select("n.title", "c.positive").
		From("corpus c").
		Join("news_item n ON n.id = c.news_item_id").
		Where(sq.Eq{"c.active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build corpus query: %w", err)
	}

	var rows []dbLabeledTitle
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select corpus titles: %w", err)
	}

	return lo.Map(rows, func(row dbLabeledTitle, _ int) ports.LabeledTitle {
		label := domain.LabelNegative
		if row.Positive {
			label = domain.LabelPositive
		}
		return ports.LabeledTitle{Title: row.Title, Label: label}
	}), nil
}

// CountActive returns the number of corpus rows that take part in training.
func (s *CorpusStore) CountActive(ctx context.Context) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Select("COUNT(*)").From("corpus").Where(sq.Eq{"active": true}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build corpus count: %w", err)
	}

	var count int64
	if err := conn.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count corpus: %w", err)
	}
	return count, nil
}
