package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// StatisticStore persists pipeline snapshots in the statistics table.
type StatisticStore struct {
	db *sqlx.DB
}

var _ ports.StatisticStore = (*StatisticStore)(nil)

// NewStatisticStore wires a sqlx.DB implementation.
func NewStatisticStore(db *sqlx.DB) *StatisticStore {
	return &StatisticStore{db: db}
}

// Save inserts a new snapshot row and backfills its generated ID.
func (s *StatisticStore) Save(ctx context.Context, stat *domain.Statistic) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Insert("statistics").
		Columns("news_items_count", "corpora_count", "sources_count", "pending_classify_count", "created_at").
		Values(stat.NewsItemsCount, stat.CorporaCount, stat.SourcesCount, stat.PendingClassifyCount, stat.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build statistic insert: %w", err)
	}

	if err := conn.GetContext(ctx, &stat.ID, query, args...); err != nil {
		return fmt.Errorf("insert statistic: %w", err)
	}
	return nil
}
