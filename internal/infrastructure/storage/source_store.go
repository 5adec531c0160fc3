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

// SourceStore persists crawl targets in the source table.
type SourceStore struct {
	db *sqlx.DB
}

var _ ports.SourceStore = (*SourceStore)(nil)

// NewSourceStore wires a sqlx.DB implementation.
func NewSourceStore(db *sqlx.DB) *SourceStore {
	return &SourceStore{db: db}
}

type dbSource struct {
	ID          int64      `db:"id"`
	Name        string     `db:"name"`
	URL         string     `db:"url"`
	Homepage    string     `db:"homepage"`
	LastCrawlAt *time.Time `db:"last_crawl_at"`
	Pending     bool       `db:"pending"`
	Active      bool       `db:"active"`
}

func (s dbSource) toDomain() domain.Source {
	return domain.Source{
		ID:          s.ID,
		Name:        s.Name,
		URL:         s.URL,
		Homepage:    s.Homepage,
		LastCrawlAt: s.LastCrawlAt,
		Pending:     s.Pending,
		Active:      s.Active,
	}
}

var sourceColumns = []string{"id", "name", "url", "homepage", "last_crawl_at", "pending", "active"}

// Active returns every source eligible for scheduling.
func (s *SourceStore) Active(ctx context.Context) ([]domain.Source, error) {
	return s.selectSources(ctx, sq.Eq{"active": true})
}

// ByName returns sources with the given name (admin-entered, not unique).
func (s *SourceStore) ByName(ctx context.Context, name string) ([]domain.Source, error) {
	return s.selectSources(ctx, sq.Eq{"name": name})
}

func (s *SourceStore) selectSources(ctx context.Context, pred any) ([]domain.Source, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Select(sourceColumns...).From("source").Where(pred).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build source query: %w", err)
	}

	var rows []dbSource
	if err := conn.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select sources: %w", err)
	}

	return lo.Map(rows, func(row dbSource, _ int) domain.Source {
		return row.toDomain()
	}), nil
}

// MarkCrawling flips the pending flag before any crawl network I/O happens.
func (s *SourceStore) MarkCrawling(ctx context.Context, id int64) error {
	return s.update(ctx, id, map[string]any{"pending": true})
}

// MarkCrawled records a finished crawl and clears the pending flag.
func (s *SourceStore) MarkCrawled(ctx context.Context, id int64, at time.Time) error {
	return s.update(ctx, id, map[string]any{"pending": false, "last_crawl_at": at})
}

func (s *SourceStore) update(ctx context.Context, id int64, values map[string]any) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Update("source").SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build source update: %w", err)
	}

	if _, err := conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update source %d: %w", id, err)
	}
	return nil
}

// Count returns the number of active sources.
func (s *SourceStore) Count(ctx context.Context) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, fmt.Errorf("checkout connection: %w", err)
	}
	defer conn.Close()

	query, args, err := builder.Select("COUNT(*)").From("source").Where(sq.Eq{"active": true}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build source count: %w", err)
	}

	var count int64
	if err := conn.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count sources: %w", err)
	}
	return count, nil
}
