package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// StatsDeps wires the snapshot calculation.
type StatsDeps struct {
	Sources       ports.SourceStore
	Items         ports.NewsItemStore
	Corpus        ports.CorpusStore
	Statistics    ports.StatisticStore
	Broker        ports.Broker
	Logger        *slog.Logger
	ClassifyQueue string
}

// StatsCalculator persists a snapshot of pipeline-wide counters, including
// the classify queue backlog.
type StatsCalculator struct {
	sources       ports.SourceStore
	items         ports.NewsItemStore
	corpus        ports.CorpusStore
	statistics    ports.StatisticStore
	broker        ports.Broker
	logger        *slog.Logger
	classifyQueue string
	now           func() time.Time
}

// NewStatsCalculator constructs the stats use case.
func NewStatsCalculator(deps StatsDeps) *StatsCalculator {
	return &StatsCalculator{
		sources:       deps.Sources,
		items:         deps.Items,
		corpus:        deps.Corpus,
		statistics:    deps.Statistics,
		broker:        deps.Broker,
		logger:        deps.Logger,
		classifyQueue: deps.ClassifyQueue,
		now:           time.Now,
	}
}

// Calculate gathers the counters and stores one Statistic row.
func (s *StatsCalculator) Calculate(ctx context.Context) error {
	s.logger.Info("pre-calculating stats")

	newsItems, err := s.items.Count(ctx)
	if err != nil {
		return fmt.Errorf("count news items: %w", err)
	}

	corpora, err := s.corpus.CountActive(ctx)
	if err != nil {
		return fmt.Errorf("count corpora: %w", err)
	}

	sources, err := s.sources.Count(ctx)
	if err != nil {
		return fmt.Errorf("count sources: %w", err)
	}

	if err := s.broker.Declare(ctx, s.classifyQueue); err != nil {
		return fmt.Errorf("declare classify queue: %w", err)
	}
	pending, err := s.broker.Pending(ctx, s.classifyQueue)
	if err != nil {
		return fmt.Errorf("pending classify count: %w", err)
	}

	stat := domain.Statistic{
		NewsItemsCount:       newsItems,
		CorporaCount:         corpora,
		SourcesCount:         sources,
		PendingClassifyCount: pending,
		CreatedAt:            s.now(),
	}
	if err := s.statistics.Save(ctx, &stat); err != nil {
		return fmt.Errorf("save statistic: %w", err)
	}

	s.logger.Info("stats pre-calculated", "news_items", newsItems, "corpora", corpora, "sources", sources, "pending_classify", pending)
	return nil
}
