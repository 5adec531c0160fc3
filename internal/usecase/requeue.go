package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"SentiFeed/internal/domain"
	"SentiFeed/internal/ports"
)

// RequeueDeps wires the batch re-queue operations.
type RequeueDeps struct {
	Items             ports.NewsItemStore
	Broker            ports.Broker
	Logger            *slog.Logger
	ClassifyQueue     string
	PolarityThreshold float64
}

// Requeuer republishes stored items onto the classify queue: items that never
// got a score (normal flow) and previously negative items (self-training).
type Requeuer struct {
	items         ports.NewsItemStore
	broker        ports.Broker
	logger        *slog.Logger
	classifyQueue string
	threshold     float64
}

// NewRequeuer constructs the batch re-queue use case.
func NewRequeuer(deps RequeueDeps) *Requeuer {
	return &Requeuer{
		items:         deps.Items,
		broker:        deps.Broker,
		logger:        deps.Logger,
		classifyQueue: deps.ClassifyQueue,
		threshold:     deps.PolarityThreshold,
	}
}

// RequeueUnscored publishes every item with no score for classification.
func (r *Requeuer) RequeueUnscored(ctx context.Context) (int, error) {
	items, err := r.items.FindUnscored(ctx)
	if err != nil {
		return 0, fmt.Errorf("load unscored items: %w", err)
	}
	if len(items) == 0 {
		r.logger.Info("all news items are already classified")
		return 0, nil
	}

	r.logger.Info("re-queueing unscored items", "count", len(items))
	return r.publish(ctx, items, false)
}

// RequeueNegative publishes previously negative items back for classification
// with the self-train header, so positive re-classifications seed new corpus
// rows instead of publish flags.
func (r *Requeuer) RequeueNegative(ctx context.Context) (int, error) {
	items, err := r.items.FindNegative(ctx, r.threshold)
	if err != nil {
		return 0, fmt.Errorf("load negative items: %w", err)
	}
	if len(items) == 0 {
		r.logger.Info("no news items found")
		return 0, nil
	}

	r.logger.Info("re-queueing negative items for self-training", "count", len(items))
	return r.publish(ctx, items, true)
}

func (r *Requeuer) publish(ctx context.Context, items []domain.NewsItem, selfTrain bool) (int, error) {
	if err := r.broker.Declare(ctx, r.classifyQueue); err != nil {
		return 0, fmt.Errorf("declare classify queue: %w", err)
	}

	published := 0
	for _, item := range items {
		body, err := encodeItem(item)
		if err != nil {
			return published, fmt.Errorf("encode item %d: %w", item.ID, err)
		}
		if err := r.broker.Publish(ctx, r.classifyQueue, body, selfTrainHeaders(selfTrain)); err != nil {
			return published, fmt.Errorf("queue item %d: %w", item.ID, err)
		}
		published++
		r.logger.Info("re-queued", "item", item.ID, "title", item.Title)
	}

	return published, nil
}
