package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"SentiFeed/internal/classifier"
	"SentiFeed/internal/domain"
	"SentiFeed/internal/metrics"
	"SentiFeed/internal/ports"
)

// ClassifyDeps wires all driven adapters into the classification service.
type ClassifyDeps struct {
	Items           ports.NewsItemStore
	Corpus          ports.CorpusStore
	Broker          ports.Broker
	Trainer         ports.Trainer
	Metrics         *metrics.Collector
	Logger          *slog.Logger
	ClassifyQueue   string
	TrainQueue      string
	AutoPublish     bool
	SnapshotPath    string
	NotReadyBackoff time.Duration
}

// ClassifyService runs the two consumer workers: one draining the classify
// queue, one draining the train queue. The live model is the only state the
// workers share; the train worker replaces it wholesale through an atomic
// pointer swap and the classify worker only ever reads it.
type ClassifyService struct {
	items           ports.NewsItemStore
	corpus          ports.CorpusStore
	broker          ports.Broker
	trainer         ports.Trainer
	metrics         *metrics.Collector
	logger          *slog.Logger
	publishHandler  ResultHandler
	corpusHandler   ResultHandler
	classifyQueue   string
	trainQueue      string
	snapshotPath    string
	notReadyBackoff time.Duration
	sleep           func(time.Duration)

	model atomic.Pointer[ports.Model]
}

// NewClassifyService constructs the service; call Initialize before Run.
func NewClassifyService(deps ClassifyDeps) *ClassifyService {
	backoff := deps.NotReadyBackoff
	if backoff <= 0 {
		backoff = 10 * time.Second
	}
	return &ClassifyService{
		items:           deps.Items,
		corpus:          deps.Corpus,
		broker:          deps.Broker,
		trainer:         deps.Trainer,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		publishHandler:  NewPublishHandler(deps.Items, deps.AutoPublish),
		corpusHandler:   NewCorpusHandler(deps.Corpus),
		classifyQueue:   deps.ClassifyQueue,
		trainQueue:      deps.TrainQueue,
		snapshotPath:    deps.SnapshotPath,
		notReadyBackoff: backoff,
		sleep:           time.Sleep,
	}
}

// Initialize obtains the initial model: a readable snapshot wins, otherwise a
// full training pass. There is nothing to serve without a model, so failure
// here is fatal to the caller.
func (s *ClassifyService) Initialize(ctx context.Context) error {
	if s.snapshotPath != "" {
		if model, err := s.trainer.LoadSnapshot(s.snapshotPath); err == nil {
			s.model.Store(&model)
			s.logger.Info("classifier restored from snapshot", "path", s.snapshotPath)
			return nil
		} else {
			s.logger.Warn("snapshot unusable, retraining", "path", s.snapshotPath, "error", err)
		}
	}

	s.logger.Info("training classifier")
	model, err := s.train(ctx)
	if err != nil {
		return fmt.Errorf("initial training: %w", err)
	}
	s.model.Store(&model)
	s.logger.Info("classifier is ready")
	return nil
}

// Run declares both queues and blocks while the two workers drain them. A
// worker that loses its broker connection logs the error and ends; restart is
// an operational concern.
func (s *ClassifyService) Run(ctx context.Context) error {
	for _, queue := range []string{s.classifyQueue, s.trainQueue} {
		if err := s.broker.Declare(ctx, queue); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		err := s.broker.Consume(ctx, s.classifyQueue, func(d ports.Delivery) ports.Receipt {
			return s.onClassify(ctx, d)
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Error("classify consumer stopped", "error", err)
		}
	}()

	go func() {
		defer wg.Done()
		err := s.broker.Consume(ctx, s.trainQueue, func(d ports.Delivery) ports.Receipt {
			return s.onTrain(ctx, d)
		})
		if err != nil && ctx.Err() == nil {
			s.logger.Error("train consumer stopped", "error", err)
		}
	}()

	wg.Wait()
	return ctx.Err()
}

// onClassify processes one classify delivery. Every failure path rejects the
// message and lets the broker redeliver; persisted state is only touched by
// the selected handler, so a rejected message leaves the item as it was.
func (s *ClassifyService) onClassify(ctx context.Context, d ports.Delivery) ports.Receipt {
	modelRef := s.model.Load()
	if modelRef == nil {
		s.logger.Warn("classifier not ready")
		if s.metrics != nil {
			s.metrics.RecordReject()
		}
		// Throttle the busy-nack loop while the train worker rebuilds the
		// model; redelivery re-attempts once the backoff elapses.
		s.sleep(s.notReadyBackoff)
		return ports.Rejected("classifier not ready")
	}

	item, err := decodeItem(d.Body)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordReject()
		}
		return ports.Rejected(err.Error())
	}

	selfTrain, err := selfTrainFromHeaders(d.Headers)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordReject()
		}
		return ports.Rejected(err.Error())
	}

	s.logger.Info("classifying", "item", item.ID)
	label := (*modelRef).Classify(item.Title)

	handler := s.publishHandler
	if selfTrain {
		handler = s.corpusHandler
	}
	if err := handler.Apply(ctx, item, label); err != nil {
		if s.metrics != nil {
			s.metrics.RecordReject()
		}
		return ports.Rejected(fmt.Sprintf("apply classification to item %d: %v", item.ID, err))
	}

	if s.metrics != nil {
		s.metrics.RecordClassified(string(label))
	}
	s.logger.Info("classified", "item", item.ID, "title", item.Title, "label", label)
	return ports.Acked()
}

// onTrain handles one retrain trigger. The queue is purged first so a backlog
// of rapid triggers coalesces into this single pass, then the live model is
// dropped (classify rejects until the swap) and rebuilt. A failed retrain
// leaves the model absent until the next trigger; it never stops the worker.
func (s *ClassifyService) onTrain(ctx context.Context, _ ports.Delivery) ports.Receipt {
	if err := s.broker.Purge(ctx, s.trainQueue); err != nil {
		s.logger.Error("purge train queue", "error", err)
	}

	s.model.Store(nil)
	s.logger.Info("retraining classifier")

	model, err := s.train(ctx)
	if err != nil {
		s.logger.Error("retraining failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordRetrainFailure()
		}
		return ports.Acked()
	}

	s.model.Store(&model)
	if s.metrics != nil {
		s.metrics.RecordRetrain()
	}
	s.logger.Info("retraining finished")
	return ports.Acked()
}

// train assembles the training set, fits a fresh model and refreshes the
// snapshot file when one is configured.
func (s *ClassifyService) train(ctx context.Context) (ports.Model, error) {
	pairs, err := s.buildTrainingSet(ctx)
	if err != nil {
		return nil, err
	}

	model, err := s.trainer.Train(pairs)
	if err != nil {
		return nil, err
	}

	if s.snapshotPath != "" {
		if err := s.trainer.SaveSnapshot(model, s.snapshotPath); err != nil {
			s.logger.Warn("snapshot write failed", "path", s.snapshotPath, "error", err)
		}
	}

	return model, nil
}

// buildTrainingSet turns curated corpus rows into pos/neg pairs and adds the
// unresolved once-positive items as a third "neu" class so they act as a
// counterweight instead of reinforcing pos/neg. Exact duplicate pairs are
// collapsed and the result is shuffled so the trainer never sees storage
// order.
func (s *ClassifyService) buildTrainingSet(ctx context.Context) ([]ports.TrainingPair, error) {
	labeled, err := s.corpus.ActiveWithTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	neutral, err := s.items.FindNeutral(ctx)
	if err != nil {
		return nil, fmt.Errorf("load neutral items: %w", err)
	}

	seen := map[ports.TrainingPair]struct{}{}
	var pairs []ports.TrainingPair

	add := func(pair ports.TrainingPair) {
		if _, ok := seen[pair]; ok {
			return
		}
		seen[pair] = struct{}{}
		pairs = append(pairs, pair)
	}

	for _, row := range labeled {
		add(ports.TrainingPair{Text: classifier.StripStopwords(row.Title), Label: row.Label})
	}
	for _, item := range neutral {
		add(ports.TrainingPair{Text: classifier.StripStopwords(item.Title), Label: domain.LabelNeutral})
	}

	rand.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})

	return pairs, nil
}
