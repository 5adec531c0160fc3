package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"SentiFeed/internal/ports"
)

// Queues is a JetStream-backed implementation of ports.Broker. Each queue is
// a file-backed work-queue stream with a single durable consumer limited to
// one unacknowledged message at a time, so processing per queue is strictly
// sequential.
type Queues struct {
	url    string
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *slog.Logger
}

var _ ports.Broker = (*Queues)(nil)

// Connect dials the broker and prepares the JetStream context used for
// publishing and queue management. Consumers dial their own connections.
func Connect(url string, logger *slog.Logger) (*Queues, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	return &Queues{url: url, nc: nc, js: js, logger: logger}, nil
}

// Close releases the management connection.
func (q *Queues) Close() {
	if q.nc != nil {
		q.nc.Close()
	}
}

// Declare creates (or updates) the durable stream behind a queue.
func (q *Queues) Declare(ctx context.Context, queue string) error {
	_, err := q.js.CreateOrUpdateStream(ctx, streamConfig(queue))
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}
	return nil
}

// Publish sends a persistent message to the queue.
func (q *Queues) Publish(ctx context.Context, queue string, body []byte, headers map[string]string) error {
	msg := &nats.Msg{
		Subject: queue,
		Data:    body,
		Header:  nats.Header{},
	}
	for key, value := range headers {
		msg.Header.Set(key, value)
	}

	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

// Consume blocks on the queue, delivering messages one at a time to fn until
// ctx is done or the connection fails. Rejected deliveries are returned to
// the broker for redelivery; a failed ack is answered with a best-effort
// nack so the message is not lost in limbo.
func (q *Queues) Consume(ctx context.Context, queue string, fn func(ports.Delivery) ports.Receipt) error {
	// Own connection per consumer loop; the two worker loops must not share
	// a transport.
	nc, err := nats.Connect(q.url)
	if err != nil {
		return fmt.Errorf("connect consumer %s: %w", queue, err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("jetstream context %s: %w", queue, err)
	}

	stream, err := js.CreateOrUpdateStream(ctx, streamConfig(queue))
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:       queue + "-worker",
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxAckPending: 1,
	})
	if err != nil {
		return fmt.Errorf("consumer %s: %w", queue, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", queue, err)
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			iter.Stop()
		case <-stop:
		}
	}()

	for {
		msg, err := iter.Next()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("receive from %s: %w", queue, err)
		}

		receipt := fn(delivery(msg))
		if receipt.Ack {
			if ackErr := msg.Ack(); ackErr != nil {
				q.logger.Error("ack failed", "queue", queue, "error", ackErr)
				if nakErr := msg.Nak(); nakErr != nil {
					q.logger.Error("nack after failed ack also failed", "queue", queue, "error", nakErr)
				}
			}
			continue
		}

		q.logger.Error("message rejected", "queue", queue, "reason", receipt.Reason)
		if nakErr := msg.Nak(); nakErr != nil {
			q.logger.Error("nack failed", "queue", queue, "error", nakErr)
		}
	}
}

// Purge drops every message currently sitting in the queue.
func (q *Queues) Purge(ctx context.Context, queue string) error {
	stream, err := q.js.Stream(ctx, streamName(queue))
	if err != nil {
		return fmt.Errorf("purge queue %s: %w", queue, err)
	}
	if err := stream.Purge(ctx); err != nil {
		return fmt.Errorf("purge queue %s: %w", queue, err)
	}
	return nil
}

// Pending returns the number of messages waiting in the queue.
func (q *Queues) Pending(ctx context.Context, queue string) (int64, error) {
	stream, err := q.js.Stream(ctx, streamName(queue))
	if err != nil {
		return 0, fmt.Errorf("inspect queue %s: %w", queue, err)
	}
	info, err := stream.Info(ctx)
	if err != nil {
		return 0, fmt.Errorf("inspect queue %s: %w", queue, err)
	}
	return int64(info.State.Msgs), nil
}

func streamConfig(queue string) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:      streamName(queue),
		Subjects:  []string{queue},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	}
}

func streamName(queue string) string {
	return strings.ToUpper(queue)
}

func delivery(msg jetstream.Msg) ports.Delivery {
	headers := map[string]string{}
	for key := range msg.Headers() {
		headers[key] = msg.Headers().Get(key)
	}
	return ports.Delivery{Body: msg.Data(), Headers: headers}
}
