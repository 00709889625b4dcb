package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// SyncFunc runs one portfolio synchronization.
type SyncFunc func(ctx context.Context) error

// Worker consumes portfolio sync requests so a CMS webhook or a cron job can
// trigger a refresh without calling the HTTP API.
type Worker struct {
	Channel *amqp.Channel
	Sync    SyncFunc
}

func NewWorker(ch *amqp.Channel, sync SyncFunc) *Worker {
	return &Worker{Channel: ch, Sync: sync}
}

func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.Channel.Consume(
		SyncQueue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("register consumer: %w", err)
	}

	slog.Info("worker waiting", slog.String("queue", SyncQueue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

// Acknowledger is the part of amqp.Delivery the worker needs.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	w.process(ctx, d.Body, &d)
}

func (w *Worker) process(ctx context.Context, body []byte, ack Acknowledger) {
	var req SyncRequest
	if err := json.Unmarshal(body, &req); err != nil {
		slog.Error("invalid sync request", slog.String("error", err.Error()))
		ack.Nack(false, false)
		return
	}

	slog.Info("sync requested", slog.String("reason", req.Reason))
	if err := w.Sync(ctx); err != nil {
		slog.Error("queued sync failed", slog.String("error", err.Error()))
		ack.Nack(false, false)
		return
	}
	ack.Ack(false)
}
