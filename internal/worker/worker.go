package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/illegalcall/foodpost/internal/config"
	"github.com/illegalcall/foodpost/internal/models"
	"github.com/illegalcall/foodpost/internal/notify"
)

// Worker consumes post events and forwards each one to the notifier.
type Worker struct {
	cfg      *config.Config
	consumer sarama.ConsumerGroup
	notifier notify.Notifier
	logger   *slog.Logger

	mu    sync.Mutex
	ready chan bool
}

func NewWorker(cfg *config.Config, consumer sarama.ConsumerGroup, notifier notify.Notifier, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Initializing new Worker")
	return &Worker{
		cfg:      cfg,
		consumer: consumer,
		notifier: notifier,
		logger:   logger,
		ready:    make(chan bool),
	}
}

// Start consumes until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	topics := []string{w.cfg.Kafka.Topic}
	w.logger.Info("Starting worker", "topics", topics)

	// Start error logging for consumer errors
	go func() {
		for err := range w.consumer.Errors() {
			w.logger.Error("Kafka consumer error received", "error", err)
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			err := w.consumer.Consume(ctx, topics, w)
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			if ctx.Err() != nil {
				w.logger.Info("Context error detected, exiting consumer loop", "error", ctx.Err())
				return
			}
			if err != nil {
				w.logger.Error("Error from consumer.Consume", "error", err, "retry_in", w.cfg.Kafka.RetryBackoff)
				select {
				case <-ctx.Done():
					return
				case <-time.After(w.cfg.Kafka.RetryBackoff):
				}
			}
			// Reset the ready channel after a new session is created
			w.mu.Lock()
			w.ready = make(chan bool)
			w.mu.Unlock()
		}
	}()

	select {
	case <-w.readyChan():
		w.logger.Info("Worker setup complete; consumer ready")
	case <-ctx.Done():
	}

	<-ctx.Done()
	w.logger.Info("Worker shutting down gracefully")
	<-done
	return nil
}

func (w *Worker) readyChan() chan bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ready
}

// Setup is run at the beginning of a new session, before ConsumeClaim.
func (w *Worker) Setup(sarama.ConsumerGroupSession) error {
	w.logger.Info("Consumer group session setup complete")
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (w *Worker) Cleanup(sarama.ConsumerGroupSession) error {
	w.logger.Info("Consumer group session cleanup complete")
	return nil
}

// ConsumeClaim marks every message once it is handled, delivered or not.
func (w *Worker) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for message := range claim.Messages() {
		if err := w.processEvent(session.Context(), message); err != nil {
			w.logger.Error("Failed to deliver post event", "offset", message.Offset, "partition", message.Partition, "error", err)
		}
		session.MarkMessage(message, "")
	}
	return nil
}

func (w *Worker) processEvent(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var event models.PostEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Error("JSON unmarshalling failed", "error", err, "raw", string(msg.Value))
		return fmt.Errorf("failed to parse post event: %w", err)
	}

	attempts := w.cfg.Kafka.RetryMax
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = w.notifier.Notify(ctx, event)
		if err == nil {
			w.logger.Info("Post event delivered", "type", event.Type, "post_id", event.PostID, "attempt", attempt)
			return nil
		}
		if errors.Is(err, notify.ErrUnavailable) {
			break
		}
		w.logger.Warn("Post event delivery failed", "post_id", event.PostID, "attempt", attempt, "error", err)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.cfg.Kafka.RetryBackoff):
		}
	}
	return fmt.Errorf("failed to deliver %s for post %s: %w", event.Type, event.PostID, err)
}
