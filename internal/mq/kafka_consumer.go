package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/weiawesome/thumbnail-service/internal/event"
	pkglog "github.com/weiawesome/thumbnail-service/pkg/log"
)

// KafkaConsumer implements NotificationConsumer using confluent-kafka-go.
type KafkaConsumer struct {
	consumer *kafka.Consumer
	topic    string
	handler  NotificationHandler
	doneCh   chan struct{}
	started  bool
}

// NewKafkaConsumer creates a new Kafka consumer for bucket notifications.
func NewKafkaConsumer(brokers, topic, groupID string, handler NotificationHandler) (*KafkaConsumer, error) {
	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaConsumer{
		consumer: c,
		topic:    topic,
		handler:  handler,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins consuming messages from Kafka in a background goroutine.
func (kc *KafkaConsumer) Start(ctx context.Context) error {
	if err := kc.consumer.Subscribe(kc.topic, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", kc.topic, err)
	}

	l := pkglog.L()
	l.Info().Str("topic", kc.topic).Msg("bucket notification consumer started")

	kc.started = true
	go kc.consumeLoop(ctx)

	return nil
}

func (kc *KafkaConsumer) consumeLoop(ctx context.Context) {
	l := pkglog.L()
	defer close(kc.doneCh)

	for {
		select {
		case <-ctx.Done():
			l.Info().Msg("bucket notification consumer shutting down")
			return
		default:
			msg, err := kc.consumer.ReadMessage(100 * time.Millisecond)
			if err != nil {
				var kerr kafka.Error
				if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
					continue
				}
				l.Error().Err(err).Msg("kafka consumer error")
				continue
			}
			// Detached context so in-flight processing completes after the shutdown signal.
			HandleMessage(context.WithoutCancel(ctx), kc.handler, msg.Value)
		}
	}
}

// HandleMessage decodes one notification document and hands it to handler.
// Failures are logged; the message is never redelivered.
func HandleMessage(ctx context.Context, handler NotificationHandler, value []byte) {
	l := pkglog.Ctx(ctx)

	n, err := event.Parse(value)
	if err != nil {
		if errors.Is(err, event.ErrNoRecords) {
			l.Debug().Msg("ignoring notification without records")
			return
		}
		l.Error().Err(err).Msg("failed to decode bucket notification")
		return
	}

	l.Info().Int("records", len(n.Records)).Msg("received bucket notification")

	if _, err := handler.HandleNotification(ctx, n); err != nil {
		l.Error().Err(err).Msg("failed to handle bucket notification")
	}
}

// Close waits for the consume loop to drain, then closes the Kafka client.
// The context passed to Start must already be cancelled.
func (kc *KafkaConsumer) Close() error {
	if kc.started {
		<-kc.doneCh
	}
	if err := kc.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	return nil
}
