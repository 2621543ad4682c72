package queue

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/leadflow/internal/usecase"
)

// FallbackMessage is the queued form of a fallback payload. The target URL
// travels with it since the payload itself never serializes it.
type FallbackMessage struct {
	WebhookURL string                  `json:"webhook_url"`
	Payload    usecase.FallbackPayload `json:"payload"`
}

// Publisher is the part of *amqp.Channel the producer needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// FallbackQueue hands undelivered leads to RabbitMQ; the worker posts them.
type FallbackQueue struct {
	Ch Publisher
}

func NewFallbackQueue(ch Publisher) *FallbackQueue {
	return &FallbackQueue{Ch: ch}
}

func (q *FallbackQueue) Dispatch(ctx context.Context, payload usecase.FallbackPayload) error {
	body, err := json.Marshal(FallbackMessage{WebhookURL: payload.WebhookURL, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal fallback message: %w", err)
	}

	err = q.Ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.LeadID,
		},
	)
	if err != nil {
		return fmt.Errorf("publish fallback: %w", err)
	}
	return nil
}
