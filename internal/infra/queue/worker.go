package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// WebhookPoster posts a fallback payload to an automation webhook.
type WebhookPoster interface {
	Post(ctx context.Context, webhookURL string, p usecase.FallbackPayload) error
}

// DeliveryRecorder marks leads whose fallback never reached the webhook.
type DeliveryRecorder interface {
	UpdateDelivery(ctx context.Context, companyID, leadID, status, channel string) error
}

type Worker struct {
	Channel *amqp.Channel
	Poster  WebhookPoster
	Leads   DeliveryRecorder
	Events  entity.EventPublisher
	Log     zerolog.Logger
}

func NewWorker(ch *amqp.Channel, poster WebhookPoster, leads DeliveryRecorder, events entity.EventPublisher, log zerolog.Logger) *Worker {
	return &Worker{
		Channel: ch,
		Poster:  poster,
		Leads:   leads,
		Events:  events,
		Log:     log.With().Str("component", "fallback_worker").Logger(),
	}
}

// Start consumes the fallback queue until ctx is cancelled or the channel
// closes.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.Channel.Qos(10, 0, false); err != nil {
		return fmt.Errorf("rabbitmq qos: %w", err)
	}

	msgs, err := w.Channel.ConsumeWithContext(ctx, QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	w.Log.Info().Str("queue", QueueName).Msg("📥 fallback worker waiting for messages")

	for {
		select {
		case <-ctx.Done():
			w.Log.Info().Msg("fallback worker stopped")
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("fallback queue channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks on success. Failures go to the DLQ without requeue and the
// lead is marked failed.
func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var msg FallbackMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		w.Log.Error().Err(err).Msg("❌ malformed fallback message")
		_ = d.Nack(false, false)
		return
	}

	log := w.Log.With().Str("lead_id", msg.Payload.LeadID).Str("company_id", msg.Payload.CompanyID).Logger()

	if err := w.Poster.Post(ctx, msg.WebhookURL, msg.Payload); err != nil {
		log.Error().Err(err).Msg("❌ fallback webhook failed, dead-lettering")
		w.markFailed(ctx, msg.Payload)
		_ = d.Nack(false, false)
		return
	}

	log.Info().Msg("✅ fallback delivered to automation webhook")
	_ = d.Ack(false)
}

func (w *Worker) markFailed(ctx context.Context, p usecase.FallbackPayload) {
	if p.LeadID == "" || w.Leads == nil {
		return
	}
	if err := w.Leads.UpdateDelivery(ctx, p.CompanyID, p.LeadID, entity.LeadStatusFailed, ""); err != nil {
		w.Log.Error().Err(err).Str("lead_id", p.LeadID).Msg("failed to mark lead as failed")
		return
	}
	if w.Events == nil {
		return
	}

	data, _ := json.Marshal(map[string]string{"lead_id": p.LeadID, "status": entity.LeadStatusFailed})
	err := w.Events.Publish(ctx, entity.ChangeEvent{CompanyID: p.CompanyID, Type: entity.EventLeadUpdated, Data: data})
	if err != nil {
		w.Log.Warn().Err(err).Msg("failed to publish lead update")
	}
}
