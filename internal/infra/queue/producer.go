package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LeadEvent is published after every lead write attempt, whether or not the
// record store accepted it.
type LeadEvent struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`
	Operation   string    `json:"operation"`
	ExternalID  string    `json:"external_id,omitempty"`
	FormType    string    `json:"form_type,omitempty"`
	Email       string    `json:"email"`
	Action      string    `json:"action,omitempty"`
	Score       int       `json:"score"`
	Temperature string    `json:"temperature"`
	Failed      []string  `json:"failed_channels,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type SyncRequest struct {
	Reason      string    `json:"reason"`
	RequestedAt time.Time `json:"requested_at"`
}

type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type Producer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *Producer {
	return &Producer{Ch: ch}
}

func (p *Producer) PublishLeadEvent(ctx context.Context, event LeadEvent) error {
	return p.publish(ctx, LeadRoutingKey, event)
}

func (p *Producer) PublishSyncRequest(ctx context.Context, req SyncRequest) error {
	return p.publish(ctx, SyncRoutingKey, req)
}

func (p *Producer) publish(ctx context.Context, key string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}
