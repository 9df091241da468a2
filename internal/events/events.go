package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventSaleRegistered = "SaleRegistered"
	EventSaleCancelled  = "SaleCancelled"
)

const (
	TopicSaleRegistered = "sale.registered"
	TopicSaleCancelled  = "sale.cancelled"
)

const envelopeVersion = 1

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

func NewEnvelope(eventType, producer, correlationID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: correlationID,
		Payload:       raw,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}

type LineQty struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type SaleRegisteredPayload struct {
	SaleID        int64           `json:"sale_id"`
	Total         decimal.Decimal `json:"total"`
	Change        decimal.Decimal `json:"change"`
	PaymentMethod string          `json:"payment_method"`
	Lines         []LineQty       `json:"lines"`
}

type SaleCancelledPayload struct {
	SaleID   int64     `json:"sale_id"`
	Restored []LineQty `json:"restored"`
}

// Publisher delivers envelopes to a topic. Key selects the partition.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, env Envelope) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _, _ string, _ Envelope) error {
	return nil
}
