package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/google/uuid"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	orderPlacedEventVersion = 1
)

// Envelope — общий конверт событий в топике заказов.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // id заказа
	Payload       json.RawMessage `json:"payload"`
}

// NewOrderPlacedEnvelope упаковывает событие заказа в конверт.
func NewOrderPlacedEnvelope(event *domain.OrderPlaced, producer string, now time.Time) (*Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return &Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderPlaced,
		EventVersion:  orderPlacedEventVersion,
		OccurredAt:    now.UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(event.OrderID, 10),
		Payload:       payload,
	}, nil
}
