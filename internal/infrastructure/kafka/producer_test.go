package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/segmentio/kafka-go"
)

type captureWriter struct {
	msgs []kafka.Message
	err  error
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error { return nil }

func TestPublishOrderPlacedEnvelope(t *testing.T) {
	w := &captureWriter{}
	p := newProducer(w, logger.NewNopLogger(), &cfg.KafkaCfg{Topic: "orders.placed", Producer: "storefront"})
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	handle := "alice"
	event := &domain.OrderPlaced{
		OrderID:         42,
		PurchaserID:     "1001",
		PurchaserHandle: &handle,
		Total:           1100,
		Lines:           []domain.OrderPlacedLine{{ProductID: 7, Title: "Tea", Qty: 2, UnitPrice: 550}},
		CreatedAt:       fixed,
	}

	if err := p.PublishOrderPlaced(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "42" {
		t.Fatalf("unexpected key %q", w.msgs[0].Key)
	}

	var env Envelope
	if err := json.Unmarshal(w.msgs[0].Value, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.EventType != EventOrderPlaced || env.EventVersion != 1 || env.Producer != "storefront" ||
		env.CorrelationID != "42" || env.EventID == "" || !env.OccurredAt.Equal(fixed) {
		t.Fatalf("unexpected envelope %+v", env)
	}

	var payload domain.OrderPlaced
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Total != 1100 || len(payload.Lines) != 1 || payload.Lines[0].UnitPrice != 550 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPublishOrderPlacedWriteError(t *testing.T) {
	boom := errors.New("broker down")
	p := newProducer(&captureWriter{err: boom}, logger.NewNopLogger(), &cfg.KafkaCfg{Producer: "storefront"})

	if err := p.PublishOrderPlaced(context.Background(), &domain.OrderPlaced{OrderID: 1}); !errors.Is(err, boom) {
		t.Fatalf("expected broker error, got %v", err)
	}
}
