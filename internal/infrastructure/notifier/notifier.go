package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

const (
	ChannelKafka    = "kafka"
	ChannelTelegram = "telegram"

	OutcomeDelivered = "delivered"
	OutcomeFailed    = "failed"
)

// EventPublisher публикует событие о заказе во внешнюю шину.
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error
}

// MessageSender доставляет текст в чат оператора.
type MessageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// OperatorSource — список операторов, которым нужно слать уведомления.
type OperatorSource interface {
	ListNotifiable(ctx context.Context) ([]domain.Operator, error)
}

type Recorder interface {
	ObserveNotification(channel, outcome string)
}

// retryable реализуют ошибки, которые знают, стоит ли повторять запрос.
type retryable interface {
	Retryable() bool
}

// Notifier доставляет уведомления о заказах в фоне после коммита. Ошибки доставки только логируются.
type Notifier struct {
	publisher EventPublisher // nil, если Kafka не настроена
	sender    MessageSender  // nil, если не задан токен бота
	operators OperatorSource
	recorder  Recorder
	cfg       cfg.NotifierCfg
	logger    logger.Logger
	wg        sync.WaitGroup

	backoff func(attempt int) time.Duration
}

func NewNotifier(publisher EventPublisher, sender MessageSender, operators OperatorSource,
	recorder Recorder, cfg cfg.NotifierCfg, logger logger.Logger) *Notifier {
	n := &Notifier{
		publisher: publisher,
		sender:    sender,
		operators: operators,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger,
	}
	n.backoff = func(attempt int) time.Duration {
		return jitter.ExponentialBackoff(n.cfg.RetryBase, n.cfg.RetryMax, attempt, jitter.DefaultJitter)
	}

	return n
}

// NotifyOrderPlaced запускает доставку и сразу возвращает управление.
func (n *Notifier) NotifyOrderPlaced(event *domain.OrderPlaced) {
	if event == nil || (n.publisher == nil && n.sender == nil) {
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.Timeout)
		defer cancel()

		n.deliver(ctx, event)
	}()
}

// Wait ожидает завершения всех доставок в полёте с учётом таймаута завершения приложения.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notifier drain timeout during shutdown: %w", ctx.Err())
	}
}

func (n *Notifier) deliver(ctx context.Context, event *domain.OrderPlaced) {
	const op = "Notifier.deliver"

	var wg sync.WaitGroup
	if n.publisher != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := n.retry(ctx, func(ctx context.Context) error {
				return n.publisher.PublishOrderPlaced(ctx, event)
			})
			n.observe(ChannelKafka, err)
			if err != nil {
				n.logger.Errorf(err, "%s: order_id=%d: kafka publish failed", op, event.OrderID)
			}
		}()
	}

	if n.sender != nil {
		n.sendToOperators(ctx, event)
	}

	wg.Wait()
}

func (n *Notifier) sendToOperators(ctx context.Context, event *domain.OrderPlaced) {
	const op = "Notifier.sendToOperators"

	operators, err := n.operators.ListNotifiable(ctx)
	if err != nil {
		n.observe(ChannelTelegram, err)
		n.logger.Errorf(err, "%s: order_id=%d: list operators", op, event.OrderID)
		return
	}
	if len(operators) == 0 {
		n.logger.Debugf("%s: order_id=%d: no operators to notify", op, event.OrderID)
		return
	}

	text := FormatOrderMessage(event)
	for _, operator := range operators {
		err := n.retry(ctx, func(ctx context.Context) error {
			return n.sender.SendMessage(ctx, operator.ChatID, text)
		})
		n.observe(ChannelTelegram, err)
		if err != nil {
			n.logger.Errorf(err, "%s: order_id=%d chat_id=%d: send failed", op, event.OrderID, operator.ChatID)
		}
	}
}

// retry повторяет fn до cfg.MaxRetries раз с экспоненциальной задержкой и jitter.
func (n *Notifier) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := n.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}

		var r retryable
		if errors.As(err, &r) && !r.Retryable() {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		sleep := n.backoff(attempt)
		n.logger.Warnf("notification failed, retrying in %v (attempt %d): %v", sleep, attempt+1, err)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
	}

	return fmt.Errorf("all %d attempts failed: %w", attempts, err)
}

func (n *Notifier) observe(channel string, err error) {
	if n.recorder == nil {
		return
	}

	outcome := OutcomeDelivered
	if err != nil {
		outcome = OutcomeFailed
	}
	n.recorder.ObserveNotification(channel, outcome)
}

var _ usecase.OrderNotifier = (*Notifier)(nil)
