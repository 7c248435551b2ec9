package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "waste-billing"

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type RabbitMQEventPublisher struct {
	openChannel  func() (amqpChannel, error)
	exchangeName string
	logger       *slog.Logger
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)

func NewRabbitMQEventPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*RabbitMQEventPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	err = tempCh.ExchangeDeclare(
		exchangeName,
		amqp.ExchangeTopic,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare exchange '%s': %w", exchangeName, err)
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return newPublisher(func() (amqpChannel, error) { return conn.Channel() }, exchangeName, logger), nil
}

func newPublisher(open func() (amqpChannel, error), exchangeName string, logger *slog.Logger) *RabbitMQEventPublisher {
	return &RabbitMQEventPublisher{
		openChannel:  open,
		exchangeName: exchangeName,
		logger:       logger.With("component", "RabbitMQEventPublisher", "exchange", exchangeName),
	}
}

func (p *RabbitMQEventPublisher) PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyPaymentRecorded, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishPaymentCancelled(ctx context.Context, event PaymentCancelledEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyPaymentCancelled, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishDepositCreated(ctx context.Context, event DepositCreatedEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyDepositCreated, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishDepositCancelled(ctx context.Context, event DepositCancelledEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyDepositCancelled, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishTariffBulkUpdated(ctx context.Context, event TariffBulkUpdatedEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyTariffBulkUpdated, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishCustomerStatusChanged(ctx context.Context, event CustomerStatusChangedEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyCustomerStatusChanged, event.EventID, event)
}

func (p *RabbitMQEventPublisher) PublishArrearsReminder(ctx context.Context, event ArrearsReminderEvent) error {
	event.EventID = ensureEventID(event.EventID)
	return p.publish(ctx, RoutingKeyArrearsReminder, event.EventID, event)
}

func (p *RabbitMQEventPublisher) publish(ctx context.Context, routingKey, messageID string, payload any) error {
	logCtx := p.logger.With(slog.String("routingKey", routingKey), slog.String("messageID", messageID))

	channel, err := p.openChannel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer channel.Close()

	body, err := json.Marshal(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal event payload to JSON", slog.Any("error", err))
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	logCtx.DebugContext(ctx, "Publishing message", "bodySize", len(body))

	err = channel.PublishWithContext(
		ctx,
		p.exchangeName,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
			AppId:        publisherAppID,
		},
	)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Successfully published message")
	return nil
}
