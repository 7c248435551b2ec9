package event

import (
	"context"
	"log/slog"
)

// NoopEventPublisher is wired when RabbitMQ is disabled.
type NoopEventPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*NoopEventPublisher)(nil)

func NewNoopEventPublisher(logger *slog.Logger) *NoopEventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventPublisher{logger: logger.With("component", "NoopEventPublisher")}
}

func (p *NoopEventPublisher) drop(ctx context.Context, routingKey string) error {
	p.logger.DebugContext(ctx, "Event publishing disabled, dropping event", slog.String("routingKey", routingKey))
	return nil
}

func (p *NoopEventPublisher) PublishPaymentRecorded(ctx context.Context, _ PaymentRecordedEvent) error {
	return p.drop(ctx, RoutingKeyPaymentRecorded)
}

func (p *NoopEventPublisher) PublishPaymentCancelled(ctx context.Context, _ PaymentCancelledEvent) error {
	return p.drop(ctx, RoutingKeyPaymentCancelled)
}

func (p *NoopEventPublisher) PublishDepositCreated(ctx context.Context, _ DepositCreatedEvent) error {
	return p.drop(ctx, RoutingKeyDepositCreated)
}

func (p *NoopEventPublisher) PublishDepositCancelled(ctx context.Context, _ DepositCancelledEvent) error {
	return p.drop(ctx, RoutingKeyDepositCancelled)
}

func (p *NoopEventPublisher) PublishTariffBulkUpdated(ctx context.Context, _ TariffBulkUpdatedEvent) error {
	return p.drop(ctx, RoutingKeyTariffBulkUpdated)
}

func (p *NoopEventPublisher) PublishCustomerStatusChanged(ctx context.Context, _ CustomerStatusChangedEvent) error {
	return p.drop(ctx, RoutingKeyCustomerStatusChanged)
}

func (p *NoopEventPublisher) PublishArrearsReminder(ctx context.Context, _ ArrearsReminderEvent) error {
	return p.drop(ctx, RoutingKeyArrearsReminder)
}
