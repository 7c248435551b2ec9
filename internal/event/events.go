package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	RoutingKeyPaymentRecorded       = "payment.recorded"
	RoutingKeyPaymentCancelled      = "payment.cancelled"
	RoutingKeyDepositCreated        = "deposit.created"
	RoutingKeyDepositCancelled      = "deposit.cancelled"
	RoutingKeyTariffBulkUpdated     = "tariff.bulk_updated"
	RoutingKeyCustomerStatusChanged = "customer.status_changed"
	RoutingKeyArrearsReminder       = "arrears.reminder"
)

type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, event PaymentRecordedEvent) error
	PublishPaymentCancelled(ctx context.Context, event PaymentCancelledEvent) error
	PublishDepositCreated(ctx context.Context, event DepositCreatedEvent) error
	PublishDepositCancelled(ctx context.Context, event DepositCancelledEvent) error
	PublishTariffBulkUpdated(ctx context.Context, event TariffBulkUpdatedEvent) error
	PublishCustomerStatusChanged(ctx context.Context, event CustomerStatusChangedEvent) error
	PublishArrearsReminder(ctx context.Context, event ArrearsReminderEvent) error
}

type PaymentRecordedEvent struct {
	EventID    string    `json:"eventId"`
	PaymentID  int64     `json:"paymentId"`
	CustomerID int64     `json:"customerId"`
	Months     []string  `json:"bulanDibayar"`
	Amount     int64     `json:"jumlahBayar"`
	Method     string    `json:"metodeBayar"`
	Timestamp  time.Time `json:"timestamp"`
}

type PaymentCancelledEvent struct {
	EventID    string    `json:"eventId"`
	PaymentID  int64     `json:"paymentId"`
	CustomerID int64     `json:"customerId"`
	Months     []string  `json:"bulanDibayar"`
	Timestamp  time.Time `json:"timestamp"`
}

type DepositCreatedEvent struct {
	EventID    string    `json:"eventId"`
	DepositID  int64     `json:"depositId"`
	Reference  string    `json:"reference"`
	PaymentIDs []int64   `json:"paymentIds"`
	Total      int64     `json:"total"`
	Timestamp  time.Time `json:"timestamp"`
}

type DepositCancelledEvent struct {
	EventID    string    `json:"eventId"`
	DepositID  int64     `json:"depositId"`
	PaymentIDs []int64   `json:"paymentIds"`
	Timestamp  time.Time `json:"timestamp"`
}

type TariffBulkUpdatedEvent struct {
	EventID        string    `json:"eventId"`
	TariffID       int64     `json:"tarifId"`
	CustomerIDs    []int64   `json:"customerIds"`
	EffectiveMonth string    `json:"bulanEfektif"`
	Timestamp      time.Time `json:"timestamp"`
}

type CustomerStatusChangedEvent struct {
	EventID    string    `json:"eventId"`
	CustomerID int64     `json:"customerId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	Reason     string    `json:"reason,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// ArrearsReminderEvent is consumed by the WhatsApp notifier, which owns the
// message wording.
type ArrearsReminderEvent struct {
	EventID      string    `json:"eventId"`
	CustomerID   int64     `json:"customerId"`
	Name         string    `json:"nama"`
	Phone        string    `json:"noHp,omitempty"`
	Region       string    `json:"wilayah"`
	TotalArrears int64     `json:"totalArrears"`
	TotalMonths  int       `json:"totalMonths"`
	Months       []string  `json:"months"`
	AsOf         string    `json:"asOf"`
	Timestamp    time.Time `json:"timestamp"`
}

func ensureEventID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}
