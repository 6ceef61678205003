// Package alert reports Challenge and Deny outcomes to the notification
// collaborator, asynchronously and decoupled from decision latency.
package alert

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DeliveryStatus tracks an alert through the dispatch lifecycle.
type DeliveryStatus string

const (
	StatusPending   DeliveryStatus = "pending"
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
)

// Record is one alert to be delivered, and its delivery bookkeeping.
type Record struct {
	AlertID     string
	EventID     string
	AccountID   string
	Decision    string
	Channel     string
	ReasonCodes []string
	CreatedAt   time.Time
	Status      DeliveryStatus
	RetryCount  int
}

// Notifier is the notification transport collaborator (email/SMS gateway).
type Notifier interface {
	Send(ctx context.Context, rec *Record) error
}

// LogNotifier is the development Notifier: it logs the alert instead of
// delivering it.
type LogNotifier struct {
	logger *zap.Logger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a Notifier that writes alerts to the logger.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(_ context.Context, rec *Record) error {
	n.logger.Info("fraud_alert",
		zap.String("alert_id", rec.AlertID),
		zap.String("event_id", rec.EventID),
		zap.String("account_id", rec.AccountID),
		zap.String("decision", rec.Decision),
		zap.Strings("reason_codes", rec.ReasonCodes),
	)
	return nil
}
