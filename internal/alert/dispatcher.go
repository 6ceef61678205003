package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/banksecure/vigil/internal/engine"
	"github.com/banksecure/vigil/internal/metrics"
	"github.com/banksecure/vigil/internal/retry"
)

const drainTimeout = 2 * time.Second

// Config bounds the dispatcher's queue and retry policy.
type Config struct {
	QueueSize   int
	MaxAttempts int
	BaseDelay   time.Duration
	SendTimeout time.Duration
}

// DefaultConfig returns the shipped dispatch defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:   1024,
		MaxAttempts: 4,
		BaseDelay:   200 * time.Millisecond,
		SendTimeout: 5 * time.Second,
	}
}

// Dispatcher delivers alerts for Challenge/Deny decisions in the
// background. Dispatch never blocks the caller and a delivery failure
// never alters the already-returned decision.
type Dispatcher struct {
	notifier Notifier
	cfg      Config
	queue    chan *Record
	done     chan struct{}
	drained  chan struct{}
	logger   *zap.Logger
}

// NewDispatcher starts the delivery worker and returns the dispatcher.
func NewDispatcher(notifier Notifier, cfg Config, logger *zap.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg = DefaultConfig()
	}
	d := &Dispatcher{
		notifier: notifier,
		cfg:      cfg,
		queue:    make(chan *Record, cfg.QueueSize),
		done:     make(chan struct{}),
		drained:  make(chan struct{}),
		logger:   logger,
	}
	go d.deliverLoop()
	return d
}

// Dispatch queues an alert for the decision. Allow outcomes are ignored;
// a full queue drops the alert with a logged warning rather than blocking.
func (d *Dispatcher) Dispatch(dec *engine.RiskDecision, channel string) {
	if dec.Decision == engine.DecisionAllow {
		return
	}
	rec := &Record{
		AlertID:     uuid.New().String(),
		EventID:     dec.EventID,
		AccountID:   dec.AccountID,
		Decision:    dec.Decision.String(),
		Channel:     channel,
		ReasonCodes: dec.ReasonCodes,
		CreatedAt:   time.Now().UTC(),
		Status:      StatusPending,
	}
	select {
	case d.queue <- rec:
	default:
		d.logger.Warn("alert queue full, dropping alert",
			zap.String("event_id", dec.EventID),
		)
		metrics.AlertDeliveries.WithLabelValues("dropped").Inc()
	}
}

// Close stops the worker after draining queued alerts, bounded by
// drainTimeout. Safe to call once.
func (d *Dispatcher) Close() {
	close(d.done)
	<-d.drained
}

func (d *Dispatcher) deliverLoop() {
	defer close(d.drained)
	for {
		select {
		case rec := <-d.queue:
			d.deliver(rec)
		case <-d.done:
			deadline := time.After(drainTimeout)
			for {
				select {
				case rec := <-d.queue:
					d.deliver(rec)
				case <-deadline:
					return
				default:
					return
				}
			}
		}
	}
}

// deliver attempts the send with bounded exponential backoff. Exhausting
// the attempts marks the record failed and logs it; nothing propagates to
// the caller that received the decision.
func (d *Dispatcher) deliver(rec *Record) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
	defer cancel()

	err := retry.Do(ctx, d.cfg.MaxAttempts, d.cfg.BaseDelay, func() error {
		sendErr := d.notifier.Send(ctx, rec)
		if sendErr != nil {
			rec.RetryCount++
		}
		return sendErr
	})
	if err != nil {
		rec.Status = StatusFailed
		metrics.AlertDeliveries.WithLabelValues("failed").Inc()
		d.logger.Error("alert delivery failed",
			zap.String("alert_id", rec.AlertID),
			zap.String("account_id", rec.AccountID),
			zap.Int("retries", rec.RetryCount),
			zap.Error(err),
		)
		return
	}
	rec.Status = StatusDelivered
	metrics.AlertDeliveries.WithLabelValues("delivered").Inc()
}
