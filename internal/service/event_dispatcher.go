package service

import (
	"context"
	"sync"
	"time"

	"bank-ledger/internal/core/domain"
	"bank-ledger/internal/core/ports"

	"github.com/rs/zerolog"
)

// eventRetryIntervals are the waits between publish attempts.
var eventRetryIntervals = []time.Duration{
	100 * time.Millisecond,
	500 * time.Millisecond,
	2 * time.Second,
}

const eventPublishTimeout = 5 * time.Second

// EventDispatcher publishes committed transactions in the background.
// Delivery is best-effort: the ledger never waits on it and a dropped
// event does not undo the transaction.
type EventDispatcher struct {
	publisher ports.EventPublisher
	intervals []time.Duration
	wg        sync.WaitGroup
	log       zerolog.Logger
}

// NewEventDispatcher creates a dispatcher. A nil publisher disables events.
func NewEventDispatcher(publisher ports.EventPublisher, log zerolog.Logger) *EventDispatcher {
	return &EventDispatcher{
		publisher: publisher,
		intervals: eventRetryIntervals,
		log:       log,
	}
}

// Dispatch queues txn for publishing and returns immediately.
func (d *EventDispatcher) Dispatch(txn *domain.Transaction) {
	if d == nil || d.publisher == nil {
		return
	}
	event := domain.NewTransactionEvent(txn)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliverWithRetries(event)
	}()
}

func (d *EventDispatcher) deliverWithRetries(event domain.TransactionEvent) {
	txID := event.TransactionID.String()

	for attempt := 0; attempt <= len(d.intervals); attempt++ {
		if attempt > 0 {
			time.Sleep(d.intervals[attempt-1])
		}

		ctx, cancel := context.WithTimeout(context.Background(), eventPublishTimeout)
		err := d.publisher.Publish(ctx, event)
		cancel()
		if err == nil {
			d.log.Debug().Str("tx_id", txID).Int("attempt", attempt+1).Msg("event: published")
			return
		}

		d.log.Warn().Err(err).Str("tx_id", txID).Int("attempt", attempt+1).Msg("event: publish failed")
	}

	eventPublishErrors.Inc()
	d.log.Error().Str("tx_id", txID).Msg("event: all retry attempts exhausted")
}

// Close waits for in-flight deliveries, bounded by ctx, then closes the publisher.
func (d *EventDispatcher) Close(ctx context.Context) error {
	if d == nil || d.publisher == nil {
		return nil
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		d.log.Warn().Msg("event: shutdown before pending deliveries finished")
	}
	return d.publisher.Close()
}
