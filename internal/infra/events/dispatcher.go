// Package events delivers domain events to the notification collaborator.
// Delivery is fire-and-forget: a broker failure is logged and counted but
// never reaches the operation that produced the event.
package events

import (
	"context"
	"sync"
	"time"

	"marketplace-service/internal/domain"
	"marketplace-service/internal/infra/metrics"
	"marketplace-service/internal/infra/rabbitmq"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

const defaultPublishTimeout = 3 * time.Second

type Dispatcher struct {
	publisher rabbitmq.PublisherInterface
	log       *zap.Logger
	timeout   time.Duration
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A nil publisher only logs events.
func NewDispatcher(publisher rabbitmq.PublisherInterface, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		publisher: publisher,
		log:       log,
		timeout:   defaultPublishTimeout,
		now:       time.Now,
	}
}

func (d *Dispatcher) Emit(_ context.Context, eventType domain.EventType, data any) {
	evt := domain.Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: d.now().UTC(),
		Data:       data,
	}

	if d.publisher == nil {
		d.log.Info("event", zap.String("type", string(evt.Type)), zap.String("event_id", evt.ID), zap.Any("data", data))
		metrics.RecordEvent(string(eventType), "logged")
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// The request context may already be gone; delivery gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.publisher.Publish(ctx, string(evt.Type), evt); err != nil {
			d.log.Warn("failed to publish event",
				zap.String("type", string(evt.Type)),
				zap.String("event_id", evt.ID),
				zap.Error(err))
			metrics.RecordEvent(string(eventType), "failed")
			return
		}
		metrics.RecordEvent(string(eventType), "published")
	}()
}

// Wait blocks until in-flight deliveries finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
