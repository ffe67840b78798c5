package rabbitmq

import "context"

// PublisherInterface sends one message to the topic exchange. The events
// package uses the domain event type as the routing key.
type PublisherInterface interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

var _ PublisherInterface = (*Publisher)(nil)
