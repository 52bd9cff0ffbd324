package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sweetshop/inventory-api/internal/core/domain"
	"github.com/sweetshop/inventory-api/internal/core/ports"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends stock events to a topic exchange.
// Routing key: stock.<kind> (e.g. stock.purchased, stock.restocked)
type Publisher struct {
	mu       sync.Mutex
	ch       channel
	exchange string
}

var _ ports.StockEventPublisher = (*Publisher)(nil)

func NewPublisher(ch channel, exchange string) *Publisher {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Publisher{ch: ch, exchange: exchange}
}

func (p *Publisher) Publish(ctx context.Context, event domain.StockEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal stock event: %w", err)
	}

	headers := amqp.Table{}
	if event.LowStock {
		headers["low_stock"] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,             // exchange
		RoutingKey(event.Kind), // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    event.At,
			Type:         string(event.Kind),
			Headers:      headers,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish stock event: %w", err)
	}
	return nil
}

// RoutingKey returns the topic routing key for events of kind.
func RoutingKey(kind domain.StockEventKind) string {
	return "stock." + string(kind)
}
