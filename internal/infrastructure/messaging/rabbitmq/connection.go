package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	DefaultExchange = "sweetshop.stock"
	exchangeType    = "topic"
	dialAttempts    = 5
	dialBackoff     = 2 * time.Second
)

// Connect dials the broker, opens a channel and declares the durable topic
// exchange stock events are published to. Dialing is retried a few times to
// ride out broker startup.
func Connect(url, exchange string, log zerolog.Logger) (*amqp.Connection, *amqp.Channel, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for i := 1; i <= dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i).Msg("rabbitmq dial failed")
		if i < dialAttempts {
			time.Sleep(dialBackoff)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("rabbitmq connect: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,     // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("rabbitmq declare exchange %s: %w", exchange, err)
	}

	return conn, ch, nil
}
