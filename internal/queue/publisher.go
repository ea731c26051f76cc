package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// DialTimeout bounds the TCP connect and AMQP handshake with the broker.
const DialTimeout = 2 * time.Second

// dial opens a broker connection that gives up after timeout instead of the
// client library's 30 second default.
func dial(url string, timeout time.Duration) (*amqp.Connection, error) {
	return amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
}

// Publisher sends ReservationEvents to RabbitMQ.  A connection is dialed per
// publish.
type Publisher struct {
	url         string
	dialTimeout time.Duration
	logger      *zerolog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, logger *zerolog.Logger) *Publisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Publisher{url: url, dialTimeout: DialTimeout, logger: logger}
}

// Publish sends ev to the reservation.events queue as a persistent message.
// Errors are logged and returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, ev ReservationEvent) error {
	conn, err := dial(p.url, p.dialTimeout)
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		EventQueue, // name
		true,       // durable
		false,      // autoDelete
		false,      // exclusive
		false,      // noWait
		nil,        // args
	); err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: marshal event failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",         // default exchange
		EventQueue, // routing key = queue name
		false,      // mandatory
		false,      // immediate
		pub,
	); err != nil {
		p.logger.Error().Err(err).Str("type", ev.Type).Uint64("reservation_id", ev.ReservationID).Msg("rabbitmq: publish failed")
		return err
	}
	return nil
}
