package queue

import (
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

type QueueName string

const (
	// QueuePaymentStatus carries terminal payment outcomes to the app's push
	// notification service.
	QueuePaymentStatus QueueName = "payment-status"
)

type Publisher struct {
	queueName QueueName
	conn      *amqp.Connection
	log       *slog.Logger
}

func NewPublisher(conn *amqp.Connection, queueName QueueName) *Publisher {
	return &Publisher{
		queueName: queueName,
		conn:      conn,
		log:       slog.With("component", "queue", "queue", queueName),
	}
}

// EnsureQueueExists declares the durable queue, so publishing never races the
// consumer's declaration.
func EnsureQueueExists(conn *amqp.Connection, queueName QueueName) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("couldn't open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		string(queueName), // name
		true,              // durable
		false,             // autoDelete
		false,             // exclusive
		false,             // noWait
		nil,               // args
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("couldn't declare queue %q: %w", queueName, err)
	}

	return ch, nil
}

func (p *Publisher) Publish(message []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("couldn't open channel: %w", err)
	}
	defer ch.Close()

	err = ch.Publish(
		"",                  // exchange, empty means direct to queue
		string(p.queueName), // routing key = queue name
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        message,
		},
	)
	if err != nil {
		p.log.Error("Failed to publish", "message", message, "error", err)
		return err
	}

	return nil
}
