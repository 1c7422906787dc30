package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

const PatternPaymentStatus = "payment-status"

// Publisher is the transport the notifications go out on; production wires
// the AMQP publisher from internal/queue.
type Publisher interface {
	Publish(message []byte) error
}

// Notifier pushes payment state transitions to the app over the push queue.
type Notifier struct {
	publisher Publisher
	log       *slog.Logger
}

type paymentStatusNotification struct {
	Pattern string      `json:"pattern"`
	Data    types.Event `json:"data"`
}

func New(publisher Publisher) *Notifier {
	return &Notifier{
		publisher: publisher,
		log:       slog.With("component", "notifier"),
	}
}

func (n *Notifier) Notify(ctx context.Context, event types.Event) error {
	payload := paymentStatusNotification{
		Pattern: PatternPaymentStatus,
		Data:    event,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("couldn't marshal notification: %w", err)
	}

	n.log.Debug("Sending notification", "payload", jsonData)

	if err := n.publisher.Publish(jsonData); err != nil {
		return fmt.Errorf("couldn't enqueue notification: %w", err)
	}

	return nil
}
