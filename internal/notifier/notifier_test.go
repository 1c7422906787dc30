package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

type capturePublisher struct {
	messages [][]byte
	err      error
}

func (p *capturePublisher) Publish(message []byte) error {
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, message)
	return nil
}

func TestNotify_WrapsEventInPattern(t *testing.T) {
	publisher := &capturePublisher{}
	n := New(publisher)

	event := types.Event{
		Type:          types.EventSucceeded,
		TransactionID: "TX-9",
		Kind:          types.KindWalletTopUp,
		Provider:      types.ProviderOnePay,
		Amount:        500000,
	}

	if err := n.Notify(context.Background(), event); err != nil {
		t.Fatalf("unexpected notify error: %v", err)
	}

	if len(publisher.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(publisher.messages))
	}

	var got paymentStatusNotification
	if err := json.Unmarshal(publisher.messages[0], &got); err != nil {
		t.Fatalf("couldn't decode published payload: %v", err)
	}

	if got.Pattern != PatternPaymentStatus {
		t.Errorf("expected pattern %q, got %q", PatternPaymentStatus, got.Pattern)
	}
	if got.Data.TransactionID != "TX-9" || got.Data.Type != types.EventSucceeded {
		t.Errorf("unexpected event payload: %+v", got.Data)
	}
}

func TestNotify_PropagatesPublishError(t *testing.T) {
	publisher := &capturePublisher{err: errors.New("channel closed")}
	n := New(publisher)

	err := n.Notify(context.Background(), types.Event{Type: types.EventFailed})
	if err == nil {
		t.Error("expected the publish error to surface")
	}
}
