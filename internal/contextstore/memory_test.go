package contextstore

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

func TestContextKeyShape(t *testing.T) {
	key := ContextKey(types.KindBooking, "TX-1")
	if key != "booking_payment_context_TX-1" {
		t.Errorf("unexpected key shape: %q", key)
	}

	key = ContextKey(types.KindWalletTopUp, "TX-2")
	if key != "wallet_topup_payment_context_TX-2" {
		t.Errorf("unexpected key shape: %q", key)
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx := &types.PendingTransaction{
		TransactionID:   "TX-1",
		Kind:            types.KindBooking,
		Provider:        types.ProviderVNPay,
		Amount:          1500000,
		CreatedAt:       time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
		ExpiresAt:       time.Date(2025, 9, 1, 10, 15, 0, 0, time.UTC),
		BusinessContext: map[string]string{"booking_id": "BK-77"},
		RedirectURL:     "https://gateway.example/pay?token=x",
	}

	if err := store.Save(ctx, tx); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	loaded, err := store.Load(ctx, types.KindBooking, "TX-1")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !reflect.DeepEqual(tx, loaded) {
		t.Errorf("round trip mismatch:\nsaved:  %+v\nloaded: %+v", tx, loaded)
	}
}

func TestMemory_ClearThenLoadReturnsNil(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	tx := &types.PendingTransaction{
		TransactionID: "TX-2",
		Kind:          types.KindWalletTopUp,
	}

	if err := store.Save(ctx, tx); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}

	store.Clear(ctx, types.KindWalletTopUp, "TX-2")

	loaded, err := store.Load(ctx, types.KindWalletTopUp, "TX-2")
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil after clear, got %+v", loaded)
	}
}

func TestMemory_KindsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	booking := &types.PendingTransaction{TransactionID: "TX-3", Kind: types.KindBooking}
	topup := &types.PendingTransaction{TransactionID: "TX-3", Kind: types.KindWalletTopUp}

	store.Save(ctx, booking)
	store.Save(ctx, topup)

	store.Clear(ctx, types.KindBooking, "TX-3")

	loaded, _ := store.Load(ctx, types.KindWalletTopUp, "TX-3")
	if loaded == nil {
		t.Error("clearing the booking context must not clear the top-up context")
	}
}

func TestMemory_RedirectStash(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	if err := store.StashRedirect(ctx, "emotorent://payment/callback?a=1"); err != nil {
		t.Fatalf("unexpected stash error: %v", err)
	}

	urls, err := store.PendingRedirects(ctx)
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(urls) != 1 || urls[0] != "emotorent://payment/callback?a=1" {
		t.Errorf("unexpected stash contents: %v", urls)
	}

	store.UnstashRedirect(ctx, "emotorent://payment/callback?a=1")

	urls, _ = store.PendingRedirects(ctx)
	if len(urls) != 0 {
		t.Errorf("expected an empty stash, got %v", urls)
	}
}
