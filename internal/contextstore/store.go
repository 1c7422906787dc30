package contextstore

import (
	"context"
	"fmt"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// Store persists the business context of pending transactions across app
// suspension, plus the redirect stash used to replay callbacks delivered
// while no listener was alive.
//
// Clear and Unstash are best-effort: a stale entry must never block a
// user-visible outcome, so implementations swallow and log failures.
type Store interface {
	Save(ctx context.Context, tx *types.PendingTransaction) error
	// Load returns nil without error when no context exists for the key.
	Load(ctx context.Context, kind types.Kind, transactionID string) (*types.PendingTransaction, error)
	Clear(ctx context.Context, kind types.Kind, transactionID string)

	StashRedirect(ctx context.Context, rawURL string) error
	PendingRedirects(ctx context.Context) ([]string, error)
	UnstashRedirect(ctx context.Context, rawURL string)
}

// ContextKey builds the per-transaction storage key. The kind prefix keeps
// concurrent booking-payment and wallet-top-up sessions from colliding.
func ContextKey(kind types.Kind, transactionID string) string {
	return fmt.Sprintf("%s_payment_context_%s", kind, transactionID)
}
