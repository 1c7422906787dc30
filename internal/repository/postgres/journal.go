package postgres

import (
	"context"
	"fmt"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// RecordOutcome appends one journal row per terminal transition. The journal
// exists so a back-office job can sweep sessions the user walked away from;
// writing it is best-effort and callers log-and-continue on error.
func (p *Postgres) RecordOutcome(ctx context.Context,
	tx *types.PendingTransaction, event types.Event) error {

	query := `
		INSERT INTO reconciliation_outcome
			(transaction_id, kind, provider, outcome, response_code,
			 amount, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`

	_, err := p.pg.Exec(ctx, query,
		tx.TransactionID,
		string(tx.Kind),
		string(tx.Provider),
		string(event.Type),
		event.ResponseCode,
		tx.Amount,
		event.Message,
	)
	if err != nil {
		return fmt.Errorf("couldn't record outcome for %q: %w", tx.TransactionID, err)
	}

	p.log.Debug("Recorded reconciliation outcome",
		"transaction_id", tx.TransactionID, "outcome", event.Type)

	return nil
}
