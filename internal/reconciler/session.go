package reconciler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/expiry"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/metrics"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// Session is the runtime-only state of one pending transaction. It is never
// persisted; a restart rebuilds it from the context store when a callback
// arrives.
type Session struct {
	controller *Controller
	tx         *types.PendingTransaction

	// handled is the at-most-once gate. It is flipped with a single
	// compare-and-swap before any other work, so a callback from the live
	// subscription and the same callback from the startup replay cannot both
	// proceed.
	handled atomic.Bool

	mu       sync.Mutex
	state    types.State
	callback *types.CanonicalCallback

	timer     *expiry.Timer
	remaining atomic.Int64
}

func (s *Session) handleCallback(ctx context.Context, cb *types.CanonicalCallback) error {
	if !s.handled.CompareAndSwap(false, true) {
		metrics.DuplicateEventsTotal.Inc()
		s.controller.log.Debug("duplicate callback dropped",
			"transaction_id", s.tx.TransactionID)
		return nil
	}

	if s.timer != nil {
		s.timer.Stop()
	}

	// expiry precedence: a deadline that passed before the callback was
	// processed wins even over a success callback
	if s.controller.config.Clock().After(s.tx.ExpiresAt) {
		s.finish(ctx, types.EventExpired, "", cb)
		return nil
	}

	s.setState(types.StateVerifying)
	s.setCallback(cb)

	if !cb.IsSuccess {
		// the provider already reported failure; no backend call needed
		s.finish(ctx, types.EventFailed, cb.FailureReason, cb)
		return nil
	}

	s.confirm(ctx, cb)
	return nil
}

func (s *Session) handleExpiry(ctx context.Context) {
	if !s.handled.CompareAndSwap(false, true) {
		metrics.DuplicateEventsTotal.Inc()
		return
	}

	s.finish(ctx, types.EventExpired, "", nil)
}

// confirm runs the backend confirmation. While the call is in flight the
// guard is already set, so no second confirmation can start for this
// transaction.
func (s *Session) confirm(ctx context.Context, cb *types.CanonicalCallback) {
	log := s.controller.log

	if cb.Amount != 0 && s.tx.Amount != 0 && cb.Amount != s.tx.Amount {
		metrics.AmountMismatchesTotal.Inc()
		// the backend is the authority on amount correctness
		log.Warn("callback amount differs from pending transaction",
			"transaction_id", s.tx.TransactionID,
			"callback_amount", cb.Amount,
			"pending_amount", s.tx.Amount,
		)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.controller.config.ConfirmTimeout)
	defer cancel()

	if err := s.controller.confirmer.Confirm(confirmCtx, s.tx, cb); err != nil {
		log.Error("backend confirmation failed",
			"transaction_id", s.tx.TransactionID, "error", err)

		// no blind auto-retry against a payment-confirmation endpoint; the
		// user decides between retry and abandon
		s.notify(ctx, types.Event{
			Type:            types.EventRetryPrompt,
			TransactionID:   s.tx.TransactionID,
			Kind:            s.tx.Kind,
			Provider:        s.tx.Provider,
			Amount:          s.tx.Amount,
			ResponseCode:    cb.ResponseCode,
			Message:         "Không thể xác nhận kết quả thanh toán",
			BusinessContext: s.tx.BusinessContext,
		})
		return
	}

	// let eventually-consistent booking/wallet state settle before the UI
	// navigates to a dependent screen
	if s.controller.config.GracePeriod > 0 {
		select {
		case <-ctx.Done():
		case <-time.After(s.controller.config.GracePeriod):
		}
	}

	s.finish(ctx, types.EventSucceeded, "", cb)
}

func (s *Session) retry(ctx context.Context) error {
	s.mu.Lock()
	cb := s.callback
	state := s.state
	s.mu.Unlock()

	if cb == nil || state != types.StateVerifying {
		return errors.New(errors.CodeInvalidState,
			"no failed confirmation to retry", nil)
	}

	metrics.ConfirmRetriesTotal.Inc()

	// reset the guard so the retry is a fresh, single attempt; the CAS keeps
	// a double-tapped retry button from confirming twice
	s.handled.Store(false)
	if !s.handled.CompareAndSwap(false, true) {
		metrics.DuplicateEventsTotal.Inc()
		return nil
	}

	s.confirm(ctx, cb)
	return nil
}

func (s *Session) abandon(ctx context.Context) error {
	s.mu.Lock()
	cb := s.callback
	state := s.state
	s.mu.Unlock()

	if cb == nil || state != types.StateVerifying {
		return errors.New(errors.CodeInvalidState,
			"no failed confirmation to abandon", nil)
	}

	s.finish(ctx, types.EventFailedUnverified,
		"Không thể xác nhận kết quả thanh toán. Vui lòng kiểm tra lại sau.", cb)
	return nil
}

func (s *Session) cancel(ctx context.Context, keepContext bool) error {
	if s.handled.Load() {
		return errors.New(errors.CodeInvalidState,
			"session already reached a terminal state", nil)
	}

	if s.timer != nil {
		s.timer.Stop()
	}

	if !keepContext {
		s.controller.store.Clear(ctx, s.tx.Kind, s.tx.TransactionID)
	}

	s.controller.remove(s.tx.TransactionID)

	s.controller.log.Info("payment session cancelled",
		"transaction_id", s.tx.TransactionID, "kept_context", keepContext)

	return nil
}

// finish performs the one terminal transition: clear context, notify the UI,
// journal the outcome, drop the session. Late events then find no session and
// are dropped silently.
func (s *Session) finish(ctx context.Context, eventType types.EventType,
	message string, cb *types.CanonicalCallback) {

	switch eventType {
	case types.EventSucceeded:
		s.setState(types.StateSucceeded)
	case types.EventExpired:
		s.setState(types.StateExpired)
	default:
		s.setState(types.StateFailed)
	}

	s.controller.store.Clear(ctx, s.tx.Kind, s.tx.TransactionID)

	event := types.Event{
		Type:            eventType,
		TransactionID:   s.tx.TransactionID,
		Kind:            s.tx.Kind,
		Provider:        s.tx.Provider,
		Amount:          s.tx.Amount,
		Message:         message,
		BusinessContext: s.tx.BusinessContext,
	}
	if cb != nil {
		event.ResponseCode = cb.ResponseCode
	}

	s.notify(ctx, event)

	if s.controller.journal != nil {
		if err := s.controller.journal.RecordOutcome(ctx, s.tx, event); err != nil {
			s.controller.log.Error("couldn't journal outcome",
				"transaction_id", s.tx.TransactionID, "error", err)
		}
	}

	metrics.ReconciliationsTotal.WithLabelValues(
		string(s.tx.Kind), string(eventType)).Inc()

	s.controller.remove(s.tx.TransactionID)

	s.controller.log.Info("payment session finished",
		"transaction_id", s.tx.TransactionID,
		"outcome", eventType,
	)
}

func (s *Session) notify(ctx context.Context, event types.Event) {
	if err := s.controller.notifier.Notify(ctx, event); err != nil {
		s.controller.log.Error("couldn't notify UI",
			"transaction_id", event.TransactionID,
			"event", event.Type,
			"error", err,
		)
	}
}

func (s *Session) updateCountdown(remaining time.Duration) {
	s.remaining.Store(int64(remaining.Seconds()))
}

func (s *Session) remainingSeconds() int64 {
	return s.remaining.Load()
}

func (s *Session) setState(state types.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

func (s *Session) setCallback(cb *types.CanonicalCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callback = cb
}

func (s *Session) currentState() types.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}
