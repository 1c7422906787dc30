package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/contextstore"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/expiry"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/metrics"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/provider"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// Confirmer submits a canonical callback to the backend of record. An error
// means the outcome is unverified, not that the payment failed.
type Confirmer interface {
	Confirm(ctx context.Context, tx *types.PendingTransaction,
		cb *types.CanonicalCallback) error
}

// Notifier delivers state-transition events to the UI.
type Notifier interface {
	Notify(ctx context.Context, event types.Event) error
}

// Journal records terminal outcomes for back-office reconciliation. May be
// nil; journaling is never allowed to block an outcome.
type Journal interface {
	RecordOutcome(ctx context.Context, tx *types.PendingTransaction,
		event types.Event) error
}

type Config struct {
	// GracePeriod delays the success notification so eventually-consistent
	// backend state settles before the UI navigates to a dependent screen.
	GracePeriod    time.Duration
	ConfirmTimeout time.Duration
	TickInterval   time.Duration
	Clock          func() time.Time
}

// Controller drives every pending transaction to exactly one terminal state,
// no matter how many duplicate callback or expiry events are delivered.
type Controller struct {
	config    *Config
	store     contextstore.Store
	registry  *provider.Registry
	confirmer Confirmer
	notifier  Notifier
	journal   Journal
	mu        sync.Mutex
	sessions  map[string]*Session
	log       *slog.Logger
}

func New(config *Config, store contextstore.Store, registry *provider.Registry,
	confirmer Confirmer, notifier Notifier, journal Journal) *Controller {

	if config == nil {
		config = &Config{}
	}
	if config.GracePeriod == 0 {
		config.GracePeriod = 1500 * time.Millisecond
	}
	if config.ConfirmTimeout == 0 {
		config.ConfirmTimeout = 10 * time.Second
	}
	if config.TickInterval == 0 {
		config.TickInterval = time.Second
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Controller{
		config:    config,
		store:     store,
		registry:  registry,
		confirmer: confirmer,
		notifier:  notifier,
		journal:   journal,
		sessions:  make(map[string]*Session),
		log:       slog.With("component", "reconciler"),
	}
}

// Begin registers a freshly initiated transaction: persists its context,
// creates the runtime session and starts the expiry countdown. The passed
// context bounds the session lifetime, so callers hand in the application
// context, not a request context.
func (c *Controller) Begin(ctx context.Context, tx *types.PendingTransaction) (
	*Session, error) {

	if tx.TransactionID == "" {
		return nil, errors.New(errors.CodeInvalidState,
			"pending transaction has no transaction id", nil)
	}

	if err := c.store.Save(ctx, tx); err != nil {
		// a session without durable context still reconciles; it just won't
		// survive a process restart
		c.log.Error("couldn't persist payment context",
			"transaction_id", tx.TransactionID, "error", err)
	}

	s := c.newSession(tx)
	s.timer = expiry.New(
		&expiry.Config{TickInterval: c.config.TickInterval, Clock: c.config.Clock},
		tx.ExpiresAt,
		s.updateCountdown,
		func() { s.handleExpiry(ctx) },
	)

	c.mu.Lock()
	c.sessions[tx.TransactionID] = s
	c.mu.Unlock()

	go s.timer.Run(ctx)

	c.log.Info("payment session started",
		"transaction_id", tx.TransactionID,
		"kind", tx.Kind,
		"provider", tx.Provider,
		"expires_at", tx.ExpiresAt,
	)

	return s, nil
}

// HandleRedirect is the single guarded entry point for callback delivery.
// Both producers (the live redirect subscription and the startup replay)
// funnel through here; duplicate deliveries die on the session guard.
func (c *Controller) HandleRedirect(ctx context.Context, rawURL string) error {
	parser, err := c.registry.Detect(rawURL)
	if err != nil {
		metrics.ParseFailuresTotal.Inc()
		c.log.Error("unrecognized callback", "url", rawURL, "error", err)
		return err
	}

	cb, err := parser.Parse(rawURL)
	if err != nil {
		metrics.ParseFailuresTotal.Inc()
		c.log.Error("callback parse failed",
			"provider", parser.Provider(), "url", rawURL, "error", err)
		return err
	}

	s := c.lookup(cb.OrderRef)
	if s == nil {
		s = c.restoreSession(ctx, cb.OrderRef)
	}
	if s == nil {
		// late or duplicate delivery after the terminal state; drop silently
		c.log.Debug("callback for unknown transaction, dropping",
			"order_ref", cb.OrderRef)
		return nil
	}

	return s.handleCallback(ctx, cb)
}

// Retry re-runs backend confirmation with the same canonical callback after
// the user chose to retry a failed confirmation. The guard is reset first so
// the retry is itself a fresh, single attempt.
func (c *Controller) Retry(ctx context.Context, transactionID string) error {
	s := c.lookup(transactionID)
	if s == nil {
		return errors.New(errors.CodeUnknownTransaction,
			fmt.Sprintf("no pending session for %q", transactionID), nil)
	}

	return s.retry(ctx)
}

// Abandon resolves a failed confirmation as "check back later": context is
// cleared and the UI gets a failure distinct from a hard payment failure,
// since the provider payment may actually have succeeded.
func (c *Controller) Abandon(ctx context.Context, transactionID string) error {
	s := c.lookup(transactionID)
	if s == nil {
		return errors.New(errors.CodeUnknownTransaction,
			fmt.Sprintf("no pending session for %q", transactionID), nil)
	}

	return s.abandon(ctx)
}

// Cancel tears a session down when the user backs out of the payment screen.
// With keepContext the persisted context stays, so a redirect that still
// arrives later can be reconciled after a cold start; an explicit user cancel
// clears it. No terminal notification is sent either way.
func (c *Controller) Cancel(ctx context.Context, transactionID string,
	keepContext bool) error {

	s := c.lookup(transactionID)
	if s == nil {
		return errors.New(errors.CodeUnknownTransaction,
			fmt.Sprintf("no pending session for %q", transactionID), nil)
	}

	return s.cancel(ctx, keepContext)
}

// Resume re-evaluates every live session's deadline. Wired to the app
// foreground signal: ticks may have been withheld while backgrounded, and
// expiry must not be missed by more than one tick after resume.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.sessions {
		if s.timer != nil {
			s.timer.Resume()
		}
	}
}

// Status reports the session state and remaining seconds for the app's
// countdown display.
func (c *Controller) Status(transactionID string) (types.State, int64, bool) {
	s := c.lookup(transactionID)
	if s == nil {
		return "", 0, false
	}

	return s.currentState(), s.remainingSeconds(), true
}

func (c *Controller) lookup(transactionID string) *Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sessions[transactionID]
}

// restoreSession rebuilds a session from persisted context after a cold
// start. The raw callback does not say which kind the transaction was, so
// both key shapes are probed.
func (c *Controller) restoreSession(ctx context.Context, transactionID string) *Session {
	for _, kind := range types.Kinds {
		tx, err := c.store.Load(ctx, kind, transactionID)
		if err != nil {
			c.log.Error("couldn't load payment context",
				"kind", kind, "transaction_id", transactionID, "error", err)
			continue
		}
		if tx == nil {
			continue
		}

		c.log.Info("restored payment session from context",
			"transaction_id", transactionID, "kind", kind)

		s := c.newSession(tx)

		c.mu.Lock()
		c.sessions[transactionID] = s
		c.mu.Unlock()

		return s
	}

	return nil
}

func (c *Controller) newSession(tx *types.PendingTransaction) *Session {
	return &Session{
		controller: c,
		tx:         tx,
		state:      types.StatePending,
	}
}

func (c *Controller) remove(transactionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.sessions, transactionID)
}
