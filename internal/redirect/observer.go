package redirect

import (
	"context"
	"log/slog"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/contextstore"
)

// Handler is the guarded entry point every redirect funnels into.
type Handler interface {
	HandleRedirect(ctx context.Context, rawURL string) error
}

// Observer merges the two redirect producers into one consumer: live events
// offered while the listener is up, and the startup replay of redirects
// stashed before the process went away. Duplicate deliveries are expected;
// the at-most-once guard lives downstream in the handler, never here.
type Observer struct {
	store   contextstore.Store
	handler Handler
	urls    chan string
	log     *slog.Logger
}

func New(store contextstore.Store, handler Handler) *Observer {
	return &Observer{
		store:   store,
		handler: handler,
		urls:    make(chan string, 16),
		log:     slog.With("component", "redirect-observer"),
	}
}

// Offer enqueues a live redirect. The URL is stashed first so a crash between
// delivery and processing replays it on the next start.
func (o *Observer) Offer(ctx context.Context, rawURL string) {
	if err := o.store.StashRedirect(ctx, rawURL); err != nil {
		o.log.Error("couldn't stash redirect", "error", err)
	}

	select {
	case o.urls <- rawURL:
	case <-ctx.Done():
	}
}

// Run replays stashed redirects, then drains live ones until ctx is done.
func (o *Observer) Run(ctx context.Context) error {
	o.log.Info("Starting redirect observer")

	stashed, err := o.store.PendingRedirects(ctx)
	if err != nil {
		o.log.Error("couldn't read stashed redirects", "error", err)
	}

	for _, rawURL := range stashed {
		o.log.Info("replaying stashed redirect")
		o.dispatch(ctx, rawURL)
	}

	for {
		select {
		case <-ctx.Done():
			o.log.Info("Stopping redirect observer...")
			return ctx.Err()
		case rawURL := <-o.urls:
			o.dispatch(ctx, rawURL)
		}
	}
}

func (o *Observer) dispatch(ctx context.Context, rawURL string) {
	if err := o.handler.HandleRedirect(ctx, rawURL); err != nil {
		o.log.Error("redirect handling failed", "url", rawURL, "error", err)
	}

	// processed or unprocessable either way; replaying it again helps nobody
	o.store.UnstashRedirect(ctx, rawURL)
}
