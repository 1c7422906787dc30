package contextstore

import (
	"context"
	"sync"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// Memory is an in-process Store for tests and single-node dev runs.
type Memory struct {
	mu        sync.Mutex
	contexts  map[string]types.PendingTransaction
	redirects map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		contexts:  make(map[string]types.PendingTransaction),
		redirects: make(map[string]struct{}),
	}
}

func (m *Memory) Save(ctx context.Context, tx *types.PendingTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contexts[ContextKey(tx.Kind, tx.TransactionID)] = *tx
	return nil
}

func (m *Memory) Load(ctx context.Context, kind types.Kind, transactionID string) (
	*types.PendingTransaction, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	tx, ok := m.contexts[ContextKey(kind, transactionID)]
	if !ok {
		return nil, nil
	}

	return &tx, nil
}

func (m *Memory) Clear(ctx context.Context, kind types.Kind, transactionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.contexts, ContextKey(kind, transactionID))
}

func (m *Memory) StashRedirect(ctx context.Context, rawURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redirects[rawURL] = struct{}{}
	return nil
}

func (m *Memory) PendingRedirects(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	urls := make([]string, 0, len(m.redirects))
	for u := range m.redirects {
		urls = append(urls, u)
	}

	return urls, nil
}

func (m *Memory) UnstashRedirect(ctx context.Context, rawURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.redirects, rawURL)
}
