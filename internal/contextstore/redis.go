package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

const redirectStashKey = "payment_pending_redirects"

type Config struct {
	// TTLSlack is added on top of the transaction's time-to-expiry so a
	// context entry outlives its deadline long enough for a late expiry
	// cleanup to still find it.
	TTLSlack time.Duration
}

type Redis struct {
	config *Config
	client *redis.Client
	log    *slog.Logger
}

func NewRedis(config *Config, client *redis.Client) *Redis {
	if config.TTLSlack == 0 {
		config.TTLSlack = time.Hour
	}

	return &Redis{
		config: config,
		client: client,
		log:    slog.With("component", "context-store"),
	}
}

func (r *Redis) Save(ctx context.Context, tx *types.PendingTransaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("couldn't marshal pending transaction: %w", err)
	}

	ttl := time.Until(tx.ExpiresAt) + r.config.TTLSlack
	if ttl <= 0 {
		ttl = r.config.TTLSlack
	}

	key := ContextKey(tx.Kind, tx.TransactionID)

	err = r.client.Set(ctx, key, data, ttl).Err()
	if err != nil {
		return fmt.Errorf("couldn't persist payment context %q: %w", key, err)
	}

	return nil
}

func (r *Redis) Load(ctx context.Context, kind types.Kind, transactionID string) (
	*types.PendingTransaction, error) {

	key := ContextKey(kind, transactionID)

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't load payment context %q: %w", key, err)
	}

	var tx types.PendingTransaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("couldn't unmarshal payment context %q: %w", key, err)
	}

	return &tx, nil
}

func (r *Redis) Clear(ctx context.Context, kind types.Kind, transactionID string) {
	key := ContextKey(kind, transactionID)

	if err := r.client.Del(ctx, key).Err(); err != nil {
		// best-effort: a stale entry must not block the outcome
		r.log.Error("couldn't clear payment context", "key", key, "error", err)
	}
}

func (r *Redis) StashRedirect(ctx context.Context, rawURL string) error {
	if err := r.client.SAdd(ctx, redirectStashKey, rawURL).Err(); err != nil {
		return fmt.Errorf("couldn't stash redirect: %w", err)
	}
	return nil
}

func (r *Redis) PendingRedirects(ctx context.Context) ([]string, error) {
	urls, err := r.client.SMembers(ctx, redirectStashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("couldn't list pending redirects: %w", err)
	}
	return urls, nil
}

func (r *Redis) UnstashRedirect(ctx context.Context, rawURL string) {
	if err := r.client.SRem(ctx, redirectStashKey, rawURL).Err(); err != nil {
		r.log.Error("couldn't unstash redirect", "error", err)
	}
}
