package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Client talks to the rental platform API: transaction initiation and the
// per-kind confirmation endpoints.
type Client struct {
	config *Config
	http   *http.Client
	log    *slog.Logger
}

func New(config *Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		http:   &http.Client{Timeout: config.Timeout},
		log:    slog.With("component", "backend-client"),
	}
}

type initiateRequest struct {
	Provider        types.Provider    `json:"provider"`
	Amount          float64           `json:"amount"`
	BusinessContext map[string]string `json:"business_context,omitempty"`
}

type InitiationResult struct {
	TransactionID string    `json:"transaction_id"`
	RedirectURL   string    `json:"redirect_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// Initiate opens a provider transaction for the requested kind and amount and
// returns the redirect hand-off data.
func (c *Client) Initiate(ctx context.Context, kind types.Kind,
	provider types.Provider, amount float64,
	businessContext map[string]string) (*InitiationResult, error) {

	body := initiateRequest{
		Provider:        provider,
		Amount:          amount,
		BusinessContext: businessContext,
	}

	var result InitiationResult
	err := c.post(ctx, initiatePath(kind), body, &result)
	if err != nil {
		return nil, errors.New(errors.CodeInitiationFailed,
			"couldn't initiate provider transaction", err)
	}

	if result.TransactionID == "" || result.RedirectURL == "" {
		return nil, errors.New(errors.CodeInitiationFailed,
			"initiation response is missing transaction id or redirect url", nil)
	}

	return &result, nil
}

type confirmRequest struct {
	TransactionID  string            `json:"transaction_id"`
	Provider       types.Provider    `json:"provider"`
	Success        bool              `json:"success"`
	ProviderTxnID  string            `json:"provider_txn_id"`
	Amount         float64           `json:"amount"`
	ResponseCode   string            `json:"response_code"`
	ProviderFields map[string]string `json:"provider_fields,omitempty"`
	// business identifiers resolve which booking or wallet to update
	BusinessContext map[string]string `json:"business_context,omitempty"`
}

// Confirm submits the canonical callback to the backend of record. Any error,
// transport or HTTP, is retryable from the caller's point of view: the
// underlying payment may have succeeded and only verification failed.
func (c *Client) Confirm(ctx context.Context, tx *types.PendingTransaction,
	cb *types.CanonicalCallback) error {

	body := confirmRequest{
		TransactionID:   tx.TransactionID,
		Provider:        tx.Provider,
		Success:         cb.IsSuccess,
		ProviderTxnID:   cb.ProviderTxnID,
		Amount:          cb.Amount,
		ResponseCode:    cb.ResponseCode,
		ProviderFields:  cb.RawFields,
		BusinessContext: tx.BusinessContext,
	}

	err := c.post(ctx, confirmPath(tx.Kind), body, nil)
	if err != nil {
		return errors.New(errors.CodeConfirmationFailed,
			"backend confirmation failed", err)
	}

	return nil
}

func initiatePath(kind types.Kind) string {
	if kind == types.KindWalletTopUp {
		return "/api/v1/wallet/topups"
	}
	return "/api/v1/bookings/payments"
}

func confirmPath(kind types.Kind) string {
	if kind == types.KindWalletTopUp {
		return "/api/v1/wallet/topups/confirm"
	}
	return "/api/v1/bookings/payments/confirm"
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("couldn't marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.config.BaseURL+path, bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(resp.Body)
		c.log.Error("backend call failed",
			"path", path,
			"status", resp.StatusCode,
			"body", string(respBody),
		)
		return fmt.Errorf("backend returned %d", resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("couldn't decode response: %w", err)
	}

	return nil
}
