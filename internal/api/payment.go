package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// CallbackHandler is the redirect intake. The full request URI, query
// parameters included, is the provider's wire payload; it goes to the
// observer untouched and the reconciler does the rest.
func (s *Server) CallbackHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	s.log.Info("Received a payment callback")

	s.observer.Offer(r.Context(), r.URL.RequestURI())

	return "ok", nil
}

type initiateRequest struct {
	Kind            types.Kind        `json:"kind"`
	Provider        types.Provider    `json:"provider"`
	Amount          float64           `json:"amount"`
	BusinessContext map[string]string `json:"business_context,omitempty"`
}

type initiateResponse struct {
	TransactionID string    `json:"transaction_id"`
	RedirectURL   string    `json:"redirect_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

func (s *Server) InitiateHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	var req initiateRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if !req.Kind.Valid() || !req.Provider.Valid() || req.Amount <= 0 {
		return nil, &APIError{BadRequestError}
	}

	s.log.Info("Initiating a payment",
		"kind", req.Kind, "provider", req.Provider, "amount", req.Amount)

	result, err := s.backend.Initiate(r.Context(), req.Kind, req.Provider,
		req.Amount, req.BusinessContext)
	if err != nil {
		s.log.Error("couldn't initiate transaction", "error", err)
		return nil, err
	}

	tx := &types.PendingTransaction{
		TransactionID:   result.TransactionID,
		Kind:            req.Kind,
		Provider:        req.Provider,
		Amount:          req.Amount,
		CreatedAt:       time.Now(),
		ExpiresAt:       result.ExpiresAt,
		BusinessContext: req.BusinessContext,
		RedirectURL:     result.RedirectURL,
	}

	// the session must outlive this request, so it runs on the server context
	if _, err := s.controller.Begin(s.sessionContext(), tx); err != nil {
		return nil, err
	}

	return initiateResponse{
		TransactionID: result.TransactionID,
		RedirectURL:   result.RedirectURL,
		ExpiresAt:     result.ExpiresAt,
	}, nil
}

type transactionRequest struct {
	TransactionID string `json:"transaction_id"`
	// KeepContext only applies to cancel: true when the user merely closed
	// the screen and might still return through the provider redirect.
	KeepContext bool `json:"keep_context,omitempty"`
}

func (s *Server) RetryHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	req, err := decodeTransactionRequest(r)
	if err != nil {
		return nil, err
	}

	if err := s.controller.Retry(s.sessionContext(), req.TransactionID); err != nil {
		return nil, err
	}

	return "ok", nil
}

func (s *Server) AbandonHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	req, err := decodeTransactionRequest(r)
	if err != nil {
		return nil, err
	}

	if err := s.controller.Abandon(r.Context(), req.TransactionID); err != nil {
		return nil, err
	}

	return "ok", nil
}

func (s *Server) CancelHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	req, err := decodeTransactionRequest(r)
	if err != nil {
		return nil, err
	}

	if err := s.controller.Cancel(r.Context(), req.TransactionID,
		req.KeepContext); err != nil {
		return nil, err
	}

	return "ok", nil
}

// ResumeHandler is hit when the app comes back to the foreground; deadlines
// are re-evaluated immediately instead of waiting for the next tick.
func (s *Server) ResumeHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	s.controller.Resume()
	return "ok", nil
}

type statusResponse struct {
	TransactionID    string      `json:"transaction_id"`
	State            types.State `json:"state"`
	RemainingSeconds int64       `json:"remaining_seconds"`
}

func (s *Server) StatusHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	transactionID := r.URL.Query().Get("transaction_id")
	if transactionID == "" {
		return nil, &APIError{BadRequestError}
	}

	state, remaining, ok := s.controller.Status(transactionID)
	if !ok {
		return nil, &APIError{UnknownTransaction}
	}

	return statusResponse{
		TransactionID:    transactionID,
		State:            state,
		RemainingSeconds: remaining,
	}, nil
}

type navigationPolicyResponse struct {
	ShouldLoad bool `json:"should_load"`
}

// NavigationPolicyHandler tells the in-app browser whether a URL is safe to
// render or must be yielded to the OS deep-link handler.
func (s *Server) NavigationPolicyHandler(w http.ResponseWriter, r *http.Request) (
	interface{}, error) {

	requestURL := r.URL.Query().Get("url")
	if requestURL == "" {
		return nil, &APIError{BadRequestError}
	}

	return navigationPolicyResponse{
		ShouldLoad: s.guard.ShouldLoad(requestURL),
	}, nil
}

func decodeTransactionRequest(r *http.Request) (*transactionRequest, error) {
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if req.TransactionID == "" {
		return nil, &APIError{BadRequestError}
	}

	return &req, nil
}

func decodeBody(r *http.Request, out interface{}) error {
	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return err
	}
	defer r.Body.Close()

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		return errors.New(errors.CodeInvalidState, "request unmarshalling error", err)
	}

	return nil
}
