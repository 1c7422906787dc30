package types

// CanonicalCallback is the provider-agnostic shape of a payment outcome. It is
// only ever built from a successfully parsed redirect URL; a malformed URL
// produces a parse error, never a partially filled callback.
type CanonicalCallback struct {
	IsSuccess bool `json:"is_success"`
	// OrderRef is the correlation key matching PendingTransaction.TransactionID.
	OrderRef         string  `json:"order_ref"`
	ProviderTxnID    string  `json:"provider_txn_id"`
	Amount           float64 `json:"amount"`
	ResponseCode     string  `json:"response_code"`
	// FailureReason is the provider-code-mapped user message, empty on success.
	FailureReason    string            `json:"failure_reason,omitempty"`
	// RawFields carries every provider parameter untouched (bank code, card
	// type, pay date, ...) for the backend confirmation call.
	RawFields map[string]string `json:"raw_fields,omitempty"`
}
