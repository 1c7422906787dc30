package types

import "time"

type Kind string

const (
	KindBooking     Kind = "booking"
	KindWalletTopUp Kind = "wallet_topup"
)

// Kinds lists every transaction kind the reconciler knows about. Cold-start
// context lookups iterate over it because a raw callback URL carries no kind.
var Kinds = []Kind{KindBooking, KindWalletTopUp}

func (k Kind) Valid() bool {
	return k == KindBooking || k == KindWalletTopUp
}

type Provider string

const (
	ProviderVNPay  Provider = "vnpay"
	ProviderOnePay Provider = "onepay"
)

func (p Provider) Valid() bool {
	return p == ProviderVNPay || p == ProviderOnePay
}

// PendingTransaction is one in-flight payment attempt. It is persisted to the
// context store as soon as the provider hand-off starts, so the flow can be
// resumed after the app process was suspended while control was with the
// provider.
type PendingTransaction struct {
	TransactionID   string            `json:"transaction_id"`
	Kind            Kind              `json:"kind"`
	Provider        Provider          `json:"provider"`
	Amount          float64           `json:"amount"`
	CreatedAt       time.Time         `json:"created_at"`
	ExpiresAt       time.Time         `json:"expires_at"`
	BusinessContext map[string]string `json:"business_context,omitempty"`
	RedirectURL     string            `json:"redirect_url"`
}
