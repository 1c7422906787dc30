package types

type State string

const (
	StatePending   State = "pending"
	StateVerifying State = "verifying"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateExpired   State = "expired"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateExpired
}

type EventType string

const (
	EventSucceeded EventType = "succeeded"
	EventFailed    EventType = "failed"
	EventExpired   EventType = "expired"
	// EventFailedUnverified is emitted when the user abandons after a failed
	// backend confirmation: the provider payment may have gone through, so the
	// UI shows "check back later" rather than a hard payment failure.
	EventFailedUnverified EventType = "failed_unverified"
	// EventRetryPrompt is the only non-terminal event: backend confirmation
	// errored and the user must choose retry or abandon.
	EventRetryPrompt EventType = "retry_prompt"
)

func (t EventType) Terminal() bool {
	return t != EventRetryPrompt
}

// Event is what the UI notification channel receives on state transitions.
type Event struct {
	Type            EventType         `json:"type"`
	TransactionID   string            `json:"transaction_id"`
	Kind            Kind              `json:"kind"`
	Provider        Provider          `json:"provider"`
	Amount          float64           `json:"amount"`
	ResponseCode    string            `json:"response_code,omitempty"`
	Message         string            `json:"message,omitempty"`
	BusinessContext map[string]string `json:"business_context,omitempty"`
}
