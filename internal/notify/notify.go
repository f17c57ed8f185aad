// Package notify delivers reminder messages to patients through a
// token-based push provider.
//
// Flow: resolve recipients → drop inactive / tokenless / opted-out →
// validate token syntax → batch to the provider limit → send → reconcile
// delivery receipts, pruning tokens the provider reports as dead.
package notify

import "context"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultBatchSize is the provider's maximum tokens per send call.
	DefaultBatchSize = 100

	// ErrDeviceNotRegistered is the provider's permanent-failure code for a
	// token that no longer maps to an installed app. Tokens with this error
	// are cleared from the patient so future dispatches skip them.
	ErrDeviceNotRegistered = "DeviceNotRegistered"

	ticketStatusOK    = "ok"
	ticketStatusError = "error"
)

// Notification categories a patient can opt in or out of.
type Category string

const (
	CategoryHealth  Category = "health_reminder"
	CategoryGeneral Category = "general"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Message is a reminder to deliver to one or more patients.
type Message struct {
	Title    string
	Body     string
	Category Category
	Data     map[string]string
}

// Recipient is a patient as seen by the dispatcher: at most one push token
// plus category-level notification preferences.
type Recipient struct {
	PatientID    string
	FullName     string
	Active       bool
	Token        string
	HealthOptIn  bool
	GeneralOptIn bool
}

// Report is the outcome of a single dispatch. Business-level non-delivery
// (no token, opted out) is counted, not raised.
type Report struct {
	Delivered     int // provider accepted and receipt did not revoke
	NoToken       int // inactive account or no token on file
	OptedOut      int // category disabled by preference
	InvalidToken  int // malformed token, dropped before any provider call
	Failed        int // provider/transport failure for this recipient
	TokensCleared int // tokens pruned after a permanent provider error
}

// Attempted reports how many recipients reached the provider.
func (r Report) Attempted() int {
	return r.Delivered + r.Failed + r.TokensCleared
}

// RecipientStore resolves patients to push recipients and prunes dead tokens.
type RecipientStore interface {
	Recipients(ctx context.Context, patientIDs []string) ([]Recipient, error)
	ClearToken(ctx context.Context, patientID string) error
}

// PushProvider is the provider-side contract: batched send returning
// per-message tickets, and receipt lookup keyed by ticket ids.
type PushProvider interface {
	Send(ctx context.Context, msgs []PushMessage) ([]Ticket, error)
	Receipts(ctx context.Context, ids []string) (map[string]Receipt, error)
}

// PushMessage is one message addressed to one token.
type PushMessage struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Ticket is the provider's synchronous per-message response.
type Ticket struct {
	ID      string        `json:"id"`
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details TicketDetails `json:"details"`
}

// TicketDetails carries the provider error class when Status is "error".
type TicketDetails struct {
	Error string `json:"error"`
}

// Receipt is the provider's asynchronous delivery feedback for a ticket.
type Receipt struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Details TicketDetails `json:"details"`
}
