// Package address resolves a raw postcode to a canonical address through the
// external lookup provider's find/get actions, narrowing containers until a
// concrete address record appears or the cascade is exhausted.
package address

// CanonicalAddress is the normalized, provider-agnostic address shape used
// internally. Postcode is always uppercased.
type CanonicalAddress struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2"`
	Town     string `json:"town"`
	County   string `json:"county"`
	Postcode string `json:"postcode"`
}

// Status is the lookup outcome exposed to the UI.
type Status string

const (
	// StatusPending means no lookup has reached a definitive outcome yet.
	StatusPending Status = "pending"
	// StatusOK means an address was resolved and merged into the draft.
	StatusOK Status = "ok"
	// StatusNotFound means the full cascade produced no concrete address.
	// The customer proceeds with a manually typed address.
	StatusNotFound Status = "not_found"
	// StatusError means the provider or transport failed. Never blocks the
	// booking.
	StatusError Status = "error"
)
