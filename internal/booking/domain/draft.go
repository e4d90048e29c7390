package domain

import (
	"time"

	"clearaway_backend/internal/address"
	"clearaway_backend/internal/pricing"
)

// Payment method selections.
const (
	PaymentMethodCard         = "card"
	PaymentMethodOnCollection = "on_collection"
)

// Payment statuses transmitted to the backend.
const (
	PaymentStatusPaid    = "Paid"
	PaymentStatusOnSite  = "Pay on collection"
	PaymentStatusPending = "Pending"
)

// Draft is the accumulating record for one in-progress booking. Each wizard
// step owns a subset of fields and merges non-destructively: fields a step
// does not own keep their prior value.
type Draft struct {
	// Step 1: contact details.
	ContactName string `json:"contactName"`
	CompanyName string `json:"companyName"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`

	// Step 2: collection logistics. CollectionDate is a calendar date in
	// YYYY-MM-DD form; no timestamp, so the backend never shifts it across
	// timezones. SlotKey is the source of truth and SlotLabel is derived,
	// but both are kept because the backend schema predates slot keys.
	CollectionDate  string `json:"collectionDate"`
	SlotKey         string `json:"slotKey"`
	SlotLabel       string `json:"slotLabel"`
	Postcode        string `json:"postcode"`
	AddressLine1    string `json:"addressLine1"`
	AddressLine2    string `json:"addressLine2"`
	Town            string `json:"town"`
	County          string `json:"county"`
	SameContact     bool   `json:"sameContact"`
	AltContactName  string `json:"altContactName"`
	AltContactPhone string `json:"altContactPhone"`

	// Step 3: waste, payment and notification preferences.
	NotificationMethods []string `json:"notificationMethods"`
	WasteTypes          []string `json:"wasteTypes"`
	Description         string   `json:"description"`
	SpecialInstructions string   `json:"specialInstructions"`
	Urgent              bool     `json:"urgent"`
	PaymentMethod       string   `json:"paymentMethod"`
	PaymentStatus       string   `json:"paymentStatus"`
	PaymentReference    string   `json:"paymentReference"`
}

// Session holds one wizard session: the draft, the wizard position, and the
// address lookup status for UI display.
type Session struct {
	ID            string         `json:"id"`
	State         State          `json:"state"`
	Draft         Draft          `json:"draft"`
	LookupStatus  address.Status `json:"lookupStatus"`
	LookupMessage string         `json:"lookupMessage,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// NewSession creates an empty session at step 1.
func NewSession(id string, now time.Time) *Session {
	return &Session{
		ID:           id,
		State:        StateContact,
		LookupStatus: address.StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ReconcileSlot keeps the slot key and label mutually consistent after a
// merge. Data from older step versions may carry only a label; newer data
// carries the key. The key wins when both are present; a label that matches
// no table entry leaves the key unset rather than guessing.
func (d *Draft) ReconcileSlot() {
	switch {
	case d.SlotKey != "":
		d.SlotLabel = pricing.LabelFor(d.SlotKey)
	case d.SlotLabel != "":
		if key, ok := pricing.KeyForLabel(d.SlotLabel); ok {
			d.SlotKey = key
		}
	}
}

// ApplyAddress merges a resolved canonical address into the draft: line 1 is
// always overwritten, line 2 only when the customer hasn't typed one, and
// town/county/postcode follow the provider record.
func (d *Draft) ApplyAddress(a address.CanonicalAddress) {
	d.AddressLine1 = a.Line1
	if d.AddressLine2 == "" && a.Line2 != "" {
		d.AddressLine2 = a.Line2
	}
	d.Town = a.Town
	d.County = a.County
	if a.Postcode != "" {
		d.Postcode = a.Postcode
	}
}

// Reset discards all entered data and returns the session to step 1.
func (s *Session) Reset(now time.Time) {
	s.Draft = Draft{}
	s.State = StateContact
	s.LookupStatus = address.StatusPending
	s.LookupMessage = ""
	s.UpdatedAt = now
}
