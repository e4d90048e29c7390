// Package transport defines the wizard's request and response shapes.
package transport

import (
	"clearaway_backend/internal/address"
	"clearaway_backend/internal/booking/domain"
)

// ContactRequest is the step 1 payload: who is booking.
type ContactRequest struct {
	ContactName string `json:"contactName" validate:"required,min=2,max=100"`
	CompanyName string `json:"companyName" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email" validate:"required"`
}

// CollectionRequest is the step 2 payload: where and when we collect.
// SlotKey is preferred; SlotLabel alone is accepted for callers built
// against the label-only schema.
type CollectionRequest struct {
	CollectionDate  string `json:"collectionDate" validate:"required"`
	SlotKey         string `json:"slotKey" validate:"required_without=SlotLabel,omitempty,slotkey"`
	SlotLabel       string `json:"slotLabel" validate:"omitempty,max=60"`
	Postcode        string `json:"postcode" validate:"required"`
	AddressLine1    string `json:"addressLine1" validate:"required,min=2,max=200"`
	AddressLine2    string `json:"addressLine2" validate:"omitempty,max=200"`
	Town            string `json:"town" validate:"required,max=100"`
	County          string `json:"county" validate:"omitempty,max=100"`
	SameContact     *bool  `json:"sameContact" validate:"required"`
	AltContactName  string `json:"altContactName" validate:"omitempty,max=100"`
	AltContactPhone string `json:"altContactPhone" validate:"omitempty,max=30"`
}

// PreferencesRequest is the step 3 payload: waste, notifications, payment.
// Submitting it completes the booking.
type PreferencesRequest struct {
	NotificationMethods []string `json:"notificationMethods" validate:"omitempty,dive,oneof=email sms whatsapp"`
	WasteTypes          []string `json:"wasteTypes" validate:"required,min=1,dive,min=1,max=100"`
	Description         string   `json:"description" validate:"required,min=5,max=2000"`
	SpecialInstructions string   `json:"specialInstructions" validate:"omitempty,max=1000"`
	Urgent              bool     `json:"urgent"`
	PaymentMethod       string   `json:"paymentMethod" validate:"required,oneof=card on_collection"`
	PaymentIntentID     string   `json:"paymentIntentId" validate:"omitempty,max=200"`
}

// PostcodeRequest drives the debounced address lookup while the customer
// types.
type PostcodeRequest struct {
	Postcode string `json:"postcode" validate:"required,max=10"`
}

// SlotOption is one selectable collection window with its pricing.
type SlotOption struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	SurchargePence int64  `json:"surchargePence"`
	MinChargePence int64  `json:"minChargePence"`
	AmountDuePence int64  `json:"amountDuePence"`
}

// SessionResponse is the wizard snapshot returned by every endpoint.
type SessionResponse struct {
	ID             string         `json:"id"`
	State          domain.State   `json:"state"`
	Draft          domain.Draft   `json:"draft"`
	LookupStatus   address.Status `json:"lookupStatus"`
	LookupMessage  string         `json:"lookupMessage,omitempty"`
	AmountDuePence int64          `json:"amountDuePence"`
}

// IntentResponse carries the payment-intent client secret for client-side
// confirmation.
type IntentResponse struct {
	ClientSecret   string `json:"clientSecret"`
	AmountDuePence int64  `json:"amountDuePence"`
}

// NewSessionResponse builds a SessionResponse from a session.
func NewSessionResponse(s *domain.Session, amountDuePence int64) SessionResponse {
	return SessionResponse{
		ID:             s.ID,
		State:          s.State,
		Draft:          s.Draft,
		LookupStatus:   s.LookupStatus,
		LookupMessage:  s.LookupMessage,
		AmountDuePence: amountDuePence,
	}
}
