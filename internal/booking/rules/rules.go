// Package rules provides the booking form validation rule set: phone, email
// and postcode checks plus the conditional alternate-contact requirement.
// Every check is a pure function returning the normalized value and a
// human-readable reason on failure; nothing here touches the network.
package rules

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"clearaway_backend/internal/pricing"
	"clearaway_backend/platform/phone"
	platformvalidator "clearaway_backend/platform/validator"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// postcodeRegex matches the UK postcode shape: 1-2 letters, 1-2 digits,
// optional letter, optional space, digit, 2 letters.
var postcodeRegex = regexp.MustCompile(`^[A-Za-z]{1,2}\d{1,2}[A-Za-z]?\s?\d[A-Za-z]{2}$`)

//go:embed disposable_domains.yaml
var disposableYAML []byte

var disposableDomains map[string]bool

// syntax checks reuse the same validator engine the transport DTOs use.
var syntax = validator.New()

func init() {
	var domains []string
	if err := yaml.Unmarshal(disposableYAML, &domains); err != nil {
		panic(fmt.Sprintf("rules: invalid disposable_domains.yaml: %v", err))
	}
	disposableDomains = make(map[string]bool, len(domains))
	for _, d := range domains {
		disposableDomains[strings.ToLower(strings.TrimSpace(d))] = true
	}
}

// Phone validates a UK mobile number. The normalized E.164 form is returned
// on success. All conditions must hold: structural validity within the +44
// plan, not a dummy digit sequence, and classified as a mobile line by the
// numbering plan.
func Phone(raw string) (string, error) {
	normalized := phone.NormalizeUK(raw)
	if normalized == "" {
		return "", errors.New("enter a mobile number")
	}
	// Check the digits as typed: trunk-prefix conversion would hide a
	// sequence like 0123456789 behind the country code.
	if phone.IsDummySequence(raw) {
		return "", errors.New("enter a real mobile number")
	}
	if !phone.IsUKMobile(normalized) {
		return "", errors.New("enter a valid UK mobile number")
	}
	return phone.FormatE164(normalized), nil
}

// Email validates and lowercases an email address. Disposable providers are
// rejected so confirmation and reminder messages can actually reach the
// customer.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", errors.New("enter an email address")
	}
	if err := syntax.Var(email, "email"); err != nil {
		return "", errors.New("enter a valid email address")
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	dot := strings.LastIndex(domain, ".")
	if dot < 1 || len(domain)-dot-1 < 2 {
		return "", errors.New("enter a valid email address")
	}
	if disposableDomains[domain] {
		return "", errors.New("disposable email addresses are not accepted")
	}
	return email, nil
}

// Postcode validates the UK postcode shape and returns the uppercased,
// whitespace-collapsed form.
func Postcode(raw string) (string, error) {
	collapsed := strings.Join(strings.Fields(raw), " ")
	if collapsed == "" {
		return "", errors.New("enter a postcode")
	}
	if !postcodeRegex.MatchString(collapsed) {
		return "", errors.New("enter a valid UK postcode")
	}
	return strings.ToUpper(collapsed), nil
}

// AlternateContact enforces the conditional contact fields: when the person
// on site differs from the booking contact, a name (at least 2 characters)
// and a valid phone number with at least 10 digits are mandatory. The
// returned map carries per-field reasons and is empty when valid.
func AlternateContact(sameContact bool, name, phoneRaw string) map[string]string {
	problems := make(map[string]string)
	if sameContact {
		return problems
	}
	if len(strings.TrimSpace(name)) < 2 {
		problems["altContactName"] = "enter the name of the person on site"
	}
	digits := phone.Digits(phoneRaw)
	if len(digits) < 10 || phone.IsDummySequence(phoneRaw) {
		problems["altContactPhone"] = "enter a valid contact number"
	}
	return problems
}

// Register wires the slot-key rule into the shared validator so transport
// DTOs can reference it as a tag. Phone, email and postcode stay out of the
// binding layer: the service runs them itself to produce per-field messages
// a generic binding error could not carry.
func Register(val *platformvalidator.Validator) error {
	return val.RegisterValidation("slotkey", func(fl validator.FieldLevel) bool {
		return pricing.Known(fl.Field().String())
	})
}
