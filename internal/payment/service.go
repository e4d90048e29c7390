// Package payment handles the card payment path: intent creation is proxied
// through the spreadsheet backend, and client-confirmed intents are verified
// server-side against the processor before a booking is recorded. No card
// data ever passes through this system.
package payment

import (
	"context"
	"strings"

	"clearaway_backend/platform/apperr"
	"clearaway_backend/platform/config"
	"clearaway_backend/platform/logger"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// IntentCreator is the backend gateway's payment-intent action.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, amountPence int64, refHint, email, name string) (string, error)
}

// Service creates and verifies payment intents.
type Service struct {
	creator  IntentCreator
	verify   bool
	retrieve func(ctx context.Context, intentID string) (*stripe.PaymentIntent, error)
	log      *logger.Logger
}

// New creates the payment service. When no Stripe key is configured,
// verification is disabled and card submissions are refused outright rather
// than trusted on the client's word.
func New(creator IntentCreator, cfg config.PaymentConfig, log *logger.Logger) *Service {
	if key := cfg.GetStripeSecretKey(); key != "" {
		stripe.Key = key
	}
	return &Service{
		creator:  creator,
		verify:   cfg.IsPaymentVerificationEnabled(),
		retrieve: retrieveIntent,
		log:      log,
	}
}

func retrieveIntent(ctx context.Context, intentID string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(intentID, params)
}

// CreateIntent requests a client secret for the given amount. The secret is
// handed to the browser for client-side confirmation.
func (s *Service) CreateIntent(ctx context.Context, amountPence int64, refHint, email, name string) (string, error) {
	if amountPence <= 0 {
		return "", apperr.BadRequest("no card payment is due for this booking")
	}
	secret, err := s.creator.CreatePaymentIntent(ctx, amountPence, refHint, email, name)
	if err != nil {
		s.log.PaymentEvent("intent_create_failed", refHint, err)
		return "", apperr.Wrap(apperr.KindUnavailable, "could not start the card payment", err)
	}
	s.log.PaymentEvent("intent_created", refHint, nil)
	return secret, nil
}

// VerifyIntent confirms that a client-confirmed PaymentIntent actually
// succeeded. Only an explicit "succeeded" status passes; any other status or
// processor error aborts the submission with no booking recorded.
func (s *Service) VerifyIntent(ctx context.Context, intentID string) error {
	if strings.TrimSpace(intentID) == "" {
		return apperr.Payment("missing payment reference")
	}
	if !s.verify {
		return apperr.Payment("card payments are not available right now")
	}

	intent, err := s.retrieve(ctx, intentID)
	if err != nil {
		s.log.PaymentEvent("intent_verify_failed", intentID, err)
		return apperr.Wrap(apperr.KindPayment, "could not verify the card payment", err)
	}
	if intent.Status != stripe.PaymentIntentStatusSucceeded {
		s.log.PaymentEvent("intent_not_succeeded", intentID, nil)
		return apperr.Payment("the card payment did not complete")
	}
	s.log.PaymentEvent("intent_verified", intentID, nil)
	return nil
}
