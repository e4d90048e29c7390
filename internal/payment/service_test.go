package payment

import (
	"context"
	"errors"
	"testing"

	"clearaway_backend/platform/apperr"
	"clearaway_backend/platform/logger"

	stripe "github.com/stripe/stripe-go/v76"
)

type fakeCreator struct {
	secret string
	err    error

	gotAmount int64
}

func (f *fakeCreator) CreatePaymentIntent(_ context.Context, amountPence int64, _, _, _ string) (string, error) {
	f.gotAmount = amountPence
	return f.secret, f.err
}

type staticPaymentConfig struct{ key string }

func (c staticPaymentConfig) GetStripeSecretKey() string         { return c.key }
func (c staticPaymentConfig) IsPaymentVerificationEnabled() bool { return c.key != "" }

func TestCreateIntent(t *testing.T) {
	creator := &fakeCreator{secret: "pi_123_secret"}
	svc := New(creator, staticPaymentConfig{key: "sk_test"}, logger.New("development"))

	secret, err := svc.CreateIntent(context.Background(), 9500, "ref", "jane@example.com", "Jane")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secret != "pi_123_secret" {
		t.Fatalf("wrong secret: %q", secret)
	}
	if creator.gotAmount != 9500 {
		t.Fatalf("amount not forwarded: %d", creator.gotAmount)
	}

	if _, err := svc.CreateIntent(context.Background(), 0, "ref", "", ""); !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("zero amount should be refused, got %v", err)
	}

	creator.err = errors.New("backend down")
	if _, err := svc.CreateIntent(context.Background(), 100, "ref", "", ""); !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("gateway failure should map to unavailable, got %v", err)
	}
}

func TestVerifyIntent(t *testing.T) {
	svc := New(&fakeCreator{}, staticPaymentConfig{key: "sk_test"}, logger.New("development"))

	status := stripe.PaymentIntentStatusSucceeded
	var retrieveErr error
	svc.retrieve = func(_ context.Context, intentID string) (*stripe.PaymentIntent, error) {
		if retrieveErr != nil {
			return nil, retrieveErr
		}
		return &stripe.PaymentIntent{ID: intentID, Status: status}, nil
	}

	if err := svc.VerifyIntent(context.Background(), "pi_1"); err != nil {
		t.Fatalf("succeeded intent should verify: %v", err)
	}

	status = stripe.PaymentIntentStatusRequiresPaymentMethod
	if err := svc.VerifyIntent(context.Background(), "pi_1"); !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("non-succeeded intent must fail verification, got %v", err)
	}

	retrieveErr = errors.New("stripe down")
	if err := svc.VerifyIntent(context.Background(), "pi_1"); !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("processor error must abort, got %v", err)
	}

	if err := svc.VerifyIntent(context.Background(), "  "); !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("blank reference must fail, got %v", err)
	}
}

func TestVerifyIntentDisabledWithoutKey(t *testing.T) {
	svc := New(&fakeCreator{}, staticPaymentConfig{}, logger.New("development"))
	if err := svc.VerifyIntent(context.Background(), "pi_1"); !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("verification without a key must refuse, got %v", err)
	}
}
