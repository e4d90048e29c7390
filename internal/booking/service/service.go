// Package service orchestrates the booking wizard: step validation, draft
// merging, the debounced address lookup, and final assembly and submission.
package service

import (
	"context"
	"errors"
	"time"

	"clearaway_backend/internal/address"
	"clearaway_backend/internal/backend"
	"clearaway_backend/internal/booking/domain"
	"clearaway_backend/internal/booking/repository"
	"clearaway_backend/internal/booking/rules"
	"clearaway_backend/internal/booking/transport"
	"clearaway_backend/internal/pricing"
	"clearaway_backend/platform/apperr"
	"clearaway_backend/platform/logger"

	"github.com/google/uuid"
)

// AddressResolver runs the postcode lookup cascade.
type AddressResolver interface {
	Resolve(ctx context.Context, postcode string) (address.CanonicalAddress, error)
}

// Gateway is the subset of the backend client used for submission.
type Gateway interface {
	Submit(ctx context.Context, payload map[string]interface{}) error
	SubmitFireAndForget(ctx context.Context, payload map[string]interface{})
}

// Payments verifies card payments before a booking is recorded.
type Payments interface {
	CreateIntent(ctx context.Context, amountPence int64, refHint, email, name string) (string, error)
	VerifyIntent(ctx context.Context, intentID string) error
}

// FallbackQueue re-delivers payloads in the background when the readable
// submission path fails. May be absent.
type FallbackQueue interface {
	EnqueueBestEffort(ctx context.Context, sessionID string, payload map[string]interface{}) error
}

// Service drives one wizard session per booking.
type Service struct {
	repo     repository.Repository
	resolver AddressResolver
	gateway  Gateway
	payments Payments
	queue    FallbackQueue // nil when the delivery queue is disabled
	lookups  *lookupCoordinator
	debounce time.Duration
	log      *logger.Logger
	now      func() time.Time
}

// New creates the wizard service. queue may be nil; the fallback then
// degrades to a direct fire-and-forget post.
func New(repo repository.Repository, resolver AddressResolver, gateway Gateway, payments Payments, queue FallbackQueue, debounce time.Duration, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		gateway:  gateway,
		payments: payments,
		queue:    queue,
		lookups:  newLookupCoordinator(),
		debounce: debounce,
		log:      log,
		now:      time.Now,
	}
}

// Start creates an empty wizard session at step 1.
func (s *Service) Start(ctx context.Context) (*domain.Session, error) {
	session := domain.NewSession(uuid.NewString(), s.now())
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not start a booking", err)
	}
	return session, nil
}

// Get returns the current session snapshot.
func (s *Service) Get(ctx context.Context, id string) (*domain.Session, error) {
	return s.repo.Get(ctx, id)
}

// AmountDuePence computes the card amount for the session's slot selection.
func (s *Service) AmountDuePence(session *domain.Session) int64 {
	if session.Draft.SlotKey == "" {
		return 0
	}
	return pricing.AmountDuePence(session.Draft.SlotKey)
}

// SubmitContact completes step 1.
func (s *Service) SubmitContact(ctx context.Context, id string, req transport.ContactRequest) (*domain.Session, error) {
	session, err := s.sessionAt(ctx, id, domain.StateContact)
	if err != nil {
		return nil, err
	}

	problems := make(map[string]string)
	phone, err := rules.Phone(req.Phone)
	if err != nil {
		problems["phone"] = err.Error()
	}
	email, err := rules.Email(req.Email)
	if err != nil {
		problems["email"] = err.Error()
	}
	if len(problems) > 0 {
		return nil, apperr.Validation("please correct the highlighted fields").WithDetails(problems)
	}

	session.Draft.ContactName = req.ContactName
	session.Draft.CompanyName = req.CompanyName
	session.Draft.Phone = phone
	session.Draft.Email = email

	return s.advance(ctx, session)
}

// SubmitCollection completes step 2.
func (s *Service) SubmitCollection(ctx context.Context, id string, req transport.CollectionRequest) (*domain.Session, error) {
	session, err := s.sessionAt(ctx, id, domain.StateCollection)
	if err != nil {
		return nil, err
	}

	problems := make(map[string]string)
	postcode, err := rules.Postcode(req.Postcode)
	if err != nil {
		problems["postcode"] = err.Error()
	}
	date, ok := collectionDateString(req.CollectionDate)
	if !ok {
		problems["collectionDate"] = "enter a valid collection date"
	}
	sameContact := req.SameContact == nil || *req.SameContact
	for field, reason := range rules.AlternateContact(sameContact, req.AltContactName, req.AltContactPhone) {
		problems[field] = reason
	}
	if len(problems) > 0 {
		return nil, apperr.Validation("please correct the highlighted fields").WithDetails(problems)
	}

	session.Draft.CollectionDate = date
	session.Draft.SlotKey = req.SlotKey
	session.Draft.SlotLabel = req.SlotLabel
	session.Draft.Postcode = postcode
	session.Draft.AddressLine1 = req.AddressLine1
	session.Draft.AddressLine2 = req.AddressLine2
	session.Draft.Town = req.Town
	session.Draft.County = req.County
	session.Draft.SameContact = sameContact
	session.Draft.AltContactName = req.AltContactName
	session.Draft.AltContactPhone = req.AltContactPhone
	session.Draft.ReconcileSlot()

	// The address is final for this step; a still-pending lookup timer
	// would only overwrite what the customer just confirmed.
	s.lookups.cancel(id)

	return s.advance(ctx, session)
}

// SubmitPreferences completes step 3 and submits the booking. On the card
// path the client-confirmed PaymentIntent is verified first; any processor
// failure aborts with no booking recorded.
func (s *Service) SubmitPreferences(ctx context.Context, id string, req transport.PreferencesRequest) (*domain.Session, error) {
	session, err := s.sessionAt(ctx, id, domain.StatePreferences)
	if err != nil {
		return nil, err
	}

	locked, err := s.repo.TryLockSubmit(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not submit the booking", err)
	}
	if !locked {
		return nil, apperr.Conflict("a submission is already in progress")
	}
	defer func() {
		_ = s.repo.UnlockSubmit(ctx, id)
	}()

	session.Draft.NotificationMethods = req.NotificationMethods
	session.Draft.WasteTypes = req.WasteTypes
	session.Draft.Description = req.Description
	session.Draft.SpecialInstructions = req.SpecialInstructions
	session.Draft.Urgent = req.Urgent
	session.Draft.PaymentMethod = req.PaymentMethod
	session.Draft.ReconcileSlot()

	amount := s.AmountDuePence(session)
	if req.PaymentMethod == domain.PaymentMethodCard && amount > 0 {
		if err := s.payments.VerifyIntent(ctx, req.PaymentIntentID); err != nil {
			return nil, err
		}
		session.Draft.PaymentStatus = domain.PaymentStatusPaid
		session.Draft.PaymentReference = req.PaymentIntentID
	} else {
		session.Draft.PaymentStatus = domain.PaymentStatusOnSite
	}

	payload := assemble(session.Draft)
	if err := s.deliver(ctx, session.ID, payload); err != nil {
		// Draft intact for a retry.
		return nil, err
	}

	return s.advance(ctx, session)
}

// deliver runs the primary readable exchange and, on transport-level
// failure, the fire-and-forget fallback. The fallback reports success
// without delivery confirmation; that trade-off is documented, not hidden.
func (s *Service) deliver(ctx context.Context, sessionID string, payload map[string]interface{}) error {
	err := s.gateway.Submit(ctx, payload)
	if err == nil {
		s.log.SubmissionEvent(sessionID, true, "primary", nil)
		return nil
	}

	if !errors.Is(err, backend.ErrTransport) {
		s.log.SubmissionEvent(sessionID, false, "primary", err)
		return apperr.Wrap(apperr.KindUnavailable, "the booking could not be submitted; please try again", err)
	}

	if s.queue != nil {
		if qErr := s.queue.EnqueueBestEffort(ctx, sessionID, payload); qErr == nil {
			s.log.SubmissionEvent(sessionID, false, "queued", nil)
			return nil
		}
	}

	s.gateway.SubmitFireAndForget(ctx, payload)
	s.log.SubmissionEvent(sessionID, false, "fire-and-forget", nil)
	return nil
}

// Back moves one step backward without validation, keeping entered data.
func (s *Service) Back(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prev, err := domain.Back(session.State)
	if err != nil {
		return nil, err
	}
	session.State = prev
	session.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not store the booking step", err)
	}
	return session, nil
}

// Reset discards the session's data and returns it to step 1 ("book
// another").
func (s *Service) Reset(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.lookups.cancel(id)
	session.Reset(s.now())
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not reset the booking", err)
	}
	return session, nil
}

// CreateIntent requests a payment-intent client secret for the amount due
// on the session's slot selection.
func (s *Service) CreateIntent(ctx context.Context, id string) (*transport.IntentResponse, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if domain.IsTerminal(session.State) {
		return nil, apperr.Conflict("booking already submitted")
	}

	amount := s.AmountDuePence(session)
	secret, err := s.payments.CreateIntent(ctx, amount, session.ID, session.Draft.Email, session.Draft.ContactName)
	if err != nil {
		return nil, err
	}
	return &transport.IntentResponse{ClientSecret: secret, AmountDuePence: amount}, nil
}

func (s *Service) sessionAt(ctx context.Context, id string, state domain.State) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.State != state {
		if domain.IsTerminal(session.State) {
			return nil, apperr.Conflict("booking already submitted")
		}
		return nil, apperr.Conflict("this step is not the booking's current step")
	}
	return session, nil
}

func (s *Service) advance(ctx context.Context, session *domain.Session) (*domain.Session, error) {
	next, err := domain.Advance(session.State)
	if err != nil {
		return nil, err
	}
	session.State = next
	session.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "could not store the booking step", err)
	}
	return session, nil
}
