package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"clearaway_backend/internal/address"
	"clearaway_backend/internal/backend"
	"clearaway_backend/internal/booking/domain"
	"clearaway_backend/internal/booking/repository"
	"clearaway_backend/internal/booking/transport"
	"clearaway_backend/platform/apperr"
	"clearaway_backend/platform/logger"
)

type fakeResolver struct {
	mu      sync.Mutex
	calls   []string
	result  address.CanonicalAddress
	err     error
	delay   time.Duration
	results map[string]address.CanonicalAddress
}

func (f *fakeResolver) Resolve(_ context.Context, postcode string) (address.CanonicalAddress, error) {
	f.mu.Lock()
	f.calls = append(f.calls, postcode)
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return address.CanonicalAddress{}, f.err
	}
	if f.results != nil {
		if a, ok := f.results[postcode]; ok {
			return a, nil
		}
		return address.CanonicalAddress{}, apperr.NotFound("no address found for this postcode")
	}
	return f.result, nil
}

func (f *fakeResolver) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeGateway struct {
	mu         sync.Mutex
	submitted  []map[string]interface{}
	fired      []map[string]interface{}
	submitErr  error
	submitOnce bool
}

func (f *fakeGateway) Submit(_ context.Context, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		err := f.submitErr
		if f.submitOnce {
			f.submitErr = nil
		}
		return err
	}
	f.submitted = append(f.submitted, payload)
	return nil
}

func (f *fakeGateway) SubmitFireAndForget(_ context.Context, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, payload)
}

type fakePayments struct {
	secret    string
	createErr error
	verifyErr error
	verified  []string
	created   []int64
}

func (f *fakePayments) CreateIntent(_ context.Context, amountPence int64, _, _, _ string) (string, error) {
	f.created = append(f.created, amountPence)
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.secret, nil
}

func (f *fakePayments) VerifyIntent(_ context.Context, intentID string) error {
	f.verified = append(f.verified, intentID)
	return f.verifyErr
}

type fakeQueue struct {
	enqueued []map[string]interface{}
	err      error
}

func (f *fakeQueue) EnqueueBestEffort(_ context.Context, _ string, payload map[string]interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, payload)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *repository.MemoryRepository
	resolver *fakeResolver
	gateway  *fakeGateway
	payments *fakePayments
	queue    *fakeQueue
}

func newFixture(t *testing.T, debounce time.Duration) *fixture {
	t.Helper()
	f := &fixture{
		repo:     repository.NewMemory(),
		resolver: &fakeResolver{},
		gateway:  &fakeGateway{},
		payments: &fakePayments{secret: "pi_secret"},
		queue:    &fakeQueue{},
	}
	f.svc = New(f.repo, f.resolver, f.gateway, f.payments, f.queue, debounce, logger.New("development"))
	return f
}

func boolPtr(b bool) *bool { return &b }

func contactStep() transport.ContactRequest {
	return transport.ContactRequest{
		ContactName: "Jane Doe",
		Phone:       "07911 123 456",
		Email:       " Jane@Example.com ",
	}
}

func collectionStep() transport.CollectionRequest {
	return transport.CollectionRequest{
		CollectionDate: "2026-09-01",
		SlotKey:        "anytime",
		Postcode:       "sw1a 1aa",
		AddressLine1:   "10 Downing Street",
		Town:           "London",
		SameContact:    boolPtr(true),
	}
}

func preferencesStep() transport.PreferencesRequest {
	return transport.PreferencesRequest{
		NotificationMethods: []string{"email"},
		WasteTypes:          []string{"Garden waste"},
		Description:         "Two bags of hedge trimmings by the side gate",
		PaymentMethod:       domain.PaymentMethodOnCollection,
	}
}

// advanceTo walks a fresh session up to the named step.
func (f *fixture) advanceTo(t *testing.T, state domain.State) *domain.Session {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if state == domain.StateContact {
		return session
	}
	session, err = f.svc.SubmitContact(ctx, session.ID, contactStep())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if state == domain.StateCollection {
		return session
	}
	session, err = f.svc.SubmitCollection(ctx, session.ID, collectionStep())
	if err != nil {
		t.Fatalf("SubmitCollection: %v", err)
	}
	return session
}

func TestWizardHappyPath(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	f.resolver.result = address.CanonicalAddress{
		Line1:    "10 Downing Street",
		Town:     "LONDON",
		County:   "Greater London",
		Postcode: "SW1A 1AA",
	}

	session, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.State != domain.StateContact {
		t.Fatalf("new session state = %q, want %q", session.State, domain.StateContact)
	}

	session, err = f.svc.SubmitContact(ctx, session.ID, contactStep())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if session.Draft.Phone != "+447911123456" {
		t.Errorf("phone = %q, want E.164 +447911123456", session.Draft.Phone)
	}
	if session.Draft.Email != "jane@example.com" {
		t.Errorf("email = %q, want lowercase trimmed", session.Draft.Email)
	}
	if session.State != domain.StateCollection {
		t.Fatalf("state after contact = %q, want %q", session.State, domain.StateCollection)
	}

	if _, err := f.svc.NotePostcodeChange(ctx, session.ID, "SW1A 1AA"); err != nil {
		t.Fatalf("NotePostcodeChange: %v", err)
	}
	if _, err := f.svc.EnsureLookup(ctx, session.ID); err != nil {
		t.Fatalf("EnsureLookup: %v", err)
	}
	session, err = f.svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if session.LookupStatus != address.StatusOK {
		t.Fatalf("lookup status = %q, want %q", session.LookupStatus, address.StatusOK)
	}
	if session.Draft.Town != "LONDON" {
		t.Errorf("town not autofilled: %q", session.Draft.Town)
	}

	session, err = f.svc.SubmitCollection(ctx, session.ID, collectionStep())
	if err != nil {
		t.Fatalf("SubmitCollection: %v", err)
	}
	if session.Draft.SlotLabel != "Any time (7am - 6pm)" {
		t.Errorf("slot label = %q, want derived from key", session.Draft.SlotLabel)
	}
	if session.Draft.Postcode != "SW1A 1AA" {
		t.Errorf("postcode = %q, want uppercased canonical", session.Draft.Postcode)
	}

	session, err = f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if err != nil {
		t.Fatalf("SubmitPreferences: %v", err)
	}
	if session.State != domain.StateSubmitted {
		t.Fatalf("state after preferences = %q, want %q", session.State, domain.StateSubmitted)
	}

	if len(f.gateway.submitted) != 1 {
		t.Fatalf("submitted %d payloads, want 1", len(f.gateway.submitted))
	}
	payload := f.gateway.submitted[0]
	if got := payload["notificationMethods"]; fmt.Sprintf("%v", got) != "[Email]" {
		t.Errorf("notificationMethods = %v, want [Email]", got)
	}
	if got := payload["wasteTypesSelected"]; fmt.Sprintf("%v", got) != "[Garden waste]" {
		t.Errorf("wasteTypesSelected = %v, want [Garden waste]", got)
	}
	if got := payload["collectionDate"]; got != "2026-09-01" {
		t.Errorf("collectionDate = %v, want 2026-09-01", got)
	}
	if _, present := payload["companyName"]; present {
		t.Errorf("blank companyName must be omitted, payload has %v", payload["companyName"])
	}
	if got := payload["paymentStatus"]; got != domain.PaymentStatusOnSite {
		t.Errorf("paymentStatus = %v, want %q", got, domain.PaymentStatusOnSite)
	}
}

func TestSubmitContactCollectsFieldProblems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = f.svc.SubmitContact(ctx, session.ID, transport.ContactRequest{
		ContactName: "Jane Doe",
		Phone:       "020 7946 0000", // landline
		Email:       "jane@mailinator.com",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation kind", err)
	}
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("err is not *apperr.Error: %v", err)
	}
	details, ok := domainErr.Details.(map[string]string)
	if !ok {
		t.Fatalf("details = %T, want map[string]string", domainErr.Details)
	}
	if details["phone"] == "" || details["email"] == "" {
		t.Errorf("details should name both failing fields, got %v", details)
	}

	got, err := f.svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.StateContact {
		t.Errorf("state moved on invalid input: %q", got.State)
	}
}

func TestStepOrderIsEnforced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session, err := f.svc.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	_, err = f.svc.SubmitCollection(ctx, session.ID, collectionStep())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("step 2 on a step-1 session: err = %v, want conflict", err)
	}
	_, err = f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("step 3 on a step-1 session: err = %v, want conflict", err)
	}
}

func TestSubmittedSessionRejectsFurtherSteps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session := f.advanceTo(t, domain.StatePreferences)
	if _, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep()); err != nil {
		t.Fatalf("SubmitPreferences: %v", err)
	}

	_, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("resubmission: err = %v, want conflict", err)
	}
	if len(f.gateway.submitted) != 1 {
		t.Errorf("backend received %d submissions, want exactly 1", len(f.gateway.submitted))
	}
}

func TestCardPaymentVerifiedBeforeSubmission(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	f.payments.verifyErr = apperr.Payment("payment was not completed")

	session := f.advanceTo(t, domain.StateCollection)
	coll := collectionStep()
	coll.SlotKey = "afterhours"
	session, err := f.svc.SubmitCollection(ctx, session.ID, coll)
	if err != nil {
		t.Fatalf("SubmitCollection: %v", err)
	}

	prefs := preferencesStep()
	prefs.PaymentMethod = domain.PaymentMethodCard
	prefs.PaymentIntentID = "pi_123"
	_, err = f.svc.SubmitPreferences(ctx, session.ID, prefs)
	if !apperr.Is(err, apperr.KindPayment) {
		t.Fatalf("err = %v, want payment kind", err)
	}
	if len(f.gateway.submitted)+len(f.gateway.fired) != 0 {
		t.Fatalf("booking must not reach the backend when payment fails")
	}

	got, err := f.svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.StatePreferences {
		t.Errorf("state = %q, want to stay at preferences for retry", got.State)
	}

	// Retry succeeds once the processor agrees.
	f.payments.verifyErr = nil
	result, err := f.svc.SubmitPreferences(ctx, session.ID, prefs)
	if err != nil {
		t.Fatalf("retry SubmitPreferences: %v", err)
	}
	if result.Draft.PaymentStatus != domain.PaymentStatusPaid {
		t.Errorf("paymentStatus = %q, want %q", result.Draft.PaymentStatus, domain.PaymentStatusPaid)
	}
	if result.Draft.PaymentReference != "pi_123" {
		t.Errorf("paymentReference = %q, want the intent id", result.Draft.PaymentReference)
	}
	if got := f.gateway.submitted[0]["paymentReference"]; got != "pi_123" {
		t.Errorf("payload paymentReference = %v, want pi_123", got)
	}
}

func TestCardWithNothingDueSkipsVerification(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session := f.advanceTo(t, domain.StatePreferences) // anytime slot, nothing due

	prefs := preferencesStep()
	prefs.PaymentMethod = domain.PaymentMethodCard
	result, err := f.svc.SubmitPreferences(ctx, session.ID, prefs)
	if err != nil {
		t.Fatalf("SubmitPreferences: %v", err)
	}
	if len(f.payments.verified) != 0 {
		t.Errorf("verification ran with nothing due")
	}
	if result.Draft.PaymentStatus != domain.PaymentStatusOnSite {
		t.Errorf("paymentStatus = %q, want %q", result.Draft.PaymentStatus, domain.PaymentStatusOnSite)
	}
}

func TestTransportFailureFallsBackToQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	f.gateway.submitErr = fmt.Errorf("post: %w", backend.ErrTransport)

	session := f.advanceTo(t, domain.StatePreferences)
	result, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if err != nil {
		t.Fatalf("SubmitPreferences: %v", err)
	}
	if result.State != domain.StateSubmitted {
		t.Fatalf("state = %q, want submitted despite transport failure", result.State)
	}
	if len(f.queue.enqueued) != 1 {
		t.Fatalf("queued %d payloads, want 1", len(f.queue.enqueued))
	}
	if len(f.gateway.fired) != 0 {
		t.Errorf("fire-and-forget used although the queue accepted the payload")
	}
}

func TestTransportFailureWithoutQueueFiresBlind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	f.svc = New(f.repo, f.resolver, f.gateway, f.payments, nil, time.Millisecond, logger.New("development"))
	f.gateway.submitErr = fmt.Errorf("post: %w", backend.ErrTransport)

	session := f.advanceTo(t, domain.StatePreferences)
	result, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if err != nil {
		t.Fatalf("SubmitPreferences: %v", err)
	}
	if result.State != domain.StateSubmitted {
		t.Fatalf("state = %q, want submitted", result.State)
	}
	if len(f.gateway.fired) != 1 {
		t.Fatalf("fire-and-forget calls = %d, want 1", len(f.gateway.fired))
	}
}

func TestBackendRejectionSurfacesAndKeepsDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	f.gateway.submitErr = errors.New("backend rejected submission: duplicate booking")
	f.gateway.submitOnce = true

	session := f.advanceTo(t, domain.StatePreferences)
	_, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable kind", err)
	}

	got, err := f.svc.Get(ctx, session.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != domain.StatePreferences {
		t.Fatalf("state = %q, want preferences so the customer can retry", got.State)
	}
	if got.Draft.Email == "" {
		t.Errorf("draft lost on failed submission")
	}

	if _, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep()); err != nil {
		t.Fatalf("retry after transient rejection: %v", err)
	}
}

func TestSubmissionSerializedPerSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session := f.advanceTo(t, domain.StatePreferences)

	locked, err := f.repo.TryLockSubmit(ctx, session.ID)
	if err != nil || !locked {
		t.Fatalf("TryLockSubmit: locked=%v err=%v", locked, err)
	}
	_, err = f.svc.SubmitPreferences(ctx, session.ID, preferencesStep())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want conflict while a submission is in flight", err)
	}

	if err := f.repo.UnlockSubmit(ctx, session.ID); err != nil {
		t.Fatalf("UnlockSubmit: %v", err)
	}
	if _, err := f.svc.SubmitPreferences(ctx, session.ID, preferencesStep()); err != nil {
		t.Fatalf("SubmitPreferences after unlock: %v", err)
	}
}

func TestBackKeepsDataAndResetClearsIt(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)
	session := f.advanceTo(t, domain.StatePreferences)

	session, err := f.svc.Back(ctx, session.ID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	if session.State != domain.StateCollection {
		t.Fatalf("state after back = %q, want collection", session.State)
	}
	if session.Draft.AddressLine1 == "" {
		t.Errorf("back discarded entered data")
	}

	session, err = f.svc.Back(ctx, session.ID)
	if err != nil {
		t.Fatalf("Back: %v", err)
	}
	_, err = f.svc.Back(ctx, session.ID)
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("back past step 1: err = %v, want bad request", err)
	}

	session, err = f.svc.Reset(ctx, session.ID)
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if session.State != domain.StateContact || session.Draft.Email != "" {
		t.Errorf("reset left state=%q email=%q, want a blank step-1 session", session.State, session.Draft.Email)
	}
}

func TestCreateIntentUsesSlotAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, time.Millisecond)

	session := f.advanceTo(t, domain.StateCollection)
	coll := collectionStep()
	coll.SlotKey = "afterhours"
	if _, err := f.svc.SubmitCollection(ctx, session.ID, coll); err != nil {
		t.Fatalf("SubmitCollection: %v", err)
	}

	resp, err := f.svc.CreateIntent(ctx, session.ID)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if resp.AmountDuePence != 9500 {
		t.Errorf("amount = %d, want the after-hours minimum charge 9500", resp.AmountDuePence)
	}
	if resp.ClientSecret != "pi_secret" {
		t.Errorf("clientSecret = %q", resp.ClientSecret)
	}
	if len(f.payments.created) != 1 || f.payments.created[0] != 9500 {
		t.Errorf("creator received %v, want [9500]", f.payments.created)
	}
}

func TestGetUnknownSessionIsNotFound(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	_, err := f.svc.Get(context.Background(), "missing")
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}
