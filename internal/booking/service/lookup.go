package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"clearaway_backend/internal/address"
	"clearaway_backend/internal/booking/domain"
	"clearaway_backend/platform/apperr"
)

// lookupCoordinator debounces postcode-driven lookups: one pending timer per
// session, cancelled whenever the postcode changes again before it fires.
// Cancellation is cooperative - there is no in-flight request abort - so the
// lookup result is only applied after re-checking that the session is still
// on the collection step and its current postcode still matches the one the
// lookup was triggered for.
type lookupCoordinator struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newLookupCoordinator() *lookupCoordinator {
	return &lookupCoordinator{timers: make(map[string]*time.Timer)}
}

// schedule replaces any pending lookup for the session with a new one.
func (c *lookupCoordinator) schedule(sessionID string, delay time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[sessionID]; ok {
		timer.Stop()
	}
	c.timers[sessionID] = time.AfterFunc(delay, func() {
		c.clear(sessionID)
		fn()
	})
}

// cancel stops a pending lookup, if any.
func (c *lookupCoordinator) cancel(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timer, ok := c.timers[sessionID]; ok {
		timer.Stop()
		delete(c.timers, sessionID)
	}
}

func (c *lookupCoordinator) clear(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.timers, sessionID)
}

// NotePostcodeChange records a postcode edit on the session and schedules a
// debounced lookup for it. An earlier pending lookup for the session is
// superseded.
func (s *Service) NotePostcodeChange(ctx context.Context, id, postcode string) (*domain.Session, error) {
	session, err := s.sessionAt(ctx, id, domain.StateCollection)
	if err != nil {
		return nil, err
	}

	session.Draft.Postcode = strings.TrimSpace(postcode)
	session.LookupStatus = address.StatusPending
	session.LookupMessage = ""
	session.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, session); err != nil {
		return nil, err
	}

	target := session.Draft.Postcode
	s.lookups.schedule(id, s.debounce, func() {
		// The UI event that triggered this is long gone; run against a
		// fresh context with the gateway's own timeout as the bound.
		s.runLookup(context.Background(), id, target)
	})

	return session, nil
}

// EnsureLookup is the blur-time lookup: it runs synchronously
// unless a definitive outcome was already reached for the current value.
// Postcode edits always reset the status to pending, so a definitive status
// here is known to describe the current postcode.
func (s *Service) EnsureLookup(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.sessionAt(ctx, id, domain.StateCollection)
	if err != nil {
		return nil, err
	}

	if session.LookupStatus == address.StatusOK || session.LookupStatus == address.StatusNotFound {
		return session, nil
	}

	s.lookups.cancel(id)
	s.runLookup(ctx, id, session.Draft.Postcode)
	return s.repo.Get(ctx, id)
}

// runLookup resolves the postcode and applies the outcome to the session,
// discarding the result when the postcode has changed since the trigger or
// the session has moved past the collection step.
func (s *Service) runLookup(ctx context.Context, id, target string) {
	resolved, resolveErr := s.resolver.Resolve(ctx, target)

	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return
	}
	if session.State != domain.StateCollection {
		// The customer confirmed this step while the lookup was in flight;
		// the address they submitted stands.
		return
	}
	if normalizePostcode(session.Draft.Postcode) != normalizePostcode(target) {
		// Superseded by a newer edit; a fresher lookup owns the session now.
		return
	}

	switch {
	case resolveErr == nil:
		session.Draft.ApplyAddress(resolved)
		session.LookupStatus = address.StatusOK
		session.LookupMessage = ""
	case apperr.Is(resolveErr, apperr.KindNotFound):
		session.LookupStatus = address.StatusNotFound
		session.LookupMessage = "no address found; please type it in"
	default:
		session.LookupStatus = address.StatusError
		session.LookupMessage = lookupErrorMessage(resolveErr)
	}
	session.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, session); err != nil {
		s.log.WithSession(id).Error("failed to store lookup outcome", "error", err)
	}
}

func lookupErrorMessage(err error) string {
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return address.GenericErrorMessage
}

func normalizePostcode(p string) string {
	return strings.ToUpper(strings.Join(strings.Fields(p), ""))
}
