// Package domain provides core business rules for the booking bounded context.
package domain

import "clearaway_backend/platform/apperr"

// State is the wizard position of a booking session. Transitions are
// strictly linear; Submitted is terminal and requires a reset to start over.
type State string

const (
	// StateContact is step 1: contact details.
	StateContact State = "contact"
	// StateCollection is step 2: collection logistics.
	StateCollection State = "collection"
	// StatePreferences is step 3: waste, payment and notification preferences.
	StatePreferences State = "preferences"
	// StateSubmitted is terminal: the booking reached the backend.
	StateSubmitted State = "submitted"
)

var forward = map[State]State{
	StateContact:     StateCollection,
	StateCollection:  StatePreferences,
	StatePreferences: StateSubmitted,
}

var backward = map[State]State{
	StateCollection:  StateContact,
	StatePreferences: StateCollection,
}

// Advance moves one step forward. Skipping is impossible by construction:
// the caller must be exactly at the step it is completing.
func Advance(current State) (State, error) {
	next, ok := forward[current]
	if !ok {
		return current, apperr.Conflict("booking already submitted")
	}
	return next, nil
}

// Back moves one step backward without validation and without discarding
// entered data.
func Back(current State) (State, error) {
	prev, ok := backward[current]
	if !ok {
		if current == StateSubmitted {
			return current, apperr.Conflict("booking already submitted")
		}
		return current, apperr.BadRequest("already at the first step")
	}
	return prev, nil
}

// IsTerminal reports whether the session can accept no further steps.
func IsTerminal(s State) bool {
	return s == StateSubmitted
}
