package address

import (
	"context"
	"strings"

	"clearaway_backend/internal/backend"
	"clearaway_backend/platform/apperr"
	"clearaway_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// maxFindCalls bounds the narrowing cascade: the initial postcode query plus
// at most two container drill-downs. Providers that cannot yield a concrete
// address within that depth are treated as not-found rather than looped.
const maxFindCalls = 3

// FriendlyOutageMessage replaces raw provider errors whose text matches a
// known outage signature, so customers are never shown quota noise.
const FriendlyOutageMessage = "address lookup is temporarily unavailable; please type your address"

// GenericErrorMessage covers every other provider failure.
const GenericErrorMessage = "address lookup failed; please type your address"

// outageSignatures are substrings seen in provider responses when the
// account is out of credit or throttled.
var outageSignatures = []string{
	"credit",
	"credits",
	"quota",
	"balance",
	"limit exceeded",
	"too many requests",
}

// Provider is the subset of the backend gateway the resolver needs.
type Provider interface {
	AddressFind(ctx context.Context, query, container string) ([]backend.Candidate, error)
	AddressGet(ctx context.Context, id string) (map[string]interface{}, error)
}

// Resolver runs the lookup cascade. Concurrent resolutions of the same
// postcode collapse into a single provider exchange.
type Resolver struct {
	provider Provider
	log      *logger.Logger
	group    singleflight.Group
}

// NewResolver creates a resolver over the given provider.
func NewResolver(provider Provider, log *logger.Logger) *Resolver {
	return &Resolver{provider: provider, log: log}
}

// Resolve produces a canonical address for the postcode or a definitive
// not-found. Provider failures come back as apperr.Unavailable with a
// customer-safe message.
func (r *Resolver) Resolve(ctx context.Context, postcode string) (CanonicalAddress, error) {
	key := strings.ToUpper(strings.Join(strings.Fields(postcode), " "))

	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.resolve(ctx, key)
	})
	if err != nil {
		return CanonicalAddress{}, err
	}
	return v.(CanonicalAddress), nil
}

func (r *Resolver) resolve(ctx context.Context, postcode string) (CanonicalAddress, error) {
	query := postcode
	container := ""
	findCalls := 0

	for findCalls < maxFindCalls {
		candidates, err := r.provider.AddressFind(ctx, query, container)
		findCalls++
		if err != nil {
			r.log.LookupEvent("", postcode, string(StatusError), findCalls)
			return CanonicalAddress{}, mapProviderError(err)
		}
		if len(candidates) == 0 {
			r.log.LookupEvent("", postcode, string(StatusNotFound), findCalls)
			return CanonicalAddress{}, apperr.NotFound("no address found for this postcode")
		}

		selected, found := firstAddress(candidates)
		if found {
			record, err := r.provider.AddressGet(ctx, selected.ID)
			if err != nil {
				r.log.LookupEvent("", postcode, string(StatusError), findCalls)
				return CanonicalAddress{}, mapProviderError(err)
			}
			resolved := Normalize(record)
			r.log.LookupEvent("", postcode, string(StatusOK), findCalls)
			return resolved, nil
		}

		// Still ambiguous: narrow into the most specific container, which
		// the provider returns first.
		query = ""
		container = candidates[0].ID
	}

	r.log.LookupEvent("", postcode, string(StatusNotFound), findCalls)
	return CanonicalAddress{}, apperr.NotFound("no address found for this postcode")
}

func firstAddress(candidates []backend.Candidate) (backend.Candidate, bool) {
	for _, c := range candidates {
		if c.IsAddress() {
			return c, true
		}
	}
	return backend.Candidate{}, false
}

func mapProviderError(err error) error {
	text := strings.ToLower(err.Error())
	for _, sig := range outageSignatures {
		if strings.Contains(text, sig) {
			return apperr.Wrap(apperr.KindUnavailable, FriendlyOutageMessage, err)
		}
	}
	return apperr.Wrap(apperr.KindUnavailable, GenericErrorMessage, err)
}
