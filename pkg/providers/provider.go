package providers

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by adapters that do not yet support a given
// operation; callers must fail fast rather than silently degrade.
var ErrNotImplemented = errors.New("provider operation not implemented")

// ErrUnauthorized is returned when the upstream provider rejects the current
// credentials (typically a 401), signalling the caller should refresh and
// retry at most once.
var ErrUnauthorized = errors.New("provider rejected credentials")

// ErrUnknownProvider is returned by New for any name with no adapter.
var ErrUnknownProvider = errors.New("unknown provider")

// Credentials are the OAuth2 client + token material an adapter binds to.
type Credentials struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// Provider is the capability set every third-party adapter implements.
// Adapters are stateless apart from the credentials passed to Authenticate.
type Provider interface {
	// Authenticate binds the adapter to a set of OAuth2 credentials.
	Authenticate(ctx context.Context, creds Credentials) error

	GetAthlete(ctx context.Context) (*Athlete, error)

	// GetActivities maps limit/offset into the provider's native pagination
	// idiom (page+per_page for Strava; date windows for Fitbit).
	GetActivities(ctx context.Context, limit, offset int) ([]Activity, error)

	GetStats(ctx context.Context) (*Stats, error)

	// Name returns the lowercase provider identifier ("strava", "fitbit").
	Name() string
}

// New constructs a fresh, unauthenticated adapter instance for the named
// provider. Binding (Authenticate) is the caller's responsibility.
func New(name string) (Provider, error) {
	switch name {
	case "strava":
		return NewStravaAdapter(), nil
	case "fitbit":
		return NewFitbitAdapter(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
}
