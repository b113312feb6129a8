package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSportTypeFromStravaKnown(t *testing.T) {
	st := SportTypeFromStrava("Run")
	assert.Equal(t, SportRun, st.Kind)
	assert.Empty(t, st.Other)
}

func TestSportTypeFromStravaUnknown(t *testing.T) {
	st := SportTypeFromStrava("Surfskate")
	assert.Equal(t, SportOther, st.Kind)
	assert.Equal(t, "Surfskate", st.Other)
}

func TestSportTypeFromFitbitKnown(t *testing.T) {
	st := SportTypeFromFitbit("running")
	assert.Equal(t, SportRun, st.Kind)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New("garmin")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestNewKnownProviders(t *testing.T) {
	for _, name := range []string{"strava", "fitbit"} {
		p, err := New(name)
		assert.NoError(t, err)
		assert.Equal(t, name, p.Name())
	}
}
