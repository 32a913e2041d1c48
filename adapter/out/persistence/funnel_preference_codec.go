package persistence

import (
	"funnel_server/core/domain"

	"github.com/goccy/go-json"
)

// DefaultsFunc builds the seed document returned when nothing is stored.
type DefaultsFunc func() *domain.Preferences

// decodePreferences parses a stored document. On failure it returns the
// defaults together with a *domain.DegradedError.
func decodePreferences(data []byte, backend string, defaults DefaultsFunc) (*domain.Preferences, error) {
	var prefs domain.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return defaults(), &domain.DegradedError{Backend: backend, Err: err}
	}
	prefs.Normalize()
	return &prefs, nil
}

func encodePreferences(prefs *domain.Preferences) ([]byte, error) {
	return json.MarshalIndent(prefs, "", "  ")
}
