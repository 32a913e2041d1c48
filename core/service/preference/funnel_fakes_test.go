package preference

import (
	"context"
	"errors"

	"funnel_server/core/domain"
)

type memStore struct {
	prefs   *domain.Preferences
	loadErr error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{prefs: domain.DefaultPreferences(nil)}
}

func (m *memStore) Load(context.Context) (*domain.Preferences, error) {
	return m.prefs.Clone(), m.loadErr
}

func (m *memStore) Save(_ context.Context, p *domain.Preferences) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.prefs = p.Clone()
	return nil
}

func (m *memStore) Backend() string { return "memory" }

type fakeEnroller struct {
	platform string
	err      error
	calls    []domain.Enrollment
	listIDs  []string
}

func (f *fakeEnroller) Platform() domain.Platform {
	return domain.Platform{Name: f.platform}
}

func (f *fakeEnroller) Enroll(_ context.Context, listID string, e domain.Enrollment) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, e)
	f.listIDs = append(f.listIDs, listID)
	return nil
}

var errUpstream = errors.New("upstream down")
