package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"funnel_server/core/domain"

	"github.com/goccy/go-json"
)

type memCache struct {
	data map[string][]byte
	ttl  time.Duration
}

func (m *memCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	b, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dest)
}

func (m *memCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttl = ttl
	return nil
}

func (m *memCache) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

type countingSource struct {
	calls    int
	contacts []domain.RawContact
	err      error
}

func (s *countingSource) Platform() domain.Platform { return SendFoxPlatform }

func (s *countingSource) FetchContacts(context.Context) ([]domain.RawContact, error) {
	s.calls++
	return s.contacts, s.err
}

func TestCachedSource(t *testing.T) {
	upstream := &countingSource{contacts: []domain.RawContact{{SourceID: "1", Email: "a@b.com", Lists: []string{"L"}}}}
	mc := &memCache{data: map[string][]byte{}}
	cs := NewCachedSource(upstream, mc, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := cs.FetchContacts(context.Background())
		if err != nil {
			t.Fatalf("FetchContacts() error = %v", err)
		}
		if len(got) != 1 || got[0].Email != "a@b.com" {
			t.Errorf("FetchContacts() = %+v", got)
		}
	}
	if upstream.calls != 1 {
		t.Errorf("upstream calls = %d, want 1", upstream.calls)
	}
	if mc.ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", mc.ttl)
	}
	if _, ok := mc.data["contacts:SendFox"]; !ok {
		t.Error("cache key contacts:SendFox missing")
	}
}

func TestCachedSource_ErrorNotCached(t *testing.T) {
	upstream := &countingSource{err: errors.New("down")}
	mc := &memCache{data: map[string][]byte{}}
	cs := NewCachedSource(upstream, mc, time.Minute)

	if _, err := cs.FetchContacts(context.Background()); err == nil {
		t.Fatal("FetchContacts() error = nil, want error")
	}
	if len(mc.data) != 0 {
		t.Errorf("cache = %v, want empty", mc.data)
	}
}
