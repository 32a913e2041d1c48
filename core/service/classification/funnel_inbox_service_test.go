package classification

import (
	"context"
	"errors"
	"testing"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
)

type fakeLister struct {
	msgs      []domain.Message
	err       error
	lastLimit int
}

func (f *fakeLister) ListMessages(_ context.Context, _ string, limit int) ([]domain.Message, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.msgs) {
		return f.msgs[:limit], nil
	}
	return f.msgs, nil
}

func (f *fakeLister) Provider() string { return "fake" }

type fakeStore struct {
	prefs   *domain.Preferences
	loadErr error
}

func (f *fakeStore) Load(context.Context) (*domain.Preferences, error) {
	return f.prefs.Clone(), f.loadErr
}

func (f *fakeStore) Save(_ context.Context, p *domain.Preferences) error {
	f.prefs = p
	return nil
}

func (f *fakeStore) Backend() string { return "fake" }

func inboxMessages() []domain.Message {
	return []domain.Message{
		{ID: "1", SenderAddress: "noreply@shop.com", Subject: "50% off"},
		{ID: "2", SenderAddress: "pat@example.org", Subject: "hey"},
		{ID: "3", SenderAddress: "mom@example.org", Subject: "tryout dates"},
		{ID: "4", SenderAddress: "ceo@corp.io", Subject: "sponsor request"},
		{ID: "5", SenderAddress: "coach@club.org", Subject: "roster"},
	}
}

func newTestInbox(lister *fakeLister, store *fakeStore) *InboxService {
	cascade := NewCascade(&domain.Ruleset{
		SystemSenders:    []string{"noreply"},
		ParentKeywords:   []string{"tryout"},
		BusinessKeywords: []string{"sponsor"},
	})
	return NewInboxService(lister, store, cascade, InboxConfig{DefaultLimit: 10, MaxLimit: 100})
}

func TestInboxListRealFilter(t *testing.T) {
	prefs := domain.DefaultPreferences(nil)
	prefs.TrustedSenders = []string{"coach@club.org"}
	lister := &fakeLister{msgs: inboxMessages()}
	svc := newTestInbox(lister, &fakeStore{prefs: prefs})

	resp, err := svc.ListMessages(context.Background(), &in.MessagesRequest{Limit: 3, Filter: domain.MessageFilterReal})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}

	if lister.lastLimit != 12 {
		t.Errorf("fetch limit = %d, want 12", lister.lastLimit)
	}
	want := []string{"5", "3", "4"}
	if len(resp.Emails) != len(want) {
		t.Fatalf("got %d emails, want %d", len(resp.Emails), len(want))
	}
	for i, id := range want {
		if resp.Emails[i].ID != id {
			t.Errorf("email[%d] = %s, want %s", i, resp.Emails[i].ID, id)
		}
	}
	if resp.Stats.Marketing != 0 || resp.Stats.Total != 3 || resp.Stats.Trusted != 1 {
		t.Errorf("stats = %+v", resp.Stats)
	}
}

func TestInboxListAllKeepsMarketing(t *testing.T) {
	lister := &fakeLister{msgs: inboxMessages()}
	svc := newTestInbox(lister, &fakeStore{prefs: domain.DefaultPreferences(nil)})

	resp, err := svc.ListMessages(context.Background(), &in.MessagesRequest{Filter: domain.MessageFilterAll})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if lister.lastLimit != 10 {
		t.Errorf("fetch limit = %d, want 10", lister.lastLimit)
	}
	if resp.Stats.Marketing != 1 || resp.Count != 5 {
		t.Errorf("stats = %+v, count = %d", resp.Stats, resp.Count)
	}
	if last := resp.Emails[len(resp.Emails)-1]; last.Category != domain.CategoryMarketing {
		t.Errorf("last email category = %s, want marketing", last.Category)
	}
}

func TestInboxDegradedPreferences(t *testing.T) {
	store := &fakeStore{
		prefs:   domain.DefaultPreferences(nil),
		loadErr: &domain.DegradedError{Backend: "file", Err: errors.New("bad json")},
	}
	svc := newTestInbox(&fakeLister{msgs: inboxMessages()}, store)

	resp, err := svc.ListMessages(context.Background(), &in.MessagesRequest{})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("warnings = %v, want one", resp.Warnings)
	}
	if len(resp.Emails) == 0 {
		t.Error("expected emails classified against defaults")
	}
}

func TestInboxProviderFailure(t *testing.T) {
	svc := newTestInbox(&fakeLister{err: errors.New("connection refused")}, &fakeStore{prefs: domain.DefaultPreferences(nil)})

	resp, err := svc.ListMessages(context.Background(), &in.MessagesRequest{})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(resp.Emails) != 0 || len(resp.Warnings) != 1 {
		t.Errorf("emails = %d, warnings = %v", len(resp.Emails), resp.Warnings)
	}
}

func TestInboxWithoutProvider(t *testing.T) {
	cascade := NewCascade(&domain.Ruleset{})
	svc := NewInboxService(nil, &fakeStore{prefs: domain.DefaultPreferences(nil)}, cascade, InboxConfig{})

	resp, err := svc.ListMessages(context.Background(), &in.MessagesRequest{})
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if resp.Count != 0 || len(resp.Warnings) == 0 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 50}, {-3, 50}, {20, 20}, {900, 500},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.in, 50, 500); got != tt.want {
			t.Errorf("clampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
