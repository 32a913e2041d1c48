package contact

import (
	"context"
	"errors"
	"testing"
	"time"

	"funnel_server/core/domain"
	"funnel_server/pkg/apperr"
)

type fakeSource struct {
	platform domain.Platform
	contacts []domain.RawContact
	lists    []domain.MailingList
	err      error
	delay    time.Duration
}

func (f *fakeSource) Platform() domain.Platform { return f.platform }

func (f *fakeSource) FetchContacts(ctx context.Context) ([]domain.RawContact, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.contacts, f.err
}

func (f *fakeSource) FetchLists(context.Context) ([]domain.MailingList, error) {
	return f.lists, f.err
}

func TestListContactsPartialFailure(t *testing.T) {
	ok := &fakeSource{platform: platformB, contacts: []domain.RawContact{
		{SourceID: "1", Email: "b@x.com", Status: domain.StatusActive},
		{SourceID: "2", Email: "c@x.com", Status: domain.StatusActive},
	}}
	broken := &fakeSource{platform: platformA, err: errors.New("401 unauthorized")}

	svc := NewService(testMerger(), Config{}, broken, ok)
	resp, err := svc.ListContacts(context.Background(), domain.ContactQuery{Filter: domain.ContactFilterReal})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}

	if len(resp.Contacts) != 2 {
		t.Errorf("contacts = %d, want 2", len(resp.Contacts))
	}
	n, present := resp.Stats.BySource["SendFox"]
	if !present || n != 0 {
		t.Errorf("BySource[SendFox] = %d, %v; want present with 0", n, present)
	}
	if resp.Stats.BySource["Acumbamail"] != 2 {
		t.Errorf("BySource[Acumbamail] = %d, want 2", resp.Stats.BySource["Acumbamail"])
	}
	if len(resp.Warnings) != 1 {
		t.Errorf("Warnings = %v, want one", resp.Warnings)
	}
}

func TestListContactsSourceWarnings(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config error kept verbatim", apperr.ConfigError("SendFox not configured: SENDFOX_TOKEN is not set"), "SendFox not configured: SENDFOX_TOKEN is not set"},
		{"upstream error named by platform", errors.New("502 bad gateway"), "external service error: SendFox"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(testMerger(), Config{}, &fakeSource{platform: platformA, err: tt.err})
			resp, err := svc.ListContacts(context.Background(), domain.ContactQuery{Filter: domain.ContactFilterAll})
			if err != nil {
				t.Fatalf("ListContacts: %v", err)
			}
			if len(resp.Warnings) != 1 || resp.Warnings[0] != tt.want {
				t.Errorf("Warnings = %v, want [%s]", resp.Warnings, tt.want)
			}
			if n, ok := resp.Stats.BySource["SendFox"]; !ok || n != 0 {
				t.Errorf("BySource[SendFox] = %d, %v; want present with 0", n, ok)
			}
		})
	}
}

func TestListContactsTimeoutIsolated(t *testing.T) {
	slow := &fakeSource{platform: platformA, delay: time.Second, contacts: []domain.RawContact{{Email: "slow@x.com", Lists: []string{"L"}}}}
	fast := &fakeSource{platform: platformB, contacts: []domain.RawContact{{SourceID: "1", Email: "fast@x.com", Status: domain.StatusActive}}}

	svc := NewService(testMerger(), Config{Timeout: 20 * time.Millisecond}, slow, fast)
	resp, err := svc.ListContacts(context.Background(), domain.ContactQuery{})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if len(resp.Contacts) != 1 || resp.Contacts[0].Email != "fast@x.com" {
		t.Errorf("contacts = %+v", resp.Contacts)
	}
}

func TestListContactsFilterAllSearchLimit(t *testing.T) {
	src := &fakeSource{platform: platformA, contacts: []domain.RawContact{
		{SourceID: "1", Email: "lead@x.com", Lists: []string{"L"}, CreatedAt: ts(1)},
		{SourceID: "2", Email: "cold@x.com", CreatedAt: ts(2)},
		{SourceID: "3", Email: "other@y.com", Lists: []string{"L"}, CreatedAt: ts(3)},
	}}
	svc := NewService(testMerger(), Config{}, src)

	resp, err := svc.ListContacts(context.Background(), domain.ContactQuery{Filter: domain.ContactFilterAll, Search: "@x.com", Limit: 5})
	if err != nil {
		t.Fatalf("ListContacts: %v", err)
	}
	if got := ids(resp.Contacts); !equalIDs(got, []string{"sf-2", "sf-1"}) {
		t.Errorf("contacts = %v, want [sf-2 sf-1]", got)
	}

	resp, _ = svc.ListContacts(context.Background(), domain.ContactQuery{Filter: domain.ContactFilterReal, Limit: 1})
	if len(resp.Contacts) != 1 || resp.Stats.Total != 1 {
		t.Errorf("limit 1: contacts = %d, total = %d", len(resp.Contacts), resp.Stats.Total)
	}
}

func TestListMailingLists(t *testing.T) {
	sf := &fakeSource{platform: platformA, lists: []domain.MailingList{
		{ID: "1", Name: "Leads", Subscribers: 10},
		{ID: "2", Name: "Camp", Subscribers: 5},
	}}
	am := &fakeSource{platform: platformB, err: errors.New("bad token")}

	svc := NewListService(0, sf, am)
	resp, err := svc.ListMailingLists(context.Background())
	if err != nil {
		t.Fatalf("ListMailingLists: %v", err)
	}
	if len(resp.Platforms) != 2 {
		t.Fatalf("platforms = %d", len(resp.Platforms))
	}
	if !resp.Platforms[0].Connected || resp.Platforms[0].Subscribers != 15 {
		t.Errorf("SendFox = %+v", resp.Platforms[0])
	}
	if resp.Platforms[1].Connected || resp.Platforms[1].Error == "" {
		t.Errorf("Acumbamail = %+v", resp.Platforms[1])
	}
	if resp.TotalSubscribers != 15 {
		t.Errorf("TotalSubscribers = %d", resp.TotalSubscribers)
	}
}
