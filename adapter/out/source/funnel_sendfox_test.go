package source

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"funnel_server/core/domain"
	"funnel_server/pkg/httputil"

	"github.com/goccy/go-json"
)

func newTestClient() *httputil.Client {
	return httputil.NewClient("test", &httputil.ClientConfig{})
}

func TestSendFox_FetchContacts(t *testing.T) {
	var pages []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer tok")
		}
		page := r.URL.Query().Get("page")
		pages = append(pages, page)
		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			io.WriteString(w, `{"current_page":1,"last_page":2,"data":[
				{"id":101,"email":"Mom@Example.com","first_name":"Jane","last_name":"Doe",
				 "form_id":"77","lists":[{"id":1,"name":"Leads"}],
				 "contact_fields":[{"name":"how_can_we_help_you","value":"<b>Tryouts</b> for my son"}],
				 "confirmed_at":"2024-01-02 10:00:00","last_opened_at":"2024-02-01T08:00:00Z",
				 "created_at":"2024-01-01 09:00:00"}]}`)
		default:
			io.WriteString(w, `{"current_page":2,"last_page":2,"data":[
				{"id":"102","email":"dad@example.com","lists":[],"contact_fields":null,"form_id":null}]}`)
		}
	}))
	defer srv.Close()

	sf := NewSendFox(newTestClient(), SendFoxConfig{BaseURL: srv.URL, Token: "tok", PageSize: 1, MaxPages: 5})
	contacts, err := sf.FetchContacts(context.Background())
	if err != nil {
		t.Fatalf("FetchContacts() error = %v", err)
	}
	if len(pages) != 2 {
		t.Errorf("pages requested = %v, want 2 pages", pages)
	}
	if len(contacts) != 2 {
		t.Fatalf("len(contacts) = %d, want 2", len(contacts))
	}

	c := contacts[0]
	if c.SourceID != "101" {
		t.Errorf("SourceID = %q, want 101", c.SourceID)
	}
	if c.Note != "Tryouts for my son" {
		t.Errorf("Note = %q, want %q", c.Note, "Tryouts for my son")
	}
	if c.FormID != "77" {
		t.Errorf("FormID = %q, want 77", c.FormID)
	}
	if len(c.Lists) != 1 || c.Lists[0] != "Leads" {
		t.Errorf("Lists = %v, want [Leads]", c.Lists)
	}
	if c.ConfirmedAt == nil || c.LastOpenedAt == nil {
		t.Errorf("ConfirmedAt = %v, LastOpenedAt = %v, want both set", c.ConfirmedAt, c.LastOpenedAt)
	}
	if c.LastClickedAt != nil {
		t.Errorf("LastClickedAt = %v, want nil", c.LastClickedAt)
	}
	if c.CreatedAt.IsZero() {
		t.Error("CreatedAt is zero, want parsed")
	}

	if contacts[1].SourceID != "102" || contacts[1].FormID != "" {
		t.Errorf("second contact = %+v, want id 102 and no form", contacts[1])
	}
}

func TestSendFox_FetchContactsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	sf := NewSendFox(newTestClient(), SendFoxConfig{BaseURL: srv.URL, Token: "bad"})
	if _, err := sf.FetchContacts(context.Background()); err == nil {
		t.Error("FetchContacts() error = nil, want error")
	}
}

func TestSendFox_FetchLists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lists" {
			t.Errorf("path = %s, want /lists", r.URL.Path)
		}
		io.WriteString(w, `{"data":[{"id":534537,"name":"New Leads","subscribed_contacts_count":"42"}]}`)
	}))
	defer srv.Close()

	sf := NewSendFox(newTestClient(), SendFoxConfig{BaseURL: srv.URL, Token: "tok"})
	lists, err := sf.FetchLists(context.Background())
	if err != nil {
		t.Fatalf("FetchLists() error = %v", err)
	}
	want := domain.MailingList{ID: "sendfox-534537", Name: "New Leads", Platform: "SendFox", Subscribers: 42}
	if len(lists) != 1 || lists[0] != want {
		t.Errorf("lists = %+v, want [%+v]", lists, want)
	}
}

func TestSendFox_Enroll(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/contacts" {
			t.Errorf("request = %s %s, want POST /contacts", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		io.WriteString(w, `{"id":5}`)
	}))
	defer srv.Close()

	sf := NewSendFox(newTestClient(), SendFoxConfig{BaseURL: srv.URL, Token: "tok"})
	err := sf.Enroll(context.Background(), "534537", domain.Enrollment{Email: "a@b.com", FirstName: "Ann", LastName: "Lee"})
	if err != nil {
		t.Fatalf("Enroll() error = %v", err)
	}
	if got["email"] != "a@b.com" || got["first_name"] != "Ann" {
		t.Errorf("body = %v, want email and first_name", got)
	}
	lists, _ := got["lists"].([]any)
	if len(lists) != 1 || lists[0] != float64(534537) {
		t.Errorf("lists = %v, want [534537]", got["lists"])
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-01-02T03:04:05Z", true},
		{"2024-01-02T03:04:05.123456Z", true},
		{"2024-01-02 03:04:05", true},
		{"2024-01-02", true},
		{"", false},
		{"yesterday", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseTime(tt.in) != nil; got != tt.want {
				t.Errorf("parseTime(%q) != nil = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
