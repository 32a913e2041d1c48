package source

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/pkg/httputil"

	"github.com/microcosm-cc/bluemonday"
)

// NoteField is the signup form field that carries the lead's question.
const NoteField = "how_can_we_help_you"

// SendFoxPlatform is the primary platform: processed first, rich metadata.
var SendFoxPlatform = domain.Platform{
	Name:         "SendFox",
	IDPrefix:     "sf-",
	Priority:     0,
	RichMetadata: true,
}

// SendFoxConfig holds SendFox settings.
type SendFoxConfig struct {
	BaseURL  string
	Token    string
	PageSize int
	MaxPages int
}

// SendFox reads contacts and lists from SendFox and enrolls new contacts.
type SendFox struct {
	client   *httputil.Client
	baseURL  string
	token    string
	pageSize int
	maxPages int
	policy   *bluemonday.Policy
}

var (
	_ out.ContactSource  = (*SendFox)(nil)
	_ out.ListSource     = (*SendFox)(nil)
	_ out.FunnelEnroller = (*SendFox)(nil)
)

func NewSendFox(client *httputil.Client, cfg SendFoxConfig) *SendFox {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 1
	}
	return &SendFox{
		client:   client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		policy:   bluemonday.StrictPolicy(),
	}
}

func (s *SendFox) Platform() domain.Platform {
	return SendFoxPlatform
}

type sendFoxPage[T any] struct {
	Data        []T     `json:"data"`
	CurrentPage flexInt `json:"current_page"`
	LastPage    flexInt `json:"last_page"`
}

type sendFoxContact struct {
	ID        flexString `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	FormID    flexString `json:"form_id"`
	Lists     []struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
	} `json:"lists"`
	ContactFields []struct {
		Name  string     `json:"name"`
		Value flexString `json:"value"`
	} `json:"contact_fields"`
	LastOpenedAt   string `json:"last_opened_at"`
	LastClickedAt  string `json:"last_clicked_at"`
	ConfirmedAt    string `json:"confirmed_at"`
	UnsubscribedAt string `json:"unsubscribed_at"`
	BouncedAt      string `json:"bounced_at"`
	CreatedAt      string `json:"created_at"`
}

type sendFoxList struct {
	ID                      flexString `json:"id"`
	Name                    string     `json:"name"`
	SubscribedContactsCount flexInt    `json:"subscribed_contacts_count"`
}

func (s *SendFox) header() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.token)
	return h
}

// FetchContacts pages through /contacts up to the configured page count.
func (s *SendFox) FetchContacts(ctx context.Context) ([]domain.RawContact, error) {
	var contacts []domain.RawContact
	fetchedAt := time.Now().UTC()

	for page := 1; page <= s.maxPages; page++ {
		q := url.Values{}
		q.Set("per_page", strconv.Itoa(s.pageSize))
		q.Set("page", strconv.Itoa(page))

		var resp sendFoxPage[sendFoxContact]
		if err := s.client.GetJSON(ctx, s.baseURL+"/contacts?"+q.Encode(), s.header(), &resp); err != nil {
			return nil, fmt.Errorf("sendfox contacts page %d: %w", page, err)
		}

		for i := range resp.Data {
			contacts = append(contacts, s.toRaw(&resp.Data[i], fetchedAt))
		}
		if len(resp.Data) == 0 || int(resp.LastPage) <= page {
			break
		}
	}

	return contacts, nil
}

func (s *SendFox) toRaw(c *sendFoxContact, fetchedAt time.Time) domain.RawContact {
	raw := domain.RawContact{
		SourceID:       string(c.ID),
		Email:          c.Email,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		FormID:         string(c.FormID),
		Lists:          make([]string, 0, len(c.Lists)),
		ConfirmedAt:    parseTime(c.ConfirmedAt),
		UnsubscribedAt: parseTime(c.UnsubscribedAt),
		BouncedAt:      parseTime(c.BouncedAt),
		LastOpenedAt:   parseTime(c.LastOpenedAt),
		LastClickedAt:  parseTime(c.LastClickedAt),
		CreatedAt:      parseTimeValue(c.CreatedAt, fetchedAt),
	}
	for _, l := range c.Lists {
		raw.Lists = append(raw.Lists, l.Name)
	}
	for _, f := range c.ContactFields {
		value := s.plainText(string(f.Value))
		raw.CustomFields = append(raw.CustomFields, domain.CustomField{Name: f.Name, Value: value})
		if f.Name == NoteField && raw.Note == "" {
			raw.Note = value
		}
	}
	return raw
}

// plainText strips markup from form input.
func (s *SendFox) plainText(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

// FetchLists returns every list with its subscriber count.
func (s *SendFox) FetchLists(ctx context.Context) ([]domain.MailingList, error) {
	var resp sendFoxPage[sendFoxList]
	if err := s.client.GetJSON(ctx, s.baseURL+"/lists", s.header(), &resp); err != nil {
		return nil, fmt.Errorf("sendfox lists: %w", err)
	}

	lists := make([]domain.MailingList, 0, len(resp.Data))
	for _, l := range resp.Data {
		lists = append(lists, domain.MailingList{
			ID:          "sendfox-" + string(l.ID),
			Name:        l.Name,
			Platform:    SendFoxPlatform.Name,
			Subscribers: int(l.SubscribedContactsCount),
		})
	}
	return lists, nil
}

type sendFoxCreateContact struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Lists     []any  `json:"lists"`
}

// Enroll creates or updates the contact and adds it to listID.
func (s *SendFox) Enroll(ctx context.Context, listID string, e domain.Enrollment) error {
	var list any = listID
	if n, err := strconv.Atoi(listID); err == nil {
		list = n
	}

	body := sendFoxCreateContact{
		Email:     e.Email,
		FirstName: e.FirstName,
		LastName:  e.LastName,
		Lists:     []any{list},
	}
	if err := s.client.PostJSON(ctx, s.baseURL+"/contacts", s.header(), body, nil); err != nil {
		return fmt.Errorf("sendfox enroll: %w", err)
	}
	return nil
}
