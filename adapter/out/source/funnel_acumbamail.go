package source

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/pkg/httputil"

	"github.com/goccy/go-json"
)

// AcumbamailPlatform is the secondary platform: status-only records.
var AcumbamailPlatform = domain.Platform{
	Name:      "Acumbamail",
	IDPrefix:  "am-",
	Priority:  1,
	ListLabel: "1st Verified List (Acumbamail)",
}

// AcumbamailConfig holds Acumbamail settings.
type AcumbamailConfig struct {
	BaseURL    string
	Token      string
	CustomerID string
	ListID     string
}

// Acumbamail reads subscribers and lists from Acumbamail and enrolls new
// subscribers.
type Acumbamail struct {
	client *httputil.Client
	cfg    AcumbamailConfig
}

var (
	_ out.ContactSource  = (*Acumbamail)(nil)
	_ out.ListSource     = (*Acumbamail)(nil)
	_ out.FunnelEnroller = (*Acumbamail)(nil)
)

func NewAcumbamail(client *httputil.Client, cfg AcumbamailConfig) *Acumbamail {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Acumbamail{client: client, cfg: cfg}
}

func (a *Acumbamail) Platform() domain.Platform {
	return AcumbamailPlatform
}

type acumbamailSubscriber struct {
	ID        flexString `json:"id"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
	CreatedAt string     `json:"create_date"`
}

type acumbamailList struct {
	Name            string  `json:"name"`
	SubscriberCount flexInt `json:"subscriber_count"`
}

func (a *Acumbamail) endpoint(method string, q url.Values) string {
	q.Set("auth_token", a.cfg.Token)
	return a.cfg.BaseURL + "/" + method + "/?" + q.Encode()
}

// FetchContacts returns the subscribers of the configured list, ordered by
// their key in the response.
func (a *Acumbamail) FetchContacts(ctx context.Context) ([]domain.RawContact, error) {
	if a.cfg.ListID == "" {
		return nil, fmt.Errorf("acumbamail: list id not configured")
	}

	q := url.Values{}
	q.Set("list_id", a.cfg.ListID)
	q.Set("response_type", "json")

	var resp map[string]json.RawMessage
	if err := a.client.GetJSON(ctx, a.endpoint("getSubscribers", q), nil, &resp); err != nil {
		return nil, fmt.Errorf("acumbamail subscribers: %w", err)
	}

	fetchedAt := time.Now().UTC()
	contacts := make([]domain.RawContact, 0, len(resp))
	for _, key := range sortedKeys(resp) {
		var sub acumbamailSubscriber
		if err := json.Unmarshal(resp[key], &sub); err != nil || sub.Email == "" {
			continue
		}
		id := string(sub.ID)
		if id == "" {
			id = key
		}
		contacts = append(contacts, domain.RawContact{
			SourceID:  id,
			Email:     sub.Email,
			Status:    domain.SubscriptionStatus(strings.ToLower(sub.Status)),
			Lists:     []string{AcumbamailPlatform.ListLabel},
			CreatedAt: parseTimeValue(sub.CreatedAt, fetchedAt),
		})
	}
	return contacts, nil
}

// FetchLists returns every list with its subscriber count.
func (a *Acumbamail) FetchLists(ctx context.Context) ([]domain.MailingList, error) {
	var resp map[string]json.RawMessage
	if err := a.client.GetJSON(ctx, a.endpoint("getLists", url.Values{}), nil, &resp); err != nil {
		return nil, fmt.Errorf("acumbamail lists: %w", err)
	}

	lists := make([]domain.MailingList, 0, len(resp))
	for _, id := range sortedKeys(resp) {
		var l acumbamailList
		if err := json.Unmarshal(resp[id], &l); err != nil {
			continue
		}
		lists = append(lists, domain.MailingList{
			ID:          "acumbamail-" + id,
			Name:        l.Name,
			Platform:    AcumbamailPlatform.Name,
			Subscribers: int(l.SubscriberCount),
		})
	}
	return lists, nil
}

// Enroll adds the subscriber to listID.
func (a *Acumbamail) Enroll(ctx context.Context, listID string, e domain.Enrollment) error {
	name := strings.TrimSpace(e.FirstName + " " + e.LastName)
	fields, err := json.Marshal(map[string]string{"email": e.Email, "nombre": name})
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("auth_token", a.cfg.Token)
	form.Set("customer_id", a.cfg.CustomerID)
	form.Set("list_id", listID)
	form.Set("merge_fields", string(fields))

	if err := a.client.PostForm(ctx, a.cfg.BaseURL+"/addSubscriber/", form, nil); err != nil {
		return fmt.Errorf("acumbamail enroll: %w", err)
	}
	return nil
}

// sortedKeys orders numeric keys numerically and the rest lexically.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, ei := strconv.Atoi(keys[i])
		nj, ej := strconv.Atoi(keys[j])
		if ei == nil && ej == nil {
			return ni < nj
		}
		if (ei == nil) != (ej == nil) {
			return ei == nil
		}
		return keys[i] < keys[j]
	})
	return keys
}
