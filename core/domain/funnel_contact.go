package domain

import (
	"strings"
	"time"
)

// Platform describes one mailing platform feeding the contact merge.
type Platform struct {
	Name string
	// IDPrefix is prepended to the platform's own ID, for example "sf-".
	IDPrefix string
	// Priority orders merge processing. Lower runs first.
	Priority int
	// RichMetadata platforms carry names, notes and engagement timestamps.
	// The others only report a subscription status.
	RichMetadata bool
	// ListLabel is attached to every contact of a status-only platform.
	ListLabel string
}

// SubscriptionStatus is the raw status reported by status-only platforms.
type SubscriptionStatus string

const (
	StatusActive       SubscriptionStatus = "active"
	StatusUnsubscribed SubscriptionStatus = "unsubscribed"
	StatusBounced      SubscriptionStatus = "bounced"
)

// CustomField is a name/value pair attached to a contact by a signup form.
type CustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// RawContact is a contact as one platform reports it, before merging.
type RawContact struct {
	SourceID       string
	Email          string
	FirstName      string
	LastName       string
	Lists          []string
	FormID         string
	CustomFields   []CustomField
	Note           string
	Status         SubscriptionStatus
	ConfirmedAt    *time.Time
	UnsubscribedAt *time.Time
	BouncedAt      *time.Time
	LastOpenedAt   *time.Time
	LastClickedAt  *time.Time
	CreatedAt      time.Time
}

// SourceBatch is one platform's fetch result. Err marks a failed fetch.
type SourceBatch struct {
	Platform Platform
	Contacts []RawContact
	Err      error
}

// Engagement summarises a contact's interaction with campaigns.
type Engagement struct {
	LastOpened   *time.Time `json:"lastOpened,omitempty"`
	LastClicked  *time.Time `json:"lastClicked,omitempty"`
	Confirmed    bool       `json:"confirmed"`
	Unsubscribed bool       `json:"unsubscribed"`
	Bounced      bool       `json:"bounced"`
}

// UnifiedContact is one deduplicated person across all platforms.
type UnifiedContact struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	FullName   string     `json:"fullName"`
	Sources    []string   `json:"sources"`
	IsReal     bool       `json:"isReal"`
	Engagement Engagement `json:"engagement"`
	Lists      []string   `json:"lists"`
	CreatedAt  time.Time  `json:"createdAt"`
	Note       string     `json:"note,omitempty"`
}

// HasSource reports whether platform already contributed to the contact.
func (c *UnifiedContact) HasSource(platform string) bool {
	for _, s := range c.Sources {
		if s == platform {
			return true
		}
	}
	return false
}

// ContactFilter selects which merged contacts are returned.
type ContactFilter string

const (
	ContactFilterReal    ContactFilter = "real"
	ContactFilterEngaged ContactFilter = "engaged"
	ContactFilterAll     ContactFilter = "all"
)

// ParseContactFilter defaults to "real" for unknown values.
func ParseContactFilter(s string) ContactFilter {
	switch ContactFilter(strings.ToLower(s)) {
	case ContactFilterEngaged:
		return ContactFilterEngaged
	case ContactFilterAll:
		return ContactFilterAll
	default:
		return ContactFilterReal
	}
}

// ContactQuery is the input of a contact listing.
type ContactQuery struct {
	Filter ContactFilter
	Limit  int
	Search string
}

// ContactStats describe the contacts actually returned.
type ContactStats struct {
	Total               int            `json:"total"`
	BySource            map[string]int `json:"bySource"`
	InMultiplePlatforms int            `json:"inMultiplePlatforms"`
	Engaged             int            `json:"engaged"`
	Confirmed           int            `json:"confirmed"`
	WithNotes           int            `json:"withNotes"`
}

// MailingList is a list summary from one platform.
type MailingList struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Platform    string `json:"platform"`
	Subscribers int    `json:"subscribers"`
}
