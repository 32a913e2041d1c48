package in

import (
	"context"

	"funnel_server/core/domain"
)

// PreferenceService is the feedback loop: the only write path into the
// preference document.
type PreferenceService interface {
	GetPreferences(ctx context.Context) (*PreferencesResponse, error)
	ApplyAction(ctx context.Context, req *ActionRequest) (*ActionResponse, error)
}

type ActionRequest struct {
	Action  string `json:"action"`
	Email   string `json:"email,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

type ActionResponse struct {
	Action   string   `json:"action"`
	Email    string   `json:"email,omitempty"`
	Domain   string   `json:"domain,omitempty"`
	Pattern  string   `json:"pattern,omitempty"`
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

type PreferencesResponse struct {
	Prefs    *domain.Preferences    `json:"prefs"`
	Stats    domain.PreferenceStats `json:"stats"`
	Warnings []string               `json:"warnings,omitempty"`
}

// InboxService lists and classifies inbox messages.
type InboxService interface {
	ListMessages(ctx context.Context, req *MessagesRequest) (*MessagesResponse, error)
}

type MessagesRequest struct {
	Folder string
	Limit  int
	Filter domain.MessageFilter
}

type MessagesResponse struct {
	Folder   string                     `json:"folder"`
	Filter   domain.MessageFilter       `json:"filter"`
	Count    int                        `json:"count"`
	Emails   []domain.ClassifiedMessage `json:"emails"`
	Stats    CategoryStats              `json:"stats"`
	Warnings []string                   `json:"warnings,omitempty"`
}

type CategoryStats struct {
	Total     int `json:"total"`
	Trusted   int `json:"trusted"`
	Parent    int `json:"parent"`
	Business  int `json:"business"`
	Unknown   int `json:"unknown"`
	Marketing int `json:"marketing"`
}

// ContactService returns the unified contact list.
type ContactService interface {
	ListContacts(ctx context.Context, q domain.ContactQuery) (*ContactsResponse, error)
}

type ContactsResponse struct {
	Contacts []domain.UnifiedContact `json:"contacts"`
	Stats    domain.ContactStats     `json:"stats"`
	Warnings []string                `json:"warnings,omitempty"`
}

// ListService summarises mailing lists across platforms.
type ListService interface {
	ListMailingLists(ctx context.Context) (*ListsResponse, error)
}

type PlatformLists struct {
	Platform    string               `json:"platform"`
	Connected   bool                 `json:"connected"`
	Error       string               `json:"error,omitempty"`
	Lists       []domain.MailingList `json:"lists"`
	Subscribers int                  `json:"subscribers"`
}

type ListsResponse struct {
	Platforms        []PlatformLists `json:"platforms"`
	TotalLists       int             `json:"totalLists"`
	TotalSubscribers int             `json:"totalSubscribers"`
}

// FunnelService enrolls senders into funnel stages.
type FunnelService interface {
	Stages(ctx context.Context) []domain.FunnelStage
	AddToFunnel(ctx context.Context, req *AddToFunnelRequest) (*AddToFunnelResponse, error)
}

type AddToFunnelRequest struct {
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Stage     string `json:"stage"`
}

type AddToFunnelResponse struct {
	Email    string             `json:"email"`
	Stage    domain.FunnelStage `json:"stage"`
	Message  string             `json:"message"`
	Warnings []string           `json:"warnings,omitempty"`
}
