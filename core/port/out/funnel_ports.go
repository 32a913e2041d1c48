// Package out defines outbound ports (driven ports) for the application.
package out

import (
	"context"

	"funnel_server/core/domain"
)

// =============================================================================
// Preference storage
// =============================================================================

// PreferenceStore persists the single preference document.
//
// Load never returns nil prefs. When stored data cannot be read it returns
// the defaults together with a *domain.DegradedError.
type PreferenceStore interface {
	Load(ctx context.Context) (*domain.Preferences, error)
	Save(ctx context.Context, prefs *domain.Preferences) error
	Backend() string
}

// =============================================================================
// Mail providers
// =============================================================================

// MessageLister fetches recent inbox messages. Implementations: IMAP, Gmail.
type MessageLister interface {
	ListMessages(ctx context.Context, folder string, limit int) ([]domain.Message, error)
	Provider() string
}

// =============================================================================
// Mailing platforms
// =============================================================================

// ContactSource fetches every contact one platform knows about.
type ContactSource interface {
	Platform() domain.Platform
	FetchContacts(ctx context.Context) ([]domain.RawContact, error)
}

// ListSource fetches the mailing lists of one platform.
type ListSource interface {
	Platform() domain.Platform
	FetchLists(ctx context.Context) ([]domain.MailingList, error)
}

// FunnelEnroller subscribes an address to a platform list.
type FunnelEnroller interface {
	Platform() domain.Platform
	Enroll(ctx context.Context, listID string, e domain.Enrollment) error
}
