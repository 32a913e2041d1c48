package source

import (
	"context"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/pkg/apperr"
)

// Unconfigured stands in for a platform whose credentials are missing. It
// contributes no records and reports a configuration error on every fetch.
type Unconfigured struct {
	platform domain.Platform
	missing  string
}

var (
	_ out.ContactSource = (*Unconfigured)(nil)
	_ out.ListSource    = (*Unconfigured)(nil)
)

// NewUnconfigured returns a disabled source for p. missing names the unset setting.
func NewUnconfigured(p domain.Platform, missing string) *Unconfigured {
	return &Unconfigured{platform: p, missing: missing}
}

func (u *Unconfigured) Platform() domain.Platform {
	return u.platform
}

func (u *Unconfigured) FetchContacts(_ context.Context) ([]domain.RawContact, error) {
	return nil, u.err()
}

func (u *Unconfigured) FetchLists(_ context.Context) ([]domain.MailingList, error) {
	return nil, u.err()
}

func (u *Unconfigured) err() error {
	return apperr.ConfigError(u.platform.Name + " not configured: " + u.missing + " is not set")
}
