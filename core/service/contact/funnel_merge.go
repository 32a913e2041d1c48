// Package contact unifies contacts from every mailing platform into one list
// keyed by email address.
package contact

import (
	"sort"
	"strings"

	"funnel_server/core/domain"
)

// Merger folds per-platform contact batches into unified contacts.
type Merger struct {
	system *domain.SystemAddressMatcher
}

func NewMerger(system *domain.SystemAddressMatcher) *Merger {
	return &Merger{system: system}
}

// Merge unifies batches by lower-cased email. Batches are processed in
// platform priority order; the first platform to report an email provides the
// base fields and later platforms only add their name and lists. Within one
// platform the last included record for an email wins. Failed
// batches contribute nothing. Non-real records are skipped unless includeAll.
// The result keeps first-seen order.
func (m *Merger) Merge(batches []domain.SourceBatch, includeAll bool) []domain.UnifiedContact {
	ordered := make([]domain.SourceBatch, len(batches))
	copy(ordered, batches)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Platform.Priority < ordered[j].Platform.Priority
	})

	var contacts []domain.UnifiedContact
	index := make(map[string]int)
	builtBy := make(map[string]string)

	for _, batch := range ordered {
		if batch.Err != nil {
			continue
		}
		platform := batch.Platform
		for i := range batch.Contacts {
			raw := &batch.Contacts[i]
			email := strings.ToLower(strings.TrimSpace(raw.Email))
			if email == "" {
				continue
			}

			if idx, ok := index[email]; ok {
				existing := &contacts[idx]
				if builtBy[email] == platform.Name {
					// A platform's later record supersedes its earlier one.
					if contact := m.build(platform, email, raw); contact.IsReal || includeAll {
						contacts[idx] = contact
					}
					continue
				}
				if !existing.HasSource(platform.Name) {
					existing.Sources = append(existing.Sources, platform.Name)
					existing.Lists = append(existing.Lists, raw.Lists...)
				}
				continue
			}

			contact := m.build(platform, email, raw)
			if !contact.IsReal && !includeAll {
				continue
			}
			index[email] = len(contacts)
			builtBy[email] = platform.Name
			contacts = append(contacts, contact)
		}
	}

	if contacts == nil {
		contacts = []domain.UnifiedContact{}
	}
	return contacts
}

// IsRealLead reports whether a raw record looks like a person who opted in.
func (m *Merger) IsRealLead(platform domain.Platform, raw *domain.RawContact) bool {
	if m.system.IsSystem(raw.Email) {
		return false
	}
	if !platform.RichMetadata {
		return raw.Status == domain.StatusActive
	}
	return len(raw.Lists) > 0 || raw.FormID != "" || len(raw.CustomFields) > 0 || raw.Note != ""
}

func (m *Merger) build(platform domain.Platform, email string, raw *domain.RawContact) domain.UnifiedContact {
	c := domain.UnifiedContact{
		ID:        platform.IDPrefix + raw.SourceID,
		Email:     email,
		Sources:   []string{platform.Name},
		IsReal:    m.IsRealLead(platform, raw),
		Lists:     append([]string{}, raw.Lists...),
		CreatedAt: raw.CreatedAt,
	}

	if platform.RichMetadata {
		c.FirstName = raw.FirstName
		c.LastName = raw.LastName
		c.FullName = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
		c.Note = raw.Note
		c.Engagement = domain.Engagement{
			LastOpened:   raw.LastOpenedAt,
			LastClicked:  raw.LastClickedAt,
			Confirmed:    raw.ConfirmedAt != nil,
			Unsubscribed: raw.UnsubscribedAt != nil,
			Bounced:      raw.BouncedAt != nil,
		}
		return c
	}

	c.FullName = domain.LocalPart(email)
	c.Engagement = domain.Engagement{
		Confirmed:    raw.Status == domain.StatusActive,
		Unsubscribed: raw.Status == domain.StatusUnsubscribed,
		Bounced:      raw.Status == domain.StatusBounced,
	}
	return c
}
