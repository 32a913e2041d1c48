package contact

import (
	"sort"
	"strings"

	"funnel_server/core/domain"
)

// ApplyFilter keeps the contacts selected by filter.
func ApplyFilter(contacts []domain.UnifiedContact, filter domain.ContactFilter) []domain.UnifiedContact {
	if filter == domain.ContactFilterAll {
		return contacts
	}
	out := make([]domain.UnifiedContact, 0, len(contacts))
	for _, c := range contacts {
		if matchesFilter(&c, filter) {
			out = append(out, c)
		}
	}
	return out
}

func matchesFilter(c *domain.UnifiedContact, filter domain.ContactFilter) bool {
	switch filter {
	case domain.ContactFilterEngaged:
		e := c.Engagement
		return c.IsReal && (e.LastOpened != nil || e.LastClicked != nil || e.Confirmed)
	case domain.ContactFilterAll:
		return true
	default:
		return c.IsReal && !c.Engagement.Unsubscribed && !c.Engagement.Bounced
	}
}

// Search keeps contacts whose email, full name or note contains term,
// ignoring case. An empty term keeps everything.
func Search(contacts []domain.UnifiedContact, term string) []domain.UnifiedContact {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return contacts
	}
	out := make([]domain.UnifiedContact, 0, len(contacts))
	for _, c := range contacts {
		if strings.Contains(c.Email, term) ||
			strings.Contains(strings.ToLower(c.FullName), term) ||
			strings.Contains(strings.ToLower(c.Note), term) {
			out = append(out, c)
		}
	}
	return out
}

// SortContacts puts contacts with a note first, then those on more
// platforms, then the newest. The sort is stable.
func SortContacts(contacts []domain.UnifiedContact) {
	sort.SliceStable(contacts, func(i, j int) bool {
		a, b := &contacts[i], &contacts[j]
		if (a.Note != "") != (b.Note != "") {
			return a.Note != ""
		}
		if len(a.Sources) != len(b.Sources) {
			return len(a.Sources) > len(b.Sources)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// Truncate returns at most limit contacts. A non-positive limit keeps all.
func Truncate(contacts []domain.UnifiedContact, limit int) []domain.UnifiedContact {
	if limit > 0 && len(contacts) > limit {
		return contacts[:limit]
	}
	return contacts
}

// ComputeStats describes the returned contacts. Every platform in platforms
// appears in BySource, with zero when nothing came from it.
func ComputeStats(contacts []domain.UnifiedContact, platforms []string) domain.ContactStats {
	stats := domain.ContactStats{
		Total:    len(contacts),
		BySource: make(map[string]int, len(platforms)),
	}
	for _, p := range platforms {
		stats.BySource[p] = 0
	}

	for _, c := range contacts {
		for _, s := range c.Sources {
			stats.BySource[s]++
		}
		if len(c.Sources) > 1 {
			stats.InMultiplePlatforms++
		}
		if c.Engagement.LastOpened != nil || c.Engagement.LastClicked != nil {
			stats.Engaged++
		}
		if c.Engagement.Confirmed {
			stats.Confirmed++
		}
		if c.Note != "" {
			stats.WithNotes++
		}
	}
	return stats
}
