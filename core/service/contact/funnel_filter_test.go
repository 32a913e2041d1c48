package contact

import (
	"testing"

	"funnel_server/core/domain"
)

func sampleContacts() []domain.UnifiedContact {
	opened := ts(9)
	return []domain.UnifiedContact{
		{ID: "a", Email: "a@x.com", FullName: "Alice", IsReal: true, Sources: []string{"SendFox"}, CreatedAt: ts(1)},
		{ID: "b", Email: "b@x.com", FullName: "Bob", IsReal: true, Sources: []string{"SendFox", "Acumbamail"}, CreatedAt: ts(2), Engagement: domain.Engagement{LastOpened: &opened}},
		{ID: "c", Email: "c@x.com", FullName: "Cara", IsReal: true, Sources: []string{"Acumbamail"}, CreatedAt: ts(3), Engagement: domain.Engagement{Unsubscribed: true}},
		{ID: "d", Email: "d@x.com", FullName: "Dan", IsReal: false, Sources: []string{"SendFox"}, CreatedAt: ts(4), Engagement: domain.Engagement{Confirmed: true}},
		{ID: "e", Email: "e@x.com", FullName: "Eve", IsReal: true, Sources: []string{"SendFox"}, CreatedAt: ts(5), Note: "Asking about Camp", Engagement: domain.Engagement{Confirmed: true}},
	}
}

func ids(contacts []domain.UnifiedContact) []string {
	out := make([]string, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, c.ID)
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestApplyFilter(t *testing.T) {
	tests := []struct {
		filter domain.ContactFilter
		want   []string
	}{
		{domain.ContactFilterReal, []string{"a", "b", "e"}},
		{domain.ContactFilterEngaged, []string{"b", "e"}},
		{domain.ContactFilterAll, []string{"a", "b", "c", "d", "e"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := ids(ApplyFilter(sampleContacts(), tt.filter))
			if !equalIDs(got, tt.want) {
				t.Errorf("ApplyFilter(%s) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		term string
		want []string
	}{
		{"", []string{"a", "b", "c", "d", "e"}},
		{"BOB", []string{"b"}},
		{"camp", []string{"e"}},
		{"d@x", []string{"d"}},
		{"zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := ids(Search(sampleContacts(), tt.term))
			if !equalIDs(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestSortContacts(t *testing.T) {
	contacts := sampleContacts()
	SortContacts(contacts)

	want := []string{"e", "b", "d", "c", "a"}
	if got := ids(contacts); !equalIDs(got, want) {
		t.Errorf("SortContacts = %v, want %v", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate(sampleContacts(), 2); len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
	if got := Truncate(sampleContacts(), 0); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestComputeStats(t *testing.T) {
	stats := ComputeStats(sampleContacts(), []string{"SendFox", "Acumbamail", "Other"})

	if stats.Total != 5 {
		t.Errorf("Total = %d", stats.Total)
	}
	if stats.BySource["SendFox"] != 4 || stats.BySource["Acumbamail"] != 2 {
		t.Errorf("BySource = %v", stats.BySource)
	}
	if n, ok := stats.BySource["Other"]; !ok || n != 0 {
		t.Errorf("BySource[Other] = %d, %v; want present with 0", n, ok)
	}
	if stats.InMultiplePlatforms != 1 || stats.Engaged != 1 || stats.Confirmed != 2 || stats.WithNotes != 1 {
		t.Errorf("stats = %+v", stats)
	}
}
