package domain

import "strings"

// Ruleset is the static classification and funnel configuration.
type Ruleset struct {
	SystemSenders          []string
	ParentKeywords         []string
	BusinessKeywords       []string
	DefaultBlockedDomains  []string
	DefaultBlockedPatterns []string
	FunnelStages           []FunnelStage
}

// SystemMatcher builds the matcher for the ruleset's system senders.
func (r *Ruleset) SystemMatcher() *SystemAddressMatcher {
	return NewSystemAddressMatcher(r.SystemSenders)
}

// Stage returns the funnel stage with the given id.
func (r *Ruleset) Stage(id string) (FunnelStage, bool) {
	for _, s := range r.FunnelStages {
		if s.ID == id {
			return s, true
		}
	}
	return FunnelStage{}, false
}

// SystemAddressMatcher recognises automated sender addresses by substring.
type SystemAddressMatcher struct {
	patterns []string
}

func NewSystemAddressMatcher(patterns []string) *SystemAddressMatcher {
	m := &SystemAddressMatcher{patterns: make([]string, 0, len(patterns))}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			m.patterns = append(m.patterns, p)
		}
	}
	return m
}

// Match returns the first pattern contained in address, or "".
func (m *SystemAddressMatcher) Match(address string) string {
	if m == nil {
		return ""
	}
	addr := strings.ToLower(address)
	for _, p := range m.patterns {
		if strings.Contains(addr, p) {
			return p
		}
	}
	return ""
}

// IsSystem reports whether address looks automated.
func (m *SystemAddressMatcher) IsSystem(address string) bool {
	return m.Match(address) != ""
}

// FunnelStage is a named lead stage backed by a mailing list.
type FunnelStage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Platform string `json:"platform"`
	// ListID is empty when the stage has no list configured yet.
	ListID string `json:"listId,omitempty"`
}

// Configured reports whether contacts can be enrolled into the stage.
func (s FunnelStage) Configured() bool {
	return s.ListID != ""
}

// Enrollment is a request to add a sender to a funnel stage.
type Enrollment struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	StageID   string `json:"stage"`
}

// SplitName splits a display name into first and last name.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
