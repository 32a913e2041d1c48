package domain

import (
	"strings"
	"time"
)

// Preferences is the persisted, user-trainable filter state. There is one
// document per installation.
type Preferences struct {
	TrustedSenders    []string                       `json:"trustedSenders"`
	TrustedDomains    []string                       `json:"trustedDomains"`
	BlockedSenders    []string                       `json:"blockedSenders"`
	BlockedDomains    []string                       `json:"blockedDomains"`
	BlockedPatterns   []string                       `json:"blockedPatterns"`
	EngagementHistory map[string]*EngagementCounters `json:"engagementHistory"`
	UpdatedAt         time.Time                      `json:"updatedAt"`
}

// EngagementCounters track how the operator has treated a sender over time.
// Counters only grow.
type EngagementCounters struct {
	AddedToFunnel int    `json:"addedToFunnel"`
	MarkedSpam    int    `json:"markedSpam"`
	Ignored       int    `json:"ignored"`
	LastSeen      string `json:"lastSeen"`
}

// BaseScore is the linear engagement score used by the classifier.
func (c *EngagementCounters) BaseScore() int {
	if c == nil {
		return 0
	}
	return c.AddedToFunnel*10 - c.MarkedSpam*20 - c.Ignored
}

// DefaultPreferences returns the seed document used when nothing is persisted.
func DefaultPreferences(rs *Ruleset) *Preferences {
	p := &Preferences{
		TrustedSenders:    []string{},
		TrustedDomains:    []string{},
		BlockedSenders:    []string{},
		BlockedDomains:    []string{},
		BlockedPatterns:   []string{},
		EngagementHistory: make(map[string]*EngagementCounters),
		UpdatedAt:         time.Now().UTC(),
	}
	if rs != nil {
		p.BlockedDomains = append(p.BlockedDomains, rs.DefaultBlockedDomains...)
		p.BlockedPatterns = append(p.BlockedPatterns, rs.DefaultBlockedPatterns...)
	}
	return p
}

// Normalize fills nil collections so a partially written document behaves
// like an empty one.
func (p *Preferences) Normalize() {
	if p.TrustedSenders == nil {
		p.TrustedSenders = []string{}
	}
	if p.TrustedDomains == nil {
		p.TrustedDomains = []string{}
	}
	if p.BlockedSenders == nil {
		p.BlockedSenders = []string{}
	}
	if p.BlockedDomains == nil {
		p.BlockedDomains = []string{}
	}
	if p.BlockedPatterns == nil {
		p.BlockedPatterns = []string{}
	}
	if p.EngagementHistory == nil {
		p.EngagementHistory = make(map[string]*EngagementCounters)
	}
}

// Clone returns a deep copy.
func (p *Preferences) Clone() *Preferences {
	c := &Preferences{
		TrustedSenders:    append([]string{}, p.TrustedSenders...),
		TrustedDomains:    append([]string{}, p.TrustedDomains...),
		BlockedSenders:    append([]string{}, p.BlockedSenders...),
		BlockedDomains:    append([]string{}, p.BlockedDomains...),
		BlockedPatterns:   append([]string{}, p.BlockedPatterns...),
		EngagementHistory: make(map[string]*EngagementCounters, len(p.EngagementHistory)),
		UpdatedAt:         p.UpdatedAt,
	}
	for k, v := range p.EngagementHistory {
		if v == nil {
			continue
		}
		counters := *v
		c.EngagementHistory[k] = &counters
	}
	return c
}

// History returns the counters for an address, or nil.
func (p *Preferences) History(email string) *EngagementCounters {
	if p.EngagementHistory == nil {
		return nil
	}
	return p.EngagementHistory[strings.ToLower(email)]
}

// PreferenceStats are the derived counts shown next to the preferences.
type PreferenceStats struct {
	TrustedSenders int `json:"trustedSenders"`
	TrustedDomains int `json:"trustedDomains"`
	BlockedSenders int `json:"blockedSenders"`
	BlockedDomains int `json:"blockedDomains"`
	TrackedSenders int `json:"trackedSenders"`
}

// Stats computes the derived counts.
func (p *Preferences) Stats() PreferenceStats {
	return PreferenceStats{
		TrustedSenders: len(p.TrustedSenders),
		TrustedDomains: len(p.TrustedDomains),
		BlockedSenders: len(p.BlockedSenders),
		BlockedDomains: len(p.BlockedDomains),
		TrackedSenders: len(p.EngagementHistory),
	}
}

// containsString reports whether list holds s.
func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// removeString returns list without any occurrence of s.
func removeString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

// DegradedError reports that stored preferences could not be read and the
// defaults were substituted.
type DegradedError struct {
	Backend string
	Err     error
}

func (e *DegradedError) Error() string {
	return "preferences degraded (" + e.Backend + "): " + e.Err.Error()
}

func (e *DegradedError) Unwrap() error {
	return e.Err
}
