// Package classification implements the lead-funnel message classifier.
package classification

import (
	"sort"
	"strings"

	"funnel_server/core/domain"
)

// Scores assigned by the fixed rules of the cascade.
const (
	ScoreTrustedSender   = 100
	ScoreTrustedDomain   = 50
	ScoreBlockedSender   = -100
	ScoreBlockedDomain   = -50
	ScoreSystemSender    = -50
	ScoreBlockedPattern  = -30
	BonusParentKeyword   = 20
	BonusBusinessKeyword = 10
)

// Rule names reported on each classification.
const (
	RuleMissingSender   = "missing-sender"
	RuleTrustedSender   = "trusted-sender"
	RuleTrustedDomain   = "trusted-domain"
	RuleBlockedSender   = "blocked-sender"
	RuleBlockedDomain   = "blocked-domain"
	RuleSystemSender    = "system-sender"
	RuleBlockedPattern  = "blocked-pattern"
	RuleParentKeyword   = "parent-keyword"
	RuleBusinessKeyword = "business-keyword"
	RuleFunnelHistory   = "funnel-history"
	RuleSpamHistory     = "spam-history"
	RuleDefault         = "default"
)

// =============================================================================
// Cascade
// =============================================================================

// Cascade is the ordered rule list. The first rule that matches decides the
// category and score.
type Cascade struct {
	system           *domain.SystemAddressMatcher
	parentKeywords   []string
	businessKeywords []string
}

// NewCascade builds a cascade from a ruleset.
func NewCascade(rs *domain.Ruleset) *Cascade {
	return &Cascade{
		system:           rs.SystemMatcher(),
		parentKeywords:   lowerAll(rs.ParentKeywords),
		businessKeywords: lowerAll(rs.BusinessKeywords),
	}
}

// Classify runs one message through the cascade. It never fails.
func (c *Cascade) Classify(msg *domain.Message, prefs *domain.Preferences) domain.Classification {
	sender := strings.ToLower(strings.TrimSpace(msg.SenderAddress))
	if sender == "" {
		return result(domain.CategoryUnknown, 0, RuleMissingSender)
	}
	senderDomain := domain.DomainOf(sender)
	subject := strings.ToLower(msg.Subject)

	// Stage 1: explicit lists
	if containsExact(prefs.TrustedSenders, sender) {
		return result(domain.CategoryTrusted, ScoreTrustedSender, RuleTrustedSender)
	}
	if containsSubstringOf(senderDomain, prefs.TrustedDomains) {
		return result(domain.CategoryTrusted, ScoreTrustedDomain, RuleTrustedDomain)
	}
	if containsExact(prefs.BlockedSenders, sender) {
		return result(domain.CategoryMarketing, ScoreBlockedSender, RuleBlockedSender)
	}
	if containsSubstringOf(senderDomain, prefs.BlockedDomains) {
		return result(domain.CategoryMarketing, ScoreBlockedDomain, RuleBlockedDomain)
	}

	// Stage 2: built-in vocabulary
	if c.system.IsSystem(sender) {
		return result(domain.CategoryMarketing, ScoreSystemSender, RuleSystemSender)
	}
	if containsSubstringOf(subject, lowerAll(prefs.BlockedPatterns)) {
		return result(domain.CategoryMarketing, ScoreBlockedPattern, RuleBlockedPattern)
	}

	// Stage 3: subject keywords on top of the learned score
	base := prefs.History(sender).BaseScore()
	if containsSubstringOf(subject, c.parentKeywords) {
		return result(domain.CategoryParent, base+BonusParentKeyword, RuleParentKeyword)
	}
	if containsSubstringOf(subject, c.businessKeywords) {
		return result(domain.CategoryBusiness, base+BonusBusinessKeyword, RuleBusinessKeyword)
	}

	// Stage 4: engagement history
	if h := prefs.History(sender); h != nil {
		if h.AddedToFunnel > 0 {
			return result(domain.CategoryTrusted, base, RuleFunnelHistory)
		}
		if h.MarkedSpam > 0 {
			return result(domain.CategoryMarketing, base, RuleSpamHistory)
		}
	}

	return result(domain.CategoryUnknown, base, RuleDefault)
}

// ClassifyAll classifies every message against the same preferences.
func (c *Cascade) ClassifyAll(msgs []domain.Message, prefs *domain.Preferences) []domain.ClassifiedMessage {
	out := make([]domain.ClassifiedMessage, 0, len(msgs))
	for i := range msgs {
		out = append(out, domain.ClassifiedMessage{
			Message:        msgs[i],
			Classification: c.Classify(&msgs[i], prefs),
		})
	}
	return out
}

// SortMessages orders by category rank, then by descending score. Ties keep
// their input order.
func SortMessages(msgs []domain.ClassifiedMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ri, rj := msgs[i].Category.Rank(), msgs[j].Category.Rank()
		if ri != rj {
			return ri < rj
		}
		return msgs[i].EngagementScore > msgs[j].EngagementScore
	})
}

func result(cat domain.Category, score int, rule string) domain.Classification {
	return domain.Classification{
		Category:        cat,
		IsTrusted:       cat == domain.CategoryTrusted,
		IsBlocked:       cat == domain.CategoryMarketing,
		IsRealPerson:    cat.IsRealPerson(),
		EngagementScore: score,
		Rule:            rule,
	}
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if strings.ToLower(v) == s {
			return true
		}
	}
	return false
}

// containsSubstringOf reports whether text contains any non-empty needle.
func containsSubstringOf(text string, needles []string) bool {
	if text == "" {
		return false
	}
	for _, n := range needles {
		if n != "" && strings.Contains(text, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.ToLower(s))
	}
	return out
}
