package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action is a feedback action on the preference document.
type Action int

const (
	ActionTrustSender Action = iota + 1
	ActionBlockSender
	ActionTrustDomain
	ActionBlockDomain
	ActionBlockPattern
	ActionRecordIgnore
	ActionUntrustSender
	ActionUnblockSender
)

var actionNames = map[Action]string{
	ActionTrustSender:   "trust-sender",
	ActionBlockSender:   "block-sender",
	ActionTrustDomain:   "trust-domain",
	ActionBlockDomain:   "block-domain",
	ActionBlockPattern:  "block-pattern",
	ActionRecordIgnore:  "record-ignore",
	ActionUntrustSender: "untrust-sender",
	ActionUnblockSender: "unblock-sender",
}

// AllActions lists every action in declaration order.
func AllActions() []Action {
	return []Action{
		ActionTrustSender,
		ActionBlockSender,
		ActionTrustDomain,
		ActionBlockDomain,
		ActionBlockPattern,
		ActionRecordIgnore,
		ActionUntrustSender,
		ActionUnblockSender,
	}
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// InvalidActionError is returned for action names the store does not know.
type InvalidActionError struct {
	Name string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %q", e.Name)
}

// ParseAction maps a wire name such as "trust-sender" to an Action.
func ParseAction(name string) (Action, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == normalized {
			return a, nil
		}
	}
	return 0, &InvalidActionError{Name: name}
}

// ActionField names the request field an action operates on.
type ActionField string

const (
	FieldEmail   ActionField = "email"
	FieldDomain  ActionField = "domain"
	FieldPattern ActionField = "pattern"
)

// RequiredField returns the parameter the action cannot run without.
func (a Action) RequiredField() ActionField {
	switch a {
	case ActionTrustDomain, ActionBlockDomain:
		return FieldDomain
	case ActionBlockPattern:
		return FieldPattern
	default:
		return FieldEmail
	}
}

// MissingFieldError is returned when the action's required parameter is empty.
type MissingFieldError struct {
	Action Action
	Field  ActionField
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s requires %s", e.Action, e.Field)
}

// ActionParams carries the optional identifiers of a feedback action.
type ActionParams struct {
	Email   string
	Domain  string
	Pattern string
}

// Normalized lower-cases and trims every identifier. Domains lose a leading "@".
func (p ActionParams) Normalized() ActionParams {
	return ActionParams{
		Email:   strings.ToLower(strings.TrimSpace(p.Email)),
		Domain:  strings.TrimPrefix(strings.ToLower(strings.TrimSpace(p.Domain)), "@"),
		Pattern: strings.ToLower(strings.TrimSpace(p.Pattern)),
	}
}

func (p ActionParams) value(f ActionField) string {
	switch f {
	case FieldDomain:
		return p.Domain
	case FieldPattern:
		return p.Pattern
	default:
		return p.Email
	}
}

// Apply runs the action against a copy of prefs and returns the copy.
// prefs itself is never modified. now stamps engagement counters.
func (a Action) Apply(prefs *Preferences, params ActionParams, now time.Time) (*Preferences, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, &InvalidActionError{Name: a.String()}
	}
	params = params.Normalized()
	if params.value(a.RequiredField()) == "" {
		return nil, &MissingFieldError{Action: a, Field: a.RequiredField()}
	}

	next := prefs.Clone()
	next.Normalize()
	seen := now.UTC().Format(time.RFC3339)

	switch a {
	case ActionTrustSender:
		if !containsString(next.TrustedSenders, params.Email) {
			next.TrustedSenders = append(next.TrustedSenders, params.Email)
		}
		next.BlockedSenders = removeString(next.BlockedSenders, params.Email)
		h := next.counters(params.Email)
		h.AddedToFunnel++
		h.LastSeen = seen

	case ActionBlockSender:
		if !containsString(next.BlockedSenders, params.Email) {
			next.BlockedSenders = append(next.BlockedSenders, params.Email)
		}
		next.TrustedSenders = removeString(next.TrustedSenders, params.Email)
		h := next.counters(params.Email)
		h.MarkedSpam++
		h.LastSeen = seen

	case ActionTrustDomain:
		if !containsString(next.TrustedDomains, params.Domain) {
			next.TrustedDomains = append(next.TrustedDomains, params.Domain)
		}
		next.BlockedDomains = removeString(next.BlockedDomains, params.Domain)

	case ActionBlockDomain:
		if !containsString(next.BlockedDomains, params.Domain) {
			next.BlockedDomains = append(next.BlockedDomains, params.Domain)
		}
		next.TrustedDomains = removeString(next.TrustedDomains, params.Domain)

	case ActionBlockPattern:
		if !containsString(next.BlockedPatterns, params.Pattern) {
			next.BlockedPatterns = append(next.BlockedPatterns, params.Pattern)
		}

	case ActionRecordIgnore:
		h := next.counters(params.Email)
		h.Ignored++
		h.LastSeen = seen

	case ActionUntrustSender:
		next.TrustedSenders = removeString(next.TrustedSenders, params.Email)

	case ActionUnblockSender:
		next.BlockedSenders = removeString(next.BlockedSenders, params.Email)
	}

	return next, nil
}

func (p *Preferences) counters(email string) *EngagementCounters {
	h, ok := p.EngagementHistory[email]
	if !ok || h == nil {
		h = &EngagementCounters{}
		p.EngagementHistory[email] = h
	}
	return h
}
