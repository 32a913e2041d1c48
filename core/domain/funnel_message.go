package domain

import (
	"strings"
	"time"
)

// Message is the subset of an inbox message the classifier needs.
type Message struct {
	ID            string    `json:"id"`
	Subject       string    `json:"subject"`
	SenderAddress string    `json:"from"`
	SenderName    string    `json:"fromName"`
	Date          time.Time `json:"date"`
	Snippet       string    `json:"snippet,omitempty"`
}

// SenderDomain returns the lower-cased text after the last "@", or "".
func (m *Message) SenderDomain() string {
	return DomainOf(m.SenderAddress)
}

// DomainOf returns the lower-cased domain of an address.
func DomainOf(address string) string {
	addr := strings.ToLower(strings.TrimSpace(address))
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return ""
	}
	return addr[at+1:]
}

// LocalPart returns the text before the last "@", or the whole address.
func LocalPart(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return address
	}
	return address[:at]
}

// Category is the lead-funnel bucket assigned to a message.
type Category string

const (
	CategoryTrusted   Category = "trusted"
	CategoryParent    Category = "parent"
	CategoryBusiness  Category = "business"
	CategoryUnknown   Category = "unknown"
	CategoryMarketing Category = "marketing"
)

// Rank orders categories for display. Lower sorts first.
func (c Category) Rank() int {
	switch c {
	case CategoryTrusted:
		return 0
	case CategoryParent:
		return 1
	case CategoryBusiness:
		return 2
	case CategoryUnknown:
		return 3
	case CategoryMarketing:
		return 4
	default:
		return 5
	}
}

// IsRealPerson reports whether the category is a human lead bucket.
func (c Category) IsRealPerson() bool {
	return c == CategoryParent || c == CategoryBusiness || c == CategoryUnknown
}

// Classification is the outcome of running one message through the rules.
type Classification struct {
	Category        Category `json:"category"`
	IsTrusted       bool     `json:"isTrusted"`
	IsBlocked       bool     `json:"isBlocked"`
	IsRealPerson    bool     `json:"isRealPerson"`
	EngagementScore int      `json:"engagementScore"`
	Rule            string   `json:"rule"`
}

// ClassifiedMessage pairs a message with its classification.
type ClassifiedMessage struct {
	Message
	Classification
}

// MessageFilter selects which classified messages are returned.
type MessageFilter string

const (
	MessageFilterReal MessageFilter = "real"
	MessageFilterAll  MessageFilter = "all"
)

// ParseMessageFilter defaults to "real" for unknown values.
func ParseMessageFilter(s string) MessageFilter {
	if MessageFilter(strings.ToLower(s)) == MessageFilterAll {
		return MessageFilterAll
	}
	return MessageFilterReal
}
