package config

import (
	_ "embed"
	"fmt"
	"os"

	"funnel_server/core/domain"

	"github.com/BurntSushi/toml"
)

//go:embed ruleset.toml
var defaultRuleset []byte

type rulesetFile struct {
	SystemSenders          []string         `toml:"system_senders"`
	ParentKeywords         []string         `toml:"parent_keywords"`
	BusinessKeywords       []string         `toml:"business_keywords"`
	DefaultBlockedDomains  []string         `toml:"default_blocked_domains"`
	DefaultBlockedPatterns []string         `toml:"default_blocked_patterns"`
	FunnelStages           []funnelStageRow `toml:"funnel_stages"`
}

type funnelStageRow struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	Platform string `toml:"platform"`
	ListID   string `toml:"list_id"`
}

// DefaultRuleset decodes the embedded ruleset.
func DefaultRuleset() (*domain.Ruleset, error) {
	return ParseRuleset(defaultRuleset)
}

// LoadRuleset reads the ruleset at path, or the embedded default when path is empty.
func LoadRuleset(path string) (*domain.Ruleset, error) {
	if path == "" {
		return DefaultRuleset()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset %s: %w", path, err)
	}
	return ParseRuleset(data)
}

// ParseRuleset decodes TOML ruleset data.
func ParseRuleset(data []byte) (*domain.Ruleset, error) {
	var f rulesetFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil, fmt.Errorf("decode ruleset: %w", err)
	}

	rs := &domain.Ruleset{
		SystemSenders:          f.SystemSenders,
		ParentKeywords:         f.ParentKeywords,
		BusinessKeywords:       f.BusinessKeywords,
		DefaultBlockedDomains:  f.DefaultBlockedDomains,
		DefaultBlockedPatterns: f.DefaultBlockedPatterns,
	}

	seen := make(map[string]bool, len(f.FunnelStages))
	for _, row := range f.FunnelStages {
		if row.ID == "" {
			return nil, fmt.Errorf("funnel stage %q: missing id", row.Name)
		}
		if seen[row.ID] {
			return nil, fmt.Errorf("funnel stage %q: duplicate id", row.ID)
		}
		seen[row.ID] = true
		rs.FunnelStages = append(rs.FunnelStages, domain.FunnelStage{
			ID:       row.ID,
			Name:     row.Name,
			Platform: row.Platform,
			ListID:   row.ListID,
		})
	}

	return rs, nil
}
