package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRuleset(t *testing.T) {
	rs, err := DefaultRuleset()
	if err != nil {
		t.Fatalf("DefaultRuleset: %v", err)
	}

	if got := len(rs.DefaultBlockedDomains); got < 50 {
		t.Errorf("DefaultBlockedDomains = %d entries, want at least 50", got)
	}
	if got := len(rs.DefaultBlockedPatterns); got != 23 {
		t.Errorf("DefaultBlockedPatterns = %d entries, want 23", got)
	}
	if len(rs.ParentKeywords) == 0 || len(rs.BusinessKeywords) == 0 {
		t.Error("keyword lists must not be empty")
	}

	m := rs.SystemMatcher()
	for _, addr := range []string{"noreply@mailchimp.com", "billing@stripe.com", "alerts@bank.io"} {
		if !m.IsSystem(addr) {
			t.Errorf("IsSystem(%q) = false, want true", addr)
		}
	}
	if m.IsSystem("jane@gmail.com") {
		t.Error("IsSystem(jane@gmail.com) = true, want false")
	}
}

func TestDefaultRulesetStages(t *testing.T) {
	rs, err := DefaultRuleset()
	if err != nil {
		t.Fatalf("DefaultRuleset: %v", err)
	}

	tests := []struct {
		id         string
		configured bool
		platform   string
	}{
		{"new-lead", true, "SendFox"},
		{"interested", true, "SendFox"},
		{"trial-booked", false, "SendFox"},
		{"sms-reminders", false, "Acumbamail"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			stage, ok := rs.Stage(tt.id)
			if !ok {
				t.Fatalf("Stage(%q) not found", tt.id)
			}
			if stage.Configured() != tt.configured {
				t.Errorf("Configured() = %v, want %v", stage.Configured(), tt.configured)
			}
			if stage.Platform != tt.platform {
				t.Errorf("Platform = %q, want %q", stage.Platform, tt.platform)
			}
		})
	}
}

func TestLoadRulesetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.toml")
	data := []byte(`
system_senders = ["bot@"]
parent_keywords = ["lesson"]
business_keywords = ["invoice"]

[[funnel_stages]]
id = "only"
name = "Only"
platform = "SendFox"
list_id = "1"
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	rs, err := LoadRuleset(path)
	if err != nil {
		t.Fatalf("LoadRuleset: %v", err)
	}
	if len(rs.SystemSenders) != 1 || rs.SystemSenders[0] != "bot@" {
		t.Errorf("SystemSenders = %v", rs.SystemSenders)
	}
	if len(rs.FunnelStages) != 1 {
		t.Errorf("FunnelStages = %v", rs.FunnelStages)
	}
}

func TestParseRulesetRejectsDuplicateStage(t *testing.T) {
	data := []byte(`
[[funnel_stages]]
id = "a"
[[funnel_stages]]
id = "a"
`)
	if _, err := ParseRuleset(data); err == nil {
		t.Error("ParseRuleset() error = nil, want duplicate id error")
	}
}
