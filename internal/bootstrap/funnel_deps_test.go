package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"funnel_server/core/domain"
)

func TestNewDependencies_UnconfiguredPlatformStillReports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"1":{"id":"1","email":"lead@example.com","status":"active"}}`)
	}))
	defer srv.Close()

	cfg := testConfig(t)
	cfg.AcumbamailBaseURL = srv.URL
	cfg.AcumbamailToken = "tok"
	cfg.AcumbamailListID = "9"

	deps, cleanup, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewDependencies() error = %v", err)
	}
	defer cleanup()

	if len(deps.Enrollers) != 1 {
		t.Errorf("len(Enrollers) = %d, want 1", len(deps.Enrollers))
	}

	resp, err := deps.ContactService.ListContacts(context.Background(), domain.ContactQuery{Filter: domain.ContactFilterAll})
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	n, present := resp.Stats.BySource["SendFox"]
	if !present || n != 0 {
		t.Errorf("BySource[SendFox] = %d, %v; want present with 0", n, present)
	}
	if resp.Stats.BySource["Acumbamail"] != 1 {
		t.Errorf("BySource[Acumbamail] = %d, want 1", resp.Stats.BySource["Acumbamail"])
	}
	if len(resp.Warnings) != 1 || !strings.Contains(resp.Warnings[0], "SENDFOX_TOKEN") {
		t.Errorf("Warnings = %v, want one naming SENDFOX_TOKEN", resp.Warnings)
	}

	lists, err := deps.ListService.ListMailingLists(context.Background())
	if err != nil {
		t.Fatalf("ListMailingLists() error = %v", err)
	}
	var sendfox bool
	for _, p := range lists.Platforms {
		if p.Platform == "SendFox" {
			sendfox = true
			if p.Connected {
				t.Error("SendFox Connected = true, want false")
			}
		}
	}
	if !sendfox {
		t.Error("SendFox missing from list overview")
	}
}
