package preference

import (
	"context"
	"testing"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/pkg/apperr"
)

func testRuleset() *domain.Ruleset {
	return &domain.Ruleset{
		FunnelStages: []domain.FunnelStage{
			{ID: "new-lead", Name: "New Lead", Platform: "SendFox", ListID: "534537"},
			{ID: "trial-booked", Name: "Trial Booked", Platform: "SendFox"},
			{ID: "sms", Name: "SMS", Platform: "Acumbamail", ListID: "9"},
		},
	}
}

func TestAddToFunnel(t *testing.T) {
	store := newMemStore()
	sendfox := &fakeEnroller{platform: "SendFox"}
	svc := NewFunnelService(testRuleset(), NewService(store), sendfox)

	resp, err := svc.AddToFunnel(context.Background(), &in.AddToFunnelRequest{
		Email: "Jane@Gmail.com",
		Name:  "Jane Q Public",
		Stage: "new-lead",
	})
	if err != nil {
		t.Fatalf("AddToFunnel: %v", err)
	}

	if resp.Stage.ID != "new-lead" {
		t.Errorf("Stage = %+v", resp.Stage)
	}
	if len(sendfox.calls) != 1 {
		t.Fatalf("enroll calls = %d, want 1", len(sendfox.calls))
	}
	got := sendfox.calls[0]
	if got.Email != "jane@gmail.com" || got.FirstName != "Jane" || got.LastName != "Q Public" {
		t.Errorf("enrollment = %+v", got)
	}
	if sendfox.listIDs[0] != "534537" {
		t.Errorf("listID = %s", sendfox.listIDs[0])
	}

	h := store.prefs.History("jane@gmail.com")
	if h == nil || h.AddedToFunnel != 1 {
		t.Errorf("history = %+v, want addedToFunnel 1", h)
	}
	if len(store.prefs.TrustedSenders) != 1 {
		t.Errorf("TrustedSenders = %v", store.prefs.TrustedSenders)
	}
}

func TestAddToFunnelErrors(t *testing.T) {
	tests := []struct {
		name      string
		req       in.AddToFunnelRequest
		enroller  *fakeEnroller
		wantCode  string
		wantState int
	}{
		{"missing email", in.AddToFunnelRequest{Stage: "new-lead"}, &fakeEnroller{platform: "SendFox"}, apperr.CodeMissingField, 400},
		{"missing stage", in.AddToFunnelRequest{Email: "a@b.com"}, &fakeEnroller{platform: "SendFox"}, apperr.CodeMissingField, 400},
		{"unknown stage", in.AddToFunnelRequest{Email: "a@b.com", Stage: "vip"}, &fakeEnroller{platform: "SendFox"}, apperr.CodeBadRequest, 400},
		{"stage without list", in.AddToFunnelRequest{Email: "a@b.com", Stage: "trial-booked"}, &fakeEnroller{platform: "SendFox"}, apperr.CodeBadRequest, 400},
		{"platform not configured", in.AddToFunnelRequest{Email: "a@b.com", Stage: "sms"}, &fakeEnroller{platform: "SendFox"}, apperr.CodeConfigError, 500},
		{"enroll fails", in.AddToFunnelRequest{Email: "a@b.com", Stage: "new-lead"}, &fakeEnroller{platform: "SendFox", err: errUpstream}, apperr.CodeExternalError, 502},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := NewFunnelService(testRuleset(), NewService(store), tt.enroller)

			_, err := svc.AddToFunnel(context.Background(), &tt.req)
			appErr := apperr.AsAppError(err)
			if appErr == nil {
				t.Fatalf("error = %v, want AppError", err)
			}
			if appErr.Code != tt.wantCode || appErr.Status != tt.wantState {
				t.Errorf("error = %s/%d, want %s/%d", appErr.Code, appErr.Status, tt.wantCode, tt.wantState)
			}
			if store.saves != 0 {
				t.Errorf("saves = %d, want no preference change", store.saves)
			}
		})
	}
}

func TestStagesReturnsCopy(t *testing.T) {
	svc := NewFunnelService(testRuleset(), NewService(newMemStore()))
	stages := svc.Stages(context.Background())
	stages[0].Name = "changed"

	if svc.Stages(context.Background())[0].Name != "New Lead" {
		t.Error("Stages exposed internal slice")
	}
}
