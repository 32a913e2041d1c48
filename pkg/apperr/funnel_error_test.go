package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAsAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"app error passes through", MissingField("email"), CodeMissingField, http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("apply: %w", InvalidAction("explode")), CodeInvalidAction, http.StatusBadRequest},
		{"plain error becomes internal", errors.New("boom"), CodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsAppError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("code = %v, want %v", got.Code, tt.wantCode)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("status = %v, want %v", got.Status, tt.wantStatus)
			}
		})
	}
}

func TestInvalidActionMessage(t *testing.T) {
	err := InvalidAction("explode")
	if err.Message != "Invalid action" {
		t.Errorf("message = %q, want %q", err.Message, "Invalid action")
	}
	if err.Details["action"] != "explode" {
		t.Errorf("details[action] = %v, want explode", err.Details["action"])
	}
	if !HasCode(err, CodeInvalidAction) {
		t.Error("HasCode(INVALID_ACTION) = false, want true")
	}
}
