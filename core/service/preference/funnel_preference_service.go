// Package preference implements the feedback loop over the preference document.
package preference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/core/port/out"
	"funnel_server/pkg/apperr"
	"funnel_server/pkg/logger"
)

// Service applies operator feedback to the stored preferences. It is the only
// component that writes the preference document.
type Service struct {
	store out.PreferenceStore
	now   func() time.Time
	log   *logger.Logger
}

var _ in.PreferenceService = (*Service)(nil)

func NewService(store out.PreferenceStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
		log:   logger.WithField("service", "preference"),
	}
}

// GetPreferences returns the current document and its derived counts.
func (s *Service) GetPreferences(ctx context.Context) (*in.PreferencesResponse, error) {
	resp := &in.PreferencesResponse{}

	prefs, err := s.store.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("using default preferences")
		resp.Warnings = append(resp.Warnings, err.Error())
	}

	resp.Prefs = prefs
	resp.Stats = prefs.Stats()
	return resp, nil
}

// ApplyAction parses and applies one feedback action, then saves the result.
func (s *Service) ApplyAction(ctx context.Context, req *in.ActionRequest) (*in.ActionResponse, error) {
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		return nil, apperr.InvalidAction(req.Action)
	}

	params := domain.ActionParams{Email: req.Email, Domain: req.Domain, Pattern: req.Pattern}
	warnings, err := s.apply(ctx, action, params)
	if err != nil {
		return nil, err
	}

	normalized := params.Normalized()
	return &in.ActionResponse{
		Action:   action.String(),
		Email:    normalized.Email,
		Domain:   normalized.Domain,
		Pattern:  normalized.Pattern,
		Message:  fmt.Sprintf("Action '%s' completed", action),
		Warnings: warnings,
	}, nil
}

// apply runs load, apply and save. Load and save problems come back as
// warnings. Only invalid input is an error.
func (s *Service) apply(ctx context.Context, action domain.Action, params domain.ActionParams) ([]string, error) {
	var warnings []string

	prefs, err := s.store.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("applying %s on default preferences", action)
		warnings = append(warnings, err.Error())
	}

	next, err := action.Apply(prefs, params, s.now())
	if err != nil {
		var missing *domain.MissingFieldError
		if errors.As(err, &missing) {
			return nil, apperr.MissingField(string(missing.Field)).WithDetail("action", action.String())
		}
		return nil, apperr.InvalidAction(action.String())
	}

	if err := s.store.Save(ctx, next); err != nil {
		s.log.WithError(err).WithField("action", action.String()).Error("save preferences failed")
		warnings = append(warnings, apperr.StorageError("save preferences", err).Message)
	}

	s.log.WithFields(map[string]any{
		"action":  action.String(),
		"backend": s.store.Backend(),
	}).Debug("preference action applied")

	return warnings, nil
}

// Trust applies trust-sender for email. Used after a successful enrollment.
func (s *Service) Trust(ctx context.Context, email string) ([]string, error) {
	return s.apply(ctx, domain.ActionTrustSender, domain.ActionParams{Email: email})
}
