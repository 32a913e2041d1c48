package preference

import (
	"context"
	"fmt"
	"strings"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/core/port/out"
	"funnel_server/pkg/apperr"
	"funnel_server/pkg/logger"
)

// FunnelService enrolls senders into funnel stages and records the trust.
type FunnelService struct {
	stages      []domain.FunnelStage
	enrollers   []out.FunnelEnroller
	preferences *Service
	log         *logger.Logger
}

var _ in.FunnelService = (*FunnelService)(nil)

func NewFunnelService(rs *domain.Ruleset, preferences *Service, enrollers ...out.FunnelEnroller) *FunnelService {
	return &FunnelService{
		stages:      rs.FunnelStages,
		enrollers:   enrollers,
		preferences: preferences,
		log:         logger.WithField("service", "funnel"),
	}
}

// Stages lists every configured funnel stage.
func (s *FunnelService) Stages(_ context.Context) []domain.FunnelStage {
	out := make([]domain.FunnelStage, len(s.stages))
	copy(out, s.stages)
	return out
}

// AddToFunnel enrolls the address with the stage's platform, then trusts it.
// A failed enrollment leaves the preferences untouched.
func (s *FunnelService) AddToFunnel(ctx context.Context, req *in.AddToFunnelRequest) (*in.AddToFunnelResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, apperr.MissingField("email")
	}
	if req.Stage == "" {
		return nil, apperr.MissingField("stage")
	}

	stage, ok := s.stage(req.Stage)
	if !ok {
		return nil, apperr.BadRequest(fmt.Sprintf("Invalid stage: %s", req.Stage)).WithDetail("stage", req.Stage)
	}
	if !stage.Configured() {
		return nil, apperr.BadRequest(fmt.Sprintf("List not configured for stage: %s", stage.Name)).
			WithDetail("stage", stage.ID)
	}

	enroller := s.enroller(stage.Platform)
	if enroller == nil {
		return nil, apperr.ConfigError(fmt.Sprintf("%s credentials not configured", stage.Platform))
	}

	first, last := req.FirstName, req.LastName
	if first == "" && req.Name != "" {
		first, last = domain.SplitName(req.Name)
	}

	enrollment := domain.Enrollment{
		Email:     email,
		FirstName: first,
		LastName:  last,
		StageID:   stage.ID,
	}
	if err := enroller.Enroll(ctx, stage.ListID, enrollment); err != nil {
		s.log.WithError(err).WithField("stage", stage.ID).Error("enroll %s failed", email)
		return nil, apperr.ExternalError(enroller.Platform().Name, err)
	}

	warnings, err := s.preferences.Trust(ctx, email)
	if err != nil {
		return nil, err
	}

	s.log.WithField("stage", stage.ID).Info("added %s to funnel", email)
	return &in.AddToFunnelResponse{
		Email:    email,
		Stage:    stage,
		Message:  fmt.Sprintf("Added to %s", stage.Name),
		Warnings: warnings,
	}, nil
}

func (s *FunnelService) stage(id string) (domain.FunnelStage, bool) {
	for _, st := range s.stages {
		if st.ID == id {
			return st, true
		}
	}
	return domain.FunnelStage{}, false
}

func (s *FunnelService) enroller(platform string) out.FunnelEnroller {
	for _, e := range s.enrollers {
		if e != nil && strings.EqualFold(e.Platform().Name, platform) {
			return e
		}
	}
	return nil
}
