package classification

import (
	"context"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/core/port/out"
	"funnel_server/pkg/apperr"
	"funnel_server/pkg/logger"
)

// overFetchFactor compensates for marketing mail dropped by the real filter.
const overFetchFactor = 4

// InboxConfig holds listing defaults.
type InboxConfig struct {
	DefaultFolder string
	DefaultLimit  int
	MaxLimit      int
	Timeout       time.Duration
}

// InboxService lists recent messages and classifies them.
type InboxService struct {
	lister  out.MessageLister
	store   out.PreferenceStore
	cascade *Cascade
	config  InboxConfig
	log     *logger.Logger
}

var _ in.InboxService = (*InboxService)(nil)

// NewInboxService creates an inbox service. lister may be nil when no mail
// provider is configured.
func NewInboxService(lister out.MessageLister, store out.PreferenceStore, cascade *Cascade, cfg InboxConfig) *InboxService {
	if cfg.DefaultFolder == "" {
		cfg.DefaultFolder = "INBOX"
	}
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 50
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &InboxService{
		lister:  lister,
		store:   store,
		cascade: cascade,
		config:  cfg,
		log:     logger.WithField("service", "inbox"),
	}
}

func (s *InboxService) ListMessages(ctx context.Context, req *in.MessagesRequest) (*in.MessagesResponse, error) {
	folder := req.Folder
	if folder == "" {
		folder = s.config.DefaultFolder
	}
	limit := clampLimit(req.Limit, s.config.DefaultLimit, s.config.MaxLimit)
	filter := req.Filter
	if filter == "" {
		filter = domain.MessageFilterReal
	}

	resp := &in.MessagesResponse{
		Folder: folder,
		Filter: filter,
		Emails: []domain.ClassifiedMessage{},
	}

	if s.lister == nil {
		s.log.Warn("no mail provider configured")
		resp.Warnings = append(resp.Warnings, apperr.ConfigError("mail provider not configured").Message)
		return resp, nil
	}

	fetch := limit
	if filter == domain.MessageFilterReal {
		fetch = limit * overFetchFactor
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	msgs, err := s.lister.ListMessages(fetchCtx, folder, fetch)
	cancel()
	if err != nil {
		s.log.WithError(err).Warn("list messages from %s failed", s.lister.Provider())
		resp.Warnings = append(resp.Warnings, apperr.ExternalError(s.lister.Provider(), err).Message)
		return resp, nil
	}

	prefs, err := s.store.Load(ctx)
	if err != nil {
		s.log.WithError(err).Warn("using default preferences")
		resp.Warnings = append(resp.Warnings, err.Error())
	}

	classified := s.cascade.ClassifyAll(msgs, prefs)
	if filter == domain.MessageFilterReal {
		kept := classified[:0]
		for _, m := range classified {
			if m.Category != domain.CategoryMarketing {
				kept = append(kept, m)
			}
		}
		classified = kept
	}

	SortMessages(classified)
	if len(classified) > limit {
		classified = classified[:limit]
	}

	resp.Emails = classified
	resp.Count = len(classified)
	resp.Stats = CountCategories(classified)
	return resp, nil
}

// CountCategories tallies the returned messages per category.
func CountCategories(msgs []domain.ClassifiedMessage) in.CategoryStats {
	stats := in.CategoryStats{Total: len(msgs)}
	for _, m := range msgs {
		switch m.Category {
		case domain.CategoryTrusted:
			stats.Trusted++
		case domain.CategoryParent:
			stats.Parent++
		case domain.CategoryBusiness:
			stats.Business++
		case domain.CategoryUnknown:
			stats.Unknown++
		case domain.CategoryMarketing:
			stats.Marketing++
		}
	}
	return stats
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
