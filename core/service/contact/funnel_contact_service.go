package contact

import (
	"context"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/core/port/out"
	"funnel_server/pkg/apperr"
	"funnel_server/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Config holds listing defaults for the contact service.
type Config struct {
	DefaultLimit int
	MaxLimit     int
	// Timeout bounds each platform fetch separately.
	Timeout time.Duration
}

// Service fetches every platform concurrently and merges the results.
type Service struct {
	sources []out.ContactSource
	merger  *Merger
	config  Config
	log     *logger.Logger
}

var _ in.ContactService = (*Service)(nil)

func NewService(merger *Merger, cfg Config, sources ...out.ContactSource) *Service {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = 100
	}
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = 500
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Service{
		sources: sources,
		merger:  merger,
		config:  cfg,
		log:     logger.WithField("service", "contact"),
	}
}

// ListContacts returns the unified, filtered and sorted contact list.
func (s *Service) ListContacts(ctx context.Context, q domain.ContactQuery) (*in.ContactsResponse, error) {
	if q.Filter == "" {
		q.Filter = domain.ContactFilterReal
	}
	limit := q.Limit
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit > s.config.MaxLimit {
		limit = s.config.MaxLimit
	}

	batches := s.fetchAll(ctx)

	resp := &in.ContactsResponse{}
	platforms := make([]string, 0, len(batches))
	for _, b := range batches {
		platforms = append(platforms, b.Platform.Name)
		if b.Err != nil {
			resp.Warnings = append(resp.Warnings, sourceWarning(b))
		}
	}

	contacts := s.merger.Merge(batches, q.Filter == domain.ContactFilterAll)
	contacts = ApplyFilter(contacts, q.Filter)
	contacts = Search(contacts, q.Search)
	SortContacts(contacts)
	contacts = Truncate(contacts, limit)

	if contacts == nil {
		contacts = []domain.UnifiedContact{}
	}
	resp.Contacts = contacts
	resp.Stats = ComputeStats(contacts, platforms)
	return resp, nil
}

// fetchAll runs every source concurrently. A failing source never cancels
// the others; its error is kept on its batch.
func (s *Service) fetchAll(ctx context.Context) []domain.SourceBatch {
	batches := make([]domain.SourceBatch, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		i, src := i, src
		batches[i].Platform = src.Platform()
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
			defer cancel()

			start := time.Now()
			contacts, err := src.FetchContacts(fetchCtx)
			log := s.log.WithField("platform", src.Platform().Name).WithDuration(time.Since(start))
			if err != nil {
				log.WithError(err).Warn("contact fetch failed")
				batches[i].Err = err
				return nil
			}
			log.Debug("fetched %d contacts", len(contacts))
			batches[i].Contacts = contacts
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// sourceWarning keeps configuration errors verbatim and reports anything else
// as an upstream failure.
func sourceWarning(b domain.SourceBatch) string {
	if apperr.HasCode(b.Err, apperr.CodeConfigError) {
		return apperr.AsAppError(b.Err).Message
	}
	return apperr.ExternalError(b.Platform.Name, b.Err).Message
}
