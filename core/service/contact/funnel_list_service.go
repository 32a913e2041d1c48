package contact

import (
	"context"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/in"
	"funnel_server/core/port/out"
	"funnel_server/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ListService summarises the mailing lists of every platform.
type ListService struct {
	sources []out.ListSource
	timeout time.Duration
	log     *logger.Logger
}

var _ in.ListService = (*ListService)(nil)

func NewListService(timeout time.Duration, sources ...out.ListSource) *ListService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ListService{
		sources: sources,
		timeout: timeout,
		log:     logger.WithField("service", "lists"),
	}
}

// ListMailingLists fetches all platforms concurrently. A failing platform is
// reported as disconnected.
func (s *ListService) ListMailingLists(ctx context.Context) (*in.ListsResponse, error) {
	results := make([]in.PlatformLists, len(s.sources))

	var g errgroup.Group
	for i, src := range s.sources {
		i, src := i, src
		name := src.Platform().Name
		g.Go(func() error {
			fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			lists, err := src.FetchLists(fetchCtx)
			if err != nil {
				s.log.WithError(err).WithField("platform", name).Warn("list fetch failed")
				results[i] = in.PlatformLists{
					Platform: name,
					Error:    err.Error(),
					Lists:    []domain.MailingList{},
				}
				return nil
			}

			total := 0
			for _, l := range lists {
				total += l.Subscribers
			}
			if lists == nil {
				lists = []domain.MailingList{}
			}
			results[i] = in.PlatformLists{
				Platform:    name,
				Connected:   true,
				Lists:       lists,
				Subscribers: total,
			}
			return nil
		})
	}
	_ = g.Wait()

	resp := &in.ListsResponse{Platforms: results}
	for _, r := range results {
		resp.TotalSubscribers += r.Subscribers
		resp.TotalLists += len(r.Lists)
	}
	return resp, nil
}
