package source

import (
	"context"
	"time"

	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/pkg/cache"
	"funnel_server/pkg/logger"
)

// CachedSource serves a ContactSource's records from cache for ttl.
// Cache failures fall through to the upstream.
type CachedSource struct {
	next  out.ContactSource
	cache cache.JSONCache
	ttl   time.Duration
	key   string
}

var _ out.ContactSource = (*CachedSource)(nil)

func NewCachedSource(next out.ContactSource, c cache.JSONCache, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:  next,
		cache: c,
		ttl:   ttl,
		key:   "contacts:" + next.Platform().Name,
	}
}

func (s *CachedSource) Platform() domain.Platform {
	return s.next.Platform()
}

func (s *CachedSource) FetchContacts(ctx context.Context) ([]domain.RawContact, error) {
	log := logger.WithField("platform", s.next.Platform().Name)

	var cached []domain.RawContact
	hit, err := s.cache.GetJSON(ctx, s.key, &cached)
	if err != nil {
		log.WithError(err).Warn("contact cache read failed")
	}
	if hit {
		return cached, nil
	}

	contacts, err := s.next.FetchContacts(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, s.key, contacts, s.ttl); err != nil {
		log.WithError(err).Warn("contact cache write failed")
	}
	return contacts, nil
}
