package bootstrap

import (
	"context"
	"fmt"
	"time"

	"funnel_server/adapter/out/persistence"
	"funnel_server/adapter/out/provider"
	"funnel_server/adapter/out/source"
	"funnel_server/config"
	"funnel_server/core/domain"
	"funnel_server/core/port/out"
	"funnel_server/core/service/classification"
	"funnel_server/core/service/contact"
	"funnel_server/core/service/preference"
	"funnel_server/infra/database"
	"funnel_server/pkg/cache"
	"funnel_server/pkg/httputil"
	"funnel_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Dependencies holds every wired component of the API.
type Dependencies struct {
	Config  *config.Config
	Ruleset *domain.Ruleset

	// Infrastructure (optional)
	DB    *pgxpool.Pool
	Redis *redis.Client
	Cache *cache.RedisCache

	// Outbound adapters
	PreferenceStore out.PreferenceStore
	MessageLister   out.MessageLister
	ContactSources  []out.ContactSource
	ListSources     []out.ListSource
	Enrollers       []out.FunnelEnroller

	// Services
	PreferenceService *preference.Service
	FunnelService     *preference.FunnelService
	InboxService      *classification.InboxService
	ContactService    *contact.Service
	ListService       *contact.ListService
}

func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	rs, err := config.LoadRuleset(cfg.RulesetPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load ruleset: %w", err)
	}
	deps.Ruleset = rs
	logger.Info("Ruleset loaded: %d system senders, %d funnel stages", len(rs.SystemSenders), len(rs.FunnelStages))

	// Redis backs the redis preference store and the source cache.
	if cfg.RedisURL != "" {
		client, err := database.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.PrefsBackend == config.PrefsBackendRedis {
				cleanup()
				return nil, nil, err
			}
			logger.Warn("Redis connection failed, source cache disabled: %v", err)
		} else {
			deps.Redis = client
			deps.Cache = cache.NewRedisCache(client, "funnel:")
			cleanups = append(cleanups, func() { client.Close() })
		}
	}

	if cfg.PrefsBackend == config.PrefsBackendPostgres {
		db, err := database.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		deps.DB = db
		cleanups = append(cleanups, db.Close)
	}

	store, err := newPreferenceStore(ctx, cfg, deps)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.PreferenceStore = store
	logger.Info("Preference store: %s", store.Backend())

	deps.MessageLister = newMessageLister(cfg)
	wireSources(cfg, deps)

	deps.PreferenceService = preference.NewService(deps.PreferenceStore)
	deps.FunnelService = preference.NewFunnelService(rs, deps.PreferenceService, deps.Enrollers...)
	deps.InboxService = classification.NewInboxService(
		deps.MessageLister,
		deps.PreferenceStore,
		classification.NewCascade(rs),
		classification.InboxConfig{
			DefaultFolder: cfg.MailFolder,
			DefaultLimit:  cfg.DefaultMessageLimit,
			MaxLimit:      cfg.MaxLimit,
			Timeout:       cfg.SourceTimeout,
		},
	)
	deps.ContactService = contact.NewService(
		contact.NewMerger(rs.SystemMatcher()),
		contact.Config{
			DefaultLimit: cfg.DefaultContactLimit,
			MaxLimit:     cfg.MaxLimit,
			Timeout:      cfg.SourceTimeout,
		},
		deps.ContactSources...,
	)
	deps.ListService = contact.NewListService(cfg.SourceTimeout, deps.ListSources...)

	return deps, cleanup, nil
}

func newPreferenceStore(ctx context.Context, cfg *config.Config, deps *Dependencies) (out.PreferenceStore, error) {
	defaults := func() *domain.Preferences { return domain.DefaultPreferences(deps.Ruleset) }

	switch cfg.PrefsBackend {
	case config.PrefsBackendRedis:
		return persistence.NewRedisPreferenceStore(deps.Redis, defaults), nil
	case config.PrefsBackendPostgres:
		store := persistence.NewPostgresPreferenceStore(deps.DB, defaults)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("preference schema: %w", err)
		}
		return store, nil
	default:
		return persistence.NewFilePreferenceStore(cfg.PrefsPath, defaults), nil
	}
}

// newMessageLister returns nil when no provider is configured.
func newMessageLister(cfg *config.Config) out.MessageLister {
	switch cfg.MailProvider {
	case config.MailProviderIMAP:
		if cfg.IMAPAddr == "" {
			logger.Warn("MAIL_PROVIDER=imap but IMAP_ADDR is empty; inbox disabled")
			return nil
		}
		return provider.NewIMAPLister(provider.IMAPConfig{
			Addr:     cfg.IMAPAddr,
			Username: cfg.IMAPUsername,
			Password: cfg.IMAPPassword,
			Timeout:  cfg.SourceTimeout,
		})
	case config.MailProviderGmail:
		if cfg.GmailRefreshToken == "" {
			logger.Warn("MAIL_PROVIDER=gmail but GMAIL_REFRESH_TOKEN is empty; inbox disabled")
			return nil
		}
		return provider.NewGmailLister(provider.GmailConfig{
			ClientID:     cfg.GmailClientID,
			ClientSecret: cfg.GmailClientSecret,
			RefreshToken: cfg.GmailRefreshToken,
		})
	default:
		logger.Info("No mail provider configured; inbox disabled")
		return nil
	}
}

// wireSources registers each configured platform as a contact source, list
// source and enroller. Unconfigured platforms become disabled sources. Contact fetches go through the cache when enabled.
func wireSources(cfg *config.Config, deps *Dependencies) {
	clientCfg := httputil.DefaultClientConfig()
	clientCfg.RatePerSec = cfg.SourceRatePerSec
	clientCfg.ResponseTimeout = cfg.SourceTimeout + 5*time.Second

	type platform interface {
		out.ContactSource
		out.ListSource
		out.FunnelEnroller
	}
	var platforms []platform
	var disabled []*source.Unconfigured

	if cfg.SendFoxConfigured() {
		platforms = append(platforms, source.NewSendFox(httputil.NewClient("sendfox", clientCfg), source.SendFoxConfig{
			BaseURL:  cfg.SendFoxBaseURL,
			Token:    cfg.SendFoxToken,
			PageSize: cfg.SourcePageSize,
			MaxPages: cfg.SourceMaxPages,
		}))
	} else {
		logger.Warn("SENDFOX_TOKEN not set; SendFox disabled")
		disabled = append(disabled, source.NewUnconfigured(source.SendFoxPlatform, "SENDFOX_TOKEN"))
	}

	if cfg.AcumbamailConfigured() {
		platforms = append(platforms, source.NewAcumbamail(httputil.NewClient("acumbamail", clientCfg), source.AcumbamailConfig{
			BaseURL:    cfg.AcumbamailBaseURL,
			Token:      cfg.AcumbamailToken,
			CustomerID: cfg.AcumbamailCustomerID,
			ListID:     cfg.AcumbamailListID,
		}))
	} else {
		logger.Warn("ACUMBAMAIL_TOKEN not set; Acumbamail disabled")
		disabled = append(disabled, source.NewUnconfigured(source.AcumbamailPlatform, "ACUMBAMAIL_TOKEN"))
	}

	for _, p := range platforms {
		var cs out.ContactSource = p
		if deps.Cache != nil && cfg.SourceCacheTTL > 0 {
			cs = source.NewCachedSource(p, deps.Cache, cfg.SourceCacheTTL)
		}
		deps.ContactSources = append(deps.ContactSources, cs)
		deps.ListSources = append(deps.ListSources, p)
		deps.Enrollers = append(deps.Enrollers, p)
	}

	// Disabled platforms still report in stats and list overviews. They never enroll.
	for _, d := range disabled {
		deps.ContactSources = append(deps.ContactSources, d)
		deps.ListSources = append(deps.ListSources, d)
	}
}
