package bootstrap

import (
	"context"
	"strings"

	"funnel_server/adapter/in/http"
	"funnel_server/config"
	"funnel_server/infra/middleware"
	"funnel_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func NewAPI(cfg *config.Config) (*fiber.App, func(), error) {
	logger.Init(logger.Config{
		Level:   logger.ParseLevel(cfg.LogLevel),
		Service: "funnel-api",
		Console: cfg.IsDevelopment(),
	})

	deps, cleanup, err := NewDependencies(context.Background(), cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
		ServerHeader:          "",
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Recover())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.RequestLogger())

	// AllowCredentials requires explicit origins
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := allowOrigins != "" && allowOrigins != "*"
	if !allowCredentials && cfg.IsProduction() {
		allowOrigins = ""
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	checks := http.HealthChecks{}
	if deps.DB != nil {
		checks["postgres"] = deps.DB
	}
	if deps.Cache != nil {
		checks["redis"] = deps.Cache
	}
	http.NewHealthHandler(checks).Register(app)

	api := app.Group("/api/v1")
	api.Use(middleware.NewRateLimiter(300, 30).Handler())
	api.Use(middleware.DashboardAuth(cfg.DashboardJWTSecret))

	http.NewPreferenceHandler(deps.PreferenceService).Register(api)
	http.NewInboxHandler(deps.InboxService).Register(api)
	http.NewContactHandler(deps.ContactService, deps.ListService).Register(api)
	http.NewFunnelHandler(deps.FunnelService).Register(api)

	logger.Info("API server initialized (prefs=%s, mail=%s, sources=%d)",
		deps.PreferenceStore.Backend(), cfg.MailProvider, len(deps.ContactSources))

	return app, cleanup, nil
}
