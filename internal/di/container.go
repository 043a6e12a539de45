// Package di provides dependency injection configuration for the rut server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/api"
	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/di/providers"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/service"
	"github.com/rutapp/rut-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideTelemetry)
	provideCore(injector)

	// Workers
	do.Provide(injector, providers.ProvideCounterAuditJob)

	// Server
	do.Provide(injector, providers.ProvideAPIServices)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// NewToolContainer creates a container for offline tooling: the store, the
// search index and the services, without the HTTP server or workers.
// cfg and log are supplied by the caller instead of being read from os.Args.
func NewToolContainer(cfg *config.Config, log *logger.Logger) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, log)
	provideCore(injector)

	return injector
}

func provideCore(injector do.Injector) {
	// Core infrastructure
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideValidator)

	// Database layer
	do.Provide(injector, providers.ProvideStore)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideItemService)
	do.Provide(injector, providers.ProvideRutService)
	do.Provide(injector, providers.ProvideCollectService)
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideStarService)
	do.Provide(injector, providers.ProvideAuditService)
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.TelemetryHandle](injector)
	_ = do.MustInvoke[providers.AuthKey](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)

	// Business services
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.ItemService](injector)
	_ = do.MustInvoke[*service.RutService](injector)
	_ = do.MustInvoke[*service.CollectService](injector)
	_ = do.MustInvoke[*service.TagService](injector)
	_ = do.MustInvoke[*service.StarService](injector)
	_ = do.MustInvoke[*service.AuditService](injector)

	// Workers
	_ = do.MustInvoke[*providers.CounterAuditJob](injector)

	// Server
	_ = do.MustInvoke[*api.Services](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
