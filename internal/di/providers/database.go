package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := sqlite.Open(cfg.Database.Path, log.Logger, sqlite.WithPageSize(cfg.Curation.PageSize))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", cfg.Database.Path, "page_size", cfg.Curation.PageSize)

	return &StoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
