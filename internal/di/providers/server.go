package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/api"
	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/service"
)

// Version is stamped by the build.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideAPIServices groups the business services for the HTTP layer.
func ProvideAPIServices(i do.Injector) (*api.Services, error) {
	return &api.Services{
		Users:    do.MustInvoke[*service.UserService](i),
		Items:    do.MustInvoke[*service.ItemService](i),
		Ruts:     do.MustInvoke[*service.RutService](i),
		Collects: do.MustInvoke[*service.CollectService](i),
		Tags:     do.MustInvoke[*service.TagService](i),
		Stars:    do.MustInvoke[*service.StarService](i),
		Search:   do.MustInvoke[*service.SearchService](i),
		Audit:    do.MustInvoke[*service.AuditService](i),
	}, nil
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	services := do.MustInvoke[*api.Services](i)
	log := do.MustInvoke[*logger.Logger](i)

	handler := api.NewServer(storeHandle.Store, services, tokenService, api.Options{
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AuthBurst:      cfg.RateLimit.AuthBurst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "version", Version)

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
