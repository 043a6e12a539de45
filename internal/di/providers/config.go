// Package providers contains dependency injection providers for the rut server.
package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/telemetry"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting rut server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
	)

	return log, nil
}

// TelemetryHandle wraps the tracer provider with shutdown capability.
type TelemetryHandle struct {
	*telemetry.Provider
}

// Shutdown implements do.Shutdownable.
func (h *TelemetryHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Provider.Shutdown(ctx)
}

// ProvideTelemetry installs the global tracer provider.
func ProvideTelemetry(i do.Injector) (*TelemetryHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	provider, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: cfg.Tracing.ServiceName,
		SampleRatio: cfg.Tracing.SampleRatio,
		Insecure:    cfg.Tracing.Insecure,
	}, log.Logger)
	if err != nil {
		return nil, err
	}
	return &TelemetryHandle{Provider: provider}, nil
}
