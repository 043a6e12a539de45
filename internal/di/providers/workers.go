package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/service"
)

// CounterAuditJob periodically compares cached counters with the rows they
// summarize and logs any drift.
type CounterAuditJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *CounterAuditJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideCounterAuditJob provides the periodic counter audit job.
func ProvideCounterAuditJob(i do.Injector) (*CounterAuditJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	audit := do.MustInvoke[*service.AuditService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	interval := cfg.Curation.AuditInterval
	if interval <= 0 {
		log.Info("Counter audit job disabled")
		return &CounterAuditJob{cancel: cancel}, nil
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				runAudit(ctx, audit, log)
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Counter audit job started", "interval", interval)

	return &CounterAuditJob{cancel: cancel}, nil
}

func runAudit(ctx context.Context, audit *service.AuditService, log *logger.Logger) {
	report, err := audit.Check(ctx)
	if err != nil {
		log.Warn("Counter audit failed", "error", err)
		return
	}
	if !report.OK {
		log.Warn("Counter drift detected", "drifts", len(report.Drifts))
	}
}
