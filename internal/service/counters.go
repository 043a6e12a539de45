package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rutapp/rut-server/internal/store"
)

// AuditService recounts cached counters from the underlying rows.
// The collect, tag and star services maintain those counters incrementally,
// each increment paired with one decrement path. Drift is reported, never
// repaired.
type AuditService struct {
	store  store.Store
	logger *slog.Logger
}

// NewAuditService creates a new audit service.
func NewAuditService(store store.Store, logger *slog.Logger) *AuditService {
	return &AuditService{store: store, logger: logger}
}

// AuditReport is the outcome of one recount.
type AuditReport struct {
	CheckedAt time.Time     `json:"checked_at"`
	OK        bool          `json:"ok"`
	Drifts    []store.Drift `json:"drifts"`
}

// Check recounts every audited counter and the order density of every rut.
func (s *AuditService) Check(ctx context.Context) (report *AuditReport, err error) {
	ctx, span := startSpan(ctx, "counters.audit", "")
	defer func() { endSpan(span, err) }()

	drifts, err := s.store.Audit(ctx)
	if err != nil {
		return nil, storeErr(err, "counter")
	}

	report = &AuditReport{
		CheckedAt: clock(),
		OK:        len(drifts) == 0,
		Drifts:    drifts,
	}

	span.SetAttributes(attribute.Int("rut.drifts", len(drifts)))
	for _, d := range drifts {
		auditDrift.Add(ctx, 1, metric.WithAttributes(
			attribute.String("entity", d.Entity),
			attribute.String("field", d.Field),
		))
		s.logger.Warn("counter drift",
			"entity", d.Entity,
			"id", d.ID,
			"field", d.Field,
			"cached", d.Cached,
			"actual", d.Actual,
		)
	}
	return report, nil
}
