package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("rut-server/service")

// Instruments are created against the global provider, which forwards to
// whatever provider telemetry installs later and is a no-op otherwise.
var (
	collectOps, _ = meter.Int64Counter("rut.collect.operations",
		metric.WithDescription("Collect and uncollect operations that committed"))
	tagApplications, _ = meter.Int64Counter("rut.tag.applications",
		metric.WithDescription("Tag names applied to ruts and items"))
	starOps, _ = meter.Int64UpDownCounter("rut.stars",
		metric.WithDescription("Net stars created on items, ruts and tags"))
	auditDrift, _ = meter.Int64Counter("rut.audit.drift",
		metric.WithDescription("Cached counters found disagreeing with a recount"))
)
