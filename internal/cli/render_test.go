package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/service"
	"github.com/rutapp/rut-server/internal/store"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

var checkedAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRenderAudit(t *testing.T) {
	tests := []struct {
		name   string
		report *service.AuditReport
	}{
		{
			name:   "audit_ok",
			report: &service.AuditReport{CheckedAt: checkedAt, OK: true, Drifts: []store.Drift{}},
		},
		{
			name: "audit_drift",
			report: &service.AuditReport{
				CheckedAt: checkedAt.In(time.FixedZone("CET", 3600)),
				Drifts: []store.Drift{
					{Entity: "rut", ID: "rut_V1StGXR8Z5jdHi6B", Field: "item_count", Cached: 3, Actual: 2},
					{Entity: "rut", ID: "rut_V1StGXR8Z5jdHi6B", Field: "item_order", Cached: 4, Actual: 2},
					{Entity: "tag", ID: "go", Field: "star_count", Cached: 1, Actual: 0},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderAudit(&buf, tt.report))
			newGolden(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRenderSummary(t *testing.T) {
	docs := uint64(11)

	tests := []struct {
		name    string
		summary *Summary
	}{
		{
			name: "summary_full",
			summary: &Summary{
				Items:     8,
				Ruts:      3,
				FullRuts:  1,
				Collects:  12,
				Tags:      5,
				Documents: &docs,
				Top: []SummaryEntry{
					{ID: "itm_go", Title: "The Go Programming Language", RutCount: 3},
					{ID: "itm_sme", Title: "Simple Made Easy", RutCount: 1},
				},
			},
		},
		{
			name:    "summary_empty",
			summary: &Summary{Top: []SummaryEntry{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderSummary(&buf, tt.summary))
			newGolden(t).Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestRenderSeed(t *testing.T) {
	var buf bytes.Buffer
	err := RenderSeed(&buf, &SeedResult{
		Users:    3,
		Items:    8,
		Ruts:     3,
		Collects: 12,
		Tags:     5,
		Stars:    1,
		Skipped:  []string{"user demo1 exists", "rut rut_abc already starred"},
	})
	require.NoError(t, err)
	newGolden(t).Assert(t, "seed", buf.Bytes())
}
