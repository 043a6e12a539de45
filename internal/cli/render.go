package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/rutapp/rut-server/internal/service"
)

// RenderAudit writes a human readable audit report.
func RenderAudit(w io.Writer, report *service.AuditReport) error {
	at := report.CheckedAt.UTC().Format(time.RFC3339)
	if report.OK {
		_, err := fmt.Fprintf(w, "counter audit at %s: ok\n", at)
		return err
	}

	if _, err := fmt.Fprintf(w, "counter audit at %s: %s\n\n", at, plural(len(report.Drifts), "drift")); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%-6s %-22s %-12s %7s %7s\n", "ENTITY", "ID", "FIELD", "CACHED", "ACTUAL"); err != nil {
		return err
	}
	for _, d := range report.Drifts {
		if _, err := fmt.Fprintf(w, "%-6s %-22s %-12s %7d %7d\n", d.Entity, d.ID, d.Field, d.Cached, d.Actual); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary writes a human readable data directory summary.
func RenderSummary(w io.Writer, s *Summary) error {
	search := "disabled"
	if s.Documents != nil {
		search = plural(int(*s.Documents), "document")
	}

	_, err := fmt.Fprintf(w, "items:     %d\nruts:      %d (%d full)\ncollects:  %d\ntags:      %d\nsearch:    %s\n",
		s.Items, s.Ruts, s.FullRuts, s.Collects, s.Tags, search)
	if err != nil || len(s.Top) == 0 {
		return err
	}

	if _, err := fmt.Fprint(w, "\nmost collected:\n"); err != nil {
		return err
	}
	for _, e := range s.Top {
		if _, err := fmt.Fprintf(w, "  %4d  %s (%s)\n", e.RutCount, e.Title, e.ID); err != nil {
			return err
		}
	}
	return nil
}

// RenderSeed writes what a seed run created.
func RenderSeed(w io.Writer, r *SeedResult) error {
	_, err := fmt.Fprintf(w, "seeded %s, %s, %s, %s, %s and %s\n",
		plural(r.Users, "user"),
		plural(r.Items, "item"),
		plural(r.Ruts, "rut"),
		plural(r.Collects, "collect"),
		plural(r.Tags, "tag"),
		plural(r.Stars, "star"),
	)
	if err != nil {
		return err
	}
	for _, skipped := range r.Skipped {
		if _, err := fmt.Fprintf(w, "  skipped: %s\n", skipped); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
