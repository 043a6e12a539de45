package sqlite

import (
	"context"
	"testing"

	"github.com/rutapp/rut-server/internal/store"
)

func TestAudit_Clean(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRut(t, s, "r1", "ann")
	it := seedItem(t, s, "go")
	addCollect(t, s, "r1", it.ID, 1)
	if err := s.AdjustRut(ctx, "r1", store.RutDelta{ItemCount: 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.AdjustItem(ctx, it.ID, store.ItemDelta{RutCount: 1}); err != nil {
		t.Fatal(err)
	}

	drifts, err := s.Audit(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("expected no drift, got %+v", drifts)
	}
}

func TestAudit_ReportsDrift(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRut(t, s, "r1", "ann")
	a := seedItem(t, s, "a")
	b := seedItem(t, s, "b")

	// Two collects with a gap, and no counter updates.
	addCollect(t, s, "r1", a.ID, 1)
	addCollect(t, s, "r1", b.ID, 3)

	drifts, err := s.Audit(ctx)
	if err != nil {
		t.Fatalf("audit: %v", err)
	}

	found := map[string]bool{}
	for _, d := range drifts {
		found[d.Entity+"."+d.Field+"."+d.ID] = true
	}
	for _, want := range []string{
		"rut.item_count.r1",
		"rut.item_order.r1",
		"item.rut_count." + a.ID,
		"item.rut_count." + b.ID,
	} {
		if !found[want] {
			t.Errorf("missing drift %s in %+v", want, drifts)
		}
	}
}
