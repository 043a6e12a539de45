package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/store"
)

func addCollect(t *testing.T, s *Store, rutID, itemID string, order int) *domain.Collect {
	t.Helper()
	c := &domain.Collect{
		ID: fmt.Sprintf("c-%s-%s", rutID, itemID), RutID: rutID, ItemID: itemID,
		ItemOrder: order, UName: "ann", CollectAt: time.Now(),
	}
	if err := s.CreateCollect(context.Background(), c); err != nil {
		t.Fatalf("create collect: %v", err)
	}
	return c
}

func orders(t *testing.T, s *Store, rutID string) []int {
	t.Helper()
	cs, err := s.ListCollects(context.Background(), store.CollectsInRut{RutID: rutID})
	if err != nil {
		t.Fatalf("list collects: %v", err)
	}
	out := make([]int, len(cs))
	for i, c := range cs {
		out[i] = c.ItemOrder
	}
	return out
}

func TestShiftCollectsAfter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRut(t, s, "r1", "ann")
	seedRut(t, s, "r2", "ann")

	var cs []*domain.Collect
	for i := 1; i <= 4; i++ {
		it := seedItem(t, s, fmt.Sprintf("i%d", i))
		cs = append(cs, addCollect(t, s, "r1", it.ID, i))
	}
	other := addCollect(t, s, "r2", cs[0].ItemID, 1)

	if err := s.DeleteCollect(ctx, cs[1].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	moved, err := s.ShiftCollectsAfter(ctx, "r1", 2)
	if err != nil {
		t.Fatalf("shift: %v", err)
	}
	if moved != 2 {
		t.Errorf("expected 2 rows moved, got %d", moved)
	}

	got := orders(t, s, "r1")
	if fmt.Sprint(got) != "[1 2 3]" {
		t.Errorf("expected dense orders, got %v", got)
	}

	// Other ruts are untouched.
	c, err := s.GetCollect(ctx, other.ID)
	if err != nil || c.ItemOrder != 1 {
		t.Errorf("other rut changed: %v %v", c, err)
	}
}

func TestCollects_DuplicatePair(t *testing.T) {
	s := newTestStore(t)
	seedRut(t, s, "r1", "ann")
	it := seedItem(t, s, "go")
	addCollect(t, s, "r1", it.ID, 1)

	dup := &domain.Collect{ID: "dup", RutID: "r1", ItemID: it.ID, ItemOrder: 2, UName: "ann", CollectAt: time.Now()}
	if err := s.CreateCollect(context.Background(), dup); !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCollects_ForeignKeys(t *testing.T) {
	s := newTestStore(t)
	c := &domain.Collect{ID: "x", RutID: "nope", ItemID: "nope", ItemOrder: 1, UName: "ann", CollectAt: time.Now()}
	if err := s.CreateCollect(context.Background(), c); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCollects_UpdateContentAndLists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRut(t, s, "r1", "ann")
	it := seedItem(t, s, "go")
	c := addCollect(t, s, "r1", it.ID, 1)

	if err := s.UpdateCollectContent(ctx, c.ID, "a classic"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetCollect(ctx, c.ID)
	if got.Content != "a classic" {
		t.Errorf("content not updated: %q", got.Content)
	}

	byItem, err := s.ListCollects(ctx, store.CollectsOfItem{ItemID: it.ID, Page: 1})
	if err != nil || len(byItem) != 1 {
		t.Errorf("by item: %v %v", byItem, err)
	}
	byUser, err := s.ListCollects(ctx, store.CollectsByUser{UName: "ann"})
	if err != nil || len(byUser) != 1 {
		t.Errorf("by user: %v %v", byUser, err)
	}
	items, err := s.ListItems(ctx, store.ItemsInRut{RutID: "r1"})
	if err != nil || len(items) != 1 || items[0].ID != it.ID {
		t.Errorf("items in rut: %v %v", items, err)
	}

	if err := s.DeleteCollect(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAdjustRut_LogoAndRenewPreserved(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rt := seedRut(t, s, "r1", "ann")

	later := rt.RenewAt.Add(time.Hour)
	if err := s.AdjustRut(ctx, "r1", store.RutDelta{ItemCount: 1, Logo: "cover.png", RenewAt: later}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ := s.GetRut(ctx, "r1")
	if got.ItemCount != 1 || got.Logo != "cover.png" || !got.RenewAt.Equal(later.UTC()) {
		t.Errorf("unexpected rut %+v", got)
	}

	// Empty logo and zero time keep the current values.
	if err := s.AdjustRut(ctx, "r1", store.RutDelta{StarCount: 1}); err != nil {
		t.Fatalf("adjust: %v", err)
	}
	got, _ = s.GetRut(ctx, "r1")
	if got.Logo != "cover.png" || !got.RenewAt.Equal(later.UTC()) || got.StarCount != 1 {
		t.Errorf("unexpected rut %+v", got)
	}
}

func TestAdjustRut_Capacity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedRut(t, s, "r1", "ann")

	if err := s.AdjustRut(ctx, "r1", store.RutDelta{ItemCount: domain.MaxRutItems}); err != nil {
		t.Fatalf("adjust to cap: %v", err)
	}
	if err := s.AdjustRut(ctx, "r1", store.RutDelta{ItemCount: 1}); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput beyond cap, got %v", err)
	}
}
