package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

func TestCollect_UncollectRenumbers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.item(t, "a")
	b := h.item(t, "b")
	r := h.rut(t, ann, "reading list")

	ca, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: a.ID, Content: "first"})
	require.NoError(t, err)
	assert.Equal(t, 1, ca.ItemOrder)

	got, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)
	assert.Equal(t, a.Cover, got.Logo)

	gotA, err := h.items.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, gotA.RutCount)

	cb, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, cb.ItemOrder)

	got, err = h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ItemCount)
	assert.Equal(t, b.Cover, got.Logo)

	require.NoError(t, h.collects.Uncollect(ctx, ann, ca.ID))

	got, err = h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)

	cb, err = h.collects.Get(ctx, cb.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, cb.ItemOrder)

	gotA, err = h.items.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotA.RutCount)

	h.requireNoDrift(t)
}

func TestCollect_EmptyCoverKeepsLogo(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	withCover := h.item(t, "cover")
	bare, err := h.items.Submit(ctx, ann, ItemInput{Title: "bare"})
	require.NoError(t, err)
	r := h.rut(t, ann, "r")

	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: withCover.ID})
	require.NoError(t, err)
	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: bare.ID})
	require.NoError(t, err)

	got, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, withCover.Cover, got.Logo)
}

func TestCollect_CapacityExceeded(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	items := h.manyItems(t, domain.MaxRutItems+1, "cap")
	r := h.rut(t, ann, "full")

	for _, it := range items[:domain.MaxRutItems] {
		_, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: it.ID})
		require.NoError(t, err)
	}

	before, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, domain.MaxRutItems, before.ItemCount)

	last := items[domain.MaxRutItems]
	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: last.ID})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrCapacityExceeded)

	after, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, before.ItemCount, after.ItemCount)
	assert.Equal(t, before.Logo, after.Logo)

	gotLast, err := h.items.Get(ctx, last.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, gotLast.RutCount)

	h.requireDense(t, r.ID)
	h.requireNoDrift(t)
}

func TestCollect_Errors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	it := h.item(t, "x")
	r := h.rut(t, ann, "mine")

	_, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: "missing"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = h.collects.Collect(ctx, ann, "missing", CollectInput{ItemID: it.ID})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: it.ID})
	require.NoError(t, err)

	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: it.ID})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	got, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ItemCount)
	h.requireNoDrift(t)
}

func TestCollect_IntoAnotherUsersRut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	it := h.item(t, "shared")
	annRut := h.rut(t, ann, "ann's list")

	c, err := h.collects.Collect(ctx, bob, annRut.ID, CollectInput{ItemID: it.ID, Content: "from bob"})
	require.NoError(t, err)
	assert.Equal(t, "bob", c.UName)
	assert.Equal(t, 1, c.ItemOrder)

	// The collect belongs to bob, not to the rut's author.
	_, err = h.collects.UpdateCollect(ctx, ann, c.ID, "edited by ann")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	require.NoError(t, h.collects.Uncollect(ctx, bob, c.ID))

	got, err := h.ruts.Get(ctx, annRut.ID)
	require.NoError(t, err)
	assert.Zero(t, got.ItemCount)
	h.requireNoDrift(t)
}

func TestCollect_Concurrent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const n = 20
	items := h.manyItems(t, n, "c")
	r := h.rut(t, ann, "busy")

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i, it := range items {
		p := ann
		if i%2 == 1 {
			p = bob
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.collects.Collect(ctx, p, r.ID, CollectInput{ItemID: it.ID})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := h.ruts.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got.ItemCount)
	h.requireDense(t, r.ID)
	h.requireNoDrift(t)
}

func TestUpdateCollect_OwnerOnly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	it := h.item(t, "x")
	r := h.rut(t, ann, "mine")
	c, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: it.ID, Content: "old"})
	require.NoError(t, err)

	_, err = h.collects.UpdateCollect(ctx, bob, c.ID, "hijack")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	err = h.collects.Uncollect(ctx, bob, c.ID)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	updated, err := h.collects.UpdateCollect(ctx, ann, c.ID, "  new note ")
	require.NoError(t, err)
	assert.Equal(t, "new note", updated.Content)
	assert.Equal(t, c.ItemOrder, updated.ItemOrder)

	stored, err := h.collects.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "new note", stored.Content)

	_, err = h.collects.UpdateCollect(ctx, ann, "missing", "x")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestCollect_Lists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	items := h.manyItems(t, 3, "l")
	r1 := h.rut(t, ann, "one")
	r2 := h.rut(t, ann, "two")

	for _, it := range items {
		_, err := h.collects.Collect(ctx, ann, r1.ID, CollectInput{ItemID: it.ID})
		require.NoError(t, err)
	}
	_, err := h.collects.Collect(ctx, ann, r2.ID, CollectInput{ItemID: items[0].ID})
	require.NoError(t, err)

	inRut, err := h.collects.List(ctx, store.CollectsInRut{RutID: r1.ID})
	require.NoError(t, err)
	require.Len(t, inRut, 3)
	assert.Equal(t, items[2].ID, inRut[2].ItemID)

	ofItem, err := h.collects.List(ctx, store.CollectsOfItem{ItemID: items[0].ID, Page: 1})
	require.NoError(t, err)
	assert.Len(t, ofItem, 2)

	ruts, err := h.ruts.List(ctx, store.RutsWithItem{ItemID: items[0].ID, Page: 1})
	require.NoError(t, err)
	assert.Len(t, ruts, 2)

	inOrder, err := h.items.List(ctx, store.ItemsInRut{RutID: r1.ID})
	require.NoError(t, err)
	require.Len(t, inOrder, 3)
	assert.Equal(t, items[0].ID, inOrder[0].ID)
}

// Any sequence of collects and uncollects keeps orders dense and every
// counter equal to a recount.
func TestCollect_Properties(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		items := h.manyItems(rt, 6, "p")
		r := h.rut(rt, ann, "prop")

		inRut := map[string]string{} // item id → collect id
		steps := rapid.IntRange(1, 30).Draw(rt, "steps")
		for range steps {
			it := rapid.SampledFrom(items).Draw(rt, "item")
			if collectID, ok := inRut[it.ID]; ok && rapid.Bool().Draw(rt, "uncollect") {
				require.NoError(rt, h.collects.Uncollect(ctx, ann, collectID))
				delete(inRut, it.ID)
			} else {
				c, err := h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: it.ID})
				if ok {
					require.ErrorIs(rt, err, domainerrors.ErrConflict)
				} else {
					require.NoError(rt, err)
					require.Equal(rt, len(inRut)+1, c.ItemOrder)
					inRut[it.ID] = c.ID
				}
			}

			cs := h.requireDense(rt, r.ID)
			require.Len(rt, cs, len(inRut))

			for _, it := range items {
				got, err := h.items.Get(ctx, it.ID)
				require.NoError(rt, err)
				want := 0
				if _, ok := inRut[it.ID]; ok {
					want = 1
				}
				require.Equal(rt, want, got.RutCount, "item %s", it.Title)
			}
		}

		h.requireNoDrift(rt)
	})
}
