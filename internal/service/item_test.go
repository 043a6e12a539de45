package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

func TestSubmit_NormalizesFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	it, err := h.items.Submit(ctx, ann, ItemInput{
		Title:  "  The Go Programming Language \x00 ",
		UIID:   " 978-0134190440 ",
		URL:    "HTTPS://Example.COM/books/gopl",
		Detail: "<p>A <strong>classic</strong>.</p>",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, it.ID)
	assert.Equal(t, "The Go Programming Language", it.Title)
	assert.Equal(t, "978-0134190440", it.UIID)
	assert.Equal(t, "https://example.com/books/gopl", it.URL)
	assert.Equal(t, "A **classic**.", it.Detail)
	assert.Zero(t, it.RutCount)
	assert.False(t, it.CreatedAt.IsZero())

	got, err := h.items.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Equal(t, it.URL, got.URL)
}

func TestSubmit_Dedupes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.items.Submit(ctx, ann, ItemInput{Title: "gopl", UIID: "isbn-1", URL: "https://example.com/gopl"})
	require.NoError(t, err)

	tests := []struct {
		name string
		in   ItemInput
	}{
		{"same uiid", ItemInput{Title: "other", UIID: "isbn-1"}},
		{"same url", ItemInput{Title: "other", URL: "https://EXAMPLE.com/gopl"}},
		{"uiid wins over fresh url", ItemInput{Title: "other", UIID: "isbn-1", URL: "https://example.com/new"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.items.Submit(ctx, bob, tt.in)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

			var derr *domainerrors.Error
			require.True(t, domainerrors.As(err, &derr))
			existing, ok := derr.Details.(*domain.Item)
			require.True(t, ok)
			assert.Equal(t, first.ID, existing.ID)
		})
	}

	// Title alone never dedupes.
	_, err = h.items.Submit(ctx, bob, ItemInput{Title: "gopl"})
	require.NoError(t, err)
}

func TestSubmit_Validation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ItemInput
	}{
		{"missing title", ItemInput{Title: "   "}},
		{"ftp url", ItemInput{Title: "x", URL: "ftp://example.com/x"}},
		{"bad cover", ItemInput{Title: "x", Cover: "cover.png"}},
		{"long category", ItemInput{Title: "x", Category: "abcdefghijklmnopq"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.items.Submit(ctx, ann, tt.in)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
		})
	}
}

func TestUpdateItem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.items.Submit(ctx, ann, ItemInput{Title: "a", UIID: "uiid-a"})
	require.NoError(t, err)
	b, err := h.items.Submit(ctx, ann, ItemInput{Title: "b", URL: "https://example.com/b"})
	require.NoError(t, err)

	// Anyone may edit; omitted fields stay.
	title := "A, revised"
	updated, err := h.items.Update(ctx, bob, a.ID, ItemPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "A, revised", updated.Title)
	assert.Equal(t, "uiid-a", updated.UIID)
	assert.False(t, updated.UpdatedAt.Before(a.UpdatedAt))

	// Keeping its own uiid is not a conflict.
	same := "uiid-a"
	_, err = h.items.Update(ctx, ann, a.ID, ItemPatch{UIID: &same})
	require.NoError(t, err)

	taken := "https://example.com/b"
	_, err = h.items.Update(ctx, ann, a.ID, ItemPatch{URL: &taken})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))

	stolen := "uiid-a"
	_, err = h.items.Update(ctx, ann, b.ID, ItemPatch{UIID: &stolen})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrConflict))

	empty := ""
	_, err = h.items.Update(ctx, ann, a.ID, ItemPatch{Title: &empty})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = h.items.Update(ctx, ann, "missing", ItemPatch{Title: &title})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestListItems(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	gopl, err := h.items.Submit(ctx, ann, ItemInput{Title: "The Go Programming Language", UIID: "isbn-gopl"})
	require.NoError(t, err)
	_, err = h.items.Submit(ctx, ann, ItemInput{Title: "Learning Go"})
	require.NoError(t, err)
	_, err = h.items.Submit(ctx, ann, ItemInput{Title: "Rust in Action"})
	require.NoError(t, err)

	got, err := h.items.List(ctx, store.ItemsByTitle{Pattern: "go"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = h.items.List(ctx, store.ItemsByUIID{Pattern: "gopl"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gopl.ID, got[0].ID)

	r := h.rut(t, ann, "r")
	_, err = h.collects.Collect(ctx, ann, r.ID, CollectInput{ItemID: gopl.ID})
	require.NoError(t, err)

	got, err = h.items.List(ctx, store.ItemsInRut{RutID: r.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, gopl.ID, got[0].ID)
}
