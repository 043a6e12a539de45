package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/domain"
)

func TestRuts_CreateUpdateGet(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	rut := decodeData[domain.Rut](t, ts.api.Post("/api/v1/ruts", ann, map[string]any{
		"title":   "Go reading list",
		"content": "Start here",
	}), http.StatusCreated)
	assert.Equal(t, "ann", rut.UName)
	assert.Zero(t, rut.ItemCount)

	updated := decodeData[domain.Rut](t, ts.api.Patch("/api/v1/ruts/"+rut.ID, ann, map[string]any{"title": "Go, slowly"}), http.StatusOK)
	assert.Equal(t, "Go, slowly", updated.Title)
	assert.Equal(t, "Start here", updated.Content)

	requireError(t, ts.api.Patch("/api/v1/ruts/"+rut.ID, bob, map[string]any{"title": "mine"}), http.StatusForbidden, "UNAUTHORIZED")

	got := decodeData[domain.Rut](t, ts.api.Get("/api/v1/ruts/"+rut.ID), http.StatusOK)
	assert.Equal(t, "Go, slowly", got.Title)

	requireError(t, ts.api.Get("/api/v1/ruts/nope"), http.StatusNotFound, "NOT_FOUND")
}

func TestRuts_List(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	ts.createRut(t, ann, "Ann one")
	ts.createRut(t, ann, "Ann two")
	ts.createRut(t, bob, "Bob one")

	all := decodeData[[]domain.Rut](t, ts.api.Get("/api/v1/ruts"), http.StatusOK)
	assert.Len(t, all, 3)

	anns := decodeData[[]domain.Rut](t, ts.api.Get("/api/v1/ruts?by=user&q=ann"), http.StatusOK)
	assert.Len(t, anns, 2)

	titled := decodeData[[]domain.Rut](t, ts.api.Get("/api/v1/ruts?by=title&q=one"), http.StatusOK)
	assert.Len(t, titled, 2)

	requireError(t, ts.api.Get("/api/v1/ruts?by=user"), http.StatusBadRequest, "VALIDATION")
}

func TestCollect_RequiresAuthentication(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")

	rutID := ts.createRut(t, ann, "List")
	itemID := ts.submitItem(t, ann, map[string]any{"title": "Book"})

	resp := ts.api.Post("/api/v1/ruts/"+rutID+"/collects", map[string]any{"item_id": itemID})
	requireError(t, resp, http.StatusUnauthorized, "UNAUTHENTICATED")

	rut := decodeData[domain.Rut](t, ts.api.Get("/api/v1/ruts/"+rutID), http.StatusOK)
	assert.Zero(t, rut.ItemCount)
}

func TestCollect_OrderAndUncollect(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	rutID := ts.createRut(t, ann, "Classics")
	var items []string
	for _, title := range []string{"A", "B", "C"} {
		items = append(items, ts.submitItem(t, ann, map[string]any{"title": title, "cover": "https://img.example/" + title + ".png"}))
	}
	var collects []string
	for _, id := range items {
		collects = append(collects, ts.collect(t, ann, rutID, id))
	}

	// An item appears once per rut, whoever collects it.
	for _, who := range []string{ann, bob} {
		resp := ts.api.Post("/api/v1/ruts/"+rutID+"/collects", who, map[string]any{"item_id": items[0]})
		requireError(t, resp, http.StatusConflict, "CONFLICT")
	}

	rut := decodeData[domain.Rut](t, ts.api.Get("/api/v1/ruts/"+rutID), http.StatusOK)
	assert.Equal(t, 3, rut.ItemCount)
	assert.Equal(t, "https://img.example/C.png", rut.Logo)

	requireError(t, ts.api.Delete("/api/v1/collects/"+collects[1], bob), http.StatusForbidden, "UNAUTHORIZED")

	resp := ts.api.Delete("/api/v1/collects/"+collects[1], ann)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	listed := decodeData[[]domain.Collect](t, ts.api.Get("/api/v1/collects?by=rut&q="+rutID), http.StatusOK)
	require.Len(t, listed, 2)
	assert.Equal(t, items[0], listed[0].ItemID)
	assert.Equal(t, 1, listed[0].ItemOrder)
	assert.Equal(t, items[2], listed[1].ItemID)
	assert.Equal(t, 2, listed[1].ItemOrder)

	item := decodeData[domain.Item](t, ts.api.Get("/api/v1/items/"+items[1]), http.StatusOK)
	assert.Zero(t, item.RutCount)

	requireError(t, ts.api.Get("/api/v1/collects/"+collects[1]), http.StatusNotFound, "NOT_FOUND")
}

func TestCollect_IntoAnotherUsersRut(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	rutID := ts.createRut(t, ann, "Open list")
	ts.collect(t, ann, rutID, ts.submitItem(t, ann, map[string]any{"title": "First"}))

	cid := ts.collect(t, bob, rutID, ts.submitItem(t, bob, map[string]any{"title": "Second"}))
	got := decodeData[domain.Collect](t, ts.api.Get("/api/v1/collects/"+cid), http.StatusOK)
	assert.Equal(t, "bob", got.UName)
	assert.Equal(t, 2, got.ItemOrder)

	// The collect belongs to bob, not to the rut's author.
	requireError(t, ts.api.Patch("/api/v1/collects/"+cid, ann, map[string]any{"content": "mine"}), http.StatusForbidden, "UNAUTHORIZED")
	updated := decodeData[domain.Collect](t, ts.api.Patch("/api/v1/collects/"+cid, bob, map[string]any{"content": "great pick"}), http.StatusOK)
	assert.Equal(t, "great pick", updated.Content)

	resp := ts.api.Delete("/api/v1/collects/"+cid, bob)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	rut := decodeData[domain.Rut](t, ts.api.Get("/api/v1/ruts/"+rutID), http.StatusOK)
	assert.Equal(t, 1, rut.ItemCount)
}

func TestCollect_UpdateTip(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")

	rutID := ts.createRut(t, ann, "Tips")
	cid := ts.collect(t, ann, rutID, ts.submitItem(t, ann, map[string]any{"title": "Book"}))

	got := decodeData[domain.Collect](t, ts.api.Patch("/api/v1/collects/"+cid, ann, map[string]any{"content": "read chapter 3 first"}), http.StatusOK)
	assert.Equal(t, "read chapter 3 first", got.Content)

	requireError(t, ts.api.Patch("/api/v1/collects/"+cid, bob, map[string]any{"content": "no"}), http.StatusForbidden, "UNAUTHORIZED")

	byUser := decodeData[[]domain.Collect](t, ts.api.Get("/api/v1/collects?by=user&q=ann"), http.StatusOK)
	assert.Len(t, byUser, 1)
}
