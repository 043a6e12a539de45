package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func TestStarItem_FlagLifecycle(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	itemID := ts.submitItem(t, ann, map[string]any{"title": "Dune"})
	path := "/api/v1/items/" + itemID + "/star"

	requireError(t, ts.api.Put(path, map[string]any{"flag": "todo"}), http.StatusUnauthorized, "UNAUTHENTICATED")

	status := decodeData[service.StarStatus](t, ts.api.Put(path, ann, map[string]any{"flag": "todo", "note": "next up"}), http.StatusOK)
	assert.True(t, status.Starred)
	assert.Equal(t, domain.FlagTodo, status.Flag)

	status = decodeData[service.StarStatus](t, ts.api.Put(path, ann, map[string]any{"flag": "Done", "rate": 4}), http.StatusOK)
	assert.Equal(t, domain.FlagDone, status.Flag)
	assert.Equal(t, "next up", status.Note)
	assert.Equal(t, 4, status.Rate)

	item := decodeData[domain.Item](t, ts.api.Get("/api/v1/items/"+itemID), http.StatusOK)
	assert.Equal(t, 1, item.DoneCount)

	done := decodeData[[]domain.Item](t, ts.api.Get("/api/v1/items?by=user&q=ann&flag=done"), http.StatusOK)
	require.Len(t, done, 1)
	assert.Equal(t, itemID, done[0].ID)

	requireError(t, ts.api.Put(path, ann, map[string]any{"flag": "someday"}), http.StatusBadRequest, "VALIDATION")
	requireError(t, ts.api.Get("/api/v1/items?by=user&q=ann&flag=someday"), http.StatusBadRequest, "VALIDATION")

	resp := ts.api.Delete(path, ann)
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	status = decodeData[service.StarStatus](t, ts.api.Get(path, ann), http.StatusOK)
	assert.False(t, status.Starred)

	requireError(t, ts.api.Delete(path, ann), http.StatusNotFound, "NOT_FOUND")
}

func TestStarTag_LimitIsTeapot(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")

	for i := range domain.MaxStarredTags + 1 {
		decodeData[domain.Tag](t, ts.api.Post("/api/v1/tags", ann, map[string]any{"tname": fmt.Sprintf("t%02d", i)}), http.StatusCreated)
	}
	for i := range domain.MaxStarredTags {
		decodeData[service.StarStatus](t, ts.api.Put(fmt.Sprintf("/api/v1/tags/t%02d/star", i), ann), http.StatusOK)
	}

	last := fmt.Sprintf("/api/v1/tags/t%02d/star", domain.MaxStarredTags)
	requireError(t, ts.api.Put(last, ann, map[string]any{"note": "one more"}), http.StatusTeapot, "STAR_LIMIT")

	starred := decodeData[[]domain.Tag](t, ts.api.Get("/api/v1/tags?by=user&q=ann"), http.StatusOK)
	assert.Len(t, starred, domain.MaxStarredTags)

	require.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/tags/t00/star", ann).Code)
	decodeData[service.StarStatus](t, ts.api.Put(last, ann), http.StatusOK)
}

func TestStarRut(t *testing.T) {
	ts := setupTestServer(t, noSearch)
	ann := ts.signup(t, "ann")
	bob := ts.signup(t, "bob")
	rutID := ts.createRut(t, ann, "Sci-fi")
	path := "/api/v1/ruts/" + rutID + "/star"

	status := decodeData[service.StarStatus](t, ts.api.Put(path, bob, map[string]any{"note": "great list"}), http.StatusOK)
	assert.True(t, status.Starred)
	assert.Equal(t, "great list", status.Note)

	requireError(t, ts.api.Put(path, bob), http.StatusConflict, "CONFLICT")

	rut := decodeData[domain.Rut](t, ts.api.Get("/api/v1/ruts/"+rutID), http.StatusOK)
	assert.Equal(t, 1, rut.StarCount)

	starred := decodeData[[]domain.Rut](t, ts.api.Get("/api/v1/ruts?by=user&q=bob&starred=true"), http.StatusOK)
	require.Len(t, starred, 1)

	require.Equal(t, http.StatusNoContent, ts.api.Delete(path, bob).Code)
	status = decodeData[service.StarStatus](t, ts.api.Get(path, bob), http.StatusOK)
	assert.False(t, status.Starred)

	requireError(t, ts.api.Put("/api/v1/ruts/nope/star", bob), http.StatusNotFound, "NOT_FOUND")
}
