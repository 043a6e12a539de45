package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rutapp/rut-server/internal/auth"
	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/search"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/store/sqlite"
	"github.com/rutapp/rut-server/internal/validation"
)

var (
	ann = domain.Principal{UserID: "u-ann", UName: "ann"}
	bob = domain.Principal{UserID: "u-bob", UName: "bob"}

	// cheapArgon2 keeps signup and signin fast in tests.
	cheapArgon2 = auth.Argon2Params{MemoryKiB: 64, Iterations: 1, Parallelism: 1}
)

type harness struct {
	store    *sqlite.Store
	users    *UserService
	items    *ItemService
	ruts     *RutService
	collects *CollectService
	tags     *TagService
	stars    *StarService
	audit    *AuditService
	search   *SearchService
	tokens   *auth.TokenService
}

type harnessOpts struct {
	symmetricUntag bool
	withSearch     bool
}

func newHarness(t *testing.T, opts ...func(*harnessOpts)) *harness {
	t.Helper()

	var o harnessOpts
	for _, opt := range opts {
		opt(&o)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "rut.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	var index *search.Index
	if o.withSearch {
		index, err = search.Open(search.Options{Dir: filepath.Join(dir, "search"), Logger: logger})
		require.NoError(t, err)
		t.Cleanup(func() { _ = index.Close() })
	}

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{7}, 32), time.Hour)
	require.NoError(t, err)
	hasher, err := auth.NewHasher(cheapArgon2)
	require.NoError(t, err)

	v := validation.New()
	searchSvc := NewSearchService(index, st, logger)

	return &harness{
		store:    st,
		users:    NewUserService(st, tokens, hasher, v, logger),
		items:    NewItemService(st, searchSvc, v, logger),
		ruts:     NewRutService(st, searchSvc, v, logger),
		collects: NewCollectService(st, searchSvc, v, logger),
		tags:     NewTagService(st, v, logger, o.symmetricUntag),
		stars:    NewStarService(st, searchSvc, v, logger),
		audit:    NewAuditService(st, logger),
		search:   searchSvc,
		tokens:   tokens,
	}
}

func symmetric(o *harnessOpts)  { o.symmetricUntag = true }
func withSearch(o *harnessOpts) { o.withSearch = true }

// requireT is the subset of testing.TB that rapid.T also satisfies.
type requireT interface {
	require.TestingT
	Helper()
}

func (h *harness) item(t requireT, title string) *domain.Item {
	t.Helper()
	it, err := h.items.Submit(context.Background(), ann, ItemInput{Title: title, Cover: "https://img.example/" + title + ".png"})
	require.NoError(t, err)
	return it
}

func (h *harness) rut(t requireT, owner domain.Principal, title string) *domain.Rut {
	t.Helper()
	r, err := h.ruts.Create(context.Background(), owner, RutInput{Title: title})
	require.NoError(t, err)
	return r
}

func (h *harness) manyItems(t requireT, n int, prefix string) []*domain.Item {
	t.Helper()
	out := make([]*domain.Item, n)
	for i := range out {
		out[i] = h.item(t, fmt.Sprintf("%s-%d", prefix, i))
	}
	return out
}

// requireDense asserts the rut's collect orders are exactly 1..rut.ItemCount.
func (h *harness) requireDense(t requireT, rutID string) []*domain.Collect {
	t.Helper()
	ctx := context.Background()

	rut, err := h.store.GetRut(ctx, rutID)
	require.NoError(t, err)

	cs, err := h.store.ListCollects(ctx, store.CollectsInRut{RutID: rutID})
	require.NoError(t, err)
	require.Len(t, cs, rut.ItemCount)
	for i, c := range cs {
		require.Equal(t, i+1, c.ItemOrder, "collect %s", c.ID)
	}
	return cs
}

func (h *harness) requireNoDrift(t requireT) {
	t.Helper()
	report, err := h.audit.Check(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Drifts)
	require.True(t, report.OK)
}
