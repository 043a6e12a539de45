// Package store defines the persistence interface for the rut server.
//
// Repo holds primitive lookups, scans, inserts, single statement updates and
// deletes. It carries no business rules: services compose these primitives
// and wrap dependent writes in Store.WithTx.
package store

import (
	"context"
	"iter"
	"time"

	"github.com/rutapp/rut-server/internal/domain"
)

// ItemDelta adjusts an item's cached counters. Zero fields are untouched.
type ItemDelta struct {
	RutCount  int
	DoneCount int
}

// RutDelta adjusts a rut's cached counters.
// An empty Logo keeps the current logo; a zero RenewAt keeps renew_at.
type RutDelta struct {
	ItemCount int
	StarCount int
	Logo      string
	RenewAt   time.Time
}

// TagDelta adjusts a tag's cached counters. Vote follows automatically.
type TagDelta struct {
	ItemCount int
	RutCount  int
	StarCount int
}

// Drift is one cached counter that disagrees with a recount.
type Drift struct {
	Entity string `json:"entity"` // item, rut, tag
	ID     string `json:"id"`
	Field  string `json:"field"`
	Cached int    `json:"cached"`
	Actual int    `json:"actual"`
}

// Repo is the set of primitive operations available both outside and inside
// a transaction.
type Repo interface {
	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByUName(ctx context.Context, uname string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error

	// Items
	CreateItem(ctx context.Context, item *domain.Item) error
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	GetItemByUIID(ctx context.Context, uiid string) (*domain.Item, error)
	GetItemByURL(ctx context.Context, url string) (*domain.Item, error)
	UpdateItem(ctx context.Context, item *domain.Item) error
	AdjustItem(ctx context.Context, id string, d ItemDelta) error
	ListItems(ctx context.Context, q ItemQuery) ([]*domain.Item, error)

	// Ruts
	CreateRut(ctx context.Context, rut *domain.Rut) error
	GetRut(ctx context.Context, id string) (*domain.Rut, error)
	UpdateRut(ctx context.Context, rut *domain.Rut) error
	AdjustRut(ctx context.Context, id string, d RutDelta) error
	ListRuts(ctx context.Context, q RutQuery) ([]*domain.Rut, error)

	// Collects
	CreateCollect(ctx context.Context, c *domain.Collect) error
	GetCollect(ctx context.Context, id string) (*domain.Collect, error)
	UpdateCollectContent(ctx context.Context, id, content string) error
	DeleteCollect(ctx context.Context, id string) error
	// ShiftCollectsAfter closes the gap left at position order with one
	// ranged update and returns how many rows moved.
	ShiftCollectsAfter(ctx context.Context, rutID string, order int) (int64, error)
	ListCollects(ctx context.Context, q CollectQuery) ([]*domain.Collect, error)

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, tname string) (*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	AdjustTag(ctx context.Context, tname string, d TagDelta) error
	ListTags(ctx context.Context, q TagQuery) ([]*domain.Tag, error)

	// Tag associations
	GetTagRut(ctx context.Context, tname, rutID string) (*domain.TagRut, error)
	CreateTagRut(ctx context.Context, tr *domain.TagRut) error
	BumpTagRut(ctx context.Context, id string) error
	DeleteTagRut(ctx context.Context, tname, rutID string) error
	GetTagItem(ctx context.Context, tname, itemID string) (*domain.TagItem, error)
	CreateTagItem(ctx context.Context, ti *domain.TagItem) error
	BumpTagItem(ctx context.Context, id string) error
	DeleteTagItem(ctx context.Context, tname, itemID string) error

	// Stars
	GetStarItem(ctx context.Context, uname, itemID string) (*domain.StarItem, error)
	CreateStarItem(ctx context.Context, s *domain.StarItem) error
	UpdateStarItem(ctx context.Context, s *domain.StarItem) error
	DeleteStarItem(ctx context.Context, id string) error
	GetStarTag(ctx context.Context, uname, tname string) (*domain.StarTag, error)
	CreateStarTag(ctx context.Context, s *domain.StarTag) error
	DeleteStarTag(ctx context.Context, id string) error
	CountStarTags(ctx context.Context, uname string) (int, error)
	GetStarRut(ctx context.Context, uname, rutID string) (*domain.StarRut, error)
	CreateStarRut(ctx context.Context, s *domain.StarRut) error
	DeleteStarRut(ctx context.Context, id string) error
}

// Store is a Repo bound to a database, plus the operations that only make
// sense at the top level.
type Store interface {
	Repo

	// WithTx runs fn inside one transaction. fn's error rolls back.
	WithTx(ctx context.Context, fn func(Repo) error) error

	// Audit recounts every cached counter from the underlying rows.
	Audit(ctx context.Context) ([]Drift, error)

	StreamItems(ctx context.Context) iter.Seq2[*domain.Item, error]
	StreamRuts(ctx context.Context) iter.Seq2[*domain.Rut, error]

	Ping(ctx context.Context) error
	Close() error
}
