package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/id"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/validation"
)

// ItemService manages the shared item catalog.
// Any signed-in user may submit or edit items; counters are never written
// here.
type ItemService struct {
	store     store.Store
	search    *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewItemService creates a new item service.
func NewItemService(store store.Store, search *SearchService, validator *validation.Validator, logger *slog.Logger) *ItemService {
	return &ItemService{
		store:     store,
		search:    search,
		validator: validator,
		logger:    logger,
	}
}

// ItemInput is a submitted item.
type ItemInput struct {
	Title     string `json:"title" validate:"required,max=256"`
	UIID      string `json:"uiid,omitempty" validate:"max=32"`
	Authors   string `json:"authors,omitempty" validate:"max=256"`
	PubAt     string `json:"pub_at,omitempty" validate:"max=32"`
	Publisher string `json:"publisher,omitempty" validate:"max=64"`
	Category  string `json:"category,omitempty" validate:"max=16"`
	URL       string `json:"url,omitempty" validate:"omitempty,weburl,max=256"`
	Cover     string `json:"cover,omitempty" validate:"omitempty,weburl,max=256"`
	Edition   string `json:"edition,omitempty" validate:"max=64"`
	Detail    string `json:"detail,omitempty"`
}

// ItemPatch edits an item. Nil fields are left unchanged.
type ItemPatch struct {
	Title     *string `json:"title,omitempty" validate:"omitempty,min=1,max=256"`
	UIID      *string `json:"uiid,omitempty" validate:"omitempty,max=32"`
	Authors   *string `json:"authors,omitempty" validate:"omitempty,max=256"`
	PubAt     *string `json:"pub_at,omitempty" validate:"omitempty,max=32"`
	Publisher *string `json:"publisher,omitempty" validate:"omitempty,max=64"`
	Category  *string `json:"category,omitempty" validate:"omitempty,max=16"`
	URL       *string `json:"url,omitempty" validate:"omitempty,weburl,max=256"`
	Cover     *string `json:"cover,omitempty" validate:"omitempty,weburl,max=256"`
	Edition   *string `json:"edition,omitempty" validate:"omitempty,max=64"`
	Detail    *string `json:"detail,omitempty"`
}

func (in *ItemInput) normalize() error {
	in.Title = normalize.Text(in.Title)
	in.UIID = normalize.Text(in.UIID)
	in.Authors = normalize.Text(in.Authors)
	in.PubAt = normalize.Text(in.PubAt)
	in.Publisher = normalize.Text(in.Publisher)
	in.Category = normalize.Text(in.Category)
	in.Cover = normalize.Text(in.Cover)
	in.Edition = normalize.Text(in.Edition)
	in.Detail = normalize.Detail(in.Detail)

	u, err := normalize.URL(in.URL)
	if err != nil {
		return domainerrors.ValidationWithDetails("invalid url", map[string]string{"url": "must be a valid http(s) URL"})
	}
	in.URL = u
	return nil
}

// Submit adds an item to the catalog. An item already known by UIID, then
// by URL, is not duplicated: the call fails with AlreadyExists and the
// existing item in the error details.
func (s *ItemService) Submit(ctx context.Context, p domain.Principal, in ItemInput) (item *domain.Item, err error) {
	ctx, span := startSpan(ctx, "item.submit", p.UName)
	defer func() { endSpan(span, err) }()

	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if existing, err := s.findDuplicate(ctx, "", in.UIID, in.URL); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return nil, domainerrors.AlreadyExists("item already exists").WithDetails(existing)
	}

	now := clock()
	item = &domain.Item{
		ID:        id.New(),
		Title:     in.Title,
		UIID:      in.UIID,
		Authors:   in.Authors,
		PubAt:     in.PubAt,
		Publisher: in.Publisher,
		Category:  in.Category,
		URL:       in.URL,
		Cover:     in.Cover,
		Edition:   in.Edition,
		Detail:    in.Detail,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, storeErr(err, "item")
	}

	span.SetAttributes(attribute.String("rut.item_id", item.ID))
	s.search.IndexItem(item)
	s.logger.Info("item submitted", "item_id", item.ID, "uname", p.UName)
	return item, nil
}

// findDuplicate looks up another item holding uiid, then url.
// selfID is ignored so an item does not collide with itself.
func (s *ItemService) findDuplicate(ctx context.Context, selfID, uiid, url string) (*domain.Item, error) {
	lookups := []struct {
		key string
		get func(context.Context, string) (*domain.Item, error)
	}{
		{uiid, s.store.GetItemByUIID},
		{url, s.store.GetItemByURL},
	}
	for _, l := range lookups {
		if l.key == "" {
			continue
		}
		existing, err := l.get(ctx, l.key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr(err, "item")
		}
		if existing.ID != selfID {
			return existing, nil
		}
	}
	return nil, nil
}

// Update edits an item's descriptive fields.
func (s *ItemService) Update(ctx context.Context, p domain.Principal, itemID string, patch ItemPatch) (item *domain.Item, err error) {
	ctx, span := startSpan(ctx, "item.update", p.UName, attribute.String("rut.item_id", itemID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	item, err = s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeErr(err, "item")
	}

	in := ItemInput{
		Title: item.Title, UIID: item.UIID, Authors: item.Authors, PubAt: item.PubAt,
		Publisher: item.Publisher, Category: item.Category, URL: item.URL, Cover: item.Cover,
		Edition: item.Edition, Detail: item.Detail,
	}
	apply(&in.Title, patch.Title)
	apply(&in.UIID, patch.UIID)
	apply(&in.Authors, patch.Authors)
	apply(&in.PubAt, patch.PubAt)
	apply(&in.Publisher, patch.Publisher)
	apply(&in.Category, patch.Category)
	apply(&in.URL, patch.URL)
	apply(&in.Cover, patch.Cover)
	apply(&in.Edition, patch.Edition)
	apply(&in.Detail, patch.Detail)

	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	if existing, err := s.findDuplicate(ctx, item.ID, in.UIID, in.URL); err != nil || existing != nil {
		if err != nil {
			return nil, err
		}
		return nil, domainerrors.Conflict("uiid or url belongs to another item").WithDetails(map[string]string{"item_id": existing.ID})
	}

	item.Title, item.UIID, item.Authors, item.PubAt = in.Title, in.UIID, in.Authors, in.PubAt
	item.Publisher, item.Category, item.URL, item.Cover = in.Publisher, in.Category, in.URL, in.Cover
	item.Edition, item.Detail = in.Edition, in.Detail
	item.UpdatedAt = clock()

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, storeErr(err, "item")
	}

	s.search.IndexItem(item)
	s.logger.Info("item updated", "item_id", item.ID, "uname", p.UName)
	return item, nil
}

// Get returns an item by id.
func (s *ItemService) Get(ctx context.Context, itemID string) (*domain.Item, error) {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, storeErr(err, "item")
	}
	return item, nil
}

// List runs an item selector.
func (s *ItemService) List(ctx context.Context, q store.ItemQuery) ([]*domain.Item, error) {
	items, err := s.store.ListItems(ctx, q)
	if err != nil {
		return nil, storeErr(err, "item")
	}
	return items, nil
}

// apply copies *src into dst when src is set.
func apply(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
