package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/id"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/validation"
)

// CollectService places items into ruts and keeps each rut's item orders
// dense: the collects of a rut always hold orders 1..rut.ItemCount.
type CollectService struct {
	store     store.Store
	search    *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewCollectService creates a new collect service.
func NewCollectService(store store.Store, search *SearchService, validator *validation.Validator, logger *slog.Logger) *CollectService {
	return &CollectService{
		store:     store,
		search:    search,
		validator: validator,
		logger:    logger,
	}
}

// CollectInput names the item to collect and the curator's note on it.
type CollectInput struct {
	ItemID  string `json:"item_id" validate:"required"`
	Content string `json:"content,omitempty" validate:"max=4096"`
}

// Collect appends an item to the end of a rut.
//
// The insert, the rut's item_count/logo/renew_at and the item's rut_count
// change in one transaction. Any signed-in user may collect into any rut and
// owns the collect it creates. A full rut fails with CapacityExceeded and an
// item already in the rut fails with Conflict.
func (s *CollectService) Collect(ctx context.Context, p domain.Principal, rutID string, in CollectInput) (c *domain.Collect, err error) {
	ctx, span := startSpan(ctx, "collect.collect", p.UName,
		attribute.String("rut.rut_id", rutID),
		attribute.String("rut.item_id", in.ItemID),
	)
	defer func() { endSpan(span, err) }()

	in.ItemID = normalize.Text(in.ItemID)
	in.Content = normalize.Text(in.Content)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var (
		rut  *domain.Rut
		item *domain.Item
	)
	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		var err error
		if item, err = tx.GetItem(ctx, in.ItemID); err != nil {
			return storeErr(err, "item")
		}
		if rut, err = tx.GetRut(ctx, rutID); err != nil {
			return storeErr(err, "rut")
		}
		if rut.IsFull() {
			return domainerrors.CapacityExceeded(fmt.Sprintf("a rut holds at most %d items", domain.MaxRutItems))
		}

		now := clock()
		c = &domain.Collect{
			ID:        id.New(),
			RutID:     rut.ID,
			ItemID:    item.ID,
			ItemOrder: rut.ItemCount + 1,
			Content:   in.Content,
			UName:     p.UName,
			CollectAt: now,
		}
		if err := tx.CreateCollect(ctx, c); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return domainerrors.Conflict("item is already in this rut")
			}
			return storeErr(err, "collect")
		}
		if err := tx.AdjustRut(ctx, rut.ID, store.RutDelta{ItemCount: 1, Logo: item.Cover, RenewAt: now}); err != nil {
			return storeErr(err, "rut")
		}
		if err := tx.AdjustItem(ctx, item.ID, store.ItemDelta{RutCount: 1}); err != nil {
			return storeErr(err, "item")
		}

		rut.ItemCount++
		rut.RenewAt = now
		if item.Cover != "" {
			rut.Logo = item.Cover
		}
		item.RutCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	collectOps.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "collect")))
	s.search.IndexRut(rut)
	s.search.IndexItem(item)
	s.logger.Info("item collected",
		"collect_id", c.ID,
		"rut_id", c.RutID,
		"item_id", c.ItemID,
		"item_order", c.ItemOrder,
		"uname", p.UName,
	)
	return c, nil
}

// Uncollect removes a collect and closes the gap it leaves with a single
// ranged update of the orders after it. Only the collect's owner may do this.
func (s *CollectService) Uncollect(ctx context.Context, p domain.Principal, collectID string) (err error) {
	ctx, span := startSpan(ctx, "collect.uncollect", p.UName, attribute.String("rut.collect_id", collectID))
	defer func() { endSpan(span, err) }()

	var (
		c       *domain.Collect
		shifted int64
	)
	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		var err error
		if c, err = tx.GetCollect(ctx, collectID); err != nil {
			return storeErr(err, "collect")
		}
		if err := requireOwner(c.UName, p.UName, "collect"); err != nil {
			return err
		}

		if err := tx.DeleteCollect(ctx, c.ID); err != nil {
			return storeErr(err, "collect")
		}
		if err := tx.AdjustRut(ctx, c.RutID, store.RutDelta{ItemCount: -1, RenewAt: clock()}); err != nil {
			return storeErr(err, "rut")
		}
		if err := tx.AdjustItem(ctx, c.ItemID, store.ItemDelta{RutCount: -1}); err != nil {
			return storeErr(err, "item")
		}
		if shifted, err = tx.ShiftCollectsAfter(ctx, c.RutID, c.ItemOrder); err != nil {
			return storeErr(err, "collect")
		}
		return nil
	})
	if err != nil {
		return err
	}

	collectOps.Add(ctx, 1, metric.WithAttributes(attribute.String("op", "uncollect")))
	s.reindex(ctx, c.RutID, c.ItemID)
	s.logger.Info("item uncollected",
		"collect_id", c.ID,
		"rut_id", c.RutID,
		"item_id", c.ItemID,
		"shifted", shifted,
		"uname", p.UName,
	)
	return nil
}

// reindex refreshes search documents after a change whose counters were
// applied in SQL.
func (s *CollectService) reindex(ctx context.Context, rutID, itemID string) {
	if !s.search.Enabled() {
		return
	}
	if rut, err := s.store.GetRut(ctx, rutID); err == nil {
		s.search.IndexRut(rut)
	}
	if item, err := s.store.GetItem(ctx, itemID); err == nil {
		s.search.IndexItem(item)
	}
}

// UpdateCollect replaces the annotation on a collect. Only the owner may
// edit it and nothing but content changes.
func (s *CollectService) UpdateCollect(ctx context.Context, p domain.Principal, collectID, content string) (c *domain.Collect, err error) {
	ctx, span := startSpan(ctx, "collect.update", p.UName, attribute.String("rut.collect_id", collectID))
	defer func() { endSpan(span, err) }()

	content = normalize.Text(content)
	if err := s.validator.Var("content", content, "max=4096"); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		var err error
		if c, err = tx.GetCollect(ctx, collectID); err != nil {
			return storeErr(err, "collect")
		}
		if err := requireOwner(c.UName, p.UName, "collect"); err != nil {
			return err
		}
		if err := tx.UpdateCollectContent(ctx, c.ID, content); err != nil {
			return storeErr(err, "collect")
		}
		c.Content = content
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("collect updated", "collect_id", c.ID, "uname", p.UName)
	return c, nil
}

// Get returns a collect by id.
func (s *CollectService) Get(ctx context.Context, collectID string) (*domain.Collect, error) {
	c, err := s.store.GetCollect(ctx, collectID)
	if err != nil {
		return nil, storeErr(err, "collect")
	}
	return c, nil
}

// List runs a collect selector.
func (s *CollectService) List(ctx context.Context, q store.CollectQuery) ([]*domain.Collect, error) {
	cs, err := s.store.ListCollects(ctx, q)
	if err != nil {
		return nil, storeErr(err, "collect")
	}
	return cs, nil
}
