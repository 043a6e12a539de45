package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/id"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/validation"
)

// StarService records user engagement with items, tags and ruts.
//
// Item stars carry a flag (todo, doing, done) that callers may set in any
// order. An item's done_count is credited once per user, the first time
// that user's star is done, and debited once if a credited star is removed.
type StarService struct {
	store     store.Store
	search    *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewStarService creates a new star service.
func NewStarService(store store.Store, search *SearchService, validator *validation.Validator, logger *slog.Logger) *StarService {
	return &StarService{
		store:     store,
		search:    search,
		validator: validator,
		logger:    logger,
	}
}

// StarItemInput sets a user's engagement with an item.
// Nil note and rate keep the stored values.
type StarItemInput struct {
	Flag string  `json:"flag" validate:"required,starflag"`
	Note *string `json:"note,omitempty" validate:"omitempty,max=512"`
	Rate *int    `json:"rate,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// StarNote is the optional note on a tag or rut star.
type StarNote struct {
	Note string `json:"note,omitempty" validate:"max=512"`
}

// StarStatus reports whether the caller starred something.
type StarStatus struct {
	Starred bool            `json:"starred"`
	Flag    domain.StarFlag `json:"flag,omitempty"`
	Note    string          `json:"note,omitempty"`
	Rate    int             `json:"rate,omitempty"`
	StarAt  *time.Time      `json:"star_at,omitempty"`
}

// StarItem creates or updates the caller's star on an item.
func (s *StarService) StarItem(ctx context.Context, p domain.Principal, itemID string, in StarItemInput) (star *domain.StarItem, err error) {
	ctx, span := startSpan(ctx, "star.item", p.UName, attribute.String("rut.item_id", itemID))
	defer func() { endSpan(span, err) }()

	flag, _ := domain.ParseStarFlag(in.Flag)
	in.Flag = string(flag)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	created := false
	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return storeErr(err, "item")
		}

		now := clock()
		existing, err := tx.GetStarItem(ctx, p.UName, itemID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			star = &domain.StarItem{
				ID:     id.MustGenerate("sti"),
				UName:  p.UName,
				ItemID: itemID,
				StarAt: now,
				Flag:   flag,
			}
			created = true
		case err != nil:
			return storeErr(err, "star")
		default:
			star = existing
			star.Flag = flag
			star.StarAt = now
		}
		if in.Note != nil {
			star.Note = normalize.Text(*in.Note)
		}
		if in.Rate != nil {
			star.Rate = *in.Rate
		}

		// A row inserted as done is credited too; done_counted keeps it to once.
		credit := flag == domain.FlagDone && !star.DoneCounted
		if credit {
			star.DoneCounted = true
		}

		if created {
			err = tx.CreateStarItem(ctx, star)
		} else {
			err = tx.UpdateStarItem(ctx, star)
		}
		if err != nil {
			return storeErr(err, "star")
		}

		if credit {
			return storeErr(tx.AdjustItem(ctx, itemID, store.ItemDelta{DoneCount: 1}), "item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		starOps.Add(ctx, 1, metric.WithAttributes(attribute.String("target", "item")))
	}
	s.logger.Info("item starred",
		"item_id", itemID,
		"flag", star.Flag,
		"created", created,
		"uname", p.UName,
	)
	return star, nil
}

// UnstarItem removes the caller's star on an item, giving back its done
// credit if it had one.
func (s *StarService) UnstarItem(ctx context.Context, p domain.Principal, itemID string) (err error) {
	ctx, span := startSpan(ctx, "star.unstar_item", p.UName, attribute.String("rut.item_id", itemID))
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		star, err := tx.GetStarItem(ctx, p.UName, itemID)
		if err != nil {
			return storeErr(err, "star")
		}
		if err := tx.DeleteStarItem(ctx, star.ID); err != nil {
			return storeErr(err, "star")
		}
		if star.DoneCounted {
			return storeErr(tx.AdjustItem(ctx, itemID, store.ItemDelta{DoneCount: -1}), "item")
		}
		return nil
	})
	if err != nil {
		return err
	}

	starOps.Add(ctx, -1, metric.WithAttributes(attribute.String("target", "item")))
	s.logger.Info("item unstarred", "item_id", itemID, "uname", p.UName)
	return nil
}

// ItemStatus reports the caller's star on an item.
func (s *StarService) ItemStatus(ctx context.Context, p domain.Principal, itemID string) (*StarStatus, error) {
	star, err := s.store.GetStarItem(ctx, p.UName, itemID)
	if errors.Is(err, store.ErrNotFound) {
		return &StarStatus{}, nil
	}
	if err != nil {
		return nil, storeErr(err, "star")
	}
	return &StarStatus{Starred: true, Flag: star.Flag, Note: star.Note, Rate: star.Rate, StarAt: &star.StarAt}, nil
}

// StarTag stars a tag. A user may star at most domain.MaxStarredTags tags;
// starring a tag twice is a Conflict.
func (s *StarService) StarTag(ctx context.Context, p domain.Principal, tname string, in StarNote) (star *domain.StarTag, err error) {
	tname = normalize.TagName(tname)
	ctx, span := startSpan(ctx, "star.tag", p.UName, attribute.String("rut.tname", tname))
	defer func() { endSpan(span, err) }()

	in.Note = normalize.Text(in.Note)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		if _, err := tx.GetTag(ctx, tname); err != nil {
			return storeErr(err, "tag")
		}
		if err := absent(tx.GetStarTag(ctx, p.UName, tname)); err != nil {
			return err
		}

		n, err := tx.CountStarTags(ctx, p.UName)
		if err != nil {
			return storeErr(err, "star")
		}
		if n >= domain.MaxStarredTags {
			return domainerrors.StarLimit(fmt.Sprintf("a user may star at most %d tags", domain.MaxStarredTags))
		}

		star = &domain.StarTag{ID: id.MustGenerate("stt"), UName: p.UName, TName: tname, StarAt: clock(), Note: in.Note}
		if err := tx.CreateStarTag(ctx, star); err != nil {
			return storeErr(err, "star")
		}
		return storeErr(tx.AdjustTag(ctx, tname, store.TagDelta{StarCount: 1}), "tag")
	})
	if err != nil {
		return nil, err
	}

	starOps.Add(ctx, 1, metric.WithAttributes(attribute.String("target", "tag")))
	s.logger.Info("tag starred", "tname", tname, "uname", p.UName)
	return star, nil
}

// UnstarTag removes the caller's star on a tag.
func (s *StarService) UnstarTag(ctx context.Context, p domain.Principal, tname string) (err error) {
	tname = normalize.TagName(tname)
	ctx, span := startSpan(ctx, "star.unstar_tag", p.UName, attribute.String("rut.tname", tname))
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		star, err := tx.GetStarTag(ctx, p.UName, tname)
		if err != nil {
			return storeErr(err, "star")
		}
		if err := tx.DeleteStarTag(ctx, star.ID); err != nil {
			return storeErr(err, "star")
		}
		return storeErr(tx.AdjustTag(ctx, tname, store.TagDelta{StarCount: -1}), "tag")
	})
	if err != nil {
		return err
	}

	starOps.Add(ctx, -1, metric.WithAttributes(attribute.String("target", "tag")))
	s.logger.Info("tag unstarred", "tname", tname, "uname", p.UName)
	return nil
}

// TagStatus reports whether the caller starred a tag.
func (s *StarService) TagStatus(ctx context.Context, p domain.Principal, tname string) (*StarStatus, error) {
	star, err := s.store.GetStarTag(ctx, p.UName, normalize.TagName(tname))
	if errors.Is(err, store.ErrNotFound) {
		return &StarStatus{}, nil
	}
	if err != nil {
		return nil, storeErr(err, "star")
	}
	return &StarStatus{Starred: true, Note: star.Note, StarAt: &star.StarAt}, nil
}

// StarRut stars a rut. Starring a rut twice is a Conflict.
func (s *StarService) StarRut(ctx context.Context, p domain.Principal, rutID string, in StarNote) (star *domain.StarRut, err error) {
	ctx, span := startSpan(ctx, "star.rut", p.UName, attribute.String("rut.rut_id", rutID))
	defer func() { endSpan(span, err) }()

	in.Note = normalize.Text(in.Note)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	var rut *domain.Rut
	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		var err error
		if rut, err = tx.GetRut(ctx, rutID); err != nil {
			return storeErr(err, "rut")
		}
		if err := absent(tx.GetStarRut(ctx, p.UName, rutID)); err != nil {
			return err
		}

		star = &domain.StarRut{ID: id.MustGenerate("str"), UName: p.UName, RutID: rutID, StarAt: clock(), Note: in.Note}
		if err := tx.CreateStarRut(ctx, star); err != nil {
			return storeErr(err, "star")
		}
		if err := tx.AdjustRut(ctx, rutID, store.RutDelta{StarCount: 1}); err != nil {
			return storeErr(err, "rut")
		}
		rut.StarCount++
		return nil
	})
	if err != nil {
		return nil, err
	}

	starOps.Add(ctx, 1, metric.WithAttributes(attribute.String("target", "rut")))
	s.search.IndexRut(rut)
	s.logger.Info("rut starred", "rut_id", rutID, "uname", p.UName)
	return star, nil
}

// UnstarRut removes the caller's star on a rut.
func (s *StarService) UnstarRut(ctx context.Context, p domain.Principal, rutID string) (err error) {
	ctx, span := startSpan(ctx, "star.unstar_rut", p.UName, attribute.String("rut.rut_id", rutID))
	defer func() { endSpan(span, err) }()

	err = s.store.WithTx(ctx, func(tx store.Repo) error {
		star, err := tx.GetStarRut(ctx, p.UName, rutID)
		if err != nil {
			return storeErr(err, "star")
		}
		if err := tx.DeleteStarRut(ctx, star.ID); err != nil {
			return storeErr(err, "star")
		}
		return storeErr(tx.AdjustRut(ctx, rutID, store.RutDelta{StarCount: -1}), "rut")
	})
	if err != nil {
		return err
	}

	starOps.Add(ctx, -1, metric.WithAttributes(attribute.String("target", "rut")))
	if s.search.Enabled() {
		if rut, err := s.store.GetRut(ctx, rutID); err == nil {
			s.search.IndexRut(rut)
		}
	}
	s.logger.Info("rut unstarred", "rut_id", rutID, "uname", p.UName)
	return nil
}

// RutStatus reports whether the caller starred a rut.
func (s *StarService) RutStatus(ctx context.Context, p domain.Principal, rutID string) (*StarStatus, error) {
	star, err := s.store.GetStarRut(ctx, p.UName, rutID)
	if errors.Is(err, store.ErrNotFound) {
		return &StarStatus{}, nil
	}
	if err != nil {
		return nil, storeErr(err, "star")
	}
	return &StarStatus{Starred: true, Note: star.Note, StarAt: &star.StarAt}, nil
}

// absent turns a successful lookup into Conflict and NotFound into nil.
func absent[T any](_ T, err error) error {
	switch {
	case err == nil:
		return domainerrors.Conflict("already starred")
	case errors.Is(err, store.ErrNotFound):
		return nil
	default:
		return storeErr(err, "star")
	}
}
