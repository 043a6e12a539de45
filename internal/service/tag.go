package service

import (
	"context"
	"errors"
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

// TagService applies tags to ruts and items and manages tag metadata.
//
// Tagging is best-effort per name: each name runs in its own transaction and
// one failing name does not stop the others. Untagging deletes associations
// without touching tag counters unless symmetricUntag is set.
type TagService struct {
	store          store.Store
	validator      *validation.Validator
	logger         *slog.Logger
	symmetricUntag bool
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, validator *validation.Validator, logger *slog.Logger, symmetricUntag bool) *TagService {
	return &TagService{
		store:          store,
		validator:      validator,
		logger:         logger,
		symmetricUntag: symmetricUntag,
	}
}

// TagNames is the body of tag and untag requests.
type TagNames struct {
	Names []string `json:"names" validate:"required,min=1,max=16"`
}

// TagReport lists which names were applied or removed and why others failed.
type TagReport struct {
	Done   []string          `json:"done"`
	Failed map[string]string `json:"failed,omitempty"`
}

func (r *TagReport) fail(name string, err error) {
	if r.Failed == nil {
		r.Failed = make(map[string]string)
	}
	r.Failed[name] = err.Error()
}

// TagInput creates a tag explicitly.
type TagInput struct {
	TName string `json:"tname" validate:"required,tagname"`
	Intro string `json:"intro,omitempty" validate:"max=512"`
	Logo  string `json:"logo,omitempty" validate:"omitempty,weburl,max=256"`
	PName string `json:"pname,omitempty" validate:"omitempty,tagname"`
}

// TagPatch edits tag metadata. Nil fields are left unchanged.
type TagPatch struct {
	Intro *string `json:"intro,omitempty" validate:"omitempty,max=512"`
	Logo  *string `json:"logo,omitempty" validate:"omitempty,weburl,max=256"`
	PName *string `json:"pname,omitempty" validate:"omitempty,tagname"`
}

// target abstracts the two association tables.
type target struct {
	kind   string
	delta  store.TagDelta
	find   func(ctx context.Context, tx store.Repo, tname, targetID string) (string, error)
	insert func(ctx context.Context, tx store.Repo, tname, targetID string) error
	bump   func(ctx context.Context, tx store.Repo, assocID string) error
	remove func(ctx context.Context, tx store.Repo, tname, targetID string) error
}

var rutTarget = target{
	kind:  "rut",
	delta: store.TagDelta{RutCount: 1},
	find: func(ctx context.Context, tx store.Repo, tname, rutID string) (string, error) {
		tr, err := tx.GetTagRut(ctx, tname, rutID)
		if err != nil {
			return "", err
		}
		return tr.ID, nil
	},
	insert: func(ctx context.Context, tx store.Repo, tname, rutID string) error {
		return tx.CreateTagRut(ctx, &domain.TagRut{ID: id.MustGenerate("tgr"), TName: tname, RutID: rutID, Count: 1})
	},
	bump: func(ctx context.Context, tx store.Repo, assocID string) error {
		return tx.BumpTagRut(ctx, assocID)
	},
	remove: func(ctx context.Context, tx store.Repo, tname, rutID string) error {
		return tx.DeleteTagRut(ctx, tname, rutID)
	},
}

var itemTarget = target{
	kind:  "item",
	delta: store.TagDelta{ItemCount: 1},
	find: func(ctx context.Context, tx store.Repo, tname, itemID string) (string, error) {
		ti, err := tx.GetTagItem(ctx, tname, itemID)
		if err != nil {
			return "", err
		}
		return ti.ID, nil
	},
	insert: func(ctx context.Context, tx store.Repo, tname, itemID string) error {
		return tx.CreateTagItem(ctx, &domain.TagItem{ID: id.MustGenerate("tgi"), TName: tname, ItemID: itemID, Count: 1})
	},
	bump: func(ctx context.Context, tx store.Repo, assocID string) error {
		return tx.BumpTagItem(ctx, assocID)
	},
	remove: func(ctx context.Context, tx store.Repo, tname, itemID string) error {
		return tx.DeleteTagItem(ctx, tname, itemID)
	},
}

// TagRut applies names to a rut. For each name: an existing association
// has its count bumped; otherwise the association is created with count 1
// and the tag's rut_count goes up, creating the tag first when needed.
func (s *TagService) TagRut(ctx context.Context, p domain.Principal, rutID string, names []string) (*TagReport, error) {
	if _, err := s.store.GetRut(ctx, rutID); err != nil {
		return nil, storeErr(err, "rut")
	}
	return s.tag(ctx, p, rutTarget, rutID, names)
}

// TagItem applies names to an item, with the same rules as TagRut acting on
// item_count.
func (s *TagService) TagItem(ctx context.Context, p domain.Principal, itemID string, names []string) (*TagReport, error) {
	if _, err := s.store.GetItem(ctx, itemID); err != nil {
		return nil, storeErr(err, "item")
	}
	return s.tag(ctx, p, itemTarget, itemID, names)
}

// UntagRut deletes the rut's associations with names.
func (s *TagService) UntagRut(ctx context.Context, p domain.Principal, rutID string, names []string) (*TagReport, error) {
	return s.untag(ctx, p, rutTarget, rutID, names)
}

// UntagItem deletes the item's associations with names.
func (s *TagService) UntagItem(ctx context.Context, p domain.Principal, itemID string, names []string) (*TagReport, error) {
	return s.untag(ctx, p, itemTarget, itemID, names)
}

func (s *TagService) names(raw []string) ([]string, error) {
	if err := s.validator.Validate(TagNames{Names: raw}); err != nil {
		return nil, err
	}
	names := normalize.TagNames(raw)
	if len(names) == 0 {
		return nil, domainerrors.ValidationWithDetails("invalid names", map[string]string{"names": "must contain a non-blank tag name"})
	}
	return names, nil
}

func (s *TagService) tag(ctx context.Context, p domain.Principal, t target, targetID string, raw []string) (report *TagReport, err error) {
	ctx, span := startSpan(ctx, "tag.apply", p.UName,
		attribute.String("rut.target", t.kind),
		attribute.String("rut.target_id", targetID),
	)
	defer func() { endSpan(span, err) }()

	names, err := s.names(raw)
	if err != nil {
		return nil, err
	}

	report = &TagReport{Done: make([]string, 0, len(names))}
	for _, name := range names {
		if !validation.ValidTagName(name) {
			report.fail(name, domainerrors.Validationf("tag name must be 1 to %d characters", domain.MaxTagNameLen))
			continue
		}
		if err := s.store.WithTx(ctx, func(tx store.Repo) error {
			return applyTag(ctx, tx, t, name, targetID)
		}); err != nil {
			s.logger.Warn("tag not applied", "tname", name, t.kind+"_id", targetID, "error", err)
			report.fail(name, err)
			continue
		}
		report.Done = append(report.Done, name)
	}

	tagApplications.Add(ctx, int64(len(report.Done)), metric.WithAttributes(attribute.String("target", t.kind)))
	span.SetAttributes(attribute.Int("rut.tagged", len(report.Done)))
	s.logger.Info("tags applied",
		t.kind+"_id", targetID,
		"done", report.Done,
		"failed", len(report.Failed),
		"uname", p.UName,
	)
	return report, nil
}

// applyTag runs inside one transaction per name.
func applyTag(ctx context.Context, tx store.Repo, t target, tname, targetID string) error {
	assocID, err := t.find(ctx, tx, tname, targetID)
	switch {
	case err == nil:
		return storeErr(t.bump(ctx, tx, assocID), "tag association")
	case !errors.Is(err, store.ErrNotFound):
		return storeErr(err, "tag association")
	}

	_, err = tx.GetTag(ctx, tname)
	switch {
	case errors.Is(err, store.ErrNotFound):
		tag := &domain.Tag{TName: tname, ItemCount: t.delta.ItemCount, RutCount: t.delta.RutCount}
		if err := tx.CreateTag(ctx, tag); err != nil {
			return storeErr(err, "tag")
		}
	case err != nil:
		return storeErr(err, "tag")
	default:
		if err := tx.AdjustTag(ctx, tname, t.delta); err != nil {
			return storeErr(err, "tag")
		}
	}

	return storeErr(t.insert(ctx, tx, tname, targetID), t.kind)
}

func (s *TagService) untag(ctx context.Context, p domain.Principal, t target, targetID string, raw []string) (report *TagReport, err error) {
	ctx, span := startSpan(ctx, "tag.remove", p.UName,
		attribute.String("rut.target", t.kind),
		attribute.String("rut.target_id", targetID),
		attribute.Bool("rut.symmetric", s.symmetricUntag),
	)
	defer func() { endSpan(span, err) }()

	names, err := s.names(raw)
	if err != nil {
		return nil, err
	}

	undo := store.TagDelta{ItemCount: -t.delta.ItemCount, RutCount: -t.delta.RutCount}

	report = &TagReport{Done: make([]string, 0, len(names))}
	for _, name := range names {
		if err := s.store.WithTx(ctx, func(tx store.Repo) error {
			if err := t.remove(ctx, tx, name, targetID); err != nil {
				return storeErr(err, "tag association")
			}
			if s.symmetricUntag {
				return storeErr(tx.AdjustTag(ctx, name, undo), "tag")
			}
			return nil
		}); err != nil {
			report.fail(name, err)
			continue
		}
		report.Done = append(report.Done, name)
	}

	s.logger.Info("tags removed",
		t.kind+"_id", targetID,
		"done", report.Done,
		"failed", len(report.Failed),
		"symmetric", s.symmetricUntag,
		"uname", p.UName,
	)
	return report, nil
}

// CreateTag adds a tag with zero counters.
func (s *TagService) CreateTag(ctx context.Context, p domain.Principal, in TagInput) (*domain.Tag, error) {
	in.TName = normalize.TagName(in.TName)
	in.PName = normalize.TagName(in.PName)
	in.Intro = normalize.Text(in.Intro)
	in.Logo = normalize.Text(in.Logo)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	tag := &domain.Tag{TName: in.TName, Intro: in.Intro, Logo: in.Logo, PName: in.PName}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, storeErr(err, "tag")
	}

	s.logger.Info("tag created", "tname", tag.TName, "uname", p.UName)
	return tag, nil
}

// UpdateTag edits a tag's intro, logo and parent. Parents are not checked
// for cycles.
func (s *TagService) UpdateTag(ctx context.Context, p domain.Principal, tname string, patch TagPatch) (*domain.Tag, error) {
	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, normalize.TagName(tname))
	if err != nil {
		return nil, storeErr(err, "tag")
	}

	if patch.Intro != nil {
		tag.Intro = normalize.Text(*patch.Intro)
	}
	if patch.Logo != nil {
		tag.Logo = normalize.Text(*patch.Logo)
	}
	if patch.PName != nil {
		tag.PName = normalize.TagName(*patch.PName)
	}

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		return nil, storeErr(err, "tag")
	}

	s.logger.Info("tag updated", "tname", tag.TName, "uname", p.UName)
	return tag, nil
}

// GetTag returns a tag by name.
func (s *TagService) GetTag(ctx context.Context, tname string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, normalize.TagName(tname))
	if err != nil {
		return nil, storeErr(err, "tag")
	}
	return tag, nil
}

// List runs a tag selector.
func (s *TagService) List(ctx context.Context, q store.TagQuery) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, q)
	if err != nil {
		return nil, storeErr(err, "tag")
	}
	return tags, nil
}
