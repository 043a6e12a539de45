package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/id"
	"github.com/rutapp/rut-server/internal/normalize"
	"github.com/rutapp/rut-server/internal/store"
	"github.com/rutapp/rut-server/internal/validation"
)

// RutService manages ruts. Only a rut's author may edit it.
type RutService struct {
	store     store.Store
	search    *SearchService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewRutService creates a new rut service.
func NewRutService(store store.Store, search *SearchService, validator *validation.Validator, logger *slog.Logger) *RutService {
	return &RutService{
		store:     store,
		search:    search,
		validator: validator,
		logger:    logger,
	}
}

// RutInput creates a rut.
type RutInput struct {
	Title      string `json:"title" validate:"required,max=120"`
	URL        string `json:"url,omitempty" validate:"omitempty,weburl,max=120"`
	Content    string `json:"content,omitempty"`
	AuthorID   string `json:"author_id,omitempty" validate:"max=120"`
	Credential string `json:"credential,omitempty" validate:"max=256"`
}

// RutPatch edits a rut. Nil fields are left unchanged.
type RutPatch struct {
	Title      *string `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	URL        *string `json:"url,omitempty" validate:"omitempty,weburl,max=120"`
	Content    *string `json:"content,omitempty"`
	AuthorID   *string `json:"author_id,omitempty" validate:"omitempty,max=120"`
	Credential *string `json:"credential,omitempty" validate:"omitempty,max=256"`
}

// Create makes an empty rut owned by the caller.
func (s *RutService) Create(ctx context.Context, p domain.Principal, in RutInput) (rut *domain.Rut, err error) {
	ctx, span := startSpan(ctx, "rut.create", p.UName)
	defer func() { endSpan(span, err) }()

	in.Title = normalize.Text(in.Title)
	in.URL = normalize.Text(in.URL)
	in.Content = normalize.Text(in.Content)
	in.AuthorID = normalize.Text(in.AuthorID)
	in.Credential = normalize.Text(in.Credential)
	if err := s.validator.Validate(in); err != nil {
		return nil, err
	}

	now := clock()
	rut = &domain.Rut{
		ID:         id.New(),
		Title:      in.Title,
		URL:        in.URL,
		Content:    in.Content,
		UName:      p.UName,
		AuthorID:   in.AuthorID,
		Credential: in.Credential,
		CreateAt:   now,
		RenewAt:    now,
	}
	if err := s.store.CreateRut(ctx, rut); err != nil {
		return nil, storeErr(err, "rut")
	}

	span.SetAttributes(attribute.String("rut.rut_id", rut.ID))
	s.search.IndexRut(rut)
	s.logger.Info("rut created", "rut_id", rut.ID, "uname", p.UName)
	return rut, nil
}

// Update edits a rut's descriptive fields and renews it.
func (s *RutService) Update(ctx context.Context, p domain.Principal, rutID string, patch RutPatch) (rut *domain.Rut, err error) {
	ctx, span := startSpan(ctx, "rut.update", p.UName, attribute.String("rut.rut_id", rutID))
	defer func() { endSpan(span, err) }()

	if err := s.validator.Validate(patch); err != nil {
		return nil, err
	}

	rut, err = s.store.GetRut(ctx, rutID)
	if err != nil {
		return nil, storeErr(err, "rut")
	}
	if err := requireOwner(rut.UName, p.UName, "rut"); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		rut.Title = normalize.Text(*patch.Title)
	}
	if patch.URL != nil {
		rut.URL = normalize.Text(*patch.URL)
	}
	if patch.Content != nil {
		rut.Content = normalize.Text(*patch.Content)
	}
	if patch.AuthorID != nil {
		rut.AuthorID = normalize.Text(*patch.AuthorID)
	}
	if patch.Credential != nil {
		rut.Credential = normalize.Text(*patch.Credential)
	}
	if err := s.validator.Var("title", rut.Title, "required,max=120"); err != nil {
		return nil, err
	}
	rut.RenewAt = clock()

	if err := s.store.UpdateRut(ctx, rut); err != nil {
		return nil, storeErr(err, "rut")
	}

	s.search.IndexRut(rut)
	s.logger.Info("rut updated", "rut_id", rut.ID, "uname", p.UName)
	return rut, nil
}

// Get returns a rut by id.
func (s *RutService) Get(ctx context.Context, rutID string) (*domain.Rut, error) {
	rut, err := s.store.GetRut(ctx, rutID)
	if err != nil {
		return nil, storeErr(err, "rut")
	}
	return rut, nil
}

// List runs a rut selector.
func (s *RutService) List(ctx context.Context, q store.RutQuery) ([]*domain.Rut, error) {
	ruts, err := s.store.ListRuts(ctx, q)
	if err != nil {
		return nil, storeErr(err, "rut")
	}
	return ruts, nil
}
