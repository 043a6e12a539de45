package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerRutRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "createRut",
		Method:        http.MethodPost,
		Path:          "/api/v1/ruts",
		Summary:       "Create rut",
		Description:   "Starts a new reading list owned by the caller",
		Tags:          []string{"Ruts"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRut",
		Method:      http.MethodGet,
		Path:        "/api/v1/ruts/{id}",
		Summary:     "Get rut",
		Tags:        []string{"Ruts"},
	}, s.handleGetRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRut",
		Method:      http.MethodPatch,
		Path:        "/api/v1/ruts/{id}",
		Summary:     "Update rut",
		Description: "Edits a rut. Only its creator may do so",
		Tags:        []string{"Ruts"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "listRuts",
		Method:      http.MethodGet,
		Path:        "/api/v1/ruts",
		Summary:     "List ruts",
		Description: "Lists ruts newest first, or selects them by user, item, tag or title",
		Tags:        []string{"Ruts"},
	}, s.handleListRuts)

	huma.Register(s.api, huma.Operation{
		OperationID:   "collectItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/ruts/{id}/collects",
		Summary:       "Collect item",
		Description:   "Appends an item to the rut with a tip",
		Tags:          []string{"Collects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCollect)
}

// CreateRutInput wraps a new rut for Huma.
type CreateRutInput struct {
	Body service.RutInput
}

// RutIDInput names one rut.
type RutIDInput struct {
	ID string `path:"id" doc:"Rut ID"`
}

// UpdateRutInput wraps a rut patch for Huma.
type UpdateRutInput struct {
	ID   string `path:"id" doc:"Rut ID"`
	Body service.RutPatch
}

// ListRutsInput selects ruts.
type ListRutsInput struct {
	By      string `query:"by" enum:"index,user,item,tag,title" doc:"Selector kind, index when omitted"`
	Q       string `query:"q" doc:"Selector argument"`
	Page    int    `query:"page" minimum:"0" doc:"1-based page"`
	Starred bool   `query:"starred" doc:"With by=user: ruts the user starred instead of created"`
}

// CollectInput wraps a new collect for Huma.
type CollectInput struct {
	ID   string `path:"id" doc:"Rut ID"`
	Body service.CollectInput
}

// RutOutput wraps one rut for Huma.
type RutOutput struct {
	Body *domain.Rut
}

// RutListOutput wraps a page of ruts for Huma.
type RutListOutput struct {
	Body []*domain.Rut
}

func (s *Server) handleCreateRut(ctx context.Context, input *CreateRutInput) (*RutOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	rut, err := s.services.Ruts.Create(ctx, p, input.Body)
	if err != nil {
		return nil, err
	}
	return &RutOutput{Body: rut}, nil
}

func (s *Server) handleGetRut(ctx context.Context, input *RutIDInput) (*RutOutput, error) {
	rut, err := s.services.Ruts.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &RutOutput{Body: rut}, nil
}

func (s *Server) handleUpdateRut(ctx context.Context, input *UpdateRutInput) (*RutOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	rut, err := s.services.Ruts.Update(ctx, p, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &RutOutput{Body: rut}, nil
}

func (s *Server) handleListRuts(ctx context.Context, input *ListRutsInput) (*RutListOutput, error) {
	q, err := rutQuery(SelectorParams{By: input.By, Q: input.Q, Page: input.Page}, input.Starred)
	if err != nil {
		return nil, err
	}

	ruts, err := s.services.Ruts.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &RutListOutput{Body: ruts}, nil
}

func (s *Server) handleCollect(ctx context.Context, input *CollectInput) (*CollectOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Collects.Collect(ctx, p, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &CollectOutput{Body: c}, nil
}
