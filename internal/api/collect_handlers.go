package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/domain"
)

func (s *Server) registerCollectRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getCollect",
		Method:      http.MethodGet,
		Path:        "/api/v1/collects/{id}",
		Summary:     "Get collect",
		Tags:        []string{"Collects"},
	}, s.handleGetCollect)

	huma.Register(s.api, huma.Operation{
		OperationID: "listCollects",
		Method:      http.MethodGet,
		Path:        "/api/v1/collects",
		Summary:     "List collects",
		Description: "Selects collects by rut (in list order), item or user",
		Tags:        []string{"Collects"},
	}, s.handleListCollects)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateCollect",
		Method:      http.MethodPatch,
		Path:        "/api/v1/collects/{id}",
		Summary:     "Update collect",
		Description: "Rewrites the tip on a collect. Only the user who made the collect may do so",
		Tags:        []string{"Collects"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateCollect)

	huma.Register(s.api, huma.Operation{
		OperationID:   "uncollect",
		Method:        http.MethodDelete,
		Path:          "/api/v1/collects/{id}",
		Summary:       "Uncollect",
		Description:   "Removes an item from its rut and closes the gap in list order",
		Tags:          []string{"Collects"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleUncollect)
}

// CollectIDInput names one collect.
type CollectIDInput struct {
	ID string `path:"id" doc:"Collect ID"`
}

// CollectPatch is the editable part of a collect.
type CollectPatch struct {
	Content string `json:"content" maxLength:"4096" doc:"Tip text"`
}

// UpdateCollectInput wraps a collect patch for Huma.
type UpdateCollectInput struct {
	ID   string `path:"id" doc:"Collect ID"`
	Body CollectPatch
}

// ListCollectsInput selects collects.
type ListCollectsInput struct {
	By   string `query:"by" enum:"rut,item,user" required:"true" doc:"Selector kind"`
	Q    string `query:"q" doc:"Rut ID, item ID or uname"`
	Page int    `query:"page" minimum:"0" doc:"1-based page"`
}

// CollectOutput wraps one collect for Huma.
type CollectOutput struct {
	Body *domain.Collect
}

// CollectListOutput wraps a page of collects for Huma.
type CollectListOutput struct {
	Body []*domain.Collect
}

func (s *Server) handleGetCollect(ctx context.Context, input *CollectIDInput) (*CollectOutput, error) {
	c, err := s.services.Collects.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &CollectOutput{Body: c}, nil
}

func (s *Server) handleListCollects(ctx context.Context, input *ListCollectsInput) (*CollectListOutput, error) {
	q, err := collectQuery(SelectorParams{By: input.By, Q: input.Q, Page: input.Page})
	if err != nil {
		return nil, err
	}

	collects, err := s.services.Collects.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &CollectListOutput{Body: collects}, nil
}

func (s *Server) handleUpdateCollect(ctx context.Context, input *UpdateCollectInput) (*CollectOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	c, err := s.services.Collects.UpdateCollect(ctx, p, input.ID, input.Body.Content)
	if err != nil {
		return nil, err
	}
	return &CollectOutput{Body: c}, nil
}

func (s *Server) handleUncollect(ctx context.Context, input *CollectIDInput) (*struct{}, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Collects.Uncollect(ctx, p, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
