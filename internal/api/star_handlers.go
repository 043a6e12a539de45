package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerStarRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	// Items
	huma.Register(s.api, huma.Operation{
		OperationID: "starItem",
		Method:      http.MethodPut,
		Path:        "/api/v1/items/{id}/star",
		Summary:     "Star item",
		Description: "Marks an item todo, doing or done for the caller. Repeating updates the flag, note and rate",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleStarItem)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unstarItem",
		Method:        http.MethodDelete,
		Path:          "/api/v1/items/{id}/star",
		Summary:       "Unstar item",
		Tags:          []string{"Stars"},
		Security:      bearer,
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnstarItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "itemStarStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}/star",
		Summary:     "Item star status",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleItemStarStatus)

	// Tags
	huma.Register(s.api, huma.Operation{
		OperationID: "starTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/tags/{name}/star",
		Summary:     "Star tag",
		Description: "Follows a tag. A user may follow a limited number of tags",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleStarTag)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unstarTag",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tags/{name}/star",
		Summary:       "Unstar tag",
		Tags:          []string{"Stars"},
		Security:      bearer,
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnstarTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagStarStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}/star",
		Summary:     "Tag star status",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleTagStarStatus)

	// Ruts
	huma.Register(s.api, huma.Operation{
		OperationID: "starRut",
		Method:      http.MethodPut,
		Path:        "/api/v1/ruts/{id}/star",
		Summary:     "Star rut",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleStarRut)

	huma.Register(s.api, huma.Operation{
		OperationID:   "unstarRut",
		Method:        http.MethodDelete,
		Path:          "/api/v1/ruts/{id}/star",
		Summary:       "Unstar rut",
		Tags:          []string{"Stars"},
		Security:      bearer,
		DefaultStatus: http.StatusNoContent,
	}, s.handleUnstarRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "rutStarStatus",
		Method:      http.MethodGet,
		Path:        "/api/v1/ruts/{id}/star",
		Summary:     "Rut star status",
		Tags:        []string{"Stars"},
		Security:    bearer,
	}, s.handleRutStarStatus)
}

// StarItemRequest wraps an item star for Huma.
type StarItemRequest struct {
	ID   string `path:"id" doc:"Item ID"`
	Body service.StarItemInput
}

// StarTagRequest wraps a tag star for Huma.
type StarTagRequest struct {
	Name string `path:"name" doc:"Tag name"`
	Body *service.StarNote
}

// StarRutRequest wraps a rut star for Huma.
type StarRutRequest struct {
	ID   string `path:"id" doc:"Rut ID"`
	Body *service.StarNote
}

// noteOf lets tag and rut stars be sent without a body.
func noteOf(n *service.StarNote) service.StarNote {
	if n == nil {
		return service.StarNote{}
	}
	return *n
}

// TagNameInput names one tag.
type TagNameInput struct {
	Name string `path:"name" doc:"Tag name"`
}

// StarStatusOutput wraps the caller's star on a target for Huma.
type StarStatusOutput struct {
	Body *service.StarStatus
}

func (s *Server) handleStarItem(ctx context.Context, input *StarItemRequest) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	star, err := s.services.Stars.StarItem(ctx, p, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: &service.StarStatus{
		Starred: true,
		Flag:    star.Flag,
		Note:    star.Note,
		Rate:    star.Rate,
		StarAt:  &star.StarAt,
	}}, nil
}

func (s *Server) handleUnstarItem(ctx context.Context, input *ItemIDInput) (*struct{}, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Stars.UnstarItem(ctx, p, input.ID)
}

func (s *Server) handleItemStarStatus(ctx context.Context, input *ItemIDInput) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.Stars.ItemStatus(ctx, p, input.ID)
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: status}, nil
}

func (s *Server) handleStarTag(ctx context.Context, input *StarTagRequest) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	star, err := s.services.Stars.StarTag(ctx, p, pathName(input.Name), noteOf(input.Body))
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: &service.StarStatus{Starred: true, Note: star.Note, StarAt: &star.StarAt}}, nil
}

func (s *Server) handleUnstarTag(ctx context.Context, input *TagNameInput) (*struct{}, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Stars.UnstarTag(ctx, p, pathName(input.Name))
}

func (s *Server) handleTagStarStatus(ctx context.Context, input *TagNameInput) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.Stars.TagStatus(ctx, p, pathName(input.Name))
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: status}, nil
}

func (s *Server) handleStarRut(ctx context.Context, input *StarRutRequest) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	star, err := s.services.Stars.StarRut(ctx, p, input.ID, noteOf(input.Body))
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: &service.StarStatus{Starred: true, Note: star.Note, StarAt: &star.StarAt}}, nil
}

func (s *Server) handleUnstarRut(ctx context.Context, input *RutIDInput) (*struct{}, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	return nil, s.services.Stars.UnstarRut(ctx, p, input.ID)
}

func (s *Server) handleRutStarStatus(ctx context.Context, input *RutIDInput) (*StarStatusOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	status, err := s.services.Stars.RutStatus(ctx, p, input.ID)
	if err != nil {
		return nil, err
	}
	return &StarStatusOutput{Body: status}, nil
}
