package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerTagRoutes() {
	bearer := []map[string][]string{{"bearer": {}}}

	huma.Register(s.api, huma.Operation{
		OperationID: "tagRut",
		Method:      http.MethodPost,
		Path:        "/api/v1/ruts/{id}/tags",
		Summary:     "Tag rut",
		Description: "Attaches tags to a rut, creating unknown tags. Each name is reported as done or failed",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleTagRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "untagRut",
		Method:      http.MethodDelete,
		Path:        "/api/v1/ruts/{id}/tags",
		Summary:     "Untag rut",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleUntagRut)

	huma.Register(s.api, huma.Operation{
		OperationID: "tagItem",
		Method:      http.MethodPost,
		Path:        "/api/v1/items/{id}/tags",
		Summary:     "Tag item",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleTagItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "untagItem",
		Method:      http.MethodDelete,
		Path:        "/api/v1/items/{id}/tags",
		Summary:     "Untag item",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleUntagItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags",
		Summary:     "List tags",
		Description: "Lists tags by vote, or selects them by rut, item, parent or starring user",
		Tags:        []string{"Tags"},
	}, s.handleListTags)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createTag",
		Method:        http.MethodPost,
		Path:          "/api/v1/tags",
		Summary:       "Create tag",
		Tags:          []string{"Tags"},
		Security:      bearer,
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Get tag",
		Tags:        []string{"Tags"},
	}, s.handleGetTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateTag",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tags/{name}",
		Summary:     "Update tag",
		Description: "Edits a tag's intro, logo or parent",
		Tags:        []string{"Tags"},
		Security:    bearer,
	}, s.handleUpdateTag)
}

// TagNamesInput wraps tag names for a rut or item.
type TagNamesInput struct {
	ID   string `path:"id" doc:"Rut or item ID"`
	Body service.TagNames
}

// TagReportOutput wraps a per-name tagging report for Huma.
type TagReportOutput struct {
	Body *service.TagReport
}

// ListTagsInput selects tags.
type ListTagsInput struct {
	By string `query:"by" enum:"index,rut,item,parent,user" doc:"Selector kind, index when omitted"`
	Q  string `query:"q" doc:"Rut ID, item ID, parent tag name or uname"`
}

// CreateTagInput wraps a new tag for Huma.
type CreateTagInput struct {
	Body service.TagInput
}

// UpdateTagInput wraps a tag patch for Huma.
type UpdateTagInput struct {
	Name string `path:"name" doc:"Tag name"`
	Body service.TagPatch
}

// TagOutput wraps one tag for Huma.
type TagOutput struct {
	Body *domain.Tag
}

// TagListOutput wraps a list of tags for Huma.
type TagListOutput struct {
	Body []*domain.Tag
}

func (s *Server) handleTagRut(ctx context.Context, input *TagNamesInput) (*TagReportOutput, error) {
	return s.tagging(ctx, input, s.services.Tags.TagRut)
}

func (s *Server) handleUntagRut(ctx context.Context, input *TagNamesInput) (*TagReportOutput, error) {
	return s.tagging(ctx, input, s.services.Tags.UntagRut)
}

func (s *Server) handleTagItem(ctx context.Context, input *TagNamesInput) (*TagReportOutput, error) {
	return s.tagging(ctx, input, s.services.Tags.TagItem)
}

func (s *Server) handleUntagItem(ctx context.Context, input *TagNamesInput) (*TagReportOutput, error) {
	return s.tagging(ctx, input, s.services.Tags.UntagItem)
}

type taggingFunc func(ctx context.Context, p domain.Principal, id string, names []string) (*service.TagReport, error)

func (s *Server) tagging(ctx context.Context, input *TagNamesInput, fn taggingFunc) (*TagReportOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	report, err := fn(ctx, p, input.ID, input.Body.Names)
	if err != nil {
		return nil, err
	}
	return &TagReportOutput{Body: report}, nil
}

func (s *Server) handleListTags(ctx context.Context, input *ListTagsInput) (*TagListOutput, error) {
	q, err := tagQuery(SelectorParams{By: input.By, Q: input.Q})
	if err != nil {
		return nil, err
	}

	tags, err := s.services.Tags.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &TagListOutput{Body: tags}, nil
}

func (s *Server) handleCreateTag(ctx context.Context, input *CreateTagInput) (*TagOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.CreateTag(ctx, p, input.Body)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleGetTag(ctx context.Context, input *TagNameInput) (*TagOutput, error) {
	tag, err := s.services.Tags.GetTag(ctx, pathName(input.Name))
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}

func (s *Server) handleUpdateTag(ctx context.Context, input *UpdateTagInput) (*TagOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	tag, err := s.services.Tags.UpdateTag(ctx, p, pathName(input.Name), input.Body)
	if err != nil {
		return nil, err
	}
	return &TagOutput{Body: tag}, nil
}
