package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/rutapp/rut-server/internal/domain"
	"github.com/rutapp/rut-server/internal/service"
)

func (s *Server) registerItemRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "submitItem",
		Method:        http.MethodPost,
		Path:          "/api/v1/items",
		Summary:       "Submit item",
		Description:   "Adds an item to the shared catalog. Duplicates by uiid or url are rejected with the existing item",
		Tags:          []string{"Items"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleSubmitItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "getItem",
		Method:      http.MethodGet,
		Path:        "/api/v1/items/{id}",
		Summary:     "Get item",
		Tags:        []string{"Items"},
	}, s.handleGetItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateItem",
		Method:      http.MethodPatch,
		Path:        "/api/v1/items/{id}",
		Summary:     "Update item",
		Description: "Edits catalog fields. Any signed-in user may edit an item",
		Tags:        []string{"Items"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateItem)

	huma.Register(s.api, huma.Operation{
		OperationID: "listItems",
		Method:      http.MethodGet,
		Path:        "/api/v1/items",
		Summary:     "List items",
		Description: "Selects items by id, uiid, title, url (base64), rut, tag, user or keyword",
		Tags:        []string{"Items"},
	}, s.handleListItems)
}

// SubmitItemInput wraps a new item for Huma.
type SubmitItemInput struct {
	Body service.ItemInput
}

// ItemIDInput names one item.
type ItemIDInput struct {
	ID string `path:"id" doc:"Item ID"`
}

// UpdateItemInput wraps an item patch for Huma.
type UpdateItemInput struct {
	ID   string `path:"id" doc:"Item ID"`
	Body service.ItemPatch
}

// ListItemsInput selects items.
type ListItemsInput struct {
	By     string `query:"by" enum:"id,uiid,title,url,rut,tag,user,key" doc:"Selector kind"`
	Q      string `query:"q" doc:"Selector argument"`
	Page   int    `query:"page" minimum:"0" doc:"1-based page; 0 returns the first few rows"`
	Flag   string `query:"flag" doc:"With by=user: todo, doing or done"`
	From   string `query:"from" enum:"user,tag" doc:"With by=key: scope keyword search to a user's stars or a tag"`
	Source string `query:"source" doc:"With from: the uname or tag name"`
}

// ItemOutput wraps one item for Huma.
type ItemOutput struct {
	Body *domain.Item
}

// ItemListOutput wraps a page of items for Huma.
type ItemListOutput struct {
	Body []*domain.Item
}

func (s *Server) handleSubmitItem(ctx context.Context, input *SubmitItemInput) (*ItemOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Items.Submit(ctx, p, input.Body)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleGetItem(ctx context.Context, input *ItemIDInput) (*ItemOutput, error) {
	item, err := s.services.Items.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleUpdateItem(ctx context.Context, input *UpdateItemInput) (*ItemOutput, error) {
	p, err := RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.services.Items.Update(ctx, p, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ItemOutput{Body: item}, nil
}

func (s *Server) handleListItems(ctx context.Context, input *ListItemsInput) (*ItemListOutput, error) {
	q, err := itemQuery(SelectorParams{By: input.By, Q: input.Q, Page: input.Page}, input.Flag, input.From, input.Source)
	if err != nil {
		return nil, err
	}

	items, err := s.services.Items.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &ItemListOutput{Body: items}, nil
}
