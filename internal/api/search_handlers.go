package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search",
		Description: "Full-text search across items and ruts",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching items and ruts.
type SearchInput struct {
	Query    string `query:"q" required:"true" minLength:"1" maxLength:"200" doc:"Search query"`
	Types    string `query:"types" maxLength:"20" doc:"Comma-separated types to search (item,rut). Omit for both."`
	Category string `query:"category" doc:"Restrict items to one category"`
	UName    string `query:"user" doc:"Restrict ruts to one creator"`
	Limit    int    `query:"limit" minimum:"0" maximum:"50" doc:"Max results (default 20)"`
	Offset   int    `query:"offset" minimum:"0" doc:"Pagination offset"`
	Sort     string `query:"sort" enum:"relevance,popular,recent" doc:"Result order"`
	Facets   bool   `query:"facets" doc:"Include type and category facets"`
}

// SearchOutput wraps the search result for Huma.
type SearchOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	params := search.DefaultParams()
	params.Query = input.Query
	params.Category = input.Category
	params.UName = input.UName
	params.Offset = input.Offset
	params.Facets = input.Facets
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	if input.Sort != "" {
		params.SortBy = input.Sort
	}

	if input.Types != "" {
		for t := range strings.SplitSeq(input.Types, ",") {
			switch search.DocType(strings.TrimSpace(t)) {
			case search.DocTypeItem:
				params.Types = append(params.Types, search.DocTypeItem)
			case search.DocTypeRut:
				params.Types = append(params.Types, search.DocTypeRut)
			default:
				return nil, domainerrors.Validationf("unknown search type %q", t)
			}
		}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	s.logger.Debug("search completed",
		"query", input.Query,
		"total", result.Total,
		"hits", len(result.Hits),
		"took_ms", result.TookMs,
	)
	return &SearchOutput{Body: result}, nil
}
