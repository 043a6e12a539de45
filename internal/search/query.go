package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders accepted by Params.SortBy.
const (
	SortRelevance = "relevance"
	SortPopular   = "popular"
	SortRecent    = "recent"
)

// MaxLimit caps Params.Limit.
const MaxLimit = 50

// Params configures a search query.
type Params struct {
	Query string
	Types []DocType // Empty means items and ruts

	Category string // Exact item category
	UName    string // Exact rut author

	Limit  int
	Offset int
	SortBy string

	Facets    bool
	Highlight bool
}

// DefaultParams returns relevance-sorted first-page params.
func DefaultParams() Params {
	return Params{
		Limit:     20,
		SortBy:    SortRelevance,
		Facets:    true,
		Highlight: true,
	}
}

// Result is one page of hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
}

// Hit is a single matching item or rut.
type Hit struct {
	ID         string            `json:"id"`
	Type       DocType           `json:"type"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Authors    string            `json:"authors,omitempty"`
	Category   string            `json:"category,omitempty"`
	UName      string            `json:"uname,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Facets counts hits by type and item category.
type Facets struct {
	Types      []FacetCount `json:"types,omitempty"`
	Categories []FacetCount `json:"categories,omitempty"`
}

// FacetCount is a facet value and how many hits carry it.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a query.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}
	params.Limit = min(params.Limit, MaxLimit)
	params.Offset = max(params.Offset, 0)

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)

	if params.Facets {
		req.AddFacet("type", bleve.NewFacetRequest("type", 5))
		req.AddFacet("category", bleve.NewFacetRequest("category", 20))
	}
	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
		req.Highlight.AddField("authors")
	}
	req.Fields = []string{"type", "name", "authors", "category", "uname"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = DocType(v)
		}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["authors"].(string); ok {
			hit.Authors = v
		}
		if v, ok := h.Fields["category"].(string); ok {
			hit.Category = v
		}
		if v, ok := h.Fields["uname"].(string); ok {
			hit.UName = v
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}

	if params.Facets {
		result.Facets = extractFacets(res)
	}

	return result, nil
}

// buildQuery ANDs the text match with the exact filters.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		authorsMatch := bleve.NewMatchQuery(q)
		authorsMatch.SetField("authors")
		authorsMatch.SetBoost(1.5)

		contentMatch := bleve.NewMatchQuery(q)
		contentMatch.SetField("content")
		contentMatch.SetBoost(0.5)

		// Exact isbn-style lookups.
		uiidTerm := bleve.NewTermQuery(q)
		uiidTerm.SetField("uiid")
		uiidTerm.SetBoost(5.0)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, authorsMatch, contentMatch, uiidTerm, fuzzy}

		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if params.Category != "" {
		cq := bleve.NewTermQuery(params.Category)
		cq.SetField("category")
		queries = append(queries, cq)
	}

	if params.UName != "" {
		uq := bleve.NewTermQuery(params.UName)
		uq.SetField("uname")
		queries = append(queries, uq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortPopular:
		req.SortBy([]string{"-popularity", "-_score"})
	case SortRecent:
		req.SortBy([]string{"-updated_at"})
	default:
		req.SortBy([]string{"-_score"})
	}
}

func extractFacets(res *bleve.SearchResult) Facets {
	var facets Facets
	if f, ok := res.Facets["type"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			facets.Types = append(facets.Types, FacetCount{Value: term.Term, Count: term.Count})
		}
	}
	if f, ok := res.Facets["category"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			facets.Categories = append(facets.Categories, FacetCount{Value: term.Term, Count: term.Count})
		}
	}
	return facets
}
