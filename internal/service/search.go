package service

import (
	"context"
	"log/slog"

	"github.com/rutapp/rut-server/internal/domain"
	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/search"
	"github.com/rutapp/rut-server/internal/store"
)

// SearchService keeps the full-text index in step with the store.
// A nil index disables search: index updates are skipped and queries fail
// with a validation error.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a search service. index may be nil.
func NewSearchService(index *search.Index, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{index: index, store: store, logger: logger}
}

// Enabled reports whether an index is attached.
func (s *SearchService) Enabled() bool {
	return s != nil && s.index != nil
}

// DocumentCount returns how many documents the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	if !s.Enabled() {
		return 0, domainerrors.Validation("search is disabled")
	}
	return s.index.Count()
}

// Search runs a query against the index.
func (s *SearchService) Search(ctx context.Context, params search.Params) (*search.Result, error) {
	if !s.Enabled() {
		return nil, domainerrors.Validation("search is disabled")
	}

	ctx, span := startSpan(ctx, "search.query", "")
	res, err := s.index.Search(ctx, params)
	endSpan(span, err)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search failed")
	}
	return res, nil
}

// IndexItem refreshes an item's document. Failures are logged, never
// returned: the store is authoritative and a reindex repairs the index.
func (s *SearchService) IndexItem(item *domain.Item) {
	if !s.Enabled() {
		return
	}
	if err := s.index.Put(search.ItemDocument(item)); err != nil {
		s.logger.Warn("failed to index item", "item_id", item.ID, "error", err)
	}
}

// IndexRut refreshes a rut's document.
func (s *SearchService) IndexRut(rut *domain.Rut) {
	if !s.Enabled() {
		return
	}
	if err := s.index.Put(search.RutDocument(rut)); err != nil {
		s.logger.Warn("failed to index rut", "rut_id", rut.ID, "error", err)
	}
}

// Reindex rebuilds the index from every stored item and rut.
// Returns the number of documents indexed.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if !s.Enabled() {
		return 0, domainerrors.Validation("search is disabled")
	}

	ctx, span := startSpan(ctx, "search.reindex", "")
	docs, err := s.collectDocuments(ctx)
	if err == nil {
		err = s.index.Rebuild(docs)
	}
	endSpan(span, err)
	if err != nil {
		return 0, err
	}

	s.logger.Info("search index rebuilt", "documents", len(docs))
	return len(docs), nil
}

func (s *SearchService) collectDocuments(ctx context.Context) ([]*search.Document, error) {
	var docs []*search.Document
	for item, err := range s.store.StreamItems(ctx) {
		if err != nil {
			return nil, storeErr(err, "item")
		}
		docs = append(docs, search.ItemDocument(item))
	}
	for rut, err := range s.store.StreamRuts(ctx) {
		if err != nil {
			return nil, storeErr(err, "rut")
		}
		docs = append(docs, search.RutDocument(rut))
	}
	return docs, nil
}
