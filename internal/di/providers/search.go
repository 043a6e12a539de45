package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/rutapp/rut-server/internal/config"
	"github.com/rutapp/rut-server/internal/logger"
	"github.com/rutapp/rut-server/internal/search"
	"github.com/rutapp/rut-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
// Index is nil when search is disabled.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Info("Search index disabled by configuration")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.Open(search.Options{
		Dir:    cfg.Search.Path,
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.Count()
	log.Info("Search index initialized", "path", cfg.Search.Path, "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(indexHandle.Index, storeHandle.Store, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the store in the
// background. A fresh or rebuilt-for-new-mapping index starts empty.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !searchService.Enabled() {
		return
	}
	if docCount, err := searchService.DocumentCount(); err != nil || docCount > 0 {
		return
	}

	go func() {
		count, err := searchService.Reindex(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		if count > 0 {
			log.Info("Initial search reindex completed", "documents", count)
		}
	}()
}
