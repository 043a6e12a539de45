package search

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
)

// Index wraps a Bleve index with item and rut operations.
// All methods are safe for concurrent use; Rebuild takes the write lock.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	Dir    string // Directory holding the index and its version file
	Logger *slog.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes. A mismatch on
// startup discards the stored index.
const mappingVersion = "1"

// batchSize bounds how many documents go into one Bleve batch.
const batchSize = 500

// Open creates or opens the index under opts.Dir.
// A corrupt index or one built with another mapping version is removed and
// recreated empty; callers reindex from the store afterwards.
func Open(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create search dir: %w", err)
	}

	indexPath := filepath.Join(opts.Dir, "rut.bleve")
	versionPath := filepath.Join(opts.Dir, "rut.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, rebuilding", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			logger.Info("search index mapping version changed, rebuilding",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Put indexes or replaces a single document.
func (s *Index) Put(doc *Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Index(doc.ID, doc.ToMap())
}

// PutAll indexes documents in chunks of batchSize.
func (s *Index) PutAll(docs []*Document) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.putAll(docs)
}

func (s *Index) putAll(docs []*Document) error {
	for i := 0; i < len(docs); i += batchSize {
		end := min(i+batchSize, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// Delete removes a document from the index.
func (s *Index) Delete(id string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(id)
}

// Count returns the total number of indexed documents.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index, recreates it empty and loads docs.
// Searches block until it returns.
func (s *Index) Rebuild(docs []*Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if err := s.putAll(docs); err != nil {
		return err
	}

	s.logger.Info("rebuilt search index", "path", s.path, "documents", len(docs))
	return nil
}
