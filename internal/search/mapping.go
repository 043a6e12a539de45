package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for Documents.
// Titles and authors get English stemming; ids, types and unames match
// exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	text := func(field, analyzer string, store, vectors bool) {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = store
		fm.IncludeTermVectors = vectors
		docMapping.AddFieldMappingsAt(field, fm)
	}
	numeric := func(field string) {
		fm := bleve.NewNumericFieldMapping()
		fm.Store = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	text("name", en.AnalyzerName, true, true)
	text("authors", en.AnalyzerName, true, true)
	text("content", en.AnalyzerName, false, false)
	text("publisher", simple.Name, true, false)

	// Keyword fields: exact match, facetable.
	text("id", keyword.Name, false, false)
	text("type", keyword.Name, true, false)
	text("category", keyword.Name, true, false)
	text("uiid", keyword.Name, true, false)
	text("uname", keyword.Name, true, false)

	numeric("popularity")
	numeric("updated_at")

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
