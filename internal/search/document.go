// Package search provides full-text search over items and ruts using Bleve.
// The relational store stays authoritative; the index is rebuilt from it on
// demand and updated after successful writes.
package search

import (
	"github.com/rutapp/rut-server/internal/domain"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeItem DocType = "item"
	DocTypeRut  DocType = "rut"
)

// Document is the unified document structure for the Bleve index.
// Items and ruts share one index and are told apart by Type.
type Document struct {
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Item title or rut title.
	Name string `json:"name"`

	// Item-specific fields.
	Authors   string `json:"authors,omitempty"`
	Publisher string `json:"publisher,omitempty"`
	Category  string `json:"category,omitempty"`
	UIID      string `json:"uiid,omitempty"`

	// Rut-specific fields.
	Content string `json:"content,omitempty"`
	UName   string `json:"uname,omitempty"`

	// Item rut_count or rut star_count, used as a tiebreaker for sorting.
	Popularity int `json:"popularity,omitempty"`

	// Unix millis.
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"updated_at": d.UpdatedAt,
	}

	if d.Authors != "" {
		m["authors"] = d.Authors
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.Category != "" {
		m["category"] = d.Category
	}
	if d.UIID != "" {
		m["uiid"] = d.UIID
	}
	if d.Content != "" {
		m["content"] = d.Content
	}
	if d.UName != "" {
		m["uname"] = d.UName
	}
	if d.Popularity > 0 {
		m["popularity"] = d.Popularity
	}

	return m
}

// ItemDocument converts an item to a Document.
func ItemDocument(item *domain.Item) *Document {
	return &Document{
		ID:         item.ID,
		Type:       DocTypeItem,
		Name:       item.Title,
		Authors:    item.Authors,
		Publisher:  item.Publisher,
		Category:   item.Category,
		UIID:       item.UIID,
		Popularity: item.RutCount,
		UpdatedAt:  item.UpdatedAt.UnixMilli(),
	}
}

// RutDocument converts a rut to a Document.
func RutDocument(rut *domain.Rut) *Document {
	return &Document{
		ID:         rut.ID,
		Type:       DocTypeRut,
		Name:       rut.Title,
		Content:    rut.Content,
		UName:      rut.UName,
		Popularity: rut.StarCount,
		UpdatedAt:  rut.RenewAt.UnixMilli(),
	}
}
