package domain

import "time"

// Field limits for submitted items.
const (
	MaxTitleLen    = 256
	MaxURLLen      = 256
	MaxUIIDLen     = 32
	MaxCategoryLen = 16
	MaxShortLen    = 64
)

// Item is a catalog entry that users collect into ruts.
// At most one item exists per non-empty UIID and per non-empty URL.
type Item struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UIID      string `json:"uiid"` // External id such as an ISBN
	Authors   string `json:"authors"`
	PubAt     string `json:"pub_at"`
	Publisher string `json:"publisher"`
	Category  string `json:"category"`
	URL       string `json:"url"`
	Cover     string `json:"cover"`
	Edition   string `json:"edition"`
	Detail    string `json:"detail"` // Markdown

	RutCount  int `json:"rut_count"`  // Collects referencing this item across all ruts
	EtcCount  int `json:"etc_count"`  // Reserved for annotations
	DoneCount int `json:"done_count"` // Users who marked the item done
	Vote      int `json:"vote"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Item) Touch() {
	i.UpdatedAt = time.Now()
}
