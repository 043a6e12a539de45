package domain

import "time"

// Collect places an item into a rut at a 1-based position.
// Within a rut, ItemOrder values are dense: 1..rut.ItemCount.
type Collect struct {
	ID        string    `json:"id"`
	RutID     string    `json:"rut_id"`
	ItemID    string    `json:"item_id"`
	ItemOrder int       `json:"item_order"`
	Content   string    `json:"content"` // Curator's annotation
	UName     string    `json:"uname"`   // Owner
	CollectAt time.Time `json:"collect_at"`
}

// OwnedBy reports whether uname owns the collect.
func (c *Collect) OwnedBy(uname string) bool {
	return c.UName == uname
}
