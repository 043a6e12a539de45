package domain

import "time"

// MaxRutItems is the hard cap on the number of items a rut may hold.
const MaxRutItems = 42

// MaxRutTitleLen bounds rut titles, urls and author ids.
const MaxRutTitleLen = 120

// Rut is a user-authored ordered collection of items.
type Rut struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	UName      string `json:"uname"`     // Author user name
	AuthorID   string `json:"author_id"` // Credited author when curating someone else's list
	Credential string `json:"credential"`
	Logo       string `json:"logo"` // Cover of the most recently collected item

	ItemCount    int `json:"item_count"`
	CommentCount int `json:"comment_count"`
	StarCount    int `json:"star_count"`

	CreateAt time.Time `json:"create_at"`
	RenewAt  time.Time `json:"renew_at"`
}

// IsFull reports whether the rut has reached MaxRutItems.
func (r *Rut) IsFull() bool {
	return r.ItemCount >= MaxRutItems
}

// Renew bumps RenewAt.
func (r *Rut) Renew() {
	r.RenewAt = time.Now()
}
