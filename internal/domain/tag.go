package domain

// MaxTagNameLen bounds tag names after normalization.
const MaxTagNameLen = 64

// Tag is a label applied to ruts and items. The name is the identity.
// Vote is derived: RutCount*2 + StarCount.
type Tag struct {
	TName string `json:"tname"`
	Intro string `json:"intro"`
	Logo  string `json:"logo"`
	PName string `json:"pname"` // Parent tag name, not checked for cycles

	ItemCount int `json:"item_count"`
	RutCount  int `json:"rut_count"`
	EtcCount  int `json:"etc_count"`
	StarCount int `json:"star_count"`
	Vote      int `json:"vote"`
}

// TagVote computes the popularity score of a tag.
func TagVote(rutCount, starCount int) int {
	return rutCount*2 + starCount
}

// TagRut associates a tag with a rut. Count is how often the tag was applied.
type TagRut struct {
	ID    string `json:"id"`
	TName string `json:"tname"`
	RutID string `json:"rut_id"`
	Count int    `json:"count"`
}

// TagItem associates a tag with an item. Count is how often the tag was applied.
type TagItem struct {
	ID     string `json:"id"`
	TName  string `json:"tname"`
	ItemID string `json:"item_id"`
	Count  int    `json:"count"`
}
