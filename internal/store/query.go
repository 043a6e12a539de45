package store

import "github.com/rutapp/rut-server/internal/domain"

// Selectors are closed sets: each query interface is implemented only by the
// struct types in this file, one per lookup kind.

// ItemQuery selects items.
type ItemQuery interface{ itemQuery() }

// ItemByID matches a single item by id.
type ItemByID struct{ ID string }

// ItemsByUIID fuzzy matches the external id.
type ItemsByUIID struct{ Pattern string }

// ItemsByTitle fuzzy matches the title.
type ItemsByTitle struct{ Pattern string }

// ItemsByURL fuzzy matches the url.
type ItemsByURL struct{ Pattern string }

// ItemsInRut lists a rut's items in collect order.
type ItemsInRut struct{ RutID string }

// ItemsWithTag lists items tagged with TName, most applied first.
type ItemsWithTag struct {
	TName string
	Page  int
}

// ItemsStarredBy lists items a user starred with the given flag.
// An empty Flag matches every flag.
type ItemsStarredBy struct {
	UName string
	Flag  domain.StarFlag
	Page  int
}

// KeywordSource narrows a keyword search.
type KeywordSource string

// Keyword sources.
const (
	FromNone KeywordSource = ""
	FromUser KeywordSource = "user"
	FromTag  KeywordSource = "tag"
)

// ItemsByKeyword matches Keyword against titles, optionally restricted to
// the items a user starred or the items carrying a tag.
type ItemsByKeyword struct {
	Keyword  string
	From     KeywordSource
	SourceID string // uname or tag name
	Page     int
}

func (ItemByID) itemQuery()       {}
func (ItemsByUIID) itemQuery()    {}
func (ItemsByTitle) itemQuery()   {}
func (ItemsByURL) itemQuery()     {}
func (ItemsInRut) itemQuery()     {}
func (ItemsWithTag) itemQuery()   {}
func (ItemsStarredBy) itemQuery() {}
func (ItemsByKeyword) itemQuery() {}

// RutQuery selects ruts.
type RutQuery interface{ rutQuery() }

// RutsIndex lists all ruts, most recently renewed first.
type RutsIndex struct{ Page int }

// RutsByUser lists ruts a user created, or starred when Starred is set.
type RutsByUser struct {
	UName   string
	Starred bool
	Page    int
}

// RutsWithItem lists ruts that collect an item.
type RutsWithItem struct {
	ItemID string
	Page   int
}

// RutsWithTag lists ruts carrying a tag, most applied first.
type RutsWithTag struct {
	TName string
	Page  int
}

// RutsByTitle fuzzy matches the title.
type RutsByTitle struct{ Pattern string }

func (RutsIndex) rutQuery()    {}
func (RutsByUser) rutQuery()   {}
func (RutsWithItem) rutQuery() {}
func (RutsWithTag) rutQuery()  {}
func (RutsByTitle) rutQuery()  {}

// CollectQuery selects collects.
type CollectQuery interface{ collectQuery() }

// CollectsInRut lists every collect of a rut by item order.
type CollectsInRut struct{ RutID string }

// CollectsOfItem lists the collects referencing an item, newest first.
type CollectsOfItem struct {
	ItemID string
	Page   int
}

// CollectsByUser lists a user's collects, newest first.
type CollectsByUser struct {
	UName string
	Page  int
}

func (CollectsInRut) collectQuery()  {}
func (CollectsOfItem) collectQuery() {}
func (CollectsByUser) collectQuery() {}

// TagQuery selects tags.
type TagQuery interface{ tagQuery() }

// TagsIndex lists the most voted tags.
type TagsIndex struct{}

// TagsOnRut lists a rut's tags, most applied first.
type TagsOnRut struct{ RutID string }

// TagsOnItem lists an item's tags, most applied first.
type TagsOnItem struct{ ItemID string }

// TagsUnder lists the children of a parent tag by vote.
type TagsUnder struct{ PName string }

// TagsStarredBy lists the tags a user starred.
type TagsStarredBy struct{ UName string }

func (TagsIndex) tagQuery()     {}
func (TagsOnRut) tagQuery()     {}
func (TagsOnItem) tagQuery()    {}
func (TagsUnder) tagQuery()     {}
func (TagsStarredBy) tagQuery() {}

// Result caps for tag lists.
const (
	TagsIndexLimit = 16
	TagsOnLimit    = 10
	TagsUnderLimit = 42
)
