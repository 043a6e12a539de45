package domain

import (
	"strings"
	"time"
)

// MaxStarredTags is how many tags a single user may star.
const MaxStarredTags = 42

// StarFlag is a user's engagement state for an item.
type StarFlag string

// Engagement states. Callers may jump to any state.
const (
	FlagTodo  StarFlag = "todo"
	FlagDoing StarFlag = "doing"
	FlagDone  StarFlag = "done"
)

// Valid reports whether f is a known flag.
func (f StarFlag) Valid() bool {
	switch f {
	case FlagTodo, FlagDoing, FlagDone:
		return true
	}
	return false
}

// ParseStarFlag parses a flag, accepting any letter case.
func ParseStarFlag(s string) (StarFlag, bool) {
	f := StarFlag(strings.ToLower(strings.TrimSpace(s)))
	return f, f.Valid()
}

// StarItem records one user's engagement with an item.
// DoneCounted is set once the item's DoneCount has been credited for this user.
type StarItem struct {
	ID          string    `json:"id"`
	UName       string    `json:"uname"`
	ItemID      string    `json:"item_id"`
	StarAt      time.Time `json:"star_at"`
	Note        string    `json:"note"`
	Flag        StarFlag  `json:"flag"`
	Rate        int       `json:"rate"`
	DoneCounted bool      `json:"-"`
}

// StarTag records that a user starred a tag.
type StarTag struct {
	ID     string    `json:"id"`
	UName  string    `json:"uname"`
	TName  string    `json:"tname"`
	StarAt time.Time `json:"star_at"`
	Note   string    `json:"note"`
}

// StarRut records that a user starred a rut.
type StarRut struct {
	ID     string    `json:"id"`
	UName  string    `json:"uname"`
	RutID  string    `json:"rut_id"`
	StarAt time.Time `json:"star_at"`
	Note   string    `json:"note"`
}
