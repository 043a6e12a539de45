package domain

import "time"

// User is an account that authors ruts and stars things.
// UName is unique and is how ownership is recorded on ruts and collects.
type User struct {
	ID           string    `json:"id"`
	UName        string    `json:"uname"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	Color        string    `json:"color"` // Placeholder avatar color derived from UName, not stored
	Intro        string    `json:"intro,omitempty"`
	JoinAt       time.Time `json:"join_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the verified identity attached to a request.
type Principal struct {
	UserID string
	UName  string
}
