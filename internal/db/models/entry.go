package models

import "time"

// Entry stores the credentials and channel options for one configured
// Twitch account.
type Entry struct {
	ID           string `gorm:"primaryKey"` // UUID
	UniqueID     string `gorm:"uniqueIndex"` // Twitch user ID
	Title        string
	AccessToken  string
	RefreshToken string // empty for imported static tokens
	ExpiresAt    time.Time
	Scopes       string // space-separated granted scopes
	Imported     bool   `gorm:"default:false"`
	Channels     string // JSON array of channel logins, order matters
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
