package models

import "time"

// Issue is a user-visible diagnostic raised by a flow, e.g. when a legacy
// import carries an invalid token. The ID is stable so repeated reports of
// the same problem collapse into one row.
type Issue struct {
	ID        string `gorm:"primaryKey"`
	Severity  string // "warning" or "error"
	Message   string
	CreatedAt time.Time
}
