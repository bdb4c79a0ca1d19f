// Package models holds the end-user session record.
package models

import "time"

// Session binds an opaque cookie token to a logged-in user.
type Session struct {
	Token     string
	UserID    string
	CreatedAt time.Time
}
