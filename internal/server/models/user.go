// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is an account. PasswordHash is a bcrypt hash (salt and cost are
// embedded in it) and is never serialized.
type User struct {
	ID           string    `json:"id"`
	UserName     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
