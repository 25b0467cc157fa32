package model

import (
	"time"
)

type User struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Name      *string   `db:"name" json:"name"` // Optional, null until provided
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Principal is the authenticated caller as carried by a bearer token.
// It may exist without a matching User row.
type Principal struct {
	ID    string
	Email string
	Name  string
}
