// Package models holds the persistent records shared by the repositories and
// services. The bson tags describe the Mongo documents; Postgres
// repositories scan columns explicitly.
package models

import "time"

type User struct {
	ID           string     `bson:"_id" json:"id"`
	Username     string     `bson:"username" json:"username"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	FullName     string     `bson:"full_name" json:"full_name"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
	LastLogin    *time.Time `bson:"last_login,omitempty" json:"last_login,omitempty"`
}

// Identity is the authenticated principal attached to a request.
type Identity struct {
	SessionID string `json:"-"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
}
