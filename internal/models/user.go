package models

import "time"

// User is the account record held in the session store.
// PasswordHash and RefreshToken never leave the server.
type User struct {
	ID           int       `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Avatar       string    `db:"avatar" json:"avatar"`
	PasswordHash string    `db:"password_hash" json:"-"`
	RefreshToken string    `db:"refresh_token" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
