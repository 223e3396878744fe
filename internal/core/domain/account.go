package domain

import "time"

// RoleUser is assigned when a signup does not name a role.
const RoleUser = "user"

// Account is one registered credential record.
type Account struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewAccount builds an Account from an already hashed password, applying the
// default role when none was requested.
func NewAccount(username, passwordHash, role string, now time.Time) *Account {
	if role == "" {
		role = RoleUser
	}
	return &Account{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now.UTC(),
	}
}
